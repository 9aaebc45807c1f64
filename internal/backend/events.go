package backend

// eventKind is the closed set of normalized streaming events. Every
// provider's wire frames map onto these three before the streaming
// loop sees them.
type eventKind int

const (
	// eventStart marks a frame announcing the turn with no content yet.
	// Forwarded as an empty non-terminal delta.
	eventStart eventKind = iota
	// eventDelta carries a text fragment.
	eventDelta
	// eventStop terminates the stream.
	eventStop
	// eventSkip is dropped without a callback (pings, usage frames).
	eventSkip
)

type streamEvent struct {
	kind eventKind
	text string
}
