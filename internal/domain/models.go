package domain

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// ContentPart is one element of a message body. Text parts carry the
// text directly; image parts carry a reference, never the bytes.
type ContentPart struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

// Message is immutable once constructed. Edits replace the whole value.
type Message struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`
}

func NewTextMessage(role Role, text string) Message {
	return Message{
		Role:  role,
		Parts: []ContentPart{{Type: PartText, Text: text}},
	}
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// AppendText returns a new message whose final text part has s appended.
// The receiver is left untouched.
func (m Message) AppendText(s string) Message {
	parts := make([]ContentPart, len(m.Parts))
	copy(parts, m.Parts)
	if n := len(parts); n > 0 && parts[n-1].Type == PartText {
		parts[n-1] = ContentPart{Type: PartText, Text: parts[n-1].Text + s}
	} else {
		parts = append(parts, ContentPart{Type: PartText, Text: s})
	}
	return Message{Role: m.Role, Parts: parts}
}

// MessageSource records which backend and model produced a message.
type MessageSource struct {
	Backend string `json:"backend"`
	Model   string `json:"model"`
}

// MessageContainer wraps a message inside a conversation. The id is a
// monotonic counter rendered as a string, unique within its conversation.
type MessageContainer struct {
	ID          string         `json:"id"`
	Message     Message        `json:"message"`
	IsStreaming bool           `json:"isStreaming"`
	Failed      bool           `json:"failed,omitempty"`
	Source      *MessageSource `json:"source,omitempty"`
}

// Link is one edge of the conversation graph. A nil From marks a root.
type Link struct {
	From *string `json:"from,omitempty"`
	To   string  `json:"to"`
}

// Conversation is the aggregate the graph store operates on. Values are
// treated as immutable snapshots: mutations build a new Conversation.
//
// Invariants: every Link.To has an entry in Messages; LastMessageID, if
// set, references an existing message; each message has at most one
// parent. NextMessageID only ever grows, so ids stay unique across
// deletions.
type Conversation struct {
	ID            string                      `json:"id"`
	Title         string                      `json:"title"`
	IsUntitled    bool                        `json:"isUntitled"`
	Messages      map[string]MessageContainer `json:"messages"`
	Graph         []Link                      `json:"graph"`
	LastMessageID *string                     `json:"lastMessageId,omitempty"`
	NextMessageID int                         `json:"nextMessageId"`
}

// ConversationStub is the listing form of a conversation.
type ConversationStub struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ThreadEntry is one step of the active branch: the selected message
// plus every sibling available at that branch point.
type ThreadEntry struct {
	Self       string
	MessageIDs []string
}

// MessageThread is the derived linear view of the active branch,
// ordered root first.
type MessageThread struct {
	Entries []ThreadEntry
}

// Folder is a node of the conversation folder tree.
type Folder struct {
	Name          string    `json:"name"`
	Folders       []*Folder `json:"folders"`
	Conversations []string  `json:"conversations"`
}

// BackendConfiguration is read-only reference data describing one
// configured provider endpoint.
type BackendConfiguration struct {
	API          string   `json:"api" mapstructure:"api"`
	Name         string   `json:"name" mapstructure:"name"`
	URL          string   `json:"url" mapstructure:"url"`
	Token        string   `json:"token,omitempty" mapstructure:"token"`
	Models       []string `json:"models" mapstructure:"models"`
	DefaultModel string   `json:"defaultModel" mapstructure:"defaultModel"`
}
