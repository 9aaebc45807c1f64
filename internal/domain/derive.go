package domain

// parentOf finds the parent of id, or nil for a root. The graph keeps
// at most one incoming edge per message.
func parentOf(c *Conversation, id string) *string {
	for _, l := range c.Graph {
		if l.To == id {
			return l.From
		}
	}
	return nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeriveThread walks parent links from LastMessageID back to a root and
// returns the active branch, root first. Each entry carries the sibling
// set at that branch point in graph insertion order. Pure function over
// a snapshot; callers recompute whenever the snapshot changes.
func DeriveThread(c *Conversation) MessageThread {
	var entries []ThreadEntry
	if c == nil || c.LastMessageID == nil {
		return MessageThread{}
	}

	current := c.LastMessageID
	for current != nil {
		parent := parentOf(c, *current)
		var siblings []string
		for _, l := range c.Graph {
			if sameParent(l.From, parent) {
				siblings = append(siblings, l.To)
			}
		}
		entries = append([]ThreadEntry{{Self: *current, MessageIDs: siblings}}, entries...)
		current = parent
	}

	return MessageThread{Entries: entries}
}

// DeriveHistory resolves the active thread to its messages, in order.
// This is the linear view a backend receives.
func DeriveHistory(c *Conversation) []Message {
	thread := DeriveThread(c)
	history := make([]Message, 0, len(thread.Entries))
	for _, entry := range thread.Entries {
		if container, ok := c.Messages[entry.Self]; ok {
			history = append(history, container.Message)
		}
	}
	return history
}
