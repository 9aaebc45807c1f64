package conversation

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/technologic-ai/technologic/internal/domain"
	"github.com/technologic-ai/technologic/internal/repository"
)

const untitledName = "New Conversation"

// Store owns a single conversation aggregate. Every mutation builds a
// new immutable Conversation value, persists it through the injected
// repository, then swaps the in-memory snapshot. Reads within a
// session always come from the snapshot, never back from the store.
type Store struct {
	repo repository.Repository

	mu   sync.Mutex
	conv *domain.Conversation

	turnMu   sync.Mutex
	inFlight bool
}

// NewStore returns a store with no conversation yet; the aggregate is
// created lazily on the first AddMessage.
func NewStore(repo repository.Repository) *Store {
	return &Store{repo: repo}
}

// Open loads an existing conversation from the repository.
func Open(ctx context.Context, repo repository.Repository, id string) (*Store, error) {
	conv, err := repo.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	if conv == nil {
		return nil, domain.ErrNoConversation
	}
	return &Store{repo: repo, conv: conv}, nil
}

// Snapshot returns the current immutable conversation value, or nil
// when no message has been added yet.
func (s *Store) Snapshot() *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// Thread derives the active branch from the current snapshot.
func (s *Store) Thread() domain.MessageThread {
	return domain.DeriveThread(s.Snapshot())
}

// History derives the linear message sequence sent to a backend.
func (s *Store) History() []domain.Message {
	return domain.DeriveHistory(s.Snapshot())
}

// BeginTurn marks a streaming turn as in flight. It reports false when
// another turn is already running; only one turn per conversation may
// stream at a time.
func (s *Store) BeginTurn() bool {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

// EndTurn releases the in-flight marker.
func (s *Store) EndTurn() {
	s.turnMu.Lock()
	s.inFlight = false
	s.turnMu.Unlock()
}

// AddMessage appends a message to the graph and makes it the active
// leaf. With a nil parent the message continues the current branch;
// with an explicit parent it starts a sibling branch at that point.
// The first message creates the conversation itself, untitled.
func (s *Store) AddMessage(ctx context.Context, msg domain.Message, source *domain.MessageSource, isStreaming bool, parentID *string) (domain.MessageContainer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.conv
	if conv == nil {
		conv = &domain.Conversation{
			ID:         uuid.NewString(),
			Title:      untitledName,
			IsUntitled: true,
			Messages:   map[string]domain.MessageContainer{},
		}
	}

	if parentID == nil {
		parentID = conv.LastMessageID
	} else if _, ok := conv.Messages[*parentID]; !ok {
		return domain.MessageContainer{}, &domain.GraphInvariantError{Op: "addMessage", MessageID: *parentID}
	}

	container := domain.MessageContainer{
		ID:          strconv.Itoa(conv.NextMessageID),
		Message:     msg,
		IsStreaming: isStreaming,
		Source:      source,
	}

	next := s.cloneWith(conv, func(c *domain.Conversation) {
		c.Messages[container.ID] = container
		c.Graph = append(c.Graph, domain.Link{From: parentID, To: container.ID})
		c.LastMessageID = &container.ID
		c.NextMessageID = conv.NextMessageID + 1
	})

	if err := s.persist(ctx, next); err != nil {
		return domain.MessageContainer{}, err
	}
	return container, nil
}

// ReplaceMessage overwrites the container stored under orig's id. The
// graph and the active leaf are untouched; this is how streaming
// appends and post-hoc edits land.
func (s *Store) ReplaceMessage(ctx context.Context, orig domain.MessageContainer, updated domain.MessageContainer) (domain.MessageContainer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return domain.MessageContainer{}, domain.ErrNoConversation
	}
	if _, ok := s.conv.Messages[orig.ID]; !ok {
		return domain.MessageContainer{}, &domain.GraphInvariantError{Op: "replaceMessage", MessageID: orig.ID}
	}

	updated.ID = orig.ID
	next := s.cloneWith(s.conv, func(c *domain.Conversation) {
		c.Messages[updated.ID] = updated
	})

	if err := s.persist(ctx, next); err != nil {
		return domain.MessageContainer{}, err
	}
	return updated, nil
}

// DeleteMessage removes a message and splices its children onto its
// former parent, so every surviving branch stays connected. When the
// active leaf is deleted the pointer moves to the former parent.
func (s *Store) DeleteMessage(ctx context.Context, orig domain.MessageContainer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return domain.ErrNoConversation
	}
	if _, ok := s.conv.Messages[orig.ID]; !ok {
		return &domain.GraphInvariantError{Op: "deleteMessage", MessageID: orig.ID}
	}

	var parent *string
	for _, l := range s.conv.Graph {
		if l.To == orig.ID {
			parent = l.From
			break
		}
	}

	next := s.cloneWith(s.conv, func(c *domain.Conversation) {
		delete(c.Messages, orig.ID)

		graph := make([]domain.Link, 0, len(c.Graph))
		for _, l := range c.Graph {
			switch {
			case l.To == orig.ID:
				// drop the incoming edge
			case l.From != nil && *l.From == orig.ID:
				graph = append(graph, domain.Link{From: parent, To: l.To})
			default:
				graph = append(graph, l)
			}
		}
		c.Graph = graph

		if c.LastMessageID != nil && *c.LastMessageID == orig.ID {
			c.LastMessageID = parent
		}
	})

	return s.persist(ctx, next)
}

// SelectThreadThrough repoints the active branch through the given
// message, descending first children until it reaches a leaf. The
// first matching link in graph order wins, so the walk is
// deterministic by insertion order.
func (s *Store) SelectThreadThrough(ctx context.Context, container domain.MessageContainer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return domain.ErrNoConversation
	}
	if _, ok := s.conv.Messages[container.ID]; !ok {
		return &domain.GraphInvariantError{Op: "selectThreadThrough", MessageID: container.ID}
	}

	leaf := container.ID
	for {
		child := ""
		for _, l := range s.conv.Graph {
			if l.From != nil && *l.From == leaf {
				child = l.To
				break
			}
		}
		if child == "" {
			break
		}
		leaf = child
	}

	next := s.cloneWith(s.conv, func(c *domain.Conversation) {
		c.LastMessageID = &leaf
	})
	return s.persist(ctx, next)
}

// SetLastMessageID repoints the active branch directly, without
// walking to a leaf.
func (s *Store) SetLastMessageID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return domain.ErrNoConversation
	}
	if _, ok := s.conv.Messages[id]; !ok {
		return &domain.GraphInvariantError{Op: "setLastMessageId", MessageID: id}
	}

	next := s.cloneWith(s.conv, func(c *domain.Conversation) {
		c.LastMessageID = &id
	})
	return s.persist(ctx, next)
}

// Rename sets the title and clears the untitled flag. Renaming before
// any message exists creates an empty conversation carrying the title.
func (s *Store) Rename(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.conv
	if conv == nil {
		conv = &domain.Conversation{
			ID:       uuid.NewString(),
			Messages: map[string]domain.MessageContainer{},
		}
	}

	next := s.cloneWith(conv, func(c *domain.Conversation) {
		c.Title = title
		c.IsUntitled = false
	})
	return s.persist(ctx, next)
}

// MarkFailed flips a container into the failed terminal state: no
// longer streaming, flagged so callers can surface the error instead
// of showing a perpetually pending reply.
func (s *Store) MarkFailed(ctx context.Context, orig domain.MessageContainer) (domain.MessageContainer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return domain.MessageContainer{}, domain.ErrNoConversation
	}
	current, ok := s.conv.Messages[orig.ID]
	if !ok {
		return domain.MessageContainer{}, &domain.GraphInvariantError{Op: "markFailed", MessageID: orig.ID}
	}

	current.IsStreaming = false
	current.Failed = true
	next := s.cloneWith(s.conv, func(c *domain.Conversation) {
		c.Messages[current.ID] = current
	})

	if err := s.persist(ctx, next); err != nil {
		return domain.MessageContainer{}, err
	}
	return current, nil
}

// cloneWith copies the conversation (messages map included) and applies
// mutate to the copy. The original snapshot is never touched.
func (s *Store) cloneWith(conv *domain.Conversation, mutate func(*domain.Conversation)) *domain.Conversation {
	next := *conv
	next.Messages = make(map[string]domain.MessageContainer, len(conv.Messages)+1)
	for id, m := range conv.Messages {
		next.Messages[id] = m
	}
	next.Graph = make([]domain.Link, len(conv.Graph), len(conv.Graph)+1)
	copy(next.Graph, conv.Graph)
	mutate(&next)
	return &next
}

// persist writes the new snapshot and swaps it in. The caller holds mu,
// so deltas of one streaming turn apply strictly in arrival order.
func (s *Store) persist(ctx context.Context, next *domain.Conversation) error {
	if err := s.repo.SetItem(ctx, next.ID, next); err != nil {
		return fmt.Errorf("failed to persist conversation %s: %w", next.ID, err)
	}
	s.conv = next
	return nil
}
