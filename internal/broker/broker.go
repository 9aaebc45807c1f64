// Package broker orchestrates one conversation turn: history in,
// streamed deltas applied to the graph, title generated at the end.
package broker

import (
	"context"
	"log/slog"

	"github.com/technologic-ai/technologic/internal/backend"
	"github.com/technologic-ai/technologic/internal/conversation"
	"github.com/technologic-ai/technologic/internal/domain"
)

// ToolHandle executes one chosen tool invocation. A nil message result
// means the tool produced nothing worth injecting.
type ToolHandle interface {
	Execute(ctx context.Context) (*domain.Message, error)
}

// ToolRunner is the optional tool-invocation collaborator. ChooseTool
// may return (nil, nil) when no tool applies.
type ToolRunner interface {
	ChooseTool(ctx context.Context, history []domain.Message) (ToolHandle, error)
}

// Broker drives turns against a single backend. It owns no
// conversation state; each call operates on the store it is given.
type Broker struct {
	backend  backend.Backend
	tools    ToolRunner
	logger   *slog.Logger
	listener func(text string, done bool)
}

type Option func(*Broker)

// WithToolRunner attaches the tool collaborator consulted before each
// model call.
func WithToolRunner(tr ToolRunner) Option {
	return func(b *Broker) { b.tools = tr }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Broker) { b.logger = logger }
}

// WithDeltaListener registers a callback observing each applied delta,
// after it has been persisted. Display-side consumers hang off this.
func WithDeltaListener(fn func(text string, done bool)) Option {
	return func(b *Broker) { b.listener = fn }
}

func New(be backend.Backend, opts ...Option) *Broker {
	b := &Broker{backend: be, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GenerateAnswer runs one turn: it reads the linear history (the user
// message is already in the graph), creates a streaming placeholder
// parented at the current leaf, applies each delta in arrival order,
// finalizes the container, and titles the conversation if it is still
// untitled. On a failed adapter call the placeholder is marked failed
// so it never sticks in a streaming state; no retry is attempted.
//
// Only one turn per conversation may run at a time; a concurrent call
// returns domain.ErrTurnInFlight.
func (b *Broker) GenerateAnswer(ctx context.Context, store *conversation.Store) (domain.MessageContainer, error) {
	if !store.BeginTurn() {
		return domain.MessageContainer{}, domain.ErrTurnInFlight
	}
	defer store.EndTurn()

	history := store.History()
	history = b.runToolStep(ctx, history)

	source := &domain.MessageSource{Backend: b.backend.Name(), Model: b.backend.Model()}
	placeholder, err := store.AddMessage(ctx, domain.NewTextMessage(domain.RoleAssistant, ""), source, true, nil)
	if err != nil {
		return domain.MessageContainer{}, err
	}

	// Each replace persists before the next delta is processed, so
	// fragments land strictly in arrival order.
	err = b.backend.SendMessageAndStream(ctx, history, func(text string, done bool) error {
		updated := placeholder
		updated.Message = placeholder.Message.AppendText(text)
		updated.IsStreaming = !done

		replaced, replaceErr := store.ReplaceMessage(ctx, placeholder, updated)
		if replaceErr != nil {
			return replaceErr
		}
		placeholder = replaced
		if b.listener != nil {
			b.listener(text, done)
		}
		return nil
	})
	if err != nil {
		if failed, markErr := store.MarkFailed(ctx, placeholder); markErr != nil {
			b.logger.Error("failed to mark placeholder as failed", "error", markErr)
		} else {
			placeholder = failed
		}
		return placeholder, err
	}

	if conv := store.Snapshot(); conv != nil && conv.IsUntitled {
		if err := b.backend.RenameConversationWithSummary(ctx, store); err != nil {
			b.logger.Warn("auto-title failed", "error", err)
		}
	}

	return placeholder, nil
}

// runToolStep consults the tool collaborator and, when a tool fires,
// injects its output into the outgoing history. Tool output never
// enters the graph; it only accompanies this one model call.
func (b *Broker) runToolStep(ctx context.Context, history []domain.Message) []domain.Message {
	if b.tools == nil {
		return history
	}

	handle, err := b.tools.ChooseTool(ctx, history)
	if err != nil {
		b.logger.Warn("tool selection failed", "error", err)
		return history
	}
	if handle == nil {
		return history
	}

	msg, err := handle.Execute(ctx)
	if err != nil {
		b.logger.Warn("tool execution failed", "error", err)
		return history
	}
	if msg == nil {
		return history
	}
	return append(history, *msg)
}
