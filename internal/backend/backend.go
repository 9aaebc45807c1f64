// Package backend maps provider wire protocols behind a uniform
// capability interface. Each adapter shapes requests, parses
// responses, and normalizes streaming events into plain text deltas.
package backend

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/technologic-ai/technologic/internal/domain"
)

// OnDelta receives incremental text fragments while streaming. It is
// called zero or more times with done=false, then exactly once with
// done=true; text may be empty on the terminal call. When the stream
// fails the terminal call never comes and the adapter returns an
// error instead.
type OnDelta func(text string, done bool) error

// Conversation is the slice of the graph store a backend needs for
// auto-titling.
type Conversation interface {
	History() []domain.Message
	Rename(ctx context.Context, title string) error
}

// Backend is the uniform capability every provider adapter implements.
type Backend interface {
	API() string
	Name() string
	Model() string

	SendMessage(ctx context.Context, history []domain.Message) (domain.Message, error)
	SendMessageAndStream(ctx context.Context, history []domain.Message, onDelta OnDelta) error
	RenameConversationWithSummary(ctx context.Context, conv Conversation) error
}

// defaultTemperature matches what the chat UIs this serves have always
// sent.
const defaultTemperature = 0.7

// streamClient has no overall timeout; a streaming response stays open
// for as long as the model talks. Cancellation comes from the request
// context.
var streamClient = &http.Client{}

// oneShotClient bounds non-streaming round trips.
var oneShotClient = &http.Client{Timeout: 120 * time.Second}

// New builds the adapter for the configured api kind. Unknown kinds
// fall back to the OpenAI-compatible adapter, since most self-hosted
// gateways speak that protocol.
func New(cfg domain.BackendConfiguration, model string, logger *slog.Logger) Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = cfg.DefaultModel
	}

	switch cfg.API {
	case "anthropic":
		return newAnthropic(cfg, model, logger)
	case "openai", "openchat":
		return newOpenAI(cfg, model, logger)
	default:
		logger.Warn("no matching backend for api type, using OpenAI adapter",
			"api", cfg.API, "backend", cfg.Name)
		return newOpenAI(cfg, model, logger)
	}
}
