package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/technologic-ai/technologic/internal/backend/sse"
	"github.com/technologic-ai/technologic/internal/domain"
)

const anthropicVersion = "2023-06-01"

const anthropicMaxTokens = 1024

type anthropicBackend struct {
	cfg    domain.BackendConfiguration
	model  string
	logger *slog.Logger
}

func newAnthropic(cfg domain.BackendConfiguration, model string, logger *slog.Logger) *anthropicBackend {
	return &anthropicBackend{cfg: cfg, model: model, logger: logger}
}

func (b *anthropicBackend) API() string   { return b.cfg.API }
func (b *anthropicBackend) Name() string  { return b.cfg.Name }
func (b *anthropicBackend) Model() string { return b.model }

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// buildRequest shapes the history for the messages endpoint. A system
// role message never travels in the message list; its content moves to
// the top-level system field. Empty messages (the streaming
// placeholder among them) are dropped.
func (b *anthropicBackend) buildRequest(history []domain.Message, stream bool) anthropicRequest {
	var system string
	messages := make([]wireMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role == domain.RoleSystem {
			if system == "" {
				system = msg.Text()
			}
			continue
		}
		if msg.Text() == "" {
			continue
		}
		messages = append(messages, wireMessage{Role: string(msg.Role), Content: msg.Text()})
	}

	temperature := defaultTemperature
	return anthropicRequest{
		Model:       b.model,
		MaxTokens:   anthropicMaxTokens,
		System:      system,
		Messages:    messages,
		Temperature: &temperature,
		Stream:      stream,
	}
}

func (b *anthropicBackend) post(ctx context.Context, client *http.Client, payload anthropicRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.URL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.cfg.Token)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Backend: b.cfg.Name, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &domain.NetworkError{Backend: b.cfg.Name, Status: resp.StatusCode}
	}
	return resp, nil
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (b *anthropicBackend) SendMessage(ctx context.Context, history []domain.Message) (domain.Message, error) {
	resp, err := b.post(ctx, oneShotClient, b.buildRequest(history, false))
	if err != nil {
		return domain.Message{}, err
	}
	defer resp.Body.Close()

	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Message{}, fmt.Errorf("failed to decode response: %w", err)
	}

	var text string
	for _, block := range out.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return domain.NewTextMessage(domain.RoleAssistant, text), nil
}

// anthropicEvent is the wire shape of one typed stream frame.
type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
}

func (b *anthropicBackend) normalizeAnthropicEvent(data []byte) streamEvent {
	var ev anthropicEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		b.logger.Warn("malformed stream frame", "backend", b.cfg.Name, "error", err)
		return streamEvent{kind: eventStart}
	}

	switch ev.Type {
	case "content_block_start":
		return streamEvent{kind: eventStart}
	case "content_block_delta":
		return streamEvent{kind: eventDelta, text: ev.Delta.Text}
	case "message_stop":
		return streamEvent{kind: eventStop}
	case "message_start", "message_delta", "content_block_stop", "ping":
		return streamEvent{kind: eventSkip}
	default:
		b.logger.Warn("unrecognized stream event", "backend", b.cfg.Name, "type", ev.Type)
		return streamEvent{kind: eventStart}
	}
}

func (b *anthropicBackend) SendMessageAndStream(ctx context.Context, history []domain.Message, onDelta OnDelta) error {
	resp, err := b.post(ctx, streamClient, b.buildRequest(history, true))
	if err != nil {
		return err
	}
	if resp.Body == nil {
		return &domain.MissingReaderError{Backend: b.cfg.Name}
	}
	defer resp.Body.Close()

	dec := sse.NewDecoder(resp.Body)
	for {
		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			// The stream closed before message_stop; the reply is
			// truncated, not complete.
			return &domain.NetworkError{Backend: b.cfg.Name, Err: io.ErrUnexpectedEOF}
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &domain.NetworkError{Backend: b.cfg.Name, Err: err}
		}
		if frame.Done {
			return onDelta("", true)
		}

		switch ev := b.normalizeAnthropicEvent(frame.Data); ev.kind {
		case eventStop:
			return onDelta("", true)
		case eventStart:
			if err := onDelta("", false); err != nil {
				return err
			}
		case eventDelta:
			if err := onDelta(ev.text, false); err != nil {
				return err
			}
		case eventSkip:
			// no callback for housekeeping frames
		}
	}
}

func (b *anthropicBackend) RenameConversationWithSummary(ctx context.Context, conv Conversation) error {
	return renameWithSummary(ctx, b, conv)
}
