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
	"strings"

	"github.com/technologic-ai/technologic/internal/backend/sse"
	"github.com/technologic-ai/technologic/internal/domain"
)

type openAIBackend struct {
	cfg    domain.BackendConfiguration
	model  string
	logger *slog.Logger
}

func newOpenAI(cfg domain.BackendConfiguration, model string, logger *slog.Logger) *openAIBackend {
	return &openAIBackend{cfg: cfg, model: model, logger: logger}
}

func (b *openAIBackend) API() string   { return b.cfg.API }
func (b *openAIBackend) Name() string  { return b.cfg.Name }
func (b *openAIBackend) Model() string { return b.model }

type openAIRequest struct {
	Model           string          `json:"model"`
	Temperature     *float64        `json:"temperature,omitempty"`
	ReasoningEffort string          `json:"reasoning_effort,omitempty"`
	ResponseFormat  *responseFormat `json:"response_format,omitempty"`
	Messages        []wireMessage   `json:"messages"`
	Stream          bool            `json:"stream,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// isReasoningModel reports whether the model uses the o-series request
// shape: no temperature, reasoning_effort and response_format instead.
func isReasoningModel(model string) bool {
	return strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3")
}

func (b *openAIBackend) buildRequest(history []domain.Message, stream bool) openAIRequest {
	messages := make([]wireMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, wireMessage{
			Role:    string(msg.Role),
			Content: openAIContent(msg),
		})
	}

	req := openAIRequest{
		Model:    b.model,
		Messages: messages,
		Stream:   stream,
	}
	if isReasoningModel(b.model) {
		req.ReasoningEffort = "medium"
		req.ResponseFormat = &responseFormat{Type: "text"}
	} else {
		temperature := defaultTemperature
		req.Temperature = &temperature
	}
	return req
}

// openAIContent keeps plain text as a bare string and switches to the
// block array form only when image parts are present.
func openAIContent(msg domain.Message) any {
	hasImage := false
	for _, p := range msg.Parts {
		if p.Type == domain.PartImage {
			hasImage = true
			break
		}
	}
	if !hasImage {
		return msg.Text()
	}

	blocks := make([]map[string]any, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch p.Type {
		case domain.PartText:
			blocks = append(blocks, map[string]any{"type": "text", "text": p.Text})
		case domain.PartImage:
			blocks = append(blocks, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": p.ImageURL},
			})
		}
	}
	return blocks
}

func (b *openAIBackend) post(ctx context.Context, client *http.Client, payload openAIRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.URL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.cfg.Token)

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

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (b *openAIBackend) SendMessage(ctx context.Context, history []domain.Message) (domain.Message, error) {
	resp, err := b.post(ctx, oneShotClient, b.buildRequest(history, false))
	if err != nil {
		return domain.Message{}, err
	}
	defer resp.Body.Close()

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Message{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return domain.Message{}, fmt.Errorf("%s: response carried no choices", b.cfg.Name)
	}
	return domain.NewTextMessage(domain.RoleAssistant, out.Choices[0].Message.Content), nil
}

// openAIEvent is the wire shape of one streamed frame.
type openAIEvent struct {
	Choices []struct {
		Role  string `json:"role"`
		Delta struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// normalizeOpenAIEvent maps wire JSON onto the closed event variant the
// streaming loop consumes. A malformed or unrecognized frame becomes a
// benign start signal so one bad frame never kills the stream.
func (b *openAIBackend) normalizeOpenAIEvent(data []byte) streamEvent {
	var ev openAIEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		b.logger.Warn("malformed stream frame", "backend", b.cfg.Name, "error", err)
		return streamEvent{kind: eventStart}
	}
	if len(ev.Choices) == 0 {
		b.logger.Warn("stream frame carried no choices", "backend", b.cfg.Name)
		return streamEvent{kind: eventStart}
	}

	choice := ev.Choices[0]
	switch {
	case choice.FinishReason == "stop":
		return streamEvent{kind: eventStop}
	case choice.Role == "assistant" || (choice.Delta.Role == "assistant" && choice.Delta.Content == ""):
		// start-of-turn frame: role announced, no content yet
		return streamEvent{kind: eventStart}
	default:
		return streamEvent{kind: eventDelta, text: choice.Delta.Content}
	}
}

func (b *openAIBackend) SendMessageAndStream(ctx context.Context, history []domain.Message, onDelta OnDelta) error {
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
			// The stream closed before a terminal frame; the reply is
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

		switch ev := b.normalizeOpenAIEvent(frame.Data); ev.kind {
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
		}
	}
}

func (b *openAIBackend) RenameConversationWithSummary(ctx context.Context, conv Conversation) error {
	return renameWithSummary(ctx, b, conv)
}
