package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technologic-ai/technologic/internal/domain"
)

func TestAnthropicSystemMessageMovesToField(t *testing.T) {
	b := newAnthropic(domain.BackendConfiguration{Name: "test"}, "claude-3-5-sonnet", testLogger())

	req := b.buildRequest([]domain.Message{
		domain.NewTextMessage(domain.RoleSystem, "be terse"),
		domain.NewTextMessage(domain.RoleUser, "hi"),
		domain.NewTextMessage(domain.RoleAssistant, ""), // streaming placeholder
		domain.NewTextMessage(domain.RoleAssistant, "hello"),
	}, false)

	assert.Equal(t, "be terse", req.System)
	require.Len(t, req.Messages, 2)
	for _, msg := range req.Messages {
		assert.NotEqual(t, string(domain.RoleSystem), msg.Role)
	}
	assert.Equal(t, anthropicMaxTokens, req.MaxTokens)
}

func TestAnthropicRequestHeaders(t *testing.T) {
	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		assert.Equal(t, "/messages", r.URL.Path)
		io.WriteString(w, `{"content":[{"type":"text","text":"hi"}]}`)
	}))
	defer srv.Close()

	b := newAnthropic(domain.BackendConfiguration{Name: "test", URL: srv.URL, Token: "secret"}, "claude-3-5-sonnet", testLogger())
	_, err := b.SendMessage(context.Background(), []domain.Message{
		domain.NewTextMessage(domain.RoleUser, "hi"),
	})
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, anthropicVersion, gotVersion)
}

func TestAnthropicSendMessageJoinsTextBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		io.WriteString(w, `{"content":[{"type":"text","text":"Hel"},{"type":"tool_use"},{"type":"text","text":"lo"}]}`)
	}))
	defer srv.Close()

	b := newAnthropic(domain.BackendConfiguration{Name: "test", URL: srv.URL}, "claude-3-5-sonnet", testLogger())
	msg, err := b.SendMessage(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", msg.Text())
}

func TestAnthropicStreamTypedEvents(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"type":"message_start"}`,
		`{"type":"content_block_start"}`,
		`{"type":"content_block_delta","delta":{"text":"Hel"}}`,
		`{"type":"ping"}`,
		`{"type":"content_block_delta","delta":{"text":"lo"}}`,
		`{"type":"content_block_stop"}`,
		`{"type":"message_delta"}`,
		`{"type":"message_stop"}`,
	))
	defer srv.Close()

	b := newAnthropic(domain.BackendConfiguration{Name: "test", URL: srv.URL}, "claude-3-5-sonnet", testLogger())

	var calls []deltaCall
	err := b.SendMessageAndStream(context.Background(), []domain.Message{
		domain.NewTextMessage(domain.RoleUser, "hi"),
	}, recordDeltas(&calls))
	require.NoError(t, err)

	// housekeeping frames produce no callback at all
	assert.Equal(t, []deltaCall{
		{text: "", done: false},
		{text: "Hel", done: false},
		{text: "lo", done: false},
		{text: "", done: true},
	}, calls)
}

func TestAnthropicStreamTruncationIsAnError(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"type":"content_block_start"}`,
		`{"type":"content_block_delta","delta":{"text":"partial"}}`,
	))
	defer srv.Close()

	b := newAnthropic(domain.BackendConfiguration{Name: "test", URL: srv.URL}, "claude-3-5-sonnet", testLogger())

	var calls []deltaCall
	err := b.SendMessageAndStream(context.Background(), nil, recordDeltas(&calls))

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	require.Len(t, calls, 2)
	assert.Equal(t, deltaCall{text: "partial"}, calls[1])
	for _, call := range calls {
		assert.False(t, call.done)
	}
}

func TestAnthropicStreamUnknownEventIsBenign(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"type":"somenewthing"}`,
		`{"type":"content_block_delta","delta":{"text":"ok"}}`,
		`{"type":"message_stop"}`,
	))
	defer srv.Close()

	b := newAnthropic(domain.BackendConfiguration{Name: "test", URL: srv.URL}, "claude-3-5-sonnet", testLogger())

	var calls []deltaCall
	err := b.SendMessageAndStream(context.Background(), nil, recordDeltas(&calls))
	require.NoError(t, err)

	assert.Equal(t, []deltaCall{
		{text: ""},
		{text: "ok"},
		{text: "", done: true},
	}, calls)
}
