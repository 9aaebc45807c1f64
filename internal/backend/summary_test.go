package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technologic-ai/technologic/internal/domain"
)

func TestSummarizeTitle(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "short response passes through",
			raw:  "Weather Chat",
			want: "Weather Chat",
		},
		{
			name: "reasoning block stripped",
			raw:  "<think>the user asked about weather\nso the title should say so</think>Weather Chat",
			want: "Weather Chat",
		},
		{
			name: "long response clamped to seven words",
			raw:  "A Very Long Discussion About The Weather Today",
			want: "A Very Long Discussion About The Weather...",
		},
		{
			name: "html special characters escaped",
			raw:  "Tom & Jerry <reunited>",
			want: "Tom &amp; Jerry &lt;reunited&gt;",
		},
		{
			name: "whitespace normalized",
			raw:  "  Weather \n Chat  ",
			want: "Weather Chat",
		},
		{
			name: "empty after stripping",
			raw:  "<think>only reasoning</think>  ",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SummarizeTitle(tc.raw))
		})
	}
}

// summaryBackend answers every SendMessage with a fixed response and
// records the history it was given.
type summaryBackend struct {
	Backend
	response string
	history  []domain.Message
}

func (b *summaryBackend) SendMessage(_ context.Context, history []domain.Message) (domain.Message, error) {
	b.history = history
	return domain.NewTextMessage(domain.RoleAssistant, b.response), nil
}

type renameRecorder struct {
	history []domain.Message
	title   string
	renamed bool
}

func (r *renameRecorder) History() []domain.Message { return r.history }

func (r *renameRecorder) Rename(_ context.Context, title string) error {
	r.title = title
	r.renamed = true
	return nil
}

func TestRenameWithSummary(t *testing.T) {
	conv := &renameRecorder{history: []domain.Message{
		domain.NewTextMessage(domain.RoleSystem, "be terse"),
		domain.NewTextMessage(domain.RoleUser, "what's the weather"),
		domain.NewTextMessage(domain.RoleAssistant, "sunny"),
	}}
	b := &summaryBackend{response: "Weather Chat"}

	require.NoError(t, renameWithSummary(context.Background(), b, conv))
	assert.Equal(t, "Weather Chat", conv.title)

	// the original system prompt is filtered out; the summarization
	// prompt rides along as the final system message
	require.Len(t, b.history, 3)
	assert.Equal(t, domain.RoleUser, b.history[0].Role)
	assert.Equal(t, domain.RoleSystem, b.history[2].Role)
	assert.Equal(t, titlePrompt, b.history[2].Text())
}

func TestRenameWithSummarySkipsEmptyTitle(t *testing.T) {
	conv := &renameRecorder{history: []domain.Message{
		domain.NewTextMessage(domain.RoleUser, "hi"),
	}}
	b := &summaryBackend{response: "<think>hmm</think>"}

	require.NoError(t, renameWithSummary(context.Background(), b, conv))
	assert.False(t, conv.renamed)
}
