package backend

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/technologic-ai/technologic/internal/domain"
)

const titlePrompt = "Using the same language as the conversation, summarize it in at most 7 words. Reply with only the summary."

const titleWordLimit = 7

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// renameWithSummary asks the model for a short summary of the
// conversation so far and applies it as the title. Shared by all
// adapters; only the transport differs.
func renameWithSummary(ctx context.Context, b Backend, conv Conversation) error {
	var history []domain.Message
	for _, msg := range conv.History() {
		if msg.Role == domain.RoleUser || msg.Role == domain.RoleAssistant {
			history = append(history, msg)
		}
	}
	history = append(history, domain.NewTextMessage(domain.RoleSystem, titlePrompt))

	response, err := b.SendMessage(ctx, history)
	if err != nil {
		return fmt.Errorf("title summary request failed: %w", err)
	}

	title := SummarizeTitle(response.Text())
	if title == "" {
		return nil
	}
	return conv.Rename(ctx, title)
}

// SummarizeTitle turns a raw model response into a usable title:
// reasoning blocks are stripped, the text is clamped to seven words
// with an ellipsis, and the result is HTML-escaped.
func SummarizeTitle(raw string) string {
	text := thinkBlock.ReplaceAllString(raw, "")
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	title := strings.Join(words, " ")
	if len(words) > titleWordLimit {
		title = strings.Join(words[:titleWordLimit], " ") + "..."
	}
	return html.EscapeString(title)
}
