package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/technologic-ai/technologic/internal/broker"
	"github.com/technologic-ai/technologic/internal/domain"
)

// ToolRunner adapts the MCP client to the broker's collaborator seam.
// Selection is deliberately simple: a tool fires when its short name
// appears in the latest user message. The broker does not care how the
// choice is made.
type ToolRunner struct {
	client *Client
}

func NewToolRunner(client *Client) *ToolRunner {
	return &ToolRunner{client: client}
}

func (r *ToolRunner) ChooseTool(_ context.Context, history []domain.Message) (broker.ToolHandle, error) {
	var latest string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			latest = strings.ToLower(history[i].Text())
			break
		}
	}
	if latest == "" {
		return nil, nil
	}

	for qualified := range r.client.GetTools() {
		short := qualified
		if idx := strings.IndexByte(qualified, '.'); idx >= 0 {
			short = qualified[idx+1:]
		}
		if strings.Contains(latest, strings.ToLower(short)) {
			return &toolHandle{client: r.client, name: qualified, query: latest}, nil
		}
	}
	return nil, nil
}

type toolHandle struct {
	client *Client
	name   string
	query  string
}

// Execute calls the tool and wraps its text output as a system message
// the broker can inject into the outgoing history.
func (h *toolHandle) Execute(ctx context.Context) (*domain.Message, error) {
	response, err := h.client.CallTool(ctx, h.name, map[string]string{"query": h.query})
	if err != nil {
		return nil, fmt.Errorf("tool %s failed: %w", h.name, err)
	}

	var out strings.Builder
	for _, content := range response.Content {
		if content.TextContent != nil {
			out.WriteString(content.TextContent.Text)
		}
	}
	if out.Len() == 0 {
		return nil, nil
	}

	msg := domain.NewTextMessage(domain.RoleSystem,
		fmt.Sprintf("%s Tool Output:\n\n%s", h.name, out.String()))
	return &msg, nil
}
