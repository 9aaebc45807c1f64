package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technologic-ai/technologic/internal/domain"
)

func registryClient(names ...string) *Client {
	c := New(nil)
	for _, name := range names {
		c.tools[name] = Tool{Name: name}
	}
	return c
}

func TestCallToolRejectsUnqualifiedName(t *testing.T) {
	c := New(nil)
	_, err := c.CallTool(context.Background(), "search", nil)
	assert.ErrorContains(t, err, "expected 'server.tool'")
}

func TestCallToolUnknownServer(t *testing.T) {
	c := New(nil)
	_, err := c.CallTool(context.Background(), "web.search", nil)
	assert.ErrorContains(t, err, "server web not found")
}

func TestGetToolsReturnsCopy(t *testing.T) {
	c := registryClient("web.search")
	tools := c.GetTools()
	delete(tools, "web.search")
	assert.Len(t, c.GetTools(), 1)
}

func TestChooseToolMatchesShortNameInLatestUserMessage(t *testing.T) {
	runner := NewToolRunner(registryClient("web.search"))

	handle, err := runner.ChooseTool(context.Background(), []domain.Message{
		domain.NewTextMessage(domain.RoleUser, "please Search the docs for me"),
		domain.NewTextMessage(domain.RoleAssistant, "sure"),
		domain.NewTextMessage(domain.RoleUser, "actually search the web instead"),
	})
	require.NoError(t, err)
	require.NotNil(t, handle)
}

func TestChooseToolNoMatch(t *testing.T) {
	runner := NewToolRunner(registryClient("web.search"))

	handle, err := runner.ChooseTool(context.Background(), []domain.Message{
		domain.NewTextMessage(domain.RoleUser, "what's the weather"),
	})
	require.NoError(t, err)
	assert.Nil(t, handle)
}

func TestChooseToolWithoutUserMessage(t *testing.T) {
	runner := NewToolRunner(registryClient("web.search"))

	handle, err := runner.ChooseTool(context.Background(), []domain.Message{
		domain.NewTextMessage(domain.RoleSystem, "search aggressively"),
	})
	require.NoError(t, err)
	assert.Nil(t, handle)
}
