// Package mcp manages connections to MCP tool servers and adapts them
// to the broker's tool-invocation seam.
package mcp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	mcp_golang "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/technologic-ai/technologic/internal/config"
)

// Tool is one callable tool exposed by a connected server, keyed by
// its qualified "server.tool" name.
type Tool struct {
	Name        string
	Description string
}

// Client manages multiple MCP server connections
type Client struct {
	servers     map[string]config.MCPServer
	clients     map[string]*mcp_golang.Client
	commands    map[string]*exec.Cmd
	tools       map[string]Tool
	mu          sync.RWMutex
	initialized bool
}

// New creates a new MCP client manager
func New(servers map[string]config.MCPServer) *Client {
	return &Client{
		servers:  servers,
		clients:  make(map[string]*mcp_golang.Client),
		commands: make(map[string]*exec.Cmd),
		tools:    make(map[string]Tool),
	}
}

// Initialize starts all configured servers and establishes connections in parallel
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return errors.New("client already initialized")
	}
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	for name, server := range c.servers {
		name, server := name, server
		g.Go(func() error {
			return c.startServer(gctx, name, server)
		})
	}

	if err := g.Wait(); err != nil {
		c.Shutdown()
		return errors.Wrap(err, "failed to initialize servers")
	}

	if err := c.buildToolRegistry(ctx); err != nil {
		c.Shutdown()
		return errors.Wrap(err, "failed to build tool registry")
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	return nil
}

// startServer starts a single server and establishes its client connection
func (c *Client) startServer(ctx context.Context, name string, server config.MCPServer) error {
	cmd := exec.Command(server.Command, server.Args...)

	for k, v := range server.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdin pipe")
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start server")
	}

	transport := stdio.NewStdioServerTransportWithIO(stdout, stdin)
	client := mcp_golang.NewClient(transport)

	if _, err := client.Initialize(ctx); err != nil {
		_ = cmd.Process.Kill()
		return errors.Wrap(err, "failed to initialize client")
	}

	c.mu.Lock()
	c.clients[name] = client
	c.commands[name] = cmd
	c.mu.Unlock()

	return nil
}

// buildToolRegistry creates a map of all available tools across all servers
func (c *Client) buildToolRegistry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tools = make(map[string]Tool)

	for serverName, client := range c.clients {
		response, err := client.ListTools(ctx, nil)
		if err != nil {
			return errors.Wrapf(err, "failed to list tools for server %s", serverName)
		}

		for _, mcpTool := range response.Tools {
			toolName := fmt.Sprintf("%s.%s", serverName, mcpTool.Name)

			description := ""
			if mcpTool.Description != nil {
				description = *mcpTool.Description
			}

			c.tools[toolName] = Tool{
				Name:        toolName,
				Description: description,
			}
		}
	}

	return nil
}

// CallTool calls a tool using its fully qualified name (serverName.toolName)
func (c *Client) CallTool(ctx context.Context, name string, arguments interface{}) (*mcp_golang.ToolResponse, error) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid tool name format, expected 'server.tool', got '%s'", name)
	}

	serverName, toolName := parts[0], parts[1]

	c.mu.RLock()
	client, exists := c.clients[serverName]
	c.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("server %s not found", serverName)
	}

	return client.CallTool(ctx, toolName, arguments)
}

// GetTools returns a copy of the tool registry.
func (c *Client) GetTools() map[string]Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tools := make(map[string]Tool, len(c.tools))
	for k, v := range c.tools {
		tools[k] = v
	}

	return tools
}

// Shutdown stops all servers and cleans up resources in parallel
func (c *Client) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var wg sync.WaitGroup
	for _, cmd := range c.commands {
		if cmd != nil && cmd.Process != nil {
			wg.Add(1)
			go func(cmd *exec.Cmd) {
				defer wg.Done()
				_ = cmd.Process.Kill()
			}(cmd)
		}
	}
	wg.Wait()

	c.commands = make(map[string]*exec.Cmd)
	c.clients = make(map[string]*mcp_golang.Client)
	c.initialized = false
}
