package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/technologic-ai/technologic/internal/mcp"
)

func (c *cli) newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Inspect configured MCP tool servers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "List tools exposed by the configured servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(c.app.Config.MCPServers) == 0 {
				fmt.Println("no MCP servers configured")
				return nil
			}
			client := mcp.New(c.app.Config.MCPServers)
			if err := client.Initialize(cmd.Context()); err != nil {
				return err
			}
			defer client.Shutdown()

			for name, tool := range client.GetTools() {
				fmt.Printf("%s\t%s\n", name, tool.Description)
			}
			return nil
		},
	})
	return cmd
}
