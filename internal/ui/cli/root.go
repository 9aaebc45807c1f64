// Package cli is the cobra command tree. Commands receive the shared
// App through the cli struct; nothing reaches for globals.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/technologic-ai/technologic/internal/appState"
	"github.com/technologic-ai/technologic/internal/config"
)

type cli struct {
	app       *appState.App
	overrides config.RuntimeOverrides
}

// NewRootCmd builds the full command tree. The app is initialized in
// PersistentPreRunE, after flags have been parsed into the overrides.
func NewRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "technologic",
		Short: "A branching chat client for LLM backends",
		Long: `Technologic is a chat client for OpenAI- and Anthropic-style backends.
Conversations form a graph: replies can be edited and forked, and every
branch stays addressable. Responses stream in as they are generated.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := appState.Initialize(&c.overrides)
			if err != nil {
				return err
			}
			c.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app != nil {
				return c.app.Cleanup()
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.overrides.Backend, "backend", "b", "", "backend to use (by configured name)")
	flags.StringVarP(&c.overrides.Model, "model", "m", "", "model override")
	flags.StringVar(&c.overrides.DBPath, "db", "", "path of the conversation database")
	flags.BoolVarP(&c.overrides.Verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		c.newChatCmd(),
		c.newConversationCmd(),
		c.newFolderCmd(),
		c.newConfigCmd(),
		c.newMCPCmd(),
	)
	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}
