package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/technologic-ai/technologic/internal/domain"
	"github.com/technologic-ai/technologic/internal/service"
)

func (c *cli) newConversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversation",
		Aliases: []string{"conv"},
		Short:   "Manage stored conversations",
	}
	cmd.AddCommand(
		c.newConversationLsCmd(),
		c.newConversationViewCmd(),
		c.newConversationRenameCmd(),
		c.newConversationRmCmd(),
		c.newConversationDuplicateCmd(),
		c.newConversationSwitchCmd(),
	)
	return cmd
}

func (c *cli) svc() *service.Service {
	return service.New(c.app.Repo, c.app.Folders, c.app.Logger)
}

func (c *cli) newConversationLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			stubs, err := c.svc().List(cmd.Context())
			if err != nil {
				return err
			}
			for _, stub := range stubs {
				fmt.Printf("%s  %s\n", stub.ID, stub.Title)
			}
			return nil
		},
	}
}

func (c *cli) newConversationViewCmd() *cobra.Command {
	var showSiblings bool
	cmd := &cobra.Command{
		Use:   "view <id>",
		Short: "Print the active branch of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.svc().Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			conv := store.Snapshot()
			fmt.Printf("%s\n%s\n\n", conv.Title, strings.Repeat("=", len(conv.Title)))

			for _, entry := range store.Thread().Entries {
				container := conv.Messages[entry.Self]
				marker := ""
				if container.Failed {
					marker = " [failed]"
				} else if container.IsStreaming {
					marker = " [streaming]"
				}
				fmt.Printf("[%s] %s%s: %s\n", container.ID, container.Message.Role, marker, container.Message.Text())
				if showSiblings && len(entry.MessageIDs) > 1 {
					fmt.Printf("      branches: %s\n", strings.Join(entry.MessageIDs, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSiblings, "branches", false, "show sibling branch ids at each step")
	return cmd
}

func (c *cli) newConversationRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.svc().Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return store.Rename(cmd.Context(), strings.Join(args[1:], " "))
		},
	}
}

func (c *cli) newConversationRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.svc().Delete(cmd.Context(), args[0])
		},
	}
}

func (c *cli) newConversationDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a conversation, branches included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			copied, err := c.svc().Duplicate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", copied.ID, copied.Title)
			return nil
		},
	}
}

func (c *cli) newConversationSwitchCmd() *cobra.Command {
	var walk bool
	cmd := &cobra.Command{
		Use:   "switch <id> <message-id>",
		Short: "Repoint the active branch of a conversation",
		Long: `Repoint the active branch. By default the pointer lands on the given
message; with --through it descends first children to the deepest leaf
below it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.svc().Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if walk {
				container, ok := store.Snapshot().Messages[args[1]]
				if !ok {
					return &domain.GraphInvariantError{Op: "switch", MessageID: args[1]}
				}
				return store.SelectThreadThrough(cmd.Context(), container)
			}
			return store.SetLastMessageID(cmd.Context(), args[1])
		},
	}
	cmd.Flags().BoolVar(&walk, "through", false, "descend to the deepest leaf below the message")
	return cmd
}
