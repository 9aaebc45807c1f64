package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/technologic-ai/technologic/internal/backend"
	"github.com/technologic-ai/technologic/internal/broker"
	"github.com/technologic-ai/technologic/internal/conversation"
	"github.com/technologic-ai/technologic/internal/domain"
	"github.com/technologic-ai/technologic/internal/mcp"
	"github.com/technologic-ai/technologic/internal/service"
)

func (c *cli) newChatCmd() *cobra.Command {
	var conversationID string
	var parentID string
	var noStream bool
	var noTools bool

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send a message and stream the reply",
		Long: `Send a message. Without --conversation a new conversation is started.
With --parent the message branches off the given message id instead of
continuing the current leaf.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			content := strings.Join(args, " ")

			cfg, model, ok := c.app.Config.CurrentBackend()
			if !ok {
				return fmt.Errorf("backend %q is not configured", c.app.Config.Backend.Name)
			}
			be := backend.New(cfg, model, c.app.Logger)

			svc := service.New(c.app.Repo, c.app.Folders, c.app.Logger)
			var store *conversation.Store
			var err error
			if conversationID != "" {
				store, err = svc.Open(ctx, conversationID)
				if err != nil {
					return err
				}
			} else {
				store = svc.NewConversation()
			}

			var parent *string
			if parentID != "" {
				parent = &parentID
			}
			if _, err := store.AddMessage(ctx, domain.NewTextMessage(domain.RoleUser, content), nil, false, parent); err != nil {
				return err
			}
			if conversationID == "" {
				if err := svc.FileConversation(ctx, store.Snapshot().ID); err != nil {
					return err
				}
			}

			opts := []broker.Option{broker.WithLogger(c.app.Logger)}
			if !noStream {
				opts = append(opts, broker.WithDeltaListener(func(text string, done bool) {
					fmt.Print(text)
					if done {
						fmt.Println()
					}
				}))
			}

			if !noTools && len(c.app.Config.MCPServers) > 0 {
				client := mcp.New(c.app.Config.MCPServers)
				if err := client.Initialize(ctx); err != nil {
					c.app.Logger.Warn("mcp initialization failed, continuing without tools", "error", err)
				} else {
					defer client.Shutdown()
					opts = append(opts, broker.WithToolRunner(mcp.NewToolRunner(client)))
				}
			}

			reply, err := broker.New(be, opts...).GenerateAnswer(ctx, store)
			if err != nil {
				fmt.Fprintf(os.Stderr, "turn failed: %v\n", err)
				if reply.Failed && reply.Message.Text() != "" {
					fmt.Fprintf(os.Stderr, "partial reply kept as message %s\n", reply.ID)
				}
				return err
			}

			if noStream {
				fmt.Println(reply.Message.Text())
			}
			conv := store.Snapshot()
			fmt.Fprintf(os.Stderr, "\n[%s] %s\n", conv.ID, conv.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "continue an existing conversation")
	cmd.Flags().StringVarP(&parentID, "parent", "p", "", "branch off this message id")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "wait for the full reply instead of streaming")
	cmd.Flags().BoolVar(&noTools, "no-tools", false, "skip the tool pre-step")
	return cmd
}
