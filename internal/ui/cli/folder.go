package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/technologic-ai/technologic/internal/service"
)

func (c *cli) newFolderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Organize conversations into folders",
	}
	cmd.AddCommand(
		c.newFolderLsCmd(),
		c.newFolderAddCmd(),
		c.newFolderRmCmd(),
		c.newFolderMvCmd(),
	)
	return cmd
}

func splitPath(s string) []string {
	if s == "" || s == "/" {
		return nil
	}
	return strings.Split(strings.Trim(s, "/"), "/")
}

func printTree(folder *service.ResolvedFolder, indent string) {
	fmt.Printf("%s%s/\n", indent, folder.Name)
	for _, sub := range folder.Folders {
		printTree(sub, indent+"  ")
	}
	for _, stub := range folder.Conversations {
		fmt.Printf("%s  %s  %s\n", indent, stub.ID, stub.Title)
	}
}

func (c *cli) newFolderLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Show the folder tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := c.svc().ResolvedTree(cmd.Context())
			if err != nil {
				return err
			}
			printTree(tree, "")
			return nil
		},
	}
}

func (c *cli) newFolderAddCmd() *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.svc().AddFolder(cmd.Context(), splitPath(parent), args[0])
		},
	}
	cmd.Flags().StringVar(&parent, "in", "/", "parent folder path")
	return cmd
}

func (c *cli) newFolderRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a folder, keeping its conversations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.svc().RemoveFolder(cmd.Context(), splitPath(args[0]))
		},
	}
}

func (c *cli) newFolderMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <conversation-id> <folder-path>",
		Short: "Move a conversation into a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.svc().MoveConversation(cmd.Context(), args[0], splitPath(args[1]))
		},
	}
}
