package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/technologic-ai/technologic/internal/domain"
)

// ResolvedFolder is a folder with its contents flattened for display:
// subfolders first, then conversation stubs, each aware of its path.
type ResolvedFolder struct {
	ID            string
	Name          string
	Path          []string
	Folders       []*ResolvedFolder
	Conversations []domain.ConversationStub
}

// ResolvedTree resolves the whole folder tree against the stored
// conversations. Conversations missing from the repository are skipped
// rather than shown as ghosts.
func (s *Service) ResolvedTree(ctx context.Context) (*ResolvedFolder, error) {
	root, err := s.folders.GetFolders(ctx)
	if err != nil {
		return nil, err
	}

	stubs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.ConversationStub, len(stubs))
	for _, stub := range stubs {
		byID[stub.ID] = stub
	}

	return resolveFolder(root, nil, byID), nil
}

func resolveFolder(folder *domain.Folder, parents []string, byID map[string]domain.ConversationStub) *ResolvedFolder {
	path := append(append([]string{}, parents...), folder.Name)
	resolved := &ResolvedFolder{
		ID:   strings.Join(path, "/"),
		Name: folder.Name,
		Path: path,
	}
	for _, sub := range folder.Folders {
		resolved.Folders = append(resolved.Folders, resolveFolder(sub, path, byID))
	}
	for _, id := range folder.Conversations {
		if stub, ok := byID[id]; ok {
			resolved.Conversations = append(resolved.Conversations, stub)
		}
	}
	return resolved
}

// AddFolder creates a subfolder under the folder at path. The root has
// path []string{}.
func (s *Service) AddFolder(ctx context.Context, path []string, name string) error {
	root, err := s.folders.GetFolders(ctx)
	if err != nil {
		return err
	}
	parent, err := findFolder(root, path)
	if err != nil {
		return err
	}
	parent.Folders = append(parent.Folders, &domain.Folder{Name: name})
	return s.folders.SetFolders(ctx, root)
}

// RenameFolder renames the folder at path.
func (s *Service) RenameFolder(ctx context.Context, path []string, newName string) error {
	root, err := s.folders.GetFolders(ctx)
	if err != nil {
		return err
	}
	folder, err := findFolder(root, path)
	if err != nil {
		return err
	}
	folder.Name = newName
	return s.folders.SetFolders(ctx, root)
}

// RemoveFolder detaches the folder at path from its parent. Contained
// conversations are reattached to the parent so they stay reachable.
func (s *Service) RemoveFolder(ctx context.Context, path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot remove the root folder")
	}
	root, err := s.folders.GetFolders(ctx)
	if err != nil {
		return err
	}
	parent, err := findFolder(root, path[:len(path)-1])
	if err != nil {
		return err
	}

	name := path[len(path)-1]
	for i, sub := range parent.Folders {
		if sub.Name == name {
			parent.Conversations = append(parent.Conversations, collectConversations(sub)...)
			parent.Folders = append(parent.Folders[:i], parent.Folders[i+1:]...)
			return s.folders.SetFolders(ctx, root)
		}
	}
	return fmt.Errorf("folder %q not found", name)
}

// MoveConversation moves a conversation between folders.
func (s *Service) MoveConversation(ctx context.Context, id string, targetPath []string) error {
	root, err := s.folders.GetFolders(ctx)
	if err != nil {
		return err
	}
	target, err := findFolder(root, targetPath)
	if err != nil {
		return err
	}

	if source := findConversationFolder(root, id); source != nil {
		source.Conversations = removeString(source.Conversations, id)
	}
	target.Conversations = append(target.Conversations, id)
	return s.folders.SetFolders(ctx, root)
}

// findFolder descends the tree by folder names. An empty path is the
// root itself.
func findFolder(root *domain.Folder, path []string) (*domain.Folder, error) {
	current := root
	for _, name := range path {
		var next *domain.Folder
		for _, sub := range current.Folders {
			if sub.Name == name {
				next = sub
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("folder %q not found", name)
		}
		current = next
	}
	return current, nil
}

func findConversationFolder(start *domain.Folder, id string) *domain.Folder {
	for _, c := range start.Conversations {
		if c == id {
			return start
		}
	}
	for _, sub := range start.Folders {
		if found := findConversationFolder(sub, id); found != nil {
			return found
		}
	}
	return nil
}

func collectConversations(folder *domain.Folder) []string {
	out := append([]string{}, folder.Conversations...)
	for _, sub := range folder.Folders {
		out = append(out, collectConversations(sub)...)
	}
	return out
}
