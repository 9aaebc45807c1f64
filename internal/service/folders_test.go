package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderTreeOperations(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	require.NoError(t, s.AddFolder(ctx, nil, "work"))
	require.NoError(t, s.AddFolder(ctx, []string{"work"}, "drafts"))

	tree, err := s.ResolvedTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.Folders, 1)
	assert.Equal(t, "work", tree.Folders[0].Name)
	require.Len(t, tree.Folders[0].Folders, 1)
	assert.Equal(t, "drafts", tree.Folders[0].Folders[0].Name)
	assert.Equal(t, []string{"/", "work", "drafts"}, tree.Folders[0].Folders[0].Path)
}

func TestAddFolderUnknownParent(t *testing.T) {
	s := newTestService()
	err := s.AddFolder(context.Background(), []string{"missing"}, "sub")
	assert.Error(t, err)
}

func TestRenameFolder(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	require.NoError(t, s.AddFolder(ctx, nil, "work"))

	require.NoError(t, s.RenameFolder(ctx, []string{"work"}, "projects"))

	tree, err := s.ResolvedTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.Folders, 1)
	assert.Equal(t, "projects", tree.Folders[0].Name)
}

func TestRemoveFolderReattachesConversations(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	id := startConversation(t, s, "hi")

	require.NoError(t, s.AddFolder(ctx, nil, "work"))
	require.NoError(t, s.AddFolder(ctx, []string{"work"}, "drafts"))
	require.NoError(t, s.MoveConversation(ctx, id, []string{"work", "drafts"}))

	require.NoError(t, s.RemoveFolder(ctx, []string{"work"}))

	// the subtree is gone but the conversation climbed to the root
	tree, err := s.ResolvedTree(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree.Folders)
	require.Len(t, tree.Conversations, 1)
	assert.Equal(t, id, tree.Conversations[0].ID)
}

func TestRemoveRootFolderRefused(t *testing.T) {
	s := newTestService()
	assert.Error(t, s.RemoveFolder(context.Background(), nil))
}

func TestMoveConversationBetweenFolders(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	id := startConversation(t, s, "hi")

	require.NoError(t, s.AddFolder(ctx, nil, "a"))
	require.NoError(t, s.AddFolder(ctx, nil, "b"))
	require.NoError(t, s.MoveConversation(ctx, id, []string{"a"}))
	require.NoError(t, s.MoveConversation(ctx, id, []string{"b"}))

	tree, err := s.ResolvedTree(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree.Conversations)
	var inA, inB []string
	for _, f := range tree.Folders {
		for _, c := range f.Conversations {
			if f.Name == "a" {
				inA = append(inA, c.ID)
			} else {
				inB = append(inB, c.ID)
			}
		}
	}
	assert.Empty(t, inA)
	assert.Equal(t, []string{id}, inB)
}

func TestResolvedTreeSkipsGhostConversations(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	id := startConversation(t, s, "hi")

	// delete the conversation store directly, leaving the folder entry
	require.NoError(t, s.repo.RemoveItem(ctx, id))

	tree, err := s.ResolvedTree(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree.Conversations)
}
