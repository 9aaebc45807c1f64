package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/technologic-ai/technologic/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func TestConversationRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	last := "0"
	conv := &domain.Conversation{
		ID:    "c1",
		Title: "Weather Chat",
		Messages: map[string]domain.MessageContainer{
			"0": {ID: "0", Message: domain.NewTextMessage(domain.RoleUser, "hi")},
		},
		Graph:         []domain.Link{{To: "0"}},
		LastMessageID: &last,
		NextMessageID: 1,
	}
	require.NoError(t, repo.SetItem(ctx, "c1", conv))

	got, err := repo.GetItem(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, conv.Title, got.Title)
	assert.Equal(t, conv.Graph, got.Graph)
	assert.Equal(t, "hi", got.Messages["0"].Message.Text())
	require.NotNil(t, got.LastMessageID)
	assert.Equal(t, "0", *got.LastMessageID)
	assert.Equal(t, 1, got.NextMessageID)
}

func TestGetItemMissingKey(t *testing.T) {
	repo := NewConversationRepository(openTestDB(t))
	got, err := repo.GetItem(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoveItemAndKeys(t *testing.T) {
	repo := NewConversationRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SetItem(ctx, "a", &domain.Conversation{ID: "a"}))
	require.NoError(t, repo.SetItem(ctx, "b", &domain.Conversation{ID: "b"}))
	require.NoError(t, repo.RemoveItem(ctx, "a"))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestIterateOrderedByUpdate(t *testing.T) {
	repo := NewConversationRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SetItem(ctx, "a", &domain.Conversation{ID: "a", Title: "one"}))
	require.NoError(t, repo.SetItem(ctx, "b", &domain.Conversation{ID: "b", Title: "two"}))

	var ids []string
	require.NoError(t, repo.Iterate(ctx, func(key string, c *domain.Conversation) error {
		ids = append(ids, c.ID)
		return nil
	}))
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFolderStorePersistsTree(t *testing.T) {
	db := openTestDB(t)
	store := NewFolderStore(db)
	ctx := context.Background()

	root, err := store.GetFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/", root.Name)

	root.Folders = []*domain.Folder{{Name: "work", Conversations: []string{"c1"}}}
	require.NoError(t, store.SetFolders(ctx, root))

	reloaded, err := store.GetFolders(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded.Folders, 1)
	assert.Equal(t, []string{"c1"}, reloaded.Folders[0].Conversations)
}
