package repository

import (
	"context"

	"github.com/technologic-ai/technologic/internal/domain"
)

// Repository is a keyed object store for conversation aggregates.
// GetItem returns (nil, nil) for a missing key. Implementations are
// only consistent with themselves; read-after-write within a session
// goes through the in-memory snapshot, not back through the store.
type Repository interface {
	GetItem(ctx context.Context, key string) (*domain.Conversation, error)
	SetItem(ctx context.Context, key string, conv *domain.Conversation) error
	RemoveItem(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Iterate(ctx context.Context, fn func(key string, conv *domain.Conversation) error) error
}

// FolderStore persists the folder metadata record.
type FolderStore interface {
	GetFolders(ctx context.Context) (*domain.Folder, error)
	SetFolders(ctx context.Context, root *domain.Folder) error
}
