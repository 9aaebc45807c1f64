package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/technologic-ai/technologic/internal/domain"
	"github.com/technologic-ai/technologic/internal/repository"
)

// conversationRepo is an in-memory Repository for tests and ephemeral
// sessions. Values are stored serialized so callers never share memory
// with the store, matching the durability semantics of the sqlite
// implementation.
type conversationRepo struct {
	mu    sync.RWMutex
	items map[string][]byte
	order []string
}

func NewConversationRepository() repository.Repository {
	return &conversationRepo{items: make(map[string][]byte)}
}

func (r *conversationRepo) GetItem(_ context.Context, key string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	raw, ok := r.items[key]
	if !ok {
		return nil, nil
	}
	var conv domain.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", key, err)
	}
	return &conv, nil
}

func (r *conversationRepo) SetItem(_ context.Context, key string, conv *domain.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to encode conversation %s: %w", key, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[key]; !exists {
		r.order = append(r.order, key)
	}
	r.items[key] = raw
	return nil
}

func (r *conversationRepo) RemoveItem(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *conversationRepo) Keys(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys, nil
}

func (r *conversationRepo) Iterate(ctx context.Context, fn func(key string, conv *domain.Conversation) error) error {
	keys, err := r.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		conv, err := r.GetItem(ctx, key)
		if err != nil {
			return err
		}
		if conv == nil {
			continue
		}
		if err := fn(key, conv); err != nil {
			return err
		}
	}
	return nil
}

// folderStore keeps the folder tree in memory.
type folderStore struct {
	mu   sync.RWMutex
	root []byte
}

func NewFolderStore() repository.FolderStore {
	return &folderStore{}
}

func (s *folderStore) GetFolders(context.Context) (*domain.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.root == nil {
		return &domain.Folder{Name: "/"}, nil
	}
	var root domain.Folder
	if err := json.Unmarshal(s.root, &root); err != nil {
		return nil, fmt.Errorf("failed to decode folder tree: %w", err)
	}
	return &root, nil
}

func (s *folderStore) SetFolders(_ context.Context, root *domain.Folder) error {
	raw, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to encode folder tree: %w", err)
	}
	s.mu.Lock()
	s.root = raw
	s.mu.Unlock()
	return nil
}
