// Package service exposes conversation-level operations above the
// graph store: listing, opening, duplication, deletion, and the folder
// tree they are organized in.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/technologic-ai/technologic/internal/conversation"
	"github.com/technologic-ai/technologic/internal/domain"
	"github.com/technologic-ai/technologic/internal/repository"
)

type Service struct {
	repo    repository.Repository
	folders repository.FolderStore
	logger  *slog.Logger
}

func New(repo repository.Repository, folders repository.FolderStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, folders: folders, logger: logger}
}

// List returns id/title stubs for every stored conversation.
func (s *Service) List(ctx context.Context) ([]domain.ConversationStub, error) {
	var stubs []domain.ConversationStub
	err := s.repo.Iterate(ctx, func(key string, conv *domain.Conversation) error {
		stubs = append(stubs, domain.ConversationStub{ID: conv.ID, Title: conv.Title})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return stubs, nil
}

// Open loads an existing conversation into a graph store.
func (s *Service) Open(ctx context.Context, id string) (*conversation.Store, error) {
	return conversation.Open(ctx, s.repo, id)
}

// NewConversation returns a store whose aggregate is created on the
// first message.
func (s *Service) NewConversation() *conversation.Store {
	return conversation.NewStore(s.repo)
}

// Delete removes a conversation and its folder membership.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.RemoveItem(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}

	root, err := s.folders.GetFolders(ctx)
	if err != nil {
		return err
	}
	if folder := findConversationFolder(root, id); folder != nil {
		folder.Conversations = removeString(folder.Conversations, id)
		return s.folders.SetFolders(ctx, root)
	}
	return nil
}

// Duplicate copies a conversation, graph and all, under a fresh id
// with a " (copy)" title, and files it next to the original.
func (s *Service) Duplicate(ctx context.Context, id string) (*domain.Conversation, error) {
	conv, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrNoConversation
	}

	copied := *conv
	copied.ID = uuid.NewString()
	copied.Title = conv.Title + " (copy)"
	if err := s.repo.SetItem(ctx, copied.ID, &copied); err != nil {
		return nil, fmt.Errorf("failed to persist duplicate: %w", err)
	}

	root, err := s.folders.GetFolders(ctx)
	if err != nil {
		return nil, err
	}
	folder := findConversationFolder(root, id)
	if folder == nil {
		folder = root
	}
	folder.Conversations = append(folder.Conversations, copied.ID)
	if err := s.folders.SetFolders(ctx, root); err != nil {
		return nil, err
	}
	return &copied, nil
}

// FileConversation records a newly created conversation in the folder
// root so it shows up in listings.
func (s *Service) FileConversation(ctx context.Context, id string) error {
	root, err := s.folders.GetFolders(ctx)
	if err != nil {
		return err
	}
	if findConversationFolder(root, id) != nil {
		return nil
	}
	root.Conversations = append(root.Conversations, id)
	return s.folders.SetFolders(ctx, root)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
