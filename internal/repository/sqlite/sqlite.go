package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/technologic-ai/technologic/internal/domain"
	"github.com/technologic-ai/technologic/internal/repository"
)

// conversationRecord is one row of the keyed object store. The
// conversation is stored as a JSON blob; the graph structure is opaque
// to the database.
type conversationRecord struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

type folderRecord struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

const folderKey = "folders"

// Open connects to the database at path and runs migrations.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&conversationRecord{}, &folderRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

type conversationRepo struct {
	db *gorm.DB
}

// NewConversationRepository returns a Repository backed by the given
// database handle.
func NewConversationRepository(db *gorm.DB) repository.Repository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) GetItem(ctx context.Context, key string) (*domain.Conversation, error) {
	var rec conversationRecord
	err := r.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var conv domain.Conversation
	if err := json.Unmarshal(rec.Value, &conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", key, err)
	}
	return &conv, nil
}

func (r *conversationRepo) SetItem(ctx context.Context, key string, conv *domain.Conversation) error {
	value, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to encode conversation %s: %w", key, err)
	}
	rec := conversationRecord{Key: key, Value: value}
	return r.db.WithContext(ctx).Save(&rec).Error
}

func (r *conversationRepo) RemoveItem(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&conversationRecord{}, "key = ?", key).Error
}

func (r *conversationRepo) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&conversationRecord{}).Pluck("key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *conversationRepo) Iterate(ctx context.Context, fn func(key string, conv *domain.Conversation) error) error {
	var recs []conversationRecord
	if err := r.db.WithContext(ctx).Order("updated_at").Find(&recs).Error; err != nil {
		return err
	}
	for _, rec := range recs {
		var conv domain.Conversation
		if err := json.Unmarshal(rec.Value, &conv); err != nil {
			return fmt.Errorf("failed to decode conversation %s: %w", rec.Key, err)
		}
		if err := fn(rec.Key, &conv); err != nil {
			return err
		}
	}
	return nil
}

type folderStore struct {
	db *gorm.DB
}

// NewFolderStore returns a FolderStore backed by the given database
// handle.
func NewFolderStore(db *gorm.DB) repository.FolderStore {
	return &folderStore{db: db}
}

func (s *folderStore) GetFolders(ctx context.Context) (*domain.Folder, error) {
	var rec folderRecord
	err := s.db.WithContext(ctx).First(&rec, "key = ?", folderKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.Folder{Name: "/"}, nil
	}
	if err != nil {
		return nil, err
	}
	var root domain.Folder
	if err := json.Unmarshal(rec.Value, &root); err != nil {
		return nil, fmt.Errorf("failed to decode folder tree: %w", err)
	}
	return &root, nil
}

func (s *folderStore) SetFolders(ctx context.Context, root *domain.Folder) error {
	value, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to encode folder tree: %w", err)
	}
	rec := folderRecord{Key: folderKey, Value: value}
	return s.db.WithContext(ctx).Save(&rec).Error
}
