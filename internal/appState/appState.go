// Package appState wires the application together: configuration,
// logging, and the conversation repository. The App value is built
// once in main and passed by reference; nothing here is a package
// singleton.
package appState

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/technologic-ai/technologic/internal/config"
	"github.com/technologic-ai/technologic/internal/repository"
	"github.com/technologic-ai/technologic/internal/repository/sqlite"
)

// App holds the shared application state.
type App struct {
	Config  *config.ConfigSchema
	Logger  *slog.Logger
	Repo    repository.Repository
	Folders repository.FolderStore

	db     *gorm.DB
	closer io.Closer
}

// Initialize loads configuration, opens the database and sets up
// logging.
func Initialize(overrides *config.RuntimeOverrides) (*App, error) {
	cfg, err := config.New(overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := setupLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(logger)

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Repo:    sqlite.NewConversationRepository(db),
		Folders: sqlite.NewFolderStore(db),
		db:      db,
		closer:  closer,
	}, nil
}

// Cleanup releases resources held by the app.
func (a *App) Cleanup() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func setupLogger(cfg config.Log) (*slog.Logger, io.Closer, error) {
	var level slog.Level

	switch cfg.Level {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.File == "" {
		handler := slog.NewTextHandler(os.Stderr, opts)
		return slog.New(handler), nil, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewTextHandler(file, opts)
	return slog.New(handler), file, nil
}
