package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventkpi/internal/config"
)

// ErrNotFound is returned by Load when no blob is stored under the key
var ErrNotFound = errors.New("state not found")

// BlobStore keeps one serialized blob per key. Save overwrites an existing
// blob or inserts a new one.
type BlobStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Name() string
	Close() error
}

// Open builds the blob store selected by cfg.Backend. The none backend
// returns a nil store and no error.
func Open(ctx context.Context, cfg config.StorageConfig, paths *config.Paths, logger *slog.Logger) (BlobStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case config.StorageNone, "":
		logger.Info("state persistence disabled")
		return nil, nil

	case config.StorageFile:
		path := cfg.FilePath
		if paths != nil && paths.StateFile != "" {
			path = paths.StateFile
		}
		return NewFileStore(path, logger), nil

	case config.StoragePostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, logger)

	case config.StorageSheets:
		return NewSheetsStore(ctx, SheetsConfig{
			SpreadsheetID:   cfg.SheetID,
			SheetName:       cfg.SheetName,
			CredentialsFile: cfg.CredentialsFile,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
