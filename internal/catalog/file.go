package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spigell/tender-recommender/internal/logger"
)

type FileConfig struct {
	Path string `mapstructure:"path"`
}

// FileStore keeps the catalog as a JSON snapshot on disk.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, log *zap.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.WithFields(log, logger.StoreFields(BackendFile, path)...),
	}
}

func (s *FileStore) FetchAll(_ context.Context) (*Items, error) {
	items, err := ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %q: %w", s.path, err)
	}

	s.logger.Debug("loaded catalog snapshot", zap.String("path", s.path), zap.Int("count", items.Len()))
	return items, nil
}

// EnsureSchema creates the parent directory and an empty snapshot when missing.
func (s *FileStore) EnsureSchema(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}

	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return (&Items{}).WriteFile(s.path)
	} else if err != nil {
		return err
	}

	return nil
}

// Save appends items to the snapshot.
func (s *FileStore) Save(ctx context.Context, items *Items) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	existing, err := ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading catalog file %q: %w", s.path, err)
	}

	items.ensureIDs()
	existing.Items = append(existing.Items, items.Items...)

	if err := existing.WriteFile(s.path); err != nil {
		return fmt.Errorf("writing catalog file %q: %w", s.path, err)
	}

	s.logger.Info("saved items to catalog file",
		zap.String("path", s.path),
		zap.Int("saved", items.Len()),
		zap.Int("total", existing.Len()),
	)
	return nil
}

func (s *FileStore) Close() error { return nil }
