// Package backup snapshots the persisted JSON documents to object storage.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifelog/apiserver/internal/storage"
)

// snapshotFiles are the documents included in a snapshot. The user store
// is deliberately excluded: it holds credential hashes and is tiny enough
// to re-seed.
var snapshotFiles = []string{"categories.json", "entries.json"}

const keyTimeFormat = "200601021504"

// Service uploads point-in-time copies of the data directory. Each run
// stores the documents under a timestamped key prefix.
type Service struct {
	store   storage.ObjectStorage
	dataDir string
	logger  zerolog.Logger
}

// NewService constructs a backup service for the given data directory.
func NewService(store storage.ObjectStorage, dataDir string, logger zerolog.Logger) *Service {
	return &Service{store: store, dataDir: dataDir, logger: logger}
}

// Run uploads one snapshot and returns the key prefix it was stored under.
// Documents that do not exist yet are skipped.
func (s *Service) Run(ctx context.Context) (string, error) {
	if err := s.store.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	prefix := time.Now().UTC().Format(keyTimeFormat)
	for _, name := range snapshotFiles {
		if err := s.uploadFile(ctx, prefix, name); err != nil {
			return "", err
		}
	}

	s.logger.Info().Str("bucket", s.store.Bucket()).Str("key", prefix).Msg("snapshot uploaded")
	return prefix, nil
}

// Restore downloads the snapshot stored under key into the data directory,
// replacing the current documents.
func (s *Service) Restore(ctx context.Context, key string) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return err
	}

	for _, name := range snapshotFiles {
		reader, err := s.store.Get(ctx, path.Join(key, name))
		if err != nil {
			return fmt.Errorf("fetch %s: %w", name, err)
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			return fmt.Errorf("fetch %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(s.dataDir, name), data, 0o644); err != nil {
			return fmt.Errorf("restore %s: %w", name, err)
		}
	}

	s.logger.Info().Str("bucket", s.store.Bucket()).Str("key", key).Msg("snapshot restored")
	return nil
}

// RunEvery uploads snapshots on the given interval until ctx is cancelled.
// Failures are logged and the next tick retried.
func (s *Service) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled snapshot failed")
			}
		}
	}
}

func (s *Service) uploadFile(ctx context.Context, prefix, name string) error {
	filePath := filepath.Join(s.dataDir, name)
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	key := path.Join(prefix, name)
	if err := s.store.Put(ctx, key, file, info.Size(), "application/json"); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
