// Package backup writes and restores date-stamped snapshot files of the
// entire local store.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/obraledger/obraledger/internal/models"
	"github.com/obraledger/obraledger/internal/storage"
)

// FileName returns the human-readable backup name for a given day,
// e.g. obraledger-backup-2026-08-28.json.
func FileName(t time.Time) string {
	return fmt.Sprintf("obraledger-backup-%s.json", t.Format("2006-01-02"))
}

// Write exports the store into dir under a date-stamped name and returns the
// full path. An existing file for the same day is overwritten.
func Write(ctx context.Context, store storage.Store, dir string) (string, error) {
	snap, err := store.ExportAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to export store: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	path := filepath.Join(dir, FileName(time.Now()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	return path, nil
}

// Read parses a snapshot file.
func Read(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse backup file: %w", err)
	}
	return &snap, nil
}

// Restore replaces the store's entire contents with the snapshot file.
// The import is atomic: a failure leaves the store as it was.
func Restore(ctx context.Context, store storage.Store, path string) error {
	snap, err := Read(path)
	if err != nil {
		return err
	}
	if err := store.ImportAll(ctx, snap); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	return nil
}
