package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"digibank/internal/platform/filestore"
	"digibank/pkg/platform/sentinel"
)

// File keeps the pending intent in a JSON document on disk.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

// ScopedPath derives the journal file for owner from base, so users sharing
// a machine never resume each other's intents. An empty owner returns base.
func ScopedPath(base, owner string) string {
	owner = strings.ToLower(strings.TrimSpace(owner))
	if owner == "" {
		return base
	}
	sum := sha256.Sum256([]byte(owner))
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + hex.EncodeToString(sum[:8]) + ext
}

func (f *File) Save(_ context.Context, intent PendingIntent) error {
	if err := filestore.Save(f.path, intent); err != nil {
		return fmt.Errorf("save pending intent: %w", err)
	}
	return nil
}

func (f *File) Load(_ context.Context) (*PendingIntent, error) {
	var intent PendingIntent
	if err := filestore.Load(f.path, &intent); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load pending intent: %w", err)
	}
	if intent.Key == "" {
		return nil, sentinel.ErrNotFound
	}
	return &intent, nil
}

func (f *File) Clear(_ context.Context) error {
	if err := filestore.Remove(f.path); err != nil {
		return fmt.Errorf("clear pending intent: %w", err)
	}
	return nil
}
