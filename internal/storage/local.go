package storage

import (
	"context"       // Cancellation check
	"fmt"           // Error wrapping
	"os"            // File writes
	"path"          // Slash-separated references
	"path/filepath" // OS paths
	"time"          // Key date prefix
)

// LocalStore writes avatars below a root directory on disk.
type LocalStore struct {
	root string
}

// NewLocalStore stores avatars under root
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Save returns the slash-separated path of the written file, rooted at the store directory.
func (s *LocalStore) Save(ctx context.Context, userID string, avatar Avatar) (string, error) {
	if len(avatar.Data) == 0 {
		return "", ErrEmptyAvatar
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := ObjectKey(userID, avatar.Filename, time.Now().UTC())
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}
	if err := os.WriteFile(dst, avatar.Data, 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return path.Join(filepath.ToSlash(s.root), key), nil
}
