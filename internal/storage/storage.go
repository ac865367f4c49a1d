// Package storage writes uploaded avatar files and returns a reference to them.
package storage

import (
	"context" // Storage interface signature
	"errors"  // Sentinel errors
	"fmt"     // Key formatting
	"path"    // Object key joins
	"strings" // Extension normalisation
	"time"    // Key date prefix

	"github.com/google/uuid" // Unique object names
)

// ErrEmptyAvatar is returned when an upload carries no bytes.
var ErrEmptyAvatar = errors.New("avatar file is empty")

// Avatar is an uploaded file held in memory.
type Avatar struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AvatarStore persists avatar files.
type AvatarStore interface {
	// Save writes the file and returns the reference stored on the user record.
	Save(ctx context.Context, userID string, avatar Avatar) (string, error)
}

// ObjectKey builds a unique key of the form avatars/<user>/<yyyy>/<mm>/<dd>/<uuid><ext>.
func ObjectKey(userID, filename string, at time.Time) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if ext == "." {
		ext = ""
	}
	return fmt.Sprintf("avatars/%s/%04d/%02d/%02d/%s%s", userID, at.Year(), at.Month(), at.Day(), uuid.NewString(), ext)
}
