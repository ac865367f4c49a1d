// Package store persists user records.
package store

import (
	"context" // Request scoped cancellation
	"errors"  // Sentinel errors

	"ebank_api/internal/domain" // Importing domain models
)

var (
	// ErrUserNotFound is returned when no record matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when a record with the same email already exists.
	ErrEmailTaken = errors.New("email already exists")
)

// UserStore is the credential store used by the HTTP handlers.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Insert(ctx context.Context, user *domain.User) error
	SetAvatar(ctx context.Context, id, ref string) (*domain.User, error)
}
