package store

import (
	"context" // Request scoped cancellation
	"errors"  // Error matching
	"fmt"     // Error wrapping
	"time"    // Update timestamps

	"ebank_api/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// GormStore persists users in a relational database through GORM
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM connection. The connection must be opened
// with TranslateError so duplicate keys surface as gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindByEmail looks a user up by exact email
func (s *GormStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "find user by email")
	}
	return &user, nil
}

// FindByID looks a user up by primary key
func (s *GormStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "find user by id")
	}
	return &user, nil
}

// Insert creates a new user row
func (s *GormStore) Insert(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err, "insert user")
	}
	return nil
}

// SetAvatar marks the avatar as set and returns the updated record
func (s *GormStore) SetAvatar(ctx context.Context, id, ref string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err // Return error to rollback
		}
		user.SetAvatar(ref, time.Now().UTC())
		return tx.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
			"is_avatar_image_set": user.IsAvatarImageSet, // Avatar flag
			"avatar_image":        user.AvatarImage,      // Stored reference
			"updated_at":          user.UpdatedAt,        // Update timestamp
		}).Error
	})
	if err != nil {
		return nil, translate(err, "set avatar")
	}
	return &user, nil
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrEmailTaken
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
