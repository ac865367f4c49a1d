package store

import (
	"context" // Store interface signature
	"sync"    // Guards the maps
	"time"    // Update timestamps

	"ebank_api/internal/domain" // Importing domain models
)

// MemoryStore keeps users in process memory. Used for tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	byEmail map[string]string
}

// NewMemoryStore builds an empty in-memory user store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

// FindByEmail returns a copy of the user with this exact email
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

// FindByID returns a copy of the user with this id
func (s *MemoryStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// Insert adds a user unless the email is already registered
func (s *MemoryStore) Insert(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return ErrEmailTaken
	}
	s.users[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}

// SetAvatar records the avatar reference on an existing user
func (s *MemoryStore) SetAvatar(_ context.Context, id, ref string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.SetAvatar(ref, time.Now().UTC())
	s.users[id] = u
	return &u, nil
}

// Len returns the number of stored users
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
