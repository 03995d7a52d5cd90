// competition/store/profile_store.go
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
)

// ErrProfileNotFound is returned by profile stores for an unknown user id.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists user profiles. Save replaces the whole document.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
}

// MemoryProfileStore keeps profiles in process memory.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]*models.UserProfile)}
}

func (s *MemoryProfileStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryProfileStore) SaveProfile(_ context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile.Clone()
	return nil
}
