package memory

import (
	"context"
	"strings"
	"time"

	"shopd/internal/domain/user"
)

func (s *Store) Insert(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := s.userByEmail[key]; ok {
		return user.ErrEmailTaken
	}
	if _, ok := s.users[u.ID]; ok {
		return user.ErrEmailTaken
	}

	s.users[u.ID] = cloneUser(u)
	s.userByEmail[key] = u.ID
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userByEmail[strings.ToLower(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, user.ErrNotFound
	}
	u.TokenVersion++
	u.UpdatedAt = time.Now().UTC()
	return u.TokenVersion, nil
}
