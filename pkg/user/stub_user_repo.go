package user

import (
	"context"
	"sync"
	"time"
)

type StubUserRepository struct {
	mu     sync.Mutex
	nextId int
	data   map[string]User
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{data: map[string]User{}}
}

func (s *StubUserRepository) UpsertUser(ctx context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.data[user.Uid]; ok {
		user.Id = existing.Id
		user.CreatedAt = existing.CreatedAt
	} else {
		s.nextId++
		user.Id = s.nextId
		user.CreatedAt = now
	}
	user.LastLoginAt = now
	s.data[user.Uid] = user
	return user, nil
}

func (s *StubUserRepository) GetUserByUid(ctx context.Context, uid string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.data[uid]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *StubUserRepository) DeleteUserByUid(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[uid]; !ok {
		return ErrUserNotFound
	}
	delete(s.data, uid)
	return nil
}
