package repository

import (
	"context"
	"sync"

	"github.com/dulfinne/User-service/shared/models"
)

// MemoryStore is an in-process AccountStore with the same uniqueness and
// versioning rules as PostgresStore. Accounts are listed in insertion order.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*models.Account
	byUsername map[string]string
	order      []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*models.Account),
		byUsername: make(map[string]string),
	}
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) FindPage(ctx context.Context, offset, limit int) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.order) || limit <= 0 {
		return []*models.Account{}, nil
	}
	end := len(s.order)
	if limit < end-offset {
		end = offset + limit
	}

	accounts := make([]*models.Account, 0, end-offset)
	for _, id := range s.order[offset:end] {
		accounts = append(accounts, s.byID[id].Clone())
	}
	return accounts, nil
}

func (s *MemoryStore) Insert(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[account.Username]; taken {
		return ErrDuplicateUsername
	}
	s.byID[account.ID] = account.Clone()
	s.byUsername[account.Username] = account.ID
	s.order = append(s.order, account.ID)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[account.ID]
	if !ok || stored.Version != account.Version {
		return ErrVersionConflict
	}

	next := account.Clone()
	next.Username = stored.Username
	next.CreatedAt = stored.CreatedAt
	next.Version = stored.Version + 1
	s.byID[account.ID] = next
	account.Version = next.Version
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byUsername, stored.Username)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
