package memory

import (
	"context"
	"sync"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/infrastructure/storage"
)

// Store - хранилище в памяти. Используется в тестах и при GOOFWORLD_STORE=memory.
type Store struct {
	mu      sync.RWMutex
	state   *domain.GameState
	actions []domain.ActionRecord
	nextID  int64

	saveErr error
	saves   int
}

func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) Load(_ context.Context) (*domain.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, storage.ErrNoState
	}
	return s.state.Clone(), nil
}

func (s *Store) Save(_ context.Context, state *domain.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.state = state.Clone()
	s.saves++
	return nil
}

func (s *Store) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != nil, nil
}

func (s *Store) LogAction(_ context.Context, rec domain.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID
	s.nextID++
	s.actions = append(s.actions, rec)
	return nil
}

// ListActions возвращает новые записи первыми.
func (s *Store) ListActions(_ context.Context, playerID string, limit int) ([]domain.ActionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ActionRecord, 0)
	for i := len(s.actions) - 1; i >= 0 && len(out) < limit; i-- {
		if playerID != "" && s.actions[i].PlayerID != playerID {
			continue
		}
		out = append(out, s.actions[i])
	}
	return out, nil
}

// FailSaves заставляет Save возвращать err (nil - снова работать).
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves возвращает количество успешных сохранений.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
