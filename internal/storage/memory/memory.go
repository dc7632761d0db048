// Package memory is an in-process Store for development and tests. Data
// lives only as long as the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]core.User
	cycles map[int64]core.Cycle
	txns   map[int64]core.Transaction
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:  map[int64]core.User{},
		cycles: map[int64]core.Cycle{},
		txns:   map[int64]core.Transaction{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return core.User{}, fmt.Errorf("username %q: %w", username, core.ErrConflict)
		}
	}
	u := core.User{ID: s.id(), Username: username}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %q: %w", username, core.ErrNotFound)
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpsertCycle(_ context.Context, c core.Cycle) (core.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, existing := range s.cycles {
		if existing.UserID == c.UserID && existing.MonthKey == c.MonthKey {
			existing.Salary = c.Salary
			existing.Percentages = c.Percentages
			existing.Allocation = c.Allocation
			existing.UpdatedAt = now
			s.cycles[id] = existing
			return existing, nil
		}
	}
	if _, ok := s.users[c.UserID]; !ok {
		return core.Cycle{}, fmt.Errorf("user %d: %w", c.UserID, core.ErrNotFound)
	}
	c.ID = s.id()
	c.CreatedAt, c.UpdatedAt = now, now
	s.cycles[c.ID] = c
	return c, nil
}

func (s *Store) GetCycle(_ context.Context, id, userID int64) (core.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle(id, userID)
}

func (s *Store) cycle(id, userID int64) (core.Cycle, error) {
	c, ok := s.cycles[id]
	if !ok || c.UserID != userID {
		return core.Cycle{}, fmt.Errorf("cycle %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) GetCycleByMonth(_ context.Context, userID int64, monthKey string) (core.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cycles {
		if c.UserID == userID && c.MonthKey == monthKey {
			return c, nil
		}
	}
	return core.Cycle{}, fmt.Errorf("cycle %s: %w", monthKey, core.ErrNotFound)
}

func (s *Store) UpdateCycle(_ context.Context, c core.Cycle) (core.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.cycle(c.ID, c.UserID)
	if err != nil {
		return core.Cycle{}, err
	}
	existing.Salary = c.Salary
	existing.Percentages = c.Percentages
	existing.Allocation = c.Allocation
	existing.UpdatedAt = s.now()
	s.cycles[c.ID] = existing
	return existing, nil
}

func (s *Store) DeleteCycle(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.cycle(id, userID); err != nil {
		return err
	}
	for tid, t := range s.txns {
		if t.CycleID == id {
			delete(s.txns, tid)
		}
	}
	delete(s.cycles, id)
	return nil
}

func (s *Store) ListCycles(_ context.Context, userID int64) ([]core.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Cycle
	for _, c := range s.cycles {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthKey > out[j].MonthKey })
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.cycle(t.CycleID, t.UserID); err != nil {
		return core.Transaction{}, err
	}
	now := s.now()
	t.ID = s.id()
	t.CreatedAt, t.UpdatedAt = now, now
	s.txns[t.ID] = t
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id, userID int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transaction(id, userID)
}

func (s *Store) transaction(id, userID int64) (core.Transaction, error) {
	t, ok := s.txns[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.transaction(t.ID, t.UserID)
	if err != nil {
		return core.Transaction{}, err
	}
	existing.Bucket = t.Bucket
	existing.Date = t.Date
	existing.Note = t.Note
	existing.Amount = t.Amount
	existing.UpdatedAt = s.now()
	s.txns[t.ID] = existing
	return existing, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.transaction(id, userID); err != nil {
		return err
	}
	delete(s.txns, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txns {
		if t.UserID != f.UserID || t.CycleID != f.CycleID {
			continue
		}
		if f.Bucket != nil && t.Bucket != *f.Bucket {
			continue
		}
		out = append(out, t)
	}
	core.SortTransactions(out)
	return out, nil
}
