package memory

import (
	"context"
	"sort"
	"sync"

	"budget/internal/core"
	"budget/internal/sheets"
)

var _ sheets.Sink = (*Store)(nil)

// Store keeps rendered tabs in memory. It backs development setups and tests.
type Store struct {
	mu   sync.Mutex
	tabs map[string][][]string
}

func New() *Store {
	return &Store{tabs: make(map[string][][]string)}
}

// WriteCycle replaces the tab of e with its rendering.
func (s *Store) WriteCycle(_ context.Context, e core.CycleExport) (string, error) {
	tab := sheets.TabName(e.Username, e.Cycle.MonthKey)
	rows := sheets.Render(e)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tab] = rows
	return sheets.RangeRef(tab, len(rows)), nil
}

func (s *Store) DeleteCycle(_ context.Context, username, monthKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, sheets.TabName(username, monthKey))
	return nil
}

// Tab returns a copy of a tab's rows and whether it exists.
func (s *Store) Tab(name string) ([][]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[name]
	if !ok {
		return nil, false
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, true
}

// Tabs lists tab names in lexical order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tabs))
	for n := range s.tabs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
