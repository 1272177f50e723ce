package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
)

// InMemoryRunStore implements RunStore without persistence. It backs the MCP
// server when run history is disabled, and tests.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewInMemoryRunStore creates a new in-memory store.
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{runs: make(map[string]Run)}
}

// SaveRun stores a run.
func (s *InMemoryRunStore) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fillDefaults(&run)
	if _, exists := s.runs[run.ID]; exists {
		return "", fmt.Errorf("run %s already exists", run.ID)
	}
	s.runs[run.ID] = run
	return run.ID, nil
}

// GetRun retrieves a run by ID.
func (s *InMemoryRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return &run, nil
}

// ListRuns returns runs matching filter, newest first.
func (s *InMemoryRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []Run
	for _, run := range s.runs {
		if filter.matches(run) {
			runs = append(runs, run)
		}
	}
	slices.SortFunc(runs, func(a, b Run) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if filter.Limit > 0 && len(runs) > filter.Limit {
		runs = runs[:filter.Limit]
	}
	return runs, nil
}

// DeleteRun removes a run by ID.
func (s *InMemoryRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	delete(s.runs, id)
	return nil
}

// ImportRuns adds runs whose IDs are not present yet.
func (s *InMemoryRunStore) ImportRuns(ctx context.Context, runs []Run) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, run := range runs {
		fillDefaults(&run)
		if _, exists := s.runs[run.ID]; exists {
			continue
		}
		s.runs[run.ID] = run
		added++
	}
	return added, nil
}

// Close is a no-op.
func (s *InMemoryRunStore) Close() error {
	return nil
}
