package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
)

// MemoryStore keeps runs in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]RunRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return RunRecord{}, false, ErrNotInitialized
	}
	run, ok := s.runs[id]
	if !ok {
		return RunRecord{}, false, nil
	}
	return cloneRun(run), true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, batchID string) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	var out []RunRecord
	for _, run := range s.runs {
		if batchID == "" || run.BatchID == batchID {
			out = append(out, cloneRun(run))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneRun(r RunRecord) RunRecord {
	r.Overrides = maps.Clone(r.Overrides)
	r.ThresholdDays = slices.Clone(r.ThresholdDays)
	return r
}
