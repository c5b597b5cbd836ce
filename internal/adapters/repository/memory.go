package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/okian/pitchlog/internal/domain/model"
	"github.com/okian/pitchlog/pkg/metrics"
)

// MemoryStore keeps matches and reports in process memory. Values are copied
// on the way in and out so callers never share slices with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]model.Match
	reports map[string]model.Report
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		matches: make(map[string]model.Match),
		reports: make(map[string]model.Report),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateStoredMatches(0)
	return s
}

func (s *MemoryStore) CreateMatch(_ context.Context, m *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.ID]; ok {
		return ErrDuplicate
	}
	s.matches[m.ID] = copyMatch(m)
	metrics.UpdateStoredMatches(len(s.matches))
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, ErrNotFound
	}
	return copyMatch(&m), nil
}

func (s *MemoryStore) DeleteMatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[id]; !ok {
		return ErrNotFound
	}
	delete(s.matches, id)
	metrics.UpdateStoredMatches(len(s.matches))
	return nil
}

func (s *MemoryStore) ListMatches(_ context.Context, limit int) ([]model.Match, error) {
	s.mu.RLock()
	out := make([]model.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, copyMatch(&m))
	}
	s.mu.RUnlock()

	model.SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountMatches(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), nil
}

func (s *MemoryStore) CreateReport(_ context.Context, r *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.ID]; ok {
		return ErrDuplicate
	}
	s.reports[r.ID] = copyReport(r)
	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, id string) (model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return model.Report{}, ErrNotFound
	}
	return copyReport(&r), nil
}

func (s *MemoryStore) ListReports(_ context.Context, limit int) ([]model.Report, error) {
	s.mu.RLock()
	out := make([]model.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, copyReport(&r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) FinishReport(_ context.Context, id string, status model.ReportStatus, content, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	at := s.now().UTC()
	r.Status = status
	r.Content = content
	r.Error = errMsg
	r.CompletedAt = &at
	s.reports[id] = r
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

func copyMatch(m *model.Match) model.Match {
	out := *m
	out.GoalEvents = make([]model.GoalEvent, len(m.GoalEvents))
	for i, e := range m.GoalEvents {
		if e.XEnd != nil {
			v := *e.XEnd
			e.XEnd = &v
		}
		if e.YEnd != nil {
			v := *e.YEnd
			e.YEnd = &v
		}
		out.GoalEvents[i] = e
	}
	return out
}

func copyReport(r *model.Report) model.Report {
	out := *r
	out.Summary = slices.Clone(r.Summary)
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		out.CompletedAt = &at
	}
	return out
}
