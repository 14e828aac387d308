package testkit

import (
	"context"
	"sort"
	"sync"

	"goqvalue/domain/core"
	"goqvalue/domain/fdr"
	"goqvalue/ports"
)

// InMemoryRunRepository implements ports.RunRepository with in-memory storage.
// It backs the server when no database is configured.
type InMemoryRunRepository struct {
	runs map[core.RunID]*fdr.Run
	mu   sync.RWMutex
}

func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{runs: make(map[core.RunID]*fdr.Run)}
}

func (s *InMemoryRunRepository) SaveRun(ctx context.Context, run *fdr.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *run
	s.runs[run.ID] = &stored
	return nil
}

func (s *InMemoryRunRepository) GetRun(ctx context.Context, id core.RunID) (*fdr.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	out := *run
	return &out, nil
}

// ListRuns returns summaries newest first. Results are immutable so sharing
// them with callers is safe.
func (s *InMemoryRunRepository) ListRuns(ctx context.Context, limit, offset int) ([]ports.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]ports.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		summaries = append(summaries, ports.RunSummary{
			ID:             run.ID,
			Name:           run.Name,
			NumTests:       run.Result.Len(),
			Pi0:            run.Result.Pi0(),
			NumSignificant: run.Result.NumSignificant(),
			CreatedAt:      run.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID > summaries[j].ID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	if offset > len(summaries) {
		offset = len(summaries)
	}
	summaries = summaries[offset:]
	if limit > 0 && limit < len(summaries) {
		summaries = summaries[:limit]
	}
	return summaries, nil
}
