package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// SchedulerStore keeps task state for a single process. Nothing survives a
// restart, so every task is due one interval after startup.
type SchedulerStore struct {
	mu      sync.RWMutex
	tasks   map[string]domain.ScheduledTask
	results map[string][]domain.TaskResult // oldest first
}

var _ driven.SchedulerStore = (*SchedulerStore)(nil)

func NewSchedulerStore() *SchedulerStore {
	return &SchedulerStore{
		tasks:   make(map[string]domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (s *SchedulerStore) GetTask(_ context.Context, id string) (*domain.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

// ListTasks returns every task ordered by ID.
func (s *SchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]domain.ScheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	slices.SortFunc(tasks, func(a, b domain.ScheduledTask) int { return strings.Compare(a.ID, b.ID) })
	return tasks, nil
}

func (s *SchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	s.tasks[task.ID] = *task
	s.mu.Unlock()
	return nil
}

func (s *SchedulerStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
	return nil
}

func (s *SchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	s.results[result.TaskID] = append(s.results[result.TaskID], *result)
	s.mu.Unlock()
	return nil
}

// GetTaskHistory returns up to limit results, newest first. Results with
// equal start times keep their reverse recording order.
func (s *SchedulerStore) GetTaskHistory(_ context.Context, id string, limit int) ([]domain.TaskResult, error) {
	s.mu.RLock()
	history := slices.Clone(s.results[id])
	s.mu.RUnlock()

	slices.Reverse(history)
	slices.SortStableFunc(history, func(a, b domain.TaskResult) int { return b.StartedAt.Compare(a.StartedAt) })
	if limit >= 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// PruneHistory keeps the newest keep results of every task.
func (s *SchedulerStore) PruneHistory(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, results := range s.results {
		if len(results) <= keep {
			continue
		}
		slices.SortStableFunc(results, func(a, b domain.TaskResult) int { return a.StartedAt.Compare(b.StartedAt) })
		s.results[id] = slices.Clone(results[len(results)-max(keep, 0):])
	}
	return nil
}
