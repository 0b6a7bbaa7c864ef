package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// DefaultSchedulerTick is how often due tasks are checked.
const DefaultSchedulerTick = time.Minute

// HistoryRetention is how many results are kept per task.
const HistoryRetention = 100

// job is one kind of scheduled work. run returns how many items it handled.
type job struct {
	name string
	run  func(ctx context.Context) (int, error)
}

// Scheduler re-runs ingestion on an interval. Task state lives in a
// SchedulerStore so intervals survive restarts when the store does.
type Scheduler struct {
	config    domain.SchedulerConfig
	store     driven.SchedulerStore
	ingestion driving.IngestionService
	jobs      map[string]job
	tick      time.Duration
	now       func() time.Time

	mu      sync.Mutex
	stop    chan struct{} // nil while stopped
	running map[string]bool
	wg      sync.WaitGroup
}

var _ driving.Scheduler = (*Scheduler)(nil)

func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	ingestion driving.IngestionService,
) *Scheduler {
	s := &Scheduler{
		config:    config,
		store:     store,
		ingestion: ingestion,
		tick:      DefaultSchedulerTick,
		now:       time.Now,
		running:   make(map[string]bool),
	}
	s.jobs = map[string]job{
		domain.TaskIDIngestAll: {name: "Ingest all sources", run: s.ingestAll},
	}
	return s
}

// Start blocks until Stop is called or ctx ends. Due tasks run once right
// away, then on every tick. A second Start while running returns nil at once.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.stop == stop {
			s.stop = nil
		}
		s.mu.Unlock()
	}()

	if err := s.register(ctx); err != nil {
		logger.Error("scheduler: register tasks: %v", err)
	}
	s.runDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop ends the loop and waits for running tasks to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// register stores every job enabled in the configuration.
func (s *Scheduler) register(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}
	for id, j := range s.jobs {
		cfg := s.config.GetTaskConfig(id)
		if !cfg.Enabled {
			continue
		}
		if err := s.upsert(ctx, id, j.name, cfg); err != nil {
			return err
		}
	}
	return nil
}

// upsert creates the task or reschedules it when the interval changed.
// An unchanged interval keeps the stored NextRun.
func (s *Scheduler) upsert(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		task = &domain.ScheduledTask{ID: id, Name: name}
	}
	if task.NextRun.IsZero() || task.Interval != cfg.Interval {
		task.NextRun = s.now().Add(cfg.Interval)
	}
	task.Interval = cfg.Interval
	task.Enabled = cfg.Enabled
	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) runDue(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: list tasks: %v", err)
		return
	}
	now := s.now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.launch(ctx, tasks[i])
		}
	}
}

// launch runs task in the background. A task still running from the
// previous tick is skipped.
func (s *Scheduler) launch(ctx context.Context, task domain.ScheduledTask) {
	j, ok := s.jobs[task.ID]
	if !ok {
		logger.Error("scheduler: unknown task %q", task.ID)
		return
	}

	s.mu.Lock()
	if s.running[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipped", task.ID)
		return
	}
	s.running[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		started := s.now()
		items, err := j.run(ctx)
		s.record(ctx, task, started, items, err)

		s.mu.Lock()
		delete(s.running, task.ID)
		s.mu.Unlock()
	}()
}

// record saves the run outcome and schedules the next run one interval
// after this one ended.
func (s *Scheduler) record(ctx context.Context, task domain.ScheduledTask, started time.Time, items int, runErr error) {
	ended := s.now()
	result := domain.TaskResult{
		TaskID:         task.ID,
		StartedAt:      started,
		EndedAt:        ended,
		Success:        runErr == nil,
		ItemsProcessed: items,
	}

	task.LastRun = started
	task.NextRun = ended.Add(task.Interval)
	task.LastError = ""
	if runErr != nil {
		result.Error = runErr.Error()
		task.LastError = result.Error
		logger.Warn("scheduler: %s failed: %v", task.ID, runErr)
	} else {
		task.LastSuccess = ended
	}

	if err := s.store.SaveTask(ctx, &task); err != nil {
		logger.Error("scheduler: save %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, &result); err != nil {
		logger.Error("scheduler: record %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, HistoryRetention); err != nil {
		logger.Error("scheduler: prune history: %v", err)
	}
}

// ingestAll scrapes every source and returns the stored document count.
// Partial failures still count the documents that were stored.
func (s *Scheduler) ingestAll(ctx context.Context) (int, error) {
	if s.ingestion == nil {
		return 0, nil
	}
	reports, err := s.ingestion.ScrapeAll(ctx, nil)
	total := 0
	for _, r := range reports {
		total += r.Documents
	}
	logger.Info("Scheduled ingestion stored %d document(s)", total)
	return total, err
}
