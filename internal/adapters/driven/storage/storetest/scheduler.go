package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// SchedulerFactory returns an empty scheduler store.
type SchedulerFactory func(t *testing.T) driven.SchedulerStore

// RunScheduler exercises the SchedulerStore contract.
func RunScheduler(t *testing.T, newStore SchedulerFactory) {
	t.Run("SaveAndGetTask", func(t *testing.T) { testSaveAndGetTask(t, newStore(t)) })
	t.Run("GetTaskNotFound", func(t *testing.T) { testGetTaskNotFound(t, newStore(t)) })
	t.Run("SaveTaskUpdate", func(t *testing.T) { testSaveTaskUpdate(t, newStore(t)) })
	t.Run("NilArguments", func(t *testing.T) { testSchedulerNilArguments(t, newStore(t)) })
	t.Run("ListAndDelete", func(t *testing.T) { testListAndDeleteTasks(t, newStore(t)) })
	t.Run("HistoryAndPrune", func(t *testing.T) { testHistoryAndPrune(t, newStore(t)) })
	t.Run("ResultWithoutTimes", func(t *testing.T) { testResultWithoutTimes(t, newStore(t)) })
}

func testSaveAndGetTask(t *testing.T, s driven.SchedulerStore) {
	ctx := context.Background()
	task := &domain.ScheduledTask{
		ID:          domain.TaskIDIngestAll,
		Name:        "Ingest all sources",
		Interval:    6 * time.Hour,
		LastRun:     baseTime.Add(-time.Hour),
		NextRun:     baseTime.Add(5 * time.Hour),
		LastSuccess: baseTime.Add(-time.Hour),
		Enabled:     true,
	}
	require.NoError(t, s.SaveTask(ctx, task))

	got, err := s.GetTask(ctx, domain.TaskIDIngestAll)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, task.Interval, got.Interval)
	assert.True(t, got.Enabled)
	assert.True(t, task.LastRun.Equal(got.LastRun))
	assert.True(t, task.NextRun.Equal(got.NextRun))
	assert.True(t, task.LastSuccess.Equal(got.LastSuccess))
}

func testGetTaskNotFound(t *testing.T, s driven.SchedulerStore) {
	task, err := s.GetTask(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func testSaveTaskUpdate(t *testing.T, s driven.SchedulerStore) {
	ctx := context.Background()
	task := &domain.ScheduledTask{ID: "t", Name: "Task", Interval: time.Hour, Enabled: true}
	require.NoError(t, s.SaveTask(ctx, task))

	task.Interval = 2 * time.Hour
	task.LastError = "fetch failed"
	task.Enabled = false
	require.NoError(t, s.SaveTask(ctx, task))

	got, err := s.GetTask(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, got.Interval)
	assert.Equal(t, "fetch failed", got.LastError)
	assert.False(t, got.Enabled)
	assert.True(t, got.LastRun.IsZero())
}

func testSchedulerNilArguments(t *testing.T, s driven.SchedulerStore) {
	ctx := context.Background()
	assert.ErrorIs(t, s.SaveTask(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.RecordResult(ctx, nil), domain.ErrInvalidInput)
}

func testListAndDeleteTasks(t *testing.T, s driven.SchedulerStore) {
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.SaveTask(ctx, &domain.ScheduledTask{ID: id, Name: id, Interval: time.Hour}))
	}
	require.NoError(t, s.DeleteTask(ctx, "b"))

	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "c", tasks[1].ID)
}

func testHistoryAndPrune(t *testing.T, s driven.SchedulerStore) {
	ctx := context.Background()
	for i := range 5 {
		res := &domain.TaskResult{
			TaskID:         domain.TaskIDIngestAll,
			StartedAt:      baseTime.Add(time.Duration(i) * time.Hour),
			EndedAt:        baseTime.Add(time.Duration(i)*time.Hour + time.Minute),
			Success:        i%2 == 0,
			ItemsProcessed: i,
		}
		if !res.Success {
			res.Error = "boom"
		}
		require.NoError(t, s.RecordResult(ctx, res))
	}
	require.NoError(t, s.RecordResult(ctx, &domain.TaskResult{TaskID: "other", StartedAt: baseTime, Success: true}))

	history, err := s.GetTaskHistory(ctx, domain.TaskIDIngestAll, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.True(t, history[0].Success)
	assert.Equal(t, "boom", history[1].Error)
	assert.True(t, baseTime.Add(4*time.Hour).Equal(history[0].StartedAt))

	require.NoError(t, s.PruneHistory(ctx, 2))
	history, err = s.GetTaskHistory(ctx, domain.TaskIDIngestAll, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.Equal(t, 3, history[1].ItemsProcessed)

	other, err := s.GetTaskHistory(ctx, "other", 10)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

// An unfinished or untimed result is accepted and reads back with zero times.
func testResultWithoutTimes(t *testing.T, s driven.SchedulerStore) {
	ctx := context.Background()
	require.NoError(t, s.RecordResult(ctx, &domain.TaskResult{TaskID: "t", StartedAt: baseTime, Error: "cancelled"}))
	require.NoError(t, s.RecordResult(ctx, &domain.TaskResult{TaskID: "t"}))

	history, err := s.GetTaskHistory(ctx, "t", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var started, untimed int
	for _, r := range history {
		assert.True(t, r.EndedAt.IsZero())
		if r.StartedAt.IsZero() {
			untimed++
		} else {
			started++
			assert.Equal(t, "cancelled", r.Error)
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, untimed)
}
