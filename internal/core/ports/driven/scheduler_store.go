package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SchedulerStore keeps scheduled ingestion state across restarts,
// so a re-ingestion interval is measured from the last real run.
type SchedulerStore interface {
	// GetTask returns nil, nil for an unknown task.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns every task ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask upserts a task by ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	DeleteTask(ctx context.Context, taskID string) error

	// RecordResult appends one run to the task history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns at most limit results, newest first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the newest keep results of each task.
	PruneHistory(ctx context.Context, keep int) error
}
