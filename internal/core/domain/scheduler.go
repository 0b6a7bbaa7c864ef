package domain

import "time"

// TaskIDIngestAll re-ingests every configured source.
const TaskIDIngestAll = "ingest_all"

// ScheduledTask is the persisted state of a recurring task.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	// LastRun and LastSuccess are zero until the task first runs or succeeds.
	LastRun     time.Time
	LastSuccess time.Time
	LastError   string

	// NextRun is when the task becomes due. Zero means due now.
	NextRun time.Time
}

// Due reports whether an enabled task should run at now.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// TaskResult is one execution of a task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed is the number of documents stored by the run.
	ItemsProcessed int
}

// SchedulerConfig enables tasks and sets their intervals.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// TaskConfig configures one task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the zero TaskConfig for an unconfigured task.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	return c.TaskConfigs[taskID]
}

// IngestSchedulerConfig re-ingests every source each interval.
// A non-positive interval disables scheduling.
func IngestSchedulerConfig(interval time.Duration) SchedulerConfig {
	if interval <= 0 {
		return SchedulerConfig{}
	}
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDIngestAll: {Enabled: true, Interval: interval},
		},
	}
}
