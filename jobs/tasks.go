package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerReconcile replays the ledger and compares it with the live balances.
	TaskLedgerReconcile = "ledger:reconcile"
	// TaskReportsWarmup prebuilds cached monthly statements.
	TaskReportsWarmup = "reports:warmup"
)

// ReconcilePayload tags who asked for the run.
type ReconcilePayload struct {
	Trigger string `json:"trigger"`
}

// ReportsWarmupPayload selects the statement year. Zero warms the current
// and the previous year.
type ReportsWarmupPayload struct {
	Year int `json:"year"`
}

// NewReconcileTask constructs a reconciliation task.
func NewReconcileTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(ReconcilePayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, data), nil
}

// NewReportsWarmupTask constructs a statement warmup task.
func NewReportsWarmupTask(year int) (*asynq.Task, error) {
	data, err := json.Marshal(ReportsWarmupPayload{Year: year})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}
