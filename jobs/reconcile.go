package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stitchbook/stitchbook/internal/jobs"
	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/reports"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Reconciler replays the ledger against the live balances.
type Reconciler interface {
	Reconcile(ctx context.Context) (reports.Reconciliation, error)
}

// DriftGauge receives the per-account drift after each run.
type DriftGauge interface {
	SetBalanceDrift(account string, drift float64)
}

// ReconcileJob checks that the balance store still equals its replayed
// history. A drift is reported, never corrected.
type ReconcileJob struct {
	Reports Reconciler
	Gauge   DriftGauge
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReconcileJob wires dependencies for the reconciliation handler.
func NewReconcileJob(reconciler Reconciler, gauge DriftGauge, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{Reports: reconciler, Gauge: gauge, Logger: logger, Metrics: metrics}
}

// Handle processes reconciliation tasks.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("ledger reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Trigger == "" {
		payload.Trigger = "schedule"
	}

	tracker := j.metrics().Track(TaskLedgerReconcile)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	start := time.Now()
	rec, err := j.Reports.Reconcile(ctx)
	if err != nil {
		resultErr = err
		logger.Error("reconcile ledger", slog.Any("error", err))
		return resultErr
	}

	for _, account := range []ledger.Account{ledger.AccountBank, ledger.AccountCash} {
		drift := rec.Drift(account)
		if j.Gauge != nil {
			j.Gauge.SetBalanceDrift(string(account), drift.InexactFloat64())
		}
		if !drift.IsZero() {
			j.metrics().AddDriftDetection(string(account))
			logger.Warn("balance drift detected",
				slog.String("account", string(account)),
				slog.String("expected", rec.Expected.Of(account).StringFixed(2)),
				slog.String("live", rec.Live.Of(account).StringFixed(2)),
				slog.String("drift", drift.StringFixed(2)))
		}
	}
	logger.Info("completed ledger reconcile",
		slog.Bool("consistent", rec.Consistent),
		slog.Int("entries", rec.Entries),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerReconcile))
	}
	return slog.Default().With(slog.String("job", TaskLedgerReconcile))
}

func (j *ReconcileJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
