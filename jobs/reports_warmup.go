package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stitchbook/stitchbook/internal/jobs"
	"github.com/stitchbook/stitchbook/internal/reports"
)

// StatementBuilder builds and caches monthly statements.
type StatementBuilder interface {
	CurrentYear() int
	Monthly(ctx context.Context, year int) (reports.Monthly, error)
}

// ReportsWarmupJob pre-populates the statement cache so the first dashboard
// load after a bump is served warm.
type ReportsWarmupJob struct {
	Reports StatementBuilder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(builder StatementBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: builder, Logger: logger, Metrics: metrics}
}

// Handle processes statement warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	years := []int{payload.Year}
	if payload.Year == 0 {
		current := j.Reports.CurrentYear()
		years = []int{current, current - 1}
	}

	tracker := j.metrics().Track(TaskReportsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()
	for _, year := range years {
		yearCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := j.Reports.Monthly(yearCtx, year)
		cancel()
		if err != nil {
			resultErr = err
			logger.Error("warm statement", slog.Int("year", year), slog.Any("error", err))
			return resultErr
		}
	}
	logger.Info("completed reports warmup", slog.Any("years", years), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}

func (j *ReportsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
