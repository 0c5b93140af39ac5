package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/stitchbook/stitchbook/internal/jobs"
	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/reports"
)

type stubReconciler struct {
	rec reports.Reconciliation
	err error
}

func (s stubReconciler) Reconcile(context.Context) (reports.Reconciliation, error) {
	return s.rec, s.err
}

type recordingGauge map[string]float64

func (g recordingGauge) SetBalanceDrift(account string, drift float64) { g[account] = drift }

func TestReconcileJobPublishesDrift(t *testing.T) {
	rec := reports.Reconcile(ledger.History{
		Balance: ledger.Balance{BankBalance: decimal.NewFromInt(1000), CashInHand: decimal.NewFromInt(40)},
	}, ledger.Balance{BankBalance: decimal.NewFromInt(1000), CashInHand: decimal.NewFromInt(50)})
	require.False(t, rec.Consistent)

	gauge := recordingGauge{}
	job := NewReconcileJob(stubReconciler{rec: rec}, gauge, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewReconcileTask("manual")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 0.0, gauge["bank"])
	assert.Equal(t, -10.0, gauge["cash"])
}

func TestReconcileJobErrors(t *testing.T) {
	boom := errors.New("db down")
	job := NewReconcileJob(stubReconciler{err: boom}, nil, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewReconcileTask("")
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), boom)

	bad := asynq.NewTask(TaskLedgerReconcile, []byte("{"))
	require.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)

	var unset *ReconcileJob
	require.Error(t, unset.Handle(context.Background(), task))
}

type stubBuilder struct {
	years []int
}

func (s *stubBuilder) CurrentYear() int { return 2024 }

func (s *stubBuilder) Monthly(_ context.Context, year int) (reports.Monthly, error) {
	s.years = append(s.years, year)
	return reports.Monthly{Year: year}, nil
}

func TestReportsWarmupDefaultsToRecentYears(t *testing.T) {
	builder := &stubBuilder{}
	job := NewReportsWarmupJob(builder, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewReportsWarmupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []int{2024, 2023}, builder.years)

	task, err = NewReportsWarmupTask(2021)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 2021, builder.years[len(builder.years)-1])
}

func TestTaskPayloads(t *testing.T) {
	task, err := NewReconcileTask("cli")
	require.NoError(t, err)
	assert.Equal(t, TaskLedgerReconcile, task.Type())
	var payload ReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "cli", payload.Trigger)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, QueueDefault, body.Queue)
}
