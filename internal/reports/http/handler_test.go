package reportshttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/ledger/memstore"
	"github.com/stitchbook/stitchbook/internal/rbac"
	"github.com/stitchbook/stitchbook/internal/reports"
	reportshttp "github.com/stitchbook/stitchbook/internal/reports/http"
	"github.com/stitchbook/stitchbook/internal/shared"
	_ "github.com/stitchbook/stitchbook/testing"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	opening := ledger.Balance{BankBalance: decimal.NewFromInt(10000), CashInHand: decimal.Zero}
	ledgerSvc := ledger.NewService(memstore.New(opening), ledger.Config{
		Policy:   ledger.DefaultPolicy(),
		Location: time.UTC,
		Clock:    func() time.Time { return time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC) },
	})
	svc := reports.NewService(ledgerSvc, reports.Config{Initial: opening})
	mw := rbac.Middleware{Service: rbac.NewService(rbac.ActorLookupFunc(func(context.Context, int64) (shared.Actor, error) {
		return shared.Actor{}, shared.ErrNotFound
	}))}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if role := req.Header.Get("X-Test-Role"); role != "" {
				req = req.WithContext(shared.ContextWithActor(req.Context(), shared.Actor{ID: 7, Username: role, Role: role}))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api", reportshttp.NewHandler(nil, svc, mw).MountRoutes)
	return r
}

func do(t *testing.T, h http.Handler, role, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMonthlyDefaultsToCurrentYear(t *testing.T) {
	h := newRouter(t)
	rec := do(t, h, shared.RoleManager, http.MethodGet, "/api/reports/monthly", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Year   int `json:"year"`
		Months []struct {
			Name        string `json:"name"`
			OpeningBank string `json:"openingBank"`
		} `json:"months"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2024, out.Year)
	require.Len(t, out.Months, 12)
	assert.Equal(t, "January", out.Months[0].Name)
	assert.Equal(t, "10000", out.Months[0].OpeningBank)

	rec = do(t, h, shared.RoleManager, http.MethodGet, "/api/reports/monthly?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsRoleGating(t *testing.T) {
	h := newRouter(t)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, "", http.MethodGet, "/api/reports/monthly", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, shared.RoleStaff, http.MethodGet, "/api/reports/monthly", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, shared.RoleStaff, http.MethodPost, "/api/reports/adjustments",
		`{"year":2024,"month":3,"account":"bank","closing":"1"}`).Code)
	assert.Equal(t, http.StatusOK, do(t, h, shared.RoleAdmin, http.MethodGet, "/api/reports/reconciliation", "").Code)
}

func TestAdjustmentEndpoint(t *testing.T) {
	h := newRouter(t)
	body := `{"year":2024,"month":3,"account":"bank","closing":"12000"}`

	rec := do(t, h, shared.RoleManager, http.MethodPost, "/api/reports/adjustments", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Difference  string `json:"difference"`
		Transaction struct {
			Type   string `json:"type"`
			Amount string `json:"amount"`
			Date   string `json:"date"`
		} `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "2000", out.Difference)
	assert.Equal(t, "Deposit", out.Transaction.Type)
	assert.Equal(t, "2024-03-31", out.Transaction.Date)

	rec = do(t, h, shared.RoleManager, http.MethodPost, "/api/reports/adjustments", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, shared.RoleManager, http.MethodPost, "/api/reports/adjustments", `{"year":2024,"month":0,"account":"bank","closing":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoints(t *testing.T) {
	h := newRouter(t)
	for _, path := range []string{
		"/api/reports/export/orders.xlsx",
		"/api/reports/export/expenses.xlsx",
		"/api/reports/export/monthly.xlsx?year=2024",
	} {
		rec := do(t, h, shared.RoleManager, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, reports.XLSXContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotZero(t, rec.Body.Len())
	}
}
