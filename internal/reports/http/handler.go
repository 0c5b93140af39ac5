package reportshttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stitchbook/stitchbook/internal/platform/httpx"
	"github.com/stitchbook/stitchbook/internal/rbac"
	"github.com/stitchbook/stitchbook/internal/reports"
	"github.com/stitchbook/stitchbook/internal/shared"
)

type reportsService interface {
	CurrentYear() int
	Monthly(ctx context.Context, year int) (reports.Monthly, error)
	Reconcile(ctx context.Context) (reports.Reconciliation, error)
	AdjustClosing(ctx context.Context, in reports.AdjustmentInput) (reports.Adjustment, error)
	ExportOrders(ctx context.Context, w io.Writer) error
	ExportExpenses(ctx context.Context, w io.Writer) error
	ExportMonthly(ctx context.Context, year int, w io.Writer) error
}

// Handler serves statements, reconciliation and spreadsheet exports.
type Handler struct {
	logger  *slog.Logger
	service reportsService
	rbac    rbac.Middleware
}

// NewHandler constructs the reports HTTP handler.
func NewHandler(logger *slog.Logger, service reportsService, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers report routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermReportsView))
			r.Get("/monthly", h.monthly)
			r.Get("/reconciliation", h.reconciliation)
			r.Get("/export/orders.xlsx", h.exportOrders)
			r.Get("/export/expenses.xlsx", h.exportExpenses)
			r.Get("/export/monthly.xlsx", h.exportMonthly)
		})
		// An adjustment books a ledger transaction, so it needs both grants.
		r.With(h.rbac.RequireAll(shared.PermReportsAdjust, shared.PermTransactionsEdit)).Post("/adjustments", h.adjust)
	})
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Monthly(r.Context(), year)
	if err != nil {
		h.fail(w, "monthly report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) reconciliation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Reconcile(r.Context())
	if err != nil {
		h.fail(w, "reconcile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var in reports.AdjustmentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.AdjustClosing(r.Context(), in)
	if err != nil {
		h.fail(w, "adjust closing", err)
		return
	}
	status := http.StatusOK
	if out.Transaction != nil {
		status = http.StatusCreated
		if actor, ok := shared.ActorFromContext(r.Context()); ok {
			h.logger.Info("closing adjustment booked",
				slog.String("user", actor.Username),
				slog.String("transaction_id", out.Transaction.ID))
		}
	}
	httpx.JSON(w, status, out)
}

func (h *Handler) exportOrders(w http.ResponseWriter, r *http.Request) {
	h.sendWorkbook(w, r, "orders.xlsx", func(ctx context.Context, buf io.Writer) error {
		return h.service.ExportOrders(ctx, buf)
	})
}

func (h *Handler) exportExpenses(w http.ResponseWriter, r *http.Request) {
	h.sendWorkbook(w, r, "expenses.xlsx", func(ctx context.Context, buf io.Writer) error {
		return h.service.ExportExpenses(ctx, buf)
	})
}

func (h *Handler) exportMonthly(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.sendWorkbook(w, r, fmt.Sprintf("statement-%d.xlsx", year), func(ctx context.Context, buf io.Writer) error {
		return h.service.ExportMonthly(ctx, year, buf)
	})
}

// sendWorkbook buffers the workbook so a failed export still gets a problem
// response instead of a truncated file.
func (h *Handler) sendWorkbook(w http.ResponseWriter, r *http.Request, filename string, write func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := write(r.Context(), &buf); err != nil {
		h.fail(w, "export "+filename, err)
		return
	}
	w.Header().Set("Content-Type", reports.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write export", slog.String("file", filename), slog.Any("error", err))
	}
}

func (h *Handler) year(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return h.service.CurrentYear(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.NewValidationError("year", "must be a number")
	}
	return year, nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrConflict):
	default:
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
