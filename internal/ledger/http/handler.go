package ledgerhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/platform/httpx"
	"github.com/stitchbook/stitchbook/internal/rbac"
	"github.com/stitchbook/stitchbook/internal/shared"
)

type ledgerService interface {
	Balances(ctx context.Context) (ledger.Balance, error)
	SetBalances(ctx context.Context, upd ledger.BalanceUpdate) (ledger.Balance, error)
	Summary(ctx context.Context) (ledger.Summary, error)

	ListOrders(ctx context.Context, filter ledger.OrderFilter) ([]ledger.Order, error)
	GetOrder(ctx context.Context, id string) (ledger.Order, error)
	CreateOrder(ctx context.Context, in ledger.CreateOrderInput) (ledger.Order, error)
	UpdateOrder(ctx context.Context, id string, in ledger.UpdateOrderInput) (ledger.Order, error)
	EditOrderItems(ctx context.Context, id string, items []ledger.OrderItemInput) (ledger.Order, error)
	CancelOrder(ctx context.Context, id string) (ledger.Order, error)
	DeleteOrder(ctx context.Context, id string) error

	RecordPayment(ctx context.Context, orderID string, in ledger.PaymentInput) (ledger.Order, error)
	EditPayment(ctx context.Context, orderID, paymentID string, in ledger.PaymentUpdate) (ledger.Order, error)
	DeletePayment(ctx context.Context, orderID, paymentID string) (ledger.Order, error)

	ListExpenses(ctx context.Context) ([]ledger.Expense, error)
	GetExpense(ctx context.Context, id string) (ledger.Expense, error)
	CreateExpense(ctx context.Context, in ledger.ExpenseInput) (ledger.Expense, error)
	UpdateExpense(ctx context.Context, id string, in ledger.ExpenseUpdate) (ledger.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	ListTransactions(ctx context.Context) ([]ledger.Transaction, error)
	GetTransaction(ctx context.Context, id string) (ledger.Transaction, error)
	CreateTransaction(ctx context.Context, in ledger.TransactionInput) (ledger.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, in ledger.TransactionUpdate) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// Handler exposes the ledger as a JSON API.
type Handler struct {
	logger      *slog.Logger
	service     ledgerService
	idempotency *shared.IdempotencyStore
	rbac        rbac.Middleware
}

// NewHandler constructs the ledger HTTP handler. idempotency may be nil.
func NewHandler(logger *slog.Logger, service ledgerService, idempotency *shared.IdempotencyStore, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, idempotency: idempotency, rbac: rbac}
}

// MountRoutes registers ledger routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermOrdersView)).Get("/", h.listOrders)
		r.With(h.rbac.RequireAny(shared.PermOrdersCreate)).Post("/", h.createOrder)
		r.Route("/{id}", func(r chi.Router) {
			r.With(h.rbac.RequireAny(shared.PermOrdersView)).Get("/", h.getOrder)
			r.Group(func(r chi.Router) {
				r.Use(h.rbac.RequireAny(shared.PermOrdersEdit))
				r.Patch("/", h.updateOrder)
				r.Put("/items", h.editItems)
				r.Post("/cancel", h.cancelOrder)
			})
			r.With(h.rbac.RequireAny(shared.PermOrdersDelete)).Delete("/", h.deleteOrder)
			r.With(h.rbac.RequireAny(shared.PermPaymentsRecord)).Post("/payments", h.recordPayment)
			r.Group(func(r chi.Router) {
				r.Use(h.rbac.RequireAny(shared.PermPaymentsEdit))
				r.Patch("/payments/{paymentID}", h.editPayment)
				r.Delete("/payments/{paymentID}", h.deletePayment)
			})
		})
	})
	r.Route("/expenses", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermExpensesView)).Get("/", h.listExpenses)
		r.With(h.rbac.RequireAny(shared.PermExpensesView)).Get("/{id}", h.getExpense)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermExpensesEdit))
			r.Post("/", h.createExpense)
			r.Patch("/{id}", h.updateExpense)
			r.Delete("/{id}", h.deleteExpense)
		})
	})
	r.Route("/transactions", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermTransactionsView)).Get("/", h.listTransactions)
		r.With(h.rbac.RequireAny(shared.PermTransactionsView)).Get("/{id}", h.getTransaction)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermTransactionsEdit))
			r.Post("/", h.createTransaction)
			r.Patch("/{id}", h.updateTransaction)
			r.Delete("/{id}", h.deleteTransaction)
		})
	})
	r.With(h.rbac.RequireAny(shared.PermBalancesView)).Get("/balances", h.getBalances)
	r.With(h.rbac.RequireAny(shared.PermBalancesEdit)).Patch("/balances", h.setBalances)
	r.With(h.rbac.RequireAny(shared.PermBalancesView)).Get("/summary", h.summary)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.OrderFilter{
		Search:         q.Get("search"),
		WorkStatus:     ledger.WorkStatus(q.Get("workStatus")),
		DeliveryStatus: ledger.DeliveryStatus(q.Get("deliveryStatus")),
		PaymentStatus:  ledger.PaymentStatus(q.Get("paymentStatus")),
	}
	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	page, meta := paginate(r, orders)
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": page, "pagination": meta})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in ledger.CreateOrderInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.idempotent(w, r, "orders", func(ctx context.Context) (any, error) {
		return h.service.CreateOrder(ctx, in)
	})
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var in ledger.UpdateOrderInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "update order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) editItems(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Items []ledger.OrderItemInput `json:"items"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.EditOrderItems(r.Context(), chi.URLParam(r, "id"), in.Items)
	if err != nil {
		h.fail(w, "edit order items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "cancel order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var in ledger.PaymentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	orderID := chi.URLParam(r, "id")
	h.idempotent(w, r, "payments:"+orderID, func(ctx context.Context) (any, error) {
		return h.service.RecordPayment(ctx, orderID, in)
	})
}

func (h *Handler) editPayment(w http.ResponseWriter, r *http.Request) {
	var in ledger.PaymentUpdate
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.EditPayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentID"), in)
	if err != nil {
		h.fail(w, "edit payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.DeletePayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentID"))
	if err != nil {
		h.fail(w, "delete payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.service.ListExpenses(r.Context())
	if err != nil {
		h.fail(w, "list expenses", err)
		return
	}
	page, meta := paginate(r, expenses)
	httpx.JSON(w, http.StatusOK, map[string]any{"expenses": page, "pagination": meta})
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	exp, err := h.service.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, exp)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var in ledger.ExpenseInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.idempotent(w, r, "expenses", func(ctx context.Context) (any, error) {
		return h.service.CreateExpense(ctx, in)
	})
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	var in ledger.ExpenseUpdate
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	exp, err := h.service.UpdateExpense(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "update expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, exp)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.ListTransactions(r.Context())
	if err != nil {
		h.fail(w, "list transactions", err)
		return
	}
	page, meta := paginate(r, txs)
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": page, "pagination": meta})
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tx)
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in ledger.TransactionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.idempotent(w, r, "transactions", func(ctx context.Context) (any, error) {
		return h.service.CreateTransaction(ctx, in)
	})
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var in ledger.TransactionUpdate
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tx, err := h.service.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "update transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tx)
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getBalances(w http.ResponseWriter, r *http.Request) {
	bal, err := h.service.Balances(r.Context())
	if err != nil {
		h.fail(w, "get balances", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bal)
}

func (h *Handler) setBalances(w http.ResponseWriter, r *http.Request) {
	var in ledger.BalanceUpdate
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	bal, err := h.service.SetBalances(r.Context(), in)
	if err != nil {
		h.fail(w, "set balances", err)
		return
	}
	if actor, ok := shared.ActorFromContext(r.Context()); ok {
		h.logger.Info("balances overwritten",
			slog.String("user", actor.Username),
			slog.String("bank_balance", bal.BankBalance.StringFixed(2)),
			slog.String("cash_in_hand", bal.CashInHand.StringFixed(2)))
	}
	httpx.JSON(w, http.StatusOK, bal)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, "summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

// idempotent runs create under the request's Idempotency-Key, if any. The key
// is released when create fails so the client can retry.
func (h *Handler) idempotent(w http.ResponseWriter, r *http.Request, module string, create func(context.Context) (any, error)) {
	ctx := r.Context()
	key := strings.TrimSpace(r.Header.Get(shared.IdempotencyHeader))
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.Claim(ctx, module, key); err != nil {
			h.fail(w, "claim idempotency key", err)
			return
		}
	}
	out, err := create(ctx)
	if err != nil {
		if key != "" && h.idempotency != nil {
			if relErr := h.idempotency.Release(ctx, module, key); relErr != nil {
				h.logger.Warn("release idempotency key", slog.String("module", module), slog.Any("error", relErr))
			}
		}
		h.fail(w, "create "+module, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}

// fail writes err and logs it when it is not an expected client error.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrConflict),
		errors.Is(err, shared.ErrIdempotencyConflict):
	default:
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func paginate[T any](r *http.Request, items []T) ([]T, shared.Pagination) {
	if items == nil {
		items = []T{}
	}
	page, perPage := shared.PaginationFromRequest(r)
	if perPage == 0 {
		return items, shared.NewPagination(1, max(len(items), 1), len(items))
	}
	meta := shared.NewPagination(page, perPage, len(items))
	start, end := meta.Window()
	return items[start:end], meta
}
