package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/shared"
)

func TestBalanceSeededLazily(t *testing.T) {
	store := New(ledger.Balance{BankBalance: decimal.NewFromInt(5000), CashInHand: decimal.NewFromInt(200)})

	bal, err := store.GetBalance(context.Background())
	require.NoError(t, err)
	require.True(t, bal.BankBalance.Equal(decimal.NewFromInt(5000)))
	require.True(t, bal.CashInHand.Equal(decimal.NewFromInt(200)))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := New(ledger.Balance{})
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(ctx context.Context, repo ledger.Repository) error {
		require.NoError(t, repo.InsertExpense(ctx, ledger.Expense{ID: "e1", Amount: decimal.NewFromInt(10)}))
		require.NoError(t, repo.SaveBalance(ctx, ledger.Balance{CashInHand: decimal.NewFromInt(-10)}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.GetExpense(ctx, "e1")
	require.ErrorIs(t, err, shared.ErrNotFound)
	bal, err := store.GetBalance(ctx)
	require.NoError(t, err)
	require.True(t, bal.CashInHand.IsZero())
}

func TestWithTxCommits(t *testing.T) {
	store := New(ledger.Balance{})
	ctx := context.Background()

	err := store.WithTx(ctx, func(ctx context.Context, repo ledger.Repository) error {
		return repo.InsertTransaction(ctx, ledger.Transaction{ID: "t1", Type: ledger.TxDeposit, Amount: decimal.NewFromInt(1)})
	})
	require.NoError(t, err)

	got, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, ledger.TxDeposit, got.Type)
}

func TestOrdersAreCopied(t *testing.T) {
	store := New(ledger.Balance{})
	ctx := context.Background()
	order := ledger.Order{
		ID:          "o1",
		OrderNumber: "ORD-1",
		Items:       []ledger.OrderItem{{ID: "i1", Description: "Kurta", Quantity: 1, Price: decimal.NewFromInt(100)}},
	}
	require.NoError(t, store.InsertOrder(ctx, order))

	order.Items[0].Description = "changed"
	got, err := store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, "Kurta", got.Items[0].Description)

	got.Items[0].Description = "changed again"
	again, err := store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, "Kurta", again.Items[0].Description)
}

func TestOrderNumberUnique(t *testing.T) {
	store := New(ledger.Balance{})
	ctx := context.Background()

	require.NoError(t, store.InsertOrder(ctx, ledger.Order{ID: "a", OrderNumber: "ORD-1"}))
	require.NoError(t, store.InsertOrder(ctx, ledger.Order{ID: "b", OrderNumber: "ORD-2"}))

	err := store.InsertOrder(ctx, ledger.Order{ID: "c", OrderNumber: "ORD-1"})
	require.ErrorIs(t, err, shared.ErrConflict)

	err = store.UpdateOrder(ctx, ledger.Order{ID: "b", OrderNumber: "ORD-1"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestListOrdering(t *testing.T) {
	store := New(ledger.Balance{})
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertOrder(ctx, ledger.Order{ID: "old", OrderNumber: "1", CreatedAt: base}))
	require.NoError(t, store.InsertOrder(ctx, ledger.Order{ID: "new", OrderNumber: "2", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.InsertExpense(ctx, ledger.Expense{ID: "e-early", Date: ledger.NewDate(2024, 2, 1)}))
	require.NoError(t, store.InsertExpense(ctx, ledger.Expense{ID: "e-late", Date: ledger.NewDate(2024, 3, 1)}))

	orders, err := store.ListOrders(ctx)
	require.NoError(t, err)
	require.Equal(t, "new", orders[0].ID)

	expenses, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	require.Equal(t, "e-late", expenses[0].ID)
}
