package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/ledger/memstore"
	"github.com/stitchbook/stitchbook/internal/shared"
	_ "github.com/stitchbook/stitchbook/testing"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, mutate ...func(*ledger.Config)) (*ledger.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New(ledger.Balance{BankBalance: decimal.Zero, CashInHand: decimal.Zero})
	cfg := ledger.Config{
		Policy:   ledger.DefaultPolicy(),
		Location: time.UTC,
		Clock:    func() time.Time { return fixedNow },
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	return ledger.NewService(store, cfg), store
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}

func requireBalance(t *testing.T, svc *ledger.Service, bank, cash string) {
	t.Helper()
	bal, err := svc.Balances(context.Background())
	require.NoError(t, err)
	requireAmount(t, bank, bal.BankBalance)
	requireAmount(t, cash, bal.CashInHand)
}

func orderInput(price string, qty int) ledger.CreateOrderInput {
	return ledger.CreateOrderInput{
		ClientName: "Asha",
		Phone:      "9876543210",
		OrderDate:  "2024-03-10",
		Items: []ledger.OrderItemInput{
			{Description: "Blouse stitching", Quantity: qty, Price: price},
		},
	}
}

func TestCreateOrderWithAdvancePayment(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := orderInput("2000", 2)
	in.InitialPayment = "2000"
	in.InitialPaymentMode = "Cash"
	order, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)

	requireAmount(t, "4000", order.TotalAmount)
	requireAmount(t, "2000", order.AdvanceAmount)
	requireAmount(t, "2000", order.BalanceAmount)
	assert.Equal(t, ledger.PaymentPartial, order.PaymentStatus)
	assert.Equal(t, ledger.WorkPending, order.WorkStatus)
	assert.Equal(t, ledger.DeliveryPending, order.DeliveryStatus)
	require.Len(t, order.PaymentHistory, 1)
	assert.Equal(t, "Advance Payment", order.PaymentHistory[0].Note)
	assert.Equal(t, "2024-03-10", order.PaymentHistory[0].Date.String())
	assert.Regexp(t, `^ORD-[0-9A-F]{6}$`, order.OrderNumber)

	requireBalance(t, svc, "0", "2000")
}

func TestRecordPaymentSettlesOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := orderInput("2000", 2)
	in.InitialPayment = "2000"
	order, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)

	order, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "2000", Mode: "Bank", Date: "2024-03-12"})
	require.NoError(t, err)

	requireAmount(t, "4000", order.AdvanceAmount)
	requireAmount(t, "0", order.BalanceAmount)
	assert.Equal(t, ledger.PaymentPaid, order.PaymentStatus)
	require.Len(t, order.PaymentHistory, 2)
	requireBalance(t, svc, "2000", "2000")

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.PaymentPaid, stored.PaymentStatus)
}

func TestUPIPaymentCreditsBank(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, orderInput("1500", 1))
	require.NoError(t, err)
	assert.Equal(t, ledger.PaymentUnpaid, order.PaymentStatus)

	order, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "500", Mode: "UPI", Date: "2024-03-11"})
	require.NoError(t, err)
	assert.Equal(t, ledger.ModeUPI, order.PaymentHistory[0].Mode)
	requireBalance(t, svc, "500", "0")
}

func TestPaymentRoundTripRestoresBalance(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, orderInput("1000", 1))
	require.NoError(t, err)
	before, err := svc.Balances(ctx)
	require.NoError(t, err)

	order, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "750.50", Mode: "Cash", Date: "2024-03-11"})
	require.NoError(t, err)
	requireBalance(t, svc, "0", "750.50")

	order, err = svc.DeletePayment(ctx, order.ID, order.PaymentHistory[0].ID)
	require.NoError(t, err)
	assert.Empty(t, order.PaymentHistory)
	assert.Equal(t, ledger.PaymentUnpaid, order.PaymentStatus)
	requireAmount(t, "1000", order.BalanceAmount)

	after, err := svc.Balances(ctx)
	require.NoError(t, err)
	assert.True(t, before.CashInHand.Equal(after.CashInHand))
	assert.True(t, before.BankBalance.Equal(after.BankBalance))
}

func TestEditPaymentMovesBetweenAccounts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := orderInput("3000", 1)
	in.InitialPayment = "1000"
	order, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	requireBalance(t, svc, "0", "1000")

	amount, mode := "1200", "Bank"
	order, err = svc.EditPayment(ctx, order.ID, order.PaymentHistory[0].ID, ledger.PaymentUpdate{Amount: &amount, Mode: &mode})
	require.NoError(t, err)

	requireAmount(t, "1200", order.AdvanceAmount)
	requireAmount(t, "1800", order.BalanceAmount)
	requireBalance(t, svc, "1200", "0")
}

func TestEditPaymentUnknownID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, orderInput("100", 1))
	require.NoError(t, err)

	amount := "10"
	_, err = svc.EditPayment(ctx, order.ID, "missing", ledger.PaymentUpdate{Amount: &amount})
	require.ErrorIs(t, err, ledger.ErrPaymentNotFound)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteOrderReversesEveryPayment(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := orderInput("5000", 1)
	in.InitialPayment = "1000"
	order, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "1500", Mode: "Bank", Date: "2024-03-12"})
	require.NoError(t, err)
	requireBalance(t, svc, "1500", "1000")

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))
	requireBalance(t, svc, "0", "0")

	_, err = svc.GetOrder(ctx, order.ID)
	require.ErrorIs(t, err, ledger.ErrOrderNotFound)
}

func TestEditOrderItemsRederivesWithoutMovingMoney(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := orderInput("2000", 2)
	in.InitialPayment = "2000"
	order, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)

	order, err = svc.EditOrderItems(ctx, order.ID, []ledger.OrderItemInput{
		{Description: "Blouse stitching", Quantity: 1, Price: "2000"},
		{Description: "Lining", Quantity: 1, Price: "300", Discount: "300"},
	})
	require.NoError(t, err)

	requireAmount(t, "2000", order.TotalAmount)
	requireAmount(t, "0", order.BalanceAmount)
	assert.Equal(t, ledger.PaymentPaid, order.PaymentStatus)
	requireBalance(t, svc, "0", "2000")

	order, err = svc.EditOrderItems(ctx, order.ID, []ledger.OrderItemInput{
		{Description: "Lehenga", Quantity: 1, Price: "1500"},
	})
	require.NoError(t, err)
	requireAmount(t, "-500", order.BalanceAmount)
	assert.Equal(t, ledger.PaymentPaid, order.PaymentStatus)
	requireBalance(t, svc, "0", "2000")
}

func TestEditOrderItemsRejectsEmptyList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, orderInput("100", 1))
	require.NoError(t, err)

	_, err = svc.EditOrderItems(ctx, order.ID, nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	empty := []ledger.OrderItemInput{}
	_, err = svc.UpdateOrder(ctx, order.ID, ledger.UpdateOrderInput{Items: empty})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateOrderStampsDeliveredDate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, orderInput("800", 1))
	require.NoError(t, err)
	assert.Nil(t, order.DeliveredDate)

	delivered := "Delivered"
	name := "Asha R"
	order, err = svc.UpdateOrder(ctx, order.ID, ledger.UpdateOrderInput{DeliveryStatus: &delivered, ClientName: &name})
	require.NoError(t, err)
	require.NotNil(t, order.DeliveredDate)
	assert.Equal(t, "2024-03-15", order.DeliveredDate.String())
	assert.Equal(t, "Asha R", order.ClientName)
	requireBalance(t, svc, "0", "0")
}

func TestCancelOrderKeepsPayments(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := orderInput("900", 1)
	in.InitialPayment = "300"
	order, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)

	order, err = svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.WorkCancelled, order.WorkStatus)
	require.Len(t, order.PaymentHistory, 1)
	requireBalance(t, svc, "0", "300")
}

func TestDuplicateOrderNumberConflicts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := orderInput("100", 1)
	in.OrderNumber = "ORD-1001"
	_, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)

	in.InitialPayment = "50"
	_, err = svc.CreateOrder(ctx, in)
	require.ErrorIs(t, err, shared.ErrConflict)
	requireBalance(t, svc, "0", "0")
}

func TestUpdateOrderRejectsBlankIdentifiers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := orderInput("100", 1)
	in.OrderNumber = "ORD-2001"
	order, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)

	blank := "   "
	_, err = svc.UpdateOrder(ctx, order.ID, ledger.UpdateOrderInput{OrderNumber: &blank})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.UpdateOrder(ctx, order.ID, ledger.UpdateOrderInput{ClientName: &blank})
	require.ErrorIs(t, err, shared.ErrValidation)

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2001", got.OrderNumber)
	assert.Equal(t, "Asha", got.ClientName)

	in = orderInput("100", 1)
	in.ClientName = "  "
	_, err = svc.CreateOrder(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAmountsBoundedByColumnRange(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, orderInput("100", 1))
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "99999999999999999999.00", Mode: "Cash", Date: "2024-03-11"})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateExpense(ctx, ledger.ExpenseInput{
		Description: "Rent", Category: "Rent", Amount: "10000000000.00", Date: "2024-03-02", Mode: "Bank",
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	// Each line fits, the product does not.
	_, err = svc.CreateOrder(ctx, orderInput("9999999999.99", 2))
	require.ErrorIs(t, err, shared.ErrValidation)

	// Two lines that fit separately overflow the order total.
	in := orderInput("6000000000", 1)
	in.Items = append(in.Items, ledger.OrderItemInput{Description: "Lining", Quantity: 1, Price: "6000000000"})
	_, err = svc.CreateOrder(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "9999999999.99", Mode: "Cash", Date: "2024-03-11"})
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "1", Mode: "Cash", Date: "2024-03-12"})
	require.ErrorIs(t, err, shared.ErrValidation, "advance would overflow the order columns")

	huge := "1000000000000"
	_, err = svc.SetBalances(ctx, ledger.BalanceUpdate{BankBalance: &huge})
	require.ErrorIs(t, err, shared.ErrValidation)
	requireBalance(t, svc, "0", "9999999999.99")
}

func TestExpenseLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	exp, err := svc.CreateExpense(ctx, ledger.ExpenseInput{
		Description: "Thread", Category: "Materials", Amount: "250", Date: "2024-03-02", Mode: "Cash",
	})
	require.NoError(t, err)
	requireBalance(t, svc, "0", "-250")

	amount, mode := "400", "Bank"
	exp, err = svc.UpdateExpense(ctx, exp.ID, ledger.ExpenseUpdate{Amount: &amount, Mode: &mode})
	require.NoError(t, err)
	requireAmount(t, "400", exp.Amount)
	requireBalance(t, svc, "-400", "0")

	require.NoError(t, svc.DeleteExpense(ctx, exp.ID))
	requireBalance(t, svc, "0", "0")

	_, err = svc.GetExpense(ctx, exp.ID)
	require.ErrorIs(t, err, ledger.ErrExpenseNotFound)
}

func TestTransactionLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	dep, err := svc.CreateTransaction(ctx, ledger.TransactionInput{
		Type: "Deposit", Amount: "10000", Description: "Capital", Date: "2024-03-01", Mode: "Bank",
	})
	require.NoError(t, err)
	requireBalance(t, svc, "10000", "0")

	wd, err := svc.CreateTransaction(ctx, ledger.TransactionInput{
		Type: "Withdraw", Amount: "2500", Description: "Petty cash", Date: "2024-03-02", Mode: "Cash",
	})
	require.NoError(t, err)
	requireBalance(t, svc, "10000", "-2500")

	typ := "Deposit"
	_, err = svc.UpdateTransaction(ctx, wd.ID, ledger.TransactionUpdate{Type: &typ})
	require.NoError(t, err)
	requireBalance(t, svc, "10000", "2500")

	require.NoError(t, svc.DeleteTransaction(ctx, dep.ID))
	require.NoError(t, svc.DeleteTransaction(ctx, wd.ID))
	requireBalance(t, svc, "0", "0")

	txs, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestTransactionRejectsUPI(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreateTransaction(context.Background(), ledger.TransactionInput{
		Type: "Deposit", Amount: "10", Description: "x", Date: "2024-03-01", Mode: "UPI",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAmountPolicy(t *testing.T) {
	t.Run("rejects non-positive by default", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := context.Background()
		order, err := svc.CreateOrder(ctx, orderInput("100", 1))
		require.NoError(t, err)

		for _, amount := range []string{"0", "-10", "abc", "1.234"} {
			_, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: amount, Mode: "Cash", Date: "2024-03-11"})
			require.ErrorIsf(t, err, shared.ErrValidation, "amount %s", amount)
		}
		requireBalance(t, svc, "0", "0")
	})

	t.Run("negative entries act as corrections when allowed", func(t *testing.T) {
		svc, _ := newService(t, func(cfg *ledger.Config) { cfg.Policy.RequirePositiveAmounts = false })
		_, err := svc.CreateExpense(context.Background(), ledger.ExpenseInput{
			Description: "Refund from supplier", Category: "Materials", Amount: "-80", Date: "2024-03-02", Mode: "Cash",
		})
		require.NoError(t, err)
		requireBalance(t, svc, "0", "80")
	})
}

func TestOverpaymentPolicy(t *testing.T) {
	t.Run("allowed by default", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := context.Background()
		order, err := svc.CreateOrder(ctx, orderInput("100", 1))
		require.NoError(t, err)

		order, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "150", Mode: "Cash", Date: "2024-03-11"})
		require.NoError(t, err)
		requireAmount(t, "-50", order.BalanceAmount)
		assert.Equal(t, ledger.PaymentPaid, order.PaymentStatus)
	})

	t.Run("rejected when disabled", func(t *testing.T) {
		svc, _ := newService(t, func(cfg *ledger.Config) { cfg.Policy.AllowOverpayment = false })
		ctx := context.Background()
		order, err := svc.CreateOrder(ctx, orderInput("100", 1))
		require.NoError(t, err)

		_, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "150", Mode: "Cash", Date: "2024-03-11"})
		require.ErrorIs(t, err, shared.ErrValidation)
		requireBalance(t, svc, "0", "0")

		stored, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.PaymentHistory)
	})
}

func TestPaymentOnMissingOrder(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.RecordPayment(context.Background(), "nope", ledger.PaymentInput{Amount: "10", Mode: "Cash", Date: "2024-03-11"})
	require.ErrorIs(t, err, shared.ErrNotFound)
	requireBalance(t, svc, "0", "0")
}

// failingRepo fails every balance write so the surrounding transaction aborts.
type failingRepo struct {
	ledger.Repository
	err error
}

func (f *failingRepo) WithTx(ctx context.Context, fn func(context.Context, ledger.Repository) error) error {
	return f.Repository.WithTx(ctx, func(ctx context.Context, repo ledger.Repository) error {
		return fn(ctx, &failingRepo{Repository: repo, err: f.err})
	})
}

func (f *failingRepo) SaveBalance(ctx context.Context, b ledger.Balance) error {
	return f.err
}

func TestMutationIsAtomic(t *testing.T) {
	store := memstore.New(ledger.Balance{})
	boom := errors.New("disk full")
	svc := ledger.NewService(&failingRepo{Repository: store, err: boom}, ledger.Config{
		Policy:   ledger.DefaultPolicy(),
		Location: time.UTC,
	})
	ctx := context.Background()

	in := orderInput("400", 1)
	in.InitialPayment = "100"
	_, err := svc.CreateOrder(ctx, in)
	require.ErrorIs(t, err, boom)

	orders, err := store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = svc.CreateExpense(ctx, ledger.ExpenseInput{
		Description: "Rent", Category: "Rent", Amount: "100", Date: "2024-03-01", Mode: "Bank",
	})
	require.ErrorIs(t, err, boom)
	expenses, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestSetBalancesIsAbsolute(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateExpense(ctx, ledger.ExpenseInput{
		Description: "Rent", Category: "Rent", Amount: "100", Date: "2024-03-01", Mode: "Cash",
	})
	require.NoError(t, err)

	bank := "25000.50"
	bal, err := svc.SetBalances(ctx, ledger.BalanceUpdate{BankBalance: &bank})
	require.NoError(t, err)
	requireAmount(t, "25000.50", bal.BankBalance)
	requireAmount(t, "-100", bal.CashInHand)
	assert.Equal(t, fixedNow, bal.UpdatedAt)

	_, err = svc.SetBalances(ctx, ledger.BalanceUpdate{})
	require.ErrorIs(t, err, shared.ErrValidation)

	bad := "12.345"
	_, err = svc.SetBalances(ctx, ledger.BalanceUpdate{CashInHand: &bad})
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "cashInHand")
}

func TestSummary(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := orderInput("1000", 1)
	in.InitialPayment = "400"
	_, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)

	cancelled, err := svc.CreateOrder(ctx, orderInput("700", 1))
	require.NoError(t, err)
	_, err = svc.CancelOrder(ctx, cancelled.ID)
	require.NoError(t, err)

	_, err = svc.CreateExpense(ctx, ledger.ExpenseInput{
		Description: "Needles", Category: "Materials", Amount: "50", Date: "2024-03-03", Mode: "Cash",
	})
	require.NoError(t, err)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	requireAmount(t, "400", sum.TotalSales)
	requireAmount(t, "50", sum.TotalExpenses)
	requireAmount(t, "1300", sum.PendingSales)
	assert.Equal(t, 1, sum.PendingOrders)
	assert.Equal(t, 2, sum.OrdersCount)
	requireAmount(t, "350", sum.Balance.CashInHand)
}

func TestListOrdersFilters(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a := orderInput("100", 1)
	a.ClientName = "Meera"
	a.InitialPayment = "100"
	_, err := svc.CreateOrder(ctx, a)
	require.NoError(t, err)

	b := orderInput("100", 1)
	b.ClientName = "Kavya"
	_, err = svc.CreateOrder(ctx, b)
	require.NoError(t, err)

	got, err := svc.ListOrders(ctx, ledger.OrderFilter{Search: "meer"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Meera", got[0].ClientName)

	got, err = svc.ListOrders(ctx, ledger.OrderFilter{PaymentStatus: ledger.PaymentUnpaid})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kavya", got[0].ClientName)
}

func TestChangeHooksFireAfterCommit(t *testing.T) {
	var ops []string
	svc, _ := newService(t, func(cfg *ledger.Config) {
		cfg.Hooks = []ledger.ChangeHook{ledger.ChangeHookFunc(func(ctx context.Context, op string) {
			ops = append(ops, op)
		})}
	})
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, orderInput("100", 1))
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "0", Mode: "Cash", Date: "2024-03-11"})
	require.Error(t, err)
	_, err = svc.RecordPayment(ctx, order.ID, ledger.PaymentInput{Amount: "10", Mode: "Cash", Date: "2024-03-11"})
	require.NoError(t, err)

	assert.Equal(t, []string{ledger.OpOrderCreate, ledger.OpPaymentRecord}, ops)
}

func TestTimestampDatesUseShopZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	svc, _ := newService(t, func(cfg *ledger.Config) { cfg.Location = ist })

	exp, err := svc.CreateExpense(context.Background(), ledger.ExpenseInput{
		Description: "Late night courier", Category: "Delivery", Amount: "60",
		Date: "2024-01-31T20:00:00Z", Mode: "Cash",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", exp.Date.String())
}
