package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchbook/stitchbook/internal/ledger"
)

func d(y int, m time.Month, day int) ledger.Date { return ledger.NewDate(y, m, day) }

func amt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func requireAmount(t *testing.T, want int64, got decimal.Decimal, msg string) {
	t.Helper()
	require.Truef(t, amt(want).Equal(got), "%s: want %d got %s", msg, want, got)
}

func sampleHistory() ledger.History {
	return ledger.History{
		Orders: []ledger.Order{
			{
				OrderNumber: "ORD-1",
				OrderDate:   d(2023, time.December, 20),
				TotalAmount: amt(3000),
				PaymentHistory: []ledger.PaymentRecord{
					{Amount: amt(1000), Date: d(2023, time.December, 20), Mode: ledger.ModeCash},
					{Amount: amt(2000), Date: d(2024, time.January, 10), Mode: ledger.ModeUPI},
				},
			},
			{
				OrderNumber: "ORD-2",
				OrderDate:   d(2024, time.January, 5),
				TotalAmount: amt(5000),
				PaymentHistory: []ledger.PaymentRecord{
					{Amount: amt(1500), Date: d(2024, time.January, 5), Mode: ledger.ModeBank},
					{Amount: amt(3500), Date: d(2024, time.February, 2), Mode: ledger.ModeCash},
				},
			},
		},
		Expenses: []ledger.Expense{
			{Amount: amt(400), Date: d(2024, time.January, 15), Mode: ledger.ModeCash},
			{Amount: amt(250), Date: d(2023, time.November, 1), Mode: ledger.ModeBank},
		},
		Transactions: []ledger.Transaction{
			{Type: ledger.TxDeposit, Amount: amt(700), Date: d(2024, time.January, 20), Mode: ledger.ModeBank},
			{Type: ledger.TxWithdraw, Amount: amt(100), Date: d(2024, time.February, 28), Mode: ledger.ModeCash},
		},
	}
}

var initial = ledger.Balance{BankBalance: amt(10000), CashInHand: amt(500)}

func TestBuildMonthlyOpeningIncludesPriorYears(t *testing.T) {
	report := BuildMonthly(2024, sampleHistory(), initial)
	require.Len(t, report.Months, 12)

	jan := report.Months[0]
	requireAmount(t, 9750, jan.OpeningBank, "opening bank")
	requireAmount(t, 1500, jan.OpeningCash, "opening cash")

	requireAmount(t, 3500, jan.Sales, "jan sales")
	requireAmount(t, 400, jan.Expenses, "jan expenses")
	requireAmount(t, 700, jan.Deposits, "jan deposits")
	requireAmount(t, 2000, jan.SalesByMode[ledger.ModeUPI], "jan upi sales")
	requireAmount(t, 1500, jan.SalesByMode[ledger.ModeBank], "jan bank sales")
	requireAmount(t, 9750+2000+1500+700, jan.ClosingBank, "jan closing bank")
	requireAmount(t, 1500-400, jan.ClosingCash, "jan closing cash")

	feb := report.Months[1]
	assert.True(t, feb.OpeningBank.Equal(jan.ClosingBank))
	assert.True(t, feb.OpeningCash.Equal(jan.ClosingCash))
	requireAmount(t, 1100+3500-100, feb.ClosingCash, "feb closing cash")

	dec := report.Months[11]
	assert.True(t, dec.ClosingBank.Equal(feb.ClosingBank))
	assert.True(t, dec.ClosingCash.Equal(feb.ClosingCash))
}

func TestBuildMonthlyCollections(t *testing.T) {
	report := BuildMonthly(2024, sampleHistory(), initial)
	jan, feb := report.Months[0], report.Months[1]

	assert.Equal(t, 1, jan.OrdersCount)
	requireAmount(t, 5000, jan.OrdersBooked, "booked")
	requireAmount(t, 1500, jan.CollectedSameMonth, "same month")
	requireAmount(t, 3500, jan.Pending, "pending")
	requireAmount(t, 2000, jan.PreviousMonthRecovery, "recovery from december order")

	requireAmount(t, 0, feb.OrdersBooked, "feb booked")
	requireAmount(t, 0, feb.Pending, "feb pending")
	requireAmount(t, 3500, feb.PreviousMonthRecovery, "feb recovery")

	requireAmount(t, 7000, report.Totals.Sales, "total sales")
	requireAmount(t, 5500, report.Totals.PreviousMonthRecovery, "total recovery")
	requireAmount(t, 100, report.Totals.Withdrawals, "total withdrawals")
}

func TestBuildMonthlyPendingNeverNegative(t *testing.T) {
	h := ledger.History{Orders: []ledger.Order{{
		OrderDate:   d(2024, time.May, 3),
		TotalAmount: amt(100),
		PaymentHistory: []ledger.PaymentRecord{
			{Amount: amt(250), Date: d(2024, time.May, 3), Mode: ledger.ModeCash},
		},
	}}}
	report := BuildMonthly(2024, h, ledger.Balance{})
	assert.True(t, report.Months[4].Pending.IsZero())
}

func TestBuildMonthlyIsDeterministic(t *testing.T) {
	h := sampleHistory()
	first := BuildMonthly(2024, h, initial)
	second := BuildMonthly(2024, h, initial)
	assert.Equal(t, first, second)

	// Input order must not change the result.
	h.Orders[0], h.Orders[1] = h.Orders[1], h.Orders[0]
	h.Expenses[0], h.Expenses[1] = h.Expenses[1], h.Expenses[0]
	shuffled := BuildMonthly(2024, h, initial)
	for i := range first.Months {
		assert.True(t, first.Months[i].ClosingBank.Equal(shuffled.Months[i].ClosingBank))
		assert.True(t, first.Months[i].ClosingCash.Equal(shuffled.Months[i].ClosingCash))
	}
}

func TestBuildMonthlyLaterYearsAreIgnored(t *testing.T) {
	report := BuildMonthly(2023, sampleHistory(), initial)
	dec := report.Months[11]
	requireAmount(t, 9750, dec.ClosingBank, "2023 closing bank")
	requireAmount(t, 1500, dec.ClosingCash, "2023 closing cash")
	assert.Equal(t, 1, dec.OrdersCount)
}

func TestReconcile(t *testing.T) {
	h := sampleHistory()
	expected := BuildMonthly(2024, h, initial).Months[11]
	h.Balance = ledger.Balance{BankBalance: expected.ClosingBank, CashInHand: expected.ClosingCash}

	rec := Reconcile(h, initial)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 8, rec.Entries)

	h.Balance.CashInHand = h.Balance.CashInHand.Add(amt(75))
	rec = Reconcile(h, initial)
	assert.False(t, rec.Consistent)
	requireAmount(t, 75, rec.Drift(ledger.AccountCash), "cash drift")
	requireAmount(t, 0, rec.Drift(ledger.AccountBank), "bank drift")
}
