// Package reports derives monthly cash and bank statements by replaying the
// ledger history. Nothing here writes to the balance store.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stitchbook/stitchbook/internal/ledger"
)

// Kind tags a replayed entry.
type Kind string

const (
	KindSale     Kind = "sale"
	KindExpense  Kind = "expense"
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
)

// Entry is one flattened monetary record.
type Entry struct {
	Date   ledger.Date
	Kind   Kind
	Amount decimal.Decimal
	Mode   ledger.Mode
	// OrderDate is set on sales to the parent order's booking day.
	OrderDate ledger.Date
}

// delta is the signed effect of e on its account.
func (e Entry) delta() ledger.Delta {
	amount := e.Amount
	if e.Kind == KindExpense || e.Kind == KindWithdraw {
		amount = amount.Neg()
	}
	return ledger.Delta{Account: e.Mode.Account(), Amount: amount}
}

// Flatten turns the history into entries sorted by day. Ties keep the order
// sales, expenses, transactions so repeated runs produce the same sequence.
func Flatten(h ledger.History) []Entry {
	var out []Entry
	for _, o := range h.Orders {
		for _, p := range o.PaymentHistory {
			out = append(out, Entry{Date: p.Date, Kind: KindSale, Amount: p.Amount, Mode: p.Mode, OrderDate: o.OrderDate})
		}
	}
	for _, e := range h.Expenses {
		out = append(out, Entry{Date: e.Date, Kind: KindExpense, Amount: e.Amount, Mode: e.Mode})
	}
	for _, t := range h.Transactions {
		kind := KindDeposit
		if t.Type == ledger.TxWithdraw {
			kind = KindWithdraw
		}
		out = append(out, Entry{Date: t.Date, Kind: kind, Amount: t.Amount, Mode: t.Mode})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Month is one row of the monthly statement.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Name  string     `json:"name"`

	Sales       decimal.Decimal `json:"sales"`
	Expenses    decimal.Decimal `json:"expenses"`
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`

	SalesByMode       map[ledger.Mode]decimal.Decimal `json:"salesByMode"`
	ExpensesByMode    map[ledger.Mode]decimal.Decimal `json:"expensesByMode"`
	DepositsByMode    map[ledger.Mode]decimal.Decimal `json:"depositsByMode"`
	WithdrawalsByMode map[ledger.Mode]decimal.Decimal `json:"withdrawalsByMode"`

	OpeningBank decimal.Decimal `json:"openingBank"`
	ClosingBank decimal.Decimal `json:"closingBank"`
	OpeningCash decimal.Decimal `json:"openingCash"`
	ClosingCash decimal.Decimal `json:"closingCash"`

	OrdersCount           int             `json:"ordersCount"`
	OrdersBooked          decimal.Decimal `json:"ordersBooked"`
	CollectedSameMonth    decimal.Decimal `json:"collectedSameMonth"`
	Pending               decimal.Decimal `json:"pending"`
	PreviousMonthRecovery decimal.Decimal `json:"previousMonthRecovery"`
}

// Totals sums the flows of a year.
type Totals struct {
	Sales                 decimal.Decimal `json:"sales"`
	Expenses              decimal.Decimal `json:"expenses"`
	Deposits              decimal.Decimal `json:"deposits"`
	Withdrawals           decimal.Decimal `json:"withdrawals"`
	OrdersBooked          decimal.Decimal `json:"ordersBooked"`
	PreviousMonthRecovery decimal.Decimal `json:"previousMonthRecovery"`
}

// Monthly is the twelve-month statement of one year.
type Monthly struct {
	Year   int     `json:"year"`
	Months []Month `json:"months"`
	Totals Totals  `json:"totals"`
}

func newMonth(year int, m time.Month) Month {
	return Month{
		Year:                  year,
		Month:                 m,
		Name:                  m.String(),
		Sales:                 decimal.Zero,
		Expenses:              decimal.Zero,
		Deposits:              decimal.Zero,
		Withdrawals:           decimal.Zero,
		SalesByMode:           map[ledger.Mode]decimal.Decimal{},
		ExpensesByMode:        map[ledger.Mode]decimal.Decimal{},
		DepositsByMode:        map[ledger.Mode]decimal.Decimal{},
		WithdrawalsByMode:     map[ledger.Mode]decimal.Decimal{},
		OrdersBooked:          decimal.Zero,
		CollectedSameMonth:    decimal.Zero,
		Pending:               decimal.Zero,
		PreviousMonthRecovery: decimal.Zero,
	}
}

func addTo(m map[ledger.Mode]decimal.Decimal, mode ledger.Mode, amount decimal.Decimal) {
	cur, ok := m[mode]
	if !ok {
		cur = decimal.Zero
	}
	m[mode] = cur.Add(amount)
}

// BuildMonthly replays h for year starting from the opening balances in
// initial. Records dated before the year roll into January's opening.
func BuildMonthly(year int, h ledger.History, initial ledger.Balance) Monthly {
	entries := Flatten(h)
	running := ledger.Balance{BankBalance: initial.BankBalance, CashInHand: initial.CashInHand}
	yearStart := ledger.NewDate(year, time.January, 1)

	i := 0
	for ; i < len(entries) && entries[i].Date.Before(yearStart); i++ {
		running = running.Apply(entries[i].delta())
	}

	report := Monthly{Year: year, Months: make([]Month, 0, 12)}
	for m := time.January; m <= time.December; m++ {
		row := newMonth(year, m)
		row.OpeningBank = running.BankBalance
		row.OpeningCash = running.CashInHand
		monthStart := ledger.NewDate(year, m, 1)

		for ; i < len(entries) && entries[i].Date.Year() == year && entries[i].Date.Month() == m; i++ {
			e := entries[i]
			running = running.Apply(e.delta())
			switch e.Kind {
			case KindSale:
				row.Sales = row.Sales.Add(e.Amount)
				addTo(row.SalesByMode, e.Mode, e.Amount)
				switch {
				case e.OrderDate.SameMonth(e.Date):
					row.CollectedSameMonth = row.CollectedSameMonth.Add(e.Amount)
				case e.OrderDate.Before(monthStart):
					row.PreviousMonthRecovery = row.PreviousMonthRecovery.Add(e.Amount)
				}
			case KindExpense:
				row.Expenses = row.Expenses.Add(e.Amount)
				addTo(row.ExpensesByMode, e.Mode, e.Amount)
			case KindDeposit:
				row.Deposits = row.Deposits.Add(e.Amount)
				addTo(row.DepositsByMode, e.Mode, e.Amount)
			case KindWithdraw:
				row.Withdrawals = row.Withdrawals.Add(e.Amount)
				addTo(row.WithdrawalsByMode, e.Mode, e.Amount)
			}
		}
		row.ClosingBank = running.BankBalance
		row.ClosingCash = running.CashInHand
		report.Months = append(report.Months, row)
	}

	for _, o := range h.Orders {
		if o.OrderDate.Year() != year {
			continue
		}
		row := &report.Months[o.OrderDate.Month()-1]
		row.OrdersCount++
		row.OrdersBooked = row.OrdersBooked.Add(o.TotalAmount)
	}

	report.Totals = Totals{
		Sales:                 decimal.Zero,
		Expenses:              decimal.Zero,
		Deposits:              decimal.Zero,
		Withdrawals:           decimal.Zero,
		OrdersBooked:          decimal.Zero,
		PreviousMonthRecovery: decimal.Zero,
	}
	for idx := range report.Months {
		row := &report.Months[idx]
		pending := row.OrdersBooked.Sub(row.CollectedSameMonth)
		if pending.IsNegative() {
			pending = decimal.Zero
		}
		row.Pending = pending

		t := &report.Totals
		t.Sales = t.Sales.Add(row.Sales)
		t.Expenses = t.Expenses.Add(row.Expenses)
		t.Deposits = t.Deposits.Add(row.Deposits)
		t.Withdrawals = t.Withdrawals.Add(row.Withdrawals)
		t.OrdersBooked = t.OrdersBooked.Add(row.OrdersBooked)
		t.PreviousMonthRecovery = t.PreviousMonthRecovery.Add(row.PreviousMonthRecovery)
	}
	return report
}

// Closing returns the replayed closing balance of account at the end of
// month.
func (m Monthly) Closing(month time.Month, account ledger.Account) decimal.Decimal {
	row := m.Months[month-1]
	if account == ledger.AccountCash {
		return row.ClosingCash
	}
	return row.ClosingBank
}

// Reconciliation compares the replayed balances with the live store.
type Reconciliation struct {
	Expected   ledger.Balance  `json:"expected"`
	Live       ledger.Balance  `json:"live"`
	BankDrift  decimal.Decimal `json:"bankDrift"`
	CashDrift  decimal.Decimal `json:"cashDrift"`
	Consistent bool            `json:"consistent"`
	Entries    int             `json:"entries"`
}

// Reconcile replays every record on top of initial and reports how far the
// live balances have drifted from it. Drift is live minus expected.
func Reconcile(h ledger.History, initial ledger.Balance) Reconciliation {
	entries := Flatten(h)
	expected := ledger.Balance{BankBalance: initial.BankBalance, CashInHand: initial.CashInHand}
	for _, e := range entries {
		expected = expected.Apply(e.delta())
	}
	rec := Reconciliation{
		Expected:  expected,
		Live:      h.Balance,
		BankDrift: h.Balance.BankBalance.Sub(expected.BankBalance),
		CashDrift: h.Balance.CashInHand.Sub(expected.CashInHand),
		Entries:   len(entries),
	}
	rec.Consistent = rec.BankDrift.IsZero() && rec.CashDrift.IsZero()
	return rec
}

// Drift returns the drift of one account.
func (r Reconciliation) Drift(account ledger.Account) decimal.Decimal {
	if account == ledger.AccountCash {
		return r.CashDrift
	}
	return r.BankDrift
}
