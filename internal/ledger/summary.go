package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// History reads every ledger record and the live balance in one transaction
// so the snapshot is consistent for replay and reconciliation.
func (s *Service) History(ctx context.Context) (History, error) {
	var h History
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		if h.Orders, err = repo.ListOrders(ctx); err != nil {
			return err
		}
		if h.Expenses, err = repo.ListExpenses(ctx); err != nil {
			return err
		}
		if h.Transactions, err = repo.ListTransactions(ctx); err != nil {
			return err
		}
		h.Balance, err = repo.GetBalance(ctx)
		return err
	})
	return h, err
}

// Summary rolls up sales collected, expenses and outstanding work.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	h, err := s.History(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		TotalSales:        decimal.Zero,
		TotalExpenses:     decimal.Zero,
		PendingSales:      decimal.Zero,
		OrdersCount:       len(h.Orders),
		TransactionsCount: len(h.Transactions),
		Balance:           h.Balance,
	}
	for _, o := range h.Orders {
		sum.TotalSales = sum.TotalSales.Add(o.TotalPaid())
		if o.WorkStatus == WorkPending || o.WorkStatus == WorkInProgress {
			sum.PendingOrders++
		}
		if o.PaymentStatus == PaymentUnpaid || o.PaymentStatus == PaymentPartial {
			sum.PendingSales = sum.PendingSales.Add(o.BalanceAmount)
		}
	}
	for _, e := range h.Expenses {
		sum.TotalExpenses = sum.TotalExpenses.Add(e.Amount)
	}
	return sum, nil
}
