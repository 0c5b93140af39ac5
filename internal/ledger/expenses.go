package ledger

import (
	"context"
	"strings"
)

// ListExpenses returns expenses, most recent first.
func (s *Service) ListExpenses(ctx context.Context) ([]Expense, error) {
	return s.repo.ListExpenses(ctx)
}

// GetExpense fetches one expense.
func (s *Service) GetExpense(ctx context.Context, id string) (Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

// CreateExpense records an expense and debits its account.
func (s *Service) CreateExpense(ctx context.Context, in ExpenseInput) (Expense, error) {
	if err := s.validateStruct(in); err != nil {
		return Expense{}, err
	}
	amount, err := s.parseAmount("amount", in.Amount)
	if err != nil {
		return Expense{}, err
	}
	date, err := s.parseDate("date", in.Date)
	if err != nil {
		return Expense{}, err
	}
	exp := Expense{
		ID:          s.newID(),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Amount:      amount,
		Date:        date,
		Mode:        Mode(in.Mode),
		CreatedAt:   s.now(),
	}
	err = s.mutate(ctx, OpExpenseCreate, func(ctx context.Context, repo Repository) error {
		if err := repo.InsertExpense(ctx, exp); err != nil {
			return err
		}
		return s.move(ctx, repo, ExpenseDelta(exp))
	})
	if err != nil {
		return Expense{}, err
	}
	return exp, nil
}

// UpdateExpense refunds the old debit and applies the new one.
func (s *Service) UpdateExpense(ctx context.Context, id string, in ExpenseUpdate) (Expense, error) {
	if err := s.validateStruct(in); err != nil {
		return Expense{}, err
	}
	var patch Expense
	var err error
	if in.Amount != nil {
		if patch.Amount, err = s.parseAmount("amount", *in.Amount); err != nil {
			return Expense{}, err
		}
	}
	if in.Date != nil {
		if patch.Date, err = s.parseDate("date", *in.Date); err != nil {
			return Expense{}, err
		}
	}

	var out Expense
	err = s.mutate(ctx, OpExpenseUpdate, func(ctx context.Context, repo Repository) error {
		old, err := repo.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		next := old
		if in.Description != nil {
			next.Description = strings.TrimSpace(*in.Description)
		}
		if in.Category != nil {
			next.Category = strings.TrimSpace(*in.Category)
		}
		if in.Amount != nil {
			next.Amount = patch.Amount
		}
		if in.Date != nil {
			next.Date = patch.Date
		}
		if in.Mode != nil {
			next.Mode = Mode(*in.Mode)
		}
		if err := repo.UpdateExpense(ctx, next); err != nil {
			return err
		}
		if err := s.move(ctx, repo, ExpenseDelta(old).Reverse(), ExpenseDelta(next)); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

// DeleteExpense removes an expense and refunds its account.
func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	return s.mutate(ctx, OpExpenseDelete, func(ctx context.Context, repo Repository) error {
		exp, err := repo.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteExpense(ctx, id); err != nil {
			return err
		}
		return s.move(ctx, repo, ExpenseDelta(exp).Reverse())
	})
}
