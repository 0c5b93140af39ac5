package ledger

import (
	"context"
	"strings"
)

// ListTransactions returns fund movements, most recent first.
func (s *Service) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

// GetTransaction fetches one fund movement.
func (s *Service) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// CreateTransaction books a deposit or withdrawal against cash or bank.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (Transaction, error) {
	if err := s.validateStruct(in); err != nil {
		return Transaction{}, err
	}
	amount, err := s.parseAmount("amount", in.Amount)
	if err != nil {
		return Transaction{}, err
	}
	date, err := s.parseDate("date", in.Date)
	if err != nil {
		return Transaction{}, err
	}
	tx := Transaction{
		ID:          s.newID(),
		Type:        TxType(in.Type),
		Amount:      amount,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		Mode:        Mode(in.Mode),
		CreatedAt:   s.now(),
	}
	err = s.mutate(ctx, OpTransactionCreate, func(ctx context.Context, repo Repository) error {
		if err := repo.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		return s.move(ctx, repo, TransactionDelta(tx))
	})
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// UpdateTransaction reverses the old movement and applies the new one.
func (s *Service) UpdateTransaction(ctx context.Context, id string, in TransactionUpdate) (Transaction, error) {
	if err := s.validateStruct(in); err != nil {
		return Transaction{}, err
	}
	var patch Transaction
	var err error
	if in.Amount != nil {
		if patch.Amount, err = s.parseAmount("amount", *in.Amount); err != nil {
			return Transaction{}, err
		}
	}
	if in.Date != nil {
		if patch.Date, err = s.parseDate("date", *in.Date); err != nil {
			return Transaction{}, err
		}
	}

	var out Transaction
	err = s.mutate(ctx, OpTransactionUpdate, func(ctx context.Context, repo Repository) error {
		old, err := repo.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		next := old
		if in.Type != nil {
			next.Type = TxType(*in.Type)
		}
		if in.Amount != nil {
			next.Amount = patch.Amount
		}
		if in.Description != nil {
			next.Description = strings.TrimSpace(*in.Description)
		}
		if in.Date != nil {
			next.Date = patch.Date
		}
		if in.Mode != nil {
			next.Mode = Mode(*in.Mode)
		}
		if err := repo.UpdateTransaction(ctx, next); err != nil {
			return err
		}
		if err := s.move(ctx, repo, TransactionDelta(old).Reverse(), TransactionDelta(next)); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

// DeleteTransaction removes a fund movement and reverses its effect.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	return s.mutate(ctx, OpTransactionDelete, func(ctx context.Context, repo Repository) error {
		tx, err := repo.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		return s.move(ctx, repo, TransactionDelta(tx).Reverse())
	})
}
