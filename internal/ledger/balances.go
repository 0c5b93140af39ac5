package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/stitchbook/stitchbook/internal/shared"
)

// Balances returns the live balance singleton.
func (s *Service) Balances(ctx context.Context) (Balance, error) {
	return s.repo.GetBalance(ctx)
}

// SetBalances overwrites the named balances. This is an absolute set, not a
// delta; the reports reconciliation will show the resulting drift.
func (s *Service) SetBalances(ctx context.Context, upd BalanceUpdate) (Balance, error) {
	if upd.BankBalance == nil && upd.CashInHand == nil {
		return Balance{}, shared.NewValidationError("bankBalance", "bankBalance or cashInHand is required")
	}
	fields := &shared.ValidationError{Fields: map[string]string{}}
	var bal Balance
	parse := func(field string, raw *string, dst *decimal.Decimal) {
		if raw == nil {
			return
		}
		v, err := ParseBalance(field, *raw)
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			fields.Fields[field] = verr.Fields[field]
			return
		}
		*dst = v
	}
	parse("bankBalance", upd.BankBalance, &bal.BankBalance)
	parse("cashInHand", upd.CashInHand, &bal.CashInHand)
	if len(fields.Fields) > 0 {
		return Balance{}, fields
	}

	var out Balance
	err := s.mutate(ctx, OpBalanceSet, func(ctx context.Context, repo Repository) error {
		current, err := repo.GetBalance(ctx)
		if err != nil {
			return err
		}
		if upd.BankBalance != nil {
			current.BankBalance = bal.BankBalance
		}
		if upd.CashInHand != nil {
			current.CashInHand = bal.CashInHand
		}
		current.UpdatedAt = s.now()
		if err := repo.SaveBalance(ctx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	return out, err
}
