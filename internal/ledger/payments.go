package ledger

import (
	"context"
	"strings"
)

// RecordPayment appends a payment to the order, re-derives its aggregates and
// credits the payment's account, all in one transaction.
func (s *Service) RecordPayment(ctx context.Context, orderID string, in PaymentInput) (Order, error) {
	if err := s.validateStruct(in); err != nil {
		return Order{}, err
	}
	amount, err := s.parseAmount("amount", in.Amount)
	if err != nil {
		return Order{}, err
	}
	date, err := s.parseDate("date", in.Date)
	if err != nil {
		return Order{}, err
	}
	rec := PaymentRecord{
		ID:     s.newID(),
		Amount: amount,
		Date:   date,
		Mode:   Mode(in.Mode),
		Note:   strings.TrimSpace(in.Note),
	}

	var out Order
	err = s.mutate(ctx, OpPaymentRecord, func(ctx context.Context, repo Repository) error {
		order, err := repo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		order.PaymentHistory = append(order.PaymentHistory, rec)
		order.Recompute()
		if err := checkOrderBounds(order, "amount"); err != nil {
			return err
		}
		if err := s.checkOverpayment(order, "amount"); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order); err != nil {
			return err
		}
		if err := s.move(ctx, repo, PaymentDelta(rec)); err != nil {
			return err
		}
		out = order
		return nil
	})
	return out, err
}

// EditPayment replaces one payment: the old credit is reversed and the new
// one applied, possibly to the other account.
func (s *Service) EditPayment(ctx context.Context, orderID, paymentID string, in PaymentUpdate) (Order, error) {
	if err := s.validateStruct(in); err != nil {
		return Order{}, err
	}
	var (
		patch PaymentRecord
		err   error
	)
	if in.Amount != nil {
		if patch.Amount, err = s.parseAmount("amount", *in.Amount); err != nil {
			return Order{}, err
		}
	}
	if in.Date != nil {
		if patch.Date, err = s.parseDate("date", *in.Date); err != nil {
			return Order{}, err
		}
	}

	var out Order
	err = s.mutate(ctx, OpPaymentEdit, func(ctx context.Context, repo Repository) error {
		order, err := repo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		idx := order.paymentIndex(paymentID)
		if idx < 0 {
			return ErrPaymentNotFound
		}
		old := order.PaymentHistory[idx]
		next := old
		if in.Amount != nil {
			next.Amount = patch.Amount
		}
		if in.Mode != nil {
			next.Mode = Mode(*in.Mode)
		}
		if in.Date != nil {
			next.Date = patch.Date
		}
		if in.Note != nil {
			next.Note = strings.TrimSpace(*in.Note)
		}
		order.PaymentHistory[idx] = next
		order.Recompute()
		if err := checkOrderBounds(order, "amount"); err != nil {
			return err
		}
		if err := s.checkOverpayment(order, "amount"); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order); err != nil {
			return err
		}
		if err := s.move(ctx, repo, PaymentDelta(old).Reverse(), PaymentDelta(next)); err != nil {
			return err
		}
		out = order
		return nil
	})
	return out, err
}

// DeletePayment removes one payment and reverses its credit.
func (s *Service) DeletePayment(ctx context.Context, orderID, paymentID string) (Order, error) {
	var out Order
	err := s.mutate(ctx, OpPaymentDelete, func(ctx context.Context, repo Repository) error {
		order, err := repo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		idx := order.paymentIndex(paymentID)
		if idx < 0 {
			return ErrPaymentNotFound
		}
		removed := order.PaymentHistory[idx]
		order.PaymentHistory = append(order.PaymentHistory[:idx:idx], order.PaymentHistory[idx+1:]...)
		order.Recompute()
		if err := checkOrderBounds(order, "amount"); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order); err != nil {
			return err
		}
		if err := s.move(ctx, repo, PaymentDelta(removed).Reverse()); err != nil {
			return err
		}
		out = order
		return nil
	})
	return out, err
}
