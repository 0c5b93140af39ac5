package ledger

import "github.com/shopspring/decimal"

// Delta is the signed amount one record contributes to one account.
type Delta struct {
	Account Account
	Amount  decimal.Decimal
}

// Reverse undoes d.
func (d Delta) Reverse() Delta {
	return Delta{Account: d.Account, Amount: d.Amount.Neg()}
}

// PaymentDelta credits the payment's account.
func PaymentDelta(p PaymentRecord) Delta {
	return Delta{Account: p.Mode.Account(), Amount: p.Amount}
}

// ExpenseDelta debits the expense's account.
func ExpenseDelta(e Expense) Delta {
	return Delta{Account: e.Mode.Account(), Amount: e.Amount.Neg()}
}

// TransactionDelta credits deposits and debits withdrawals.
func TransactionDelta(t Transaction) Delta {
	amount := t.Amount
	if t.Type == TxWithdraw {
		amount = amount.Neg()
	}
	return Delta{Account: t.Mode.Account(), Amount: amount}
}

// OrderDeltas lists the contribution of every payment on the order.
func OrderDeltas(o Order) []Delta {
	out := make([]Delta, 0, len(o.PaymentHistory))
	for _, p := range o.PaymentHistory {
		out = append(out, PaymentDelta(p))
	}
	return out
}

// Apply returns b moved by every delta. UpdatedAt is left to the caller.
func (b Balance) Apply(deltas ...Delta) Balance {
	for _, d := range deltas {
		switch d.Account {
		case AccountCash:
			b.CashInHand = b.CashInHand.Add(d.Amount)
		case AccountBank:
			b.BankBalance = b.BankBalance.Add(d.Amount)
		}
	}
	return b
}

// Reversed flips every delta.
func Reversed(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		out[i] = d.Reverse()
	}
	return out
}
