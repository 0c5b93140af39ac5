package ledger

// Policy toggles validation rules the shop may relax.
type Policy struct {
	// RequirePositiveAmounts rejects zero and negative payments, expenses and
	// transactions. With it off, negative entries act as corrections.
	RequirePositiveAmounts bool
	// AllowOverpayment lets payments push an order's balance below zero.
	AllowOverpayment bool
}

// DefaultPolicy requires positive amounts and tolerates overpayment.
func DefaultPolicy() Policy {
	return Policy{RequirePositiveAmounts: true, AllowOverpayment: true}
}
