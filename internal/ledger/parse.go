package ledger

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stitchbook/stitchbook/internal/shared"
)

// Magnitude limits of the stored columns: record amounts and order totals are
// NUMERIC(12,2), the two balances NUMERIC(14,2).
var (
	MaxAmount  = decimal.RequireFromString("9999999999.99")
	MaxBalance = decimal.RequireFromString("999999999999.99")
)

// ParseMoney reads a decimal string with at most two fractional digits and a
// magnitude no larger than MaxAmount.
func ParseMoney(field, raw string) (decimal.Decimal, error) {
	return parseBounded(field, raw, MaxAmount)
}

// ParseBalance is ParseMoney bounded by MaxBalance.
func ParseBalance(field, raw string) (decimal.Decimal, error) {
	return parseBounded(field, raw, MaxBalance)
}

func parseBounded(field, raw string, limit decimal.Decimal) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, shared.NewValidationError(field, "is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, shared.NewValidationError(field, "must be a decimal number")
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, shared.NewValidationError(field, "must have at most 2 decimal places")
	}
	if d.Abs().GreaterThan(limit) {
		return decimal.Zero, shared.NewValidationError(field, "must not exceed "+limit.StringFixed(2)+" in magnitude")
	}
	return d, nil
}

// parseAmount reads a ledger amount and applies the sign policy.
func (s *Service) parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := ParseMoney(field, raw)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.checkAmount(field, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func (s *Service) checkAmount(field string, d decimal.Decimal) error {
	if s.policy.RequirePositiveAmounts && !d.IsPositive() {
		return shared.NewValidationError(field, "must be greater than 0")
	}
	return nil
}

func (s *Service) parseDate(field, raw string) (Date, error) {
	d, err := ParseDate(raw, s.loc)
	if err != nil {
		return Date{}, shared.NewValidationError(field, "must be a date formatted YYYY-MM-DD")
	}
	return d, nil
}

// parseOptionalDate treats an empty string as "no date".
func (s *Service) parseOptionalDate(field, raw string) (*Date, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := s.parseDate(field, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Service) buildItems(inputs []OrderItemInput) ([]OrderItem, error) {
	items := make([]OrderItem, 0, len(inputs))
	for i, in := range inputs {
		prefix := "items[" + strconv.Itoa(i) + "]."
		price, err := ParseMoney(prefix+"price", in.Price)
		if err != nil {
			return nil, err
		}
		if price.IsNegative() {
			return nil, shared.NewValidationError(prefix+"price", "must not be negative")
		}
		discount := decimal.Zero
		if strings.TrimSpace(in.Discount) != "" {
			discount, err = ParseMoney(prefix+"discount", in.Discount)
			if err != nil {
				return nil, err
			}
			if discount.IsNegative() {
				return nil, shared.NewValidationError(prefix+"discount", "must not be negative")
			}
		}
		if in.Quantity < 1 {
			return nil, shared.NewValidationError(prefix+"quantity", "must be at least 1")
		}
		line := price.Mul(decimal.NewFromInt(int64(in.Quantity))).Sub(discount)
		if line.Abs().GreaterThan(MaxAmount) {
			return nil, shared.NewValidationError(prefix+"price", "line total must not exceed "+MaxAmount.StringFixed(2))
		}
		id := strings.TrimSpace(in.ID)
		if id == "" {
			id = s.newID()
		}
		items = append(items, OrderItem{
			ID:          id,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			Price:       price,
			Discount:    discount,
		})
	}
	return items, nil
}

// checkOrderBounds rejects orders whose derived amounts no longer fit the
// order columns.
func checkOrderBounds(order Order, field string) error {
	for _, d := range []decimal.Decimal{order.TotalAmount, order.AdvanceAmount, order.BalanceAmount} {
		if d.Abs().GreaterThan(MaxAmount) {
			return shared.NewValidationError(field, "order amounts must not exceed "+MaxAmount.StringFixed(2))
		}
	}
	return nil
}

// checkBalanceBounds rejects a balance that would overflow its column.
func checkBalanceBounds(bal Balance) error {
	if bal.BankBalance.Abs().GreaterThan(MaxBalance) {
		return shared.NewValidationError("bankBalance", "must not exceed "+MaxBalance.StringFixed(2)+" in magnitude")
	}
	if bal.CashInHand.Abs().GreaterThan(MaxBalance) {
		return shared.NewValidationError("cashInHand", "must not exceed "+MaxBalance.StringFixed(2)+" in magnitude")
	}
	return nil
}

func (s *Service) validateStruct(v any) error {
	return shared.ValidationFromValidator(s.validate.Struct(v))
}

func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(raw[:6])
}
