// Package ledger keeps the shop's two running account balances consistent
// with every order payment, expense and fund transaction.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode is the payment channel of a monetary record.
type Mode string

const (
	ModeCash Mode = "Cash"
	ModeBank Mode = "Bank"
	ModeUPI  Mode = "UPI"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeCash, ModeBank, ModeUPI:
		return true
	}
	return false
}

// Account routes the mode to the balance it moves. UPI settles into the bank.
func (m Mode) Account() Account {
	if m == ModeCash {
		return AccountCash
	}
	return AccountBank
}

// Account names one of the two running balances.
type Account string

const (
	AccountBank Account = "bank"
	AccountCash Account = "cash"
)

// Valid reports whether a is bank or cash.
func (a Account) Valid() bool {
	return a == AccountBank || a == AccountCash
}

// Mode returns the canonical mode for postings into a.
func (a Account) Mode() Mode {
	if a == AccountCash {
		return ModeCash
	}
	return ModeBank
}

// TxType distinguishes fund movements.
type TxType string

const (
	TxDeposit  TxType = "Deposit"
	TxWithdraw TxType = "Withdraw"
)

// WorkStatus tracks tailoring progress.
type WorkStatus string

const (
	WorkPending    WorkStatus = "Pending"
	WorkInProgress WorkStatus = "In Progress"
	WorkReady      WorkStatus = "Ready"
	WorkCancelled  WorkStatus = "Cancelled"
)

// Valid reports whether s is a known work status.
func (s WorkStatus) Valid() bool {
	switch s {
	case WorkPending, WorkInProgress, WorkReady, WorkCancelled:
		return true
	}
	return false
}

// DeliveryStatus tracks hand-over to the client.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "Pending"
	DeliveryOutForDelivery DeliveryStatus = "Out for Delivery"
	DeliveryDelivered      DeliveryStatus = "Delivered"
	DeliveryReturned       DeliveryStatus = "Returned"
)

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryOutForDelivery, DeliveryDelivered, DeliveryReturned:
		return true
	}
	return false
}

// PaymentStatus is derived from an order's payment history.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "Unpaid"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

// Balance is the singleton pair of running account balances.
type Balance struct {
	BankBalance decimal.Decimal `json:"bankBalance"`
	CashInHand  decimal.Decimal `json:"cashInHand"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Of returns the running value of account.
func (b Balance) Of(account Account) decimal.Decimal {
	if account == AccountCash {
		return b.CashInHand
	}
	return b.BankBalance
}

// OrderItem is a billed line owned by one order.
type OrderItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
}

// LineTotal is price x quantity less discount.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))).Sub(i.Discount)
}

// PaymentRecord is one entry of an order's payment history.
type PaymentRecord struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   Date            `json:"date"`
	Mode   Mode            `json:"mode"`
	Note   string          `json:"note,omitempty"`
}

// Order is a client order with itemised billing and staged payments.
type Order struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"orderNumber"`
	ClientName     string          `json:"clientName"`
	Phone          string          `json:"phone"`
	Items          []OrderItem     `json:"items"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	AdvanceAmount  decimal.Decimal `json:"advanceAmount"`
	BalanceAmount  decimal.Decimal `json:"balanceAmount"`
	WorkStatus     WorkStatus      `json:"workStatus"`
	DeliveryStatus DeliveryStatus  `json:"deliveryStatus"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	PaymentHistory []PaymentRecord `json:"paymentHistory"`
	OrderDate      Date            `json:"orderDate"`
	DueDate        *Date           `json:"dueDate,omitempty"`
	DeliveredDate  *Date           `json:"deliveredDate,omitempty"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// TotalPaid sums the payment history.
func (o Order) TotalPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range o.PaymentHistory {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// ItemsTotal sums line totals.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// DerivePaymentStatus maps an outstanding balance and paid sum to a status.
// Overpayment (negative balance) still resolves to Paid.
func DerivePaymentStatus(balance, paid decimal.Decimal) PaymentStatus {
	switch {
	case balance.LessThanOrEqual(decimal.Zero):
		return PaymentPaid
	case paid.GreaterThan(decimal.Zero):
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

// Recompute refreshes the materialised aggregates from items and payment
// history. Every write to either must call it before persisting.
func (o *Order) Recompute() {
	paid := o.TotalPaid()
	o.TotalAmount = ItemsTotal(o.Items)
	o.AdvanceAmount = paid
	o.BalanceAmount = o.TotalAmount.Sub(paid)
	o.PaymentStatus = DerivePaymentStatus(o.BalanceAmount, paid)
}

func (o *Order) paymentIndex(id string) int {
	for i, p := range o.PaymentHistory {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]OrderItem(nil), o.Items...)
	out.PaymentHistory = append([]PaymentRecord(nil), o.PaymentHistory...)
	if o.DueDate != nil {
		d := *o.DueDate
		out.DueDate = &d
	}
	if o.DeliveredDate != nil {
		d := *o.DeliveredDate
		out.DeliveredDate = &d
	}
	return out
}

// Expense is money spent by the shop.
type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	Mode        Mode            `json:"mode"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Transaction is a deposit into or withdrawal from one account.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TxType          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        Date            `json:"date"`
	Mode        Mode            `json:"mode"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// History is a consistent snapshot of every ledger-affecting record together
// with the live balance.
type History struct {
	Orders       []Order       `json:"orders"`
	Expenses     []Expense     `json:"expenses"`
	Transactions []Transaction `json:"transactions"`
	Balance      Balance       `json:"balance"`
}
