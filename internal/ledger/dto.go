package ledger

import "github.com/shopspring/decimal"

// BalanceUpdate overwrites the named balances. Nil fields are left alone.
type BalanceUpdate struct {
	BankBalance *string `json:"bankBalance"`
	CashInHand  *string `json:"cashInHand"`
}

// OrderItemInput describes one billed line.
type OrderItemInput struct {
	ID          string `json:"id"`
	Description string `json:"description" validate:"required,max=500"`
	Quantity    int    `json:"quantity" validate:"min=1"`
	Price       string `json:"price" validate:"required"`
	Discount    string `json:"discount"`
}

// CreateOrderInput captures a new order. InitialPayment, when positive, is
// booked as the first payment dated on the order date.
type CreateOrderInput struct {
	OrderNumber        string           `json:"orderNumber" validate:"max=50"`
	ClientName         string           `json:"clientName" validate:"required,max=200"`
	Phone              string           `json:"phone" validate:"max=20"`
	Items              []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	WorkStatus         string           `json:"workStatus" validate:"omitempty,oneof='Pending' 'In Progress' 'Ready' 'Cancelled'"`
	DeliveryStatus     string           `json:"deliveryStatus" validate:"omitempty,oneof='Pending' 'Out for Delivery' 'Delivered' 'Returned'"`
	OrderDate          string           `json:"orderDate" validate:"required"`
	DueDate            string           `json:"dueDate"`
	Notes              string           `json:"notes" validate:"max=2000"`
	InitialPayment     string           `json:"initialPayment"`
	InitialPaymentMode string           `json:"initialPaymentMode" validate:"omitempty,oneof=Cash Bank UPI"`
}

// UpdateOrderInput patches order fields. Items, when present, replace the
// billed lines; payment aggregates are always derived.
type UpdateOrderInput struct {
	OrderNumber    *string          `json:"orderNumber" validate:"omitempty,min=1,max=50"`
	ClientName     *string          `json:"clientName" validate:"omitempty,min=1,max=200"`
	Phone          *string          `json:"phone" validate:"omitempty,max=20"`
	Items          []OrderItemInput `json:"items" validate:"omitempty,min=1,dive"`
	WorkStatus     *string          `json:"workStatus" validate:"omitempty,oneof='Pending' 'In Progress' 'Ready' 'Cancelled'"`
	DeliveryStatus *string          `json:"deliveryStatus" validate:"omitempty,oneof='Pending' 'Out for Delivery' 'Delivered' 'Returned'"`
	OrderDate      *string          `json:"orderDate"`
	DueDate        *string          `json:"dueDate"`
	DeliveredDate  *string          `json:"deliveredDate"`
	Notes          *string          `json:"notes" validate:"omitempty,max=2000"`
}

// PaymentInput records or replaces one payment.
type PaymentInput struct {
	Amount string `json:"amount" validate:"required"`
	Mode   string `json:"mode" validate:"required,oneof=Cash Bank UPI"`
	Date   string `json:"date" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

// PaymentUpdate patches one payment.
type PaymentUpdate struct {
	Amount *string `json:"amount"`
	Mode   *string `json:"mode" validate:"omitempty,oneof=Cash Bank UPI"`
	Date   *string `json:"date"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

// ExpenseInput captures a new expense.
type ExpenseInput struct {
	Description string `json:"description" validate:"required,max=500"`
	Category    string `json:"category" validate:"required,max=50"`
	Amount      string `json:"amount" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Mode        string `json:"mode" validate:"required,oneof=Cash Bank UPI"`
}

// ExpenseUpdate patches an expense.
type ExpenseUpdate struct {
	Description *string `json:"description" validate:"omitempty,min=1,max=500"`
	Category    *string `json:"category" validate:"omitempty,min=1,max=50"`
	Amount      *string `json:"amount"`
	Date        *string `json:"date"`
	Mode        *string `json:"mode" validate:"omitempty,oneof=Cash Bank UPI"`
}

// TransactionInput captures a fund movement.
type TransactionInput struct {
	Type        string `json:"type" validate:"required,oneof=Deposit Withdraw"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required,max=500"`
	Date        string `json:"date" validate:"required"`
	Mode        string `json:"mode" validate:"required,oneof=Cash Bank"`
}

// TransactionUpdate patches a fund movement.
type TransactionUpdate struct {
	Type        *string `json:"type" validate:"omitempty,oneof=Deposit Withdraw"`
	Amount      *string `json:"amount"`
	Description *string `json:"description" validate:"omitempty,min=1,max=500"`
	Date        *string `json:"date"`
	Mode        *string `json:"mode" validate:"omitempty,oneof=Cash Bank"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Search         string
	WorkStatus     WorkStatus
	DeliveryStatus DeliveryStatus
	PaymentStatus  PaymentStatus
}

// Summary is the dashboard roll-up.
type Summary struct {
	TotalSales        decimal.Decimal `json:"totalSales"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	PendingOrders     int             `json:"pendingOrders"`
	PendingSales      decimal.Decimal `json:"pendingSales"`
	OrdersCount       int             `json:"ordersCount"`
	TransactionsCount int             `json:"transactionsCount"`
	Balance           Balance         `json:"balance"`
}
