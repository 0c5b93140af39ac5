package ledger

import "context"

// BalanceStore persists the balance singleton. It does no arithmetic;
// GetBalance creates the row with the configured opening values when absent.
type BalanceStore interface {
	GetBalance(ctx context.Context) (Balance, error)
	SaveBalance(ctx context.Context, b Balance) error
}

// Repository is the storage port of the ledger. Implementations must make
// WithTx all-or-nothing: when fn fails nothing it wrote is visible.
type Repository interface {
	BalanceStore

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	ListOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	InsertOrder(ctx context.Context, o Order) error
	UpdateOrder(ctx context.Context, o Order) error
	DeleteOrder(ctx context.Context, id string) error

	ListExpenses(ctx context.Context) ([]Expense, error)
	GetExpense(ctx context.Context, id string) (Expense, error)
	InsertExpense(ctx context.Context, e Expense) error
	UpdateExpense(ctx context.Context, e Expense) error
	DeleteExpense(ctx context.Context, id string) error

	ListTransactions(ctx context.Context) ([]Transaction, error)
	GetTransaction(ctx context.Context, id string) (Transaction, error)
	InsertTransaction(ctx context.Context, t Transaction) error
	UpdateTransaction(ctx context.Context, t Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}
