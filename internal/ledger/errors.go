package ledger

import (
	"fmt"

	"github.com/stitchbook/stitchbook/internal/shared"
)

// Domain errors. Each wraps the shared taxonomy so transports can map them.
var (
	ErrOrderNotFound       = fmt.Errorf("order %w", shared.ErrNotFound)
	ErrPaymentNotFound     = fmt.Errorf("payment %w", shared.ErrNotFound)
	ErrExpenseNotFound     = fmt.Errorf("expense %w", shared.ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", shared.ErrNotFound)

	ErrDuplicateOrderNumber = fmt.Errorf("order number already exists: %w", shared.ErrConflict)
)
