package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stitchbook/stitchbook/internal/shared"
)

// Mutation names passed to change hooks.
const (
	OpBalanceSet        = "balance.set"
	OpOrderCreate       = "order.create"
	OpOrderUpdate       = "order.update"
	OpOrderItems        = "order.items"
	OpOrderCancel       = "order.cancel"
	OpOrderDelete       = "order.delete"
	OpPaymentRecord     = "payment.record"
	OpPaymentEdit       = "payment.edit"
	OpPaymentDelete     = "payment.delete"
	OpExpenseCreate     = "expense.create"
	OpExpenseUpdate     = "expense.update"
	OpExpenseDelete     = "expense.delete"
	OpTransactionCreate = "transaction.create"
	OpTransactionUpdate = "transaction.update"
	OpTransactionDelete = "transaction.delete"
)

// ChangeHook observes committed mutations, e.g. to invalidate report caches.
type ChangeHook interface {
	LedgerChanged(ctx context.Context, op string)
}

// ChangeHookFunc adapts a function to ChangeHook.
type ChangeHookFunc func(ctx context.Context, op string)

// LedgerChanged implements ChangeHook.
func (f ChangeHookFunc) LedgerChanged(ctx context.Context, op string) { f(ctx, op) }

// Config tunes the Service.
type Config struct {
	Policy   Policy
	Location *time.Location
	Logger   *slog.Logger
	Hooks    []ChangeHook
	// Clock overrides time.Now, mainly for tests.
	Clock func() time.Time
}

// Service is the ledger mutation engine. Every operation that writes a record
// moves the balances in the same transaction.
type Service struct {
	repo     Repository
	policy   Policy
	loc      *time.Location
	logger   *slog.Logger
	hooks    []ChangeHook
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// NewService constructs the ledger service.
func NewService(repo Repository, cfg Config) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     repo,
		policy:   cfg.Policy,
		loc:      loc,
		logger:   logger,
		hooks:    append([]ChangeHook(nil), cfg.Hooks...),
		validate: shared.NewValidator(),
		now:      func() time.Time { return now().UTC() },
		newID:    uuid.NewString,
	}
}

// AddHook registers a hook after construction.
func (s *Service) AddHook(h ChangeHook) {
	if h != nil {
		s.hooks = append(s.hooks, h)
	}
}

// Location is the zone used to turn timestamps into calendar days.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today is the current calendar day in the shop's zone.
func (s *Service) Today() Date {
	return DateOf(s.now(), s.loc)
}

func (s *Service) mutate(ctx context.Context, op string, fn func(context.Context, Repository) error) error {
	if err := s.repo.WithTx(ctx, fn); err != nil {
		return err
	}
	s.logger.Debug("ledger mutation committed", slog.String("op", op))
	for _, h := range s.hooks {
		h.LedgerChanged(ctx, op)
	}
	return nil
}

// move applies deltas to the balance singleton inside the caller's transaction.
func (s *Service) move(ctx context.Context, repo Repository, deltas ...Delta) error {
	if len(deltas) == 0 {
		return nil
	}
	bal, err := repo.GetBalance(ctx)
	if err != nil {
		return err
	}
	bal = bal.Apply(deltas...)
	if err := checkBalanceBounds(bal); err != nil {
		return err
	}
	bal.UpdatedAt = s.now()
	return repo.SaveBalance(ctx, bal)
}
