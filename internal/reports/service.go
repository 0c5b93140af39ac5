package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/shared"
)

// LedgerSource is the slice of the ledger engine reports depend on.
type LedgerSource interface {
	History(ctx context.Context) (ledger.History, error)
	CreateTransaction(ctx context.Context, in ledger.TransactionInput) (ledger.Transaction, error)
	Today() ledger.Date
}

// Config wires a Service.
type Config struct {
	// Initial is the opening balance the replay starts from. It must match
	// the seed of the balance store.
	Initial ledger.Balance
	Cache   *Cache
	Logger  *slog.Logger
}

// Service builds monthly statements and books closing adjustments.
type Service struct {
	ledger   LedgerSource
	initial  ledger.Balance
	cache    *Cache
	logger   *slog.Logger
	validate *validator.Validate
	group    singleflight.Group
	// stale is set when a version bump failed; cached statements are
	// bypassed until a later bump succeeds.
	stale atomic.Bool
}

// NewService constructs the reports service.
func NewService(source LedgerSource, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Cache != nil && cfg.Cache.logger == nil {
		cfg.Cache.logger = logger
	}
	return &Service{
		ledger:   source,
		initial:  cfg.Initial,
		cache:    cfg.Cache,
		logger:   logger,
		validate: shared.NewValidator(),
	}
}

// Monthly returns the statement for year, served from cache when the ledger
// has not changed since it was built.
func (s *Service) Monthly(ctx context.Context, year int) (Monthly, error) {
	if year < 1900 || year > 9999 {
		return Monthly{}, shared.NewValidationError("year", "must be a four digit year")
	}
	useCache := s.cacheUsable(ctx)
	key := "reports:monthly:" + strconv.Itoa(year) + ":direct"
	if useCache {
		versioned, err := s.cache.BuildKey(ctx, "monthly", strconv.Itoa(year))
		if err != nil {
			s.logger.Warn("reports cache unavailable", slog.Any("error", err))
			useCache = false
		} else {
			key = versioned
		}
	}
	val, err, _ := s.build(ctx, key, func(ctx context.Context) (any, error) {
		load := func(ctx context.Context) (any, error) {
			h, err := s.ledger.History(ctx)
			if err != nil {
				return nil, err
			}
			return BuildMonthly(year, h, s.initial), nil
		}
		if !useCache {
			return load(ctx)
		}
		var report Monthly
		err := s.cache.FetchJSON(ctx, key, &report, load)
		return report, err
	})
	if err != nil {
		return Monthly{}, err
	}
	return val.(Monthly), nil
}

// cacheUsable reports whether cached statements may be served. After a failed
// bump it retries the bump once per call.
func (s *Service) cacheUsable(ctx context.Context) bool {
	if !s.cache.enabled() {
		return false
	}
	if !s.stale.Load() {
		return true
	}
	if err := s.cache.Bump(ctx); err != nil {
		return false
	}
	s.stale.Store(false)
	return true
}

// CurrentYear is the calendar year in the shop's zone.
func (s *Service) CurrentYear() int {
	return s.ledger.Today().Year()
}

// build coalesces concurrent builds of the same key.
func (s *Service) build(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := s.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

// Reconcile replays the full history against the live balances. It always
// reads fresh data.
func (s *Service) Reconcile(ctx context.Context) (Reconciliation, error) {
	h, err := s.ledger.History(ctx)
	if err != nil {
		return Reconciliation{}, err
	}
	return Reconcile(h, s.initial), nil
}

// AdjustmentInput asks for a month's closing balance of one account to be
// moved to Closing.
type AdjustmentInput struct {
	Year    int    `json:"year" validate:"required,min=1900,max=9999"`
	Month   int    `json:"month" validate:"required,min=1,max=12"`
	Account string `json:"account" validate:"required,oneof=bank cash"`
	Closing string `json:"closing" validate:"required"`
}

// Adjustment is the outcome of AdjustClosing. Transaction is nil when the
// closing already matched.
type Adjustment struct {
	Previous    decimal.Decimal     `json:"previous"`
	Closing     decimal.Decimal     `json:"closing"`
	Difference  decimal.Decimal     `json:"difference"`
	Transaction *ledger.Transaction `json:"transaction"`
}

// AdjustClosing books the deposit or withdrawal that brings the replayed
// closing balance of the month to the requested value. The transaction is
// dated on the last day of the month so later months carry it forward.
func (s *Service) AdjustClosing(ctx context.Context, in AdjustmentInput) (Adjustment, error) {
	if err := shared.ValidationFromValidator(s.validate.Struct(in)); err != nil {
		return Adjustment{}, err
	}
	desired, err := ledger.ParseBalance("closing", in.Closing)
	if err != nil {
		return Adjustment{}, err
	}
	h, err := s.ledger.History(ctx)
	if err != nil {
		return Adjustment{}, err
	}
	month := time.Month(in.Month)
	account := ledger.Account(in.Account)
	current := BuildMonthly(in.Year, h, s.initial).Closing(month, account)

	out := Adjustment{Previous: current, Closing: desired, Difference: desired.Sub(current)}
	if out.Difference.IsZero() {
		return out, nil
	}
	txType := ledger.TxDeposit
	if out.Difference.IsNegative() {
		txType = ledger.TxWithdraw
	}
	tx, err := s.ledger.CreateTransaction(ctx, ledger.TransactionInput{
		Type:        string(txType),
		Amount:      out.Difference.Abs().StringFixed(2),
		Description: fmt.Sprintf("Balance Adjustment (%s)", month),
		Date:        ledger.MonthEnd(in.Year, month).String(),
		Mode:        string(account.Mode()),
	})
	if err != nil {
		return Adjustment{}, err
	}
	out.Transaction = &tx
	s.logger.Info("closing balance adjusted",
		slog.Int("year", in.Year),
		slog.String("month", month.String()),
		slog.String("account", in.Account),
		slog.String("difference", out.Difference.String()),
	)
	return out, nil
}

// LedgerChanged invalidates cached statements after any committed mutation.
func (s *Service) LedgerChanged(ctx context.Context, op string) {
	if err := s.cache.Bump(ctx); err != nil {
		s.stale.Store(true)
		s.logger.Warn("reports cache bump failed", slog.String("op", op), slog.Any("error", err))
	}
}

var _ ledger.ChangeHook = (*Service)(nil)
