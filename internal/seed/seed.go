// Package seed loads demo shop data from a YAML fixture and books it through
// the ledger service, so seeded balances always agree with their history.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/users"
)

//go:embed demo.yaml
var demoFixture []byte

// ErrLedgerNotEmpty is returned when the ledger already holds records.
var ErrLedgerNotEmpty = errors.New("seed: ledger already has records")

// Fixture is the decoded YAML document.
type Fixture struct {
	Users        []User        `yaml:"users"`
	Orders       []Order       `yaml:"orders"`
	Expenses     []Expense     `yaml:"expenses"`
	Transactions []Transaction `yaml:"transactions"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Item struct {
	Description string `yaml:"description"`
	Quantity    int    `yaml:"quantity"`
	Price       string `yaml:"price"`
	Discount    string `yaml:"discount"`
}

type Payment struct {
	Amount  string `yaml:"amount"`
	Mode    string `yaml:"mode"`
	DaysAgo int    `yaml:"daysAgo"`
	Note    string `yaml:"note"`
}

// Order dates are offsets from today. DueInDays may be negative for overdue
// work.
type Order struct {
	OrderNumber    string    `yaml:"orderNumber"`
	ClientName     string    `yaml:"clientName"`
	Phone          string    `yaml:"phone"`
	DaysAgo        int       `yaml:"daysAgo"`
	DueInDays      *int      `yaml:"dueInDays"`
	WorkStatus     string    `yaml:"workStatus"`
	DeliveryStatus string    `yaml:"deliveryStatus"`
	Notes          string    `yaml:"notes"`
	Items          []Item    `yaml:"items"`
	Payments       []Payment `yaml:"payments"`
}

type Expense struct {
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Amount      string `yaml:"amount"`
	Mode        string `yaml:"mode"`
	DaysAgo     int    `yaml:"daysAgo"`
}

type Transaction struct {
	Type        string `yaml:"type"`
	Amount      string `yaml:"amount"`
	Description string `yaml:"description"`
	Mode        string `yaml:"mode"`
	DaysAgo     int    `yaml:"daysAgo"`
}

// Parse decodes a fixture, rejecting unknown keys.
func Parse(data []byte) (Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixture{}, fmt.Errorf("seed: decode fixture: %w", err)
	}
	if err := fx.check(); err != nil {
		return Fixture{}, err
	}
	return fx, nil
}

// Demo returns the bundled demo fixture.
func Demo() (Fixture, error) {
	return Parse(demoFixture)
}

func (fx Fixture) check() error {
	for i, o := range fx.Orders {
		if o.DaysAgo < 0 {
			return fmt.Errorf("seed: order %d: daysAgo must not be negative", i)
		}
		for j, p := range o.Payments {
			if p.DaysAgo < 0 || p.DaysAgo > o.DaysAgo {
				return fmt.Errorf("seed: order %d payment %d: must fall between the order date and today", i, j)
			}
		}
	}
	for i, e := range fx.Expenses {
		if e.DaysAgo < 0 {
			return fmt.Errorf("seed: expense %d: daysAgo must not be negative", i)
		}
	}
	for i, t := range fx.Transactions {
		if t.DaysAgo < 0 {
			return fmt.Errorf("seed: transaction %d: daysAgo must not be negative", i)
		}
	}
	return nil
}

// LedgerWriter is the part of ledger.Service the seeder books through.
type LedgerWriter interface {
	Today() ledger.Date
	History(ctx context.Context) (ledger.History, error)
	CreateOrder(ctx context.Context, in ledger.CreateOrderInput) (ledger.Order, error)
	RecordPayment(ctx context.Context, orderID string, in ledger.PaymentInput) (ledger.Order, error)
	CreateExpense(ctx context.Context, in ledger.ExpenseInput) (ledger.Expense, error)
	CreateTransaction(ctx context.Context, in ledger.TransactionInput) (ledger.Transaction, error)
}

// UserCreator adds accounts.
type UserCreator interface {
	CreateUser(ctx context.Context, in users.CreateInput) (users.User, error)
}

// Result counts what Apply booked.
type Result struct {
	Users        int
	SkippedUsers []string
	Orders       int
	Payments     int
	Expenses     int
	Transactions int
}

// Apply creates the fixture's users, skipping taken usernames, then books its
// ledger records. Ledger records are only written into an empty ledger.
func Apply(ctx context.Context, fx Fixture, book LedgerWriter, accounts UserCreator, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result
	if accounts != nil {
		for _, u := range fx.Users {
			_, err := accounts.CreateUser(ctx, users.CreateInput{Username: u.Username, Password: u.Password, Role: u.Role})
			if errors.Is(err, users.ErrUsernameTaken) {
				res.SkippedUsers = append(res.SkippedUsers, u.Username)
				continue
			}
			if err != nil {
				return res, fmt.Errorf("seed: user %s: %w", u.Username, err)
			}
			res.Users++
		}
	}

	h, err := book.History(ctx)
	if err != nil {
		return res, err
	}
	if len(h.Orders)+len(h.Expenses)+len(h.Transactions) > 0 {
		return res, ErrLedgerNotEmpty
	}

	today := book.Today()
	day := func(ago int) string { return today.AddDays(-ago).String() }

	for _, o := range fx.Orders {
		in := ledger.CreateOrderInput{
			OrderNumber:    o.OrderNumber,
			ClientName:     o.ClientName,
			Phone:          o.Phone,
			WorkStatus:     o.WorkStatus,
			DeliveryStatus: o.DeliveryStatus,
			OrderDate:      day(o.DaysAgo),
			Notes:          o.Notes,
		}
		if o.DueInDays != nil {
			in.DueDate = today.AddDays(*o.DueInDays).String()
		}
		for _, it := range o.Items {
			in.Items = append(in.Items, ledger.OrderItemInput{
				Description: it.Description,
				Quantity:    it.Quantity,
				Price:       it.Price,
				Discount:    it.Discount,
			})
		}
		order, err := book.CreateOrder(ctx, in)
		if err != nil {
			return res, fmt.Errorf("seed: order %s: %w", o.OrderNumber, err)
		}
		res.Orders++
		for _, p := range o.Payments {
			_, err := book.RecordPayment(ctx, order.ID, ledger.PaymentInput{
				Amount: p.Amount,
				Mode:   p.Mode,
				Date:   day(p.DaysAgo),
				Note:   p.Note,
			})
			if err != nil {
				return res, fmt.Errorf("seed: payment on %s: %w", o.OrderNumber, err)
			}
			res.Payments++
		}
	}

	for _, e := range fx.Expenses {
		_, err := book.CreateExpense(ctx, ledger.ExpenseInput{
			Description: e.Description,
			Category:    e.Category,
			Amount:      e.Amount,
			Date:        day(e.DaysAgo),
			Mode:        e.Mode,
		})
		if err != nil {
			return res, fmt.Errorf("seed: expense %q: %w", e.Description, err)
		}
		res.Expenses++
	}

	for _, t := range fx.Transactions {
		_, err := book.CreateTransaction(ctx, ledger.TransactionInput{
			Type:        t.Type,
			Amount:      t.Amount,
			Description: t.Description,
			Date:        day(t.DaysAgo),
			Mode:        t.Mode,
		})
		if err != nil {
			return res, fmt.Errorf("seed: transaction %q: %w", t.Description, err)
		}
		res.Transactions++
	}

	logger.Info("seeded ledger",
		slog.Int("orders", res.Orders),
		slog.Int("payments", res.Payments),
		slog.Int("expenses", res.Expenses),
		slog.Int("transactions", res.Transactions))
	return res, nil
}
