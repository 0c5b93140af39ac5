// Package pgstore persists the ledger in PostgreSQL.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/platform/db"
)

const balanceRowID = "singleton"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements ledger.Repository on a pgx pool.
type Store struct {
	pool    *pgxpool.Pool
	q       querier
	inTx    bool
	initial ledger.Balance
}

// New constructs a Store. initial seeds the balance row the first time it is
// read.
func New(pool *pgxpool.Pool, initial ledger.Balance) *Store {
	return &Store{pool: pool, q: pool, initial: initial}
}

// WithTx runs fn in a repeatable-read transaction. Nested calls join the
// outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, ledger.Repository) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Store{pool: s.pool, q: tx, inTx: true, initial: s.initial})
	})
}

// GetBalance reads the singleton, creating it from the opening values when
// missing. Inside a transaction the row is locked until commit.
func (s *Store) GetBalance(ctx context.Context) (ledger.Balance, error) {
	query := `SELECT bank_balance::text, cash_in_hand::text, updated_at FROM balances WHERE id = $1`
	if s.inTx {
		query += ` FOR UPDATE`
	}
	bal, err := s.scanBalance(s.q.QueryRow(ctx, query, balanceRowID))
	if err == nil {
		return bal, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ledger.Balance{}, fmt.Errorf("pgstore: get balance: %w", err)
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO balances (id, bank_balance, cash_in_hand, updated_at)
		VALUES ($1, $2::numeric, $3::numeric, $4)
		ON CONFLICT (id) DO NOTHING`,
		balanceRowID, s.initial.BankBalance.String(), s.initial.CashInHand.String(), time.Now().UTC())
	if err != nil {
		return ledger.Balance{}, db.MapError(fmt.Errorf("pgstore: seed balance: %w", err))
	}
	bal, err = s.scanBalance(s.q.QueryRow(ctx, query, balanceRowID))
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("pgstore: get balance: %w", err)
	}
	return bal, nil
}

func (s *Store) scanBalance(row pgx.Row) (ledger.Balance, error) {
	var bank, cash string
	var updated time.Time
	if err := row.Scan(&bank, &cash, &updated); err != nil {
		return ledger.Balance{}, err
	}
	b, err := decimal.NewFromString(bank)
	if err != nil {
		return ledger.Balance{}, err
	}
	c, err := decimal.NewFromString(cash)
	if err != nil {
		return ledger.Balance{}, err
	}
	return ledger.Balance{BankBalance: b, CashInHand: c, UpdatedAt: updated.UTC()}, nil
}

// SaveBalance upserts the singleton.
func (s *Store) SaveBalance(ctx context.Context, b ledger.Balance) error {
	updated := b.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO balances (id, bank_balance, cash_in_hand, updated_at)
		VALUES ($1, $2::numeric, $3::numeric, $4)
		ON CONFLICT (id) DO UPDATE
		SET bank_balance = EXCLUDED.bank_balance,
		    cash_in_hand = EXCLUDED.cash_in_hand,
		    updated_at = EXCLUDED.updated_at`,
		balanceRowID, b.BankBalance.String(), b.CashInHand.String(), updated)
	if err != nil {
		return db.MapError(fmt.Errorf("pgstore: save balance: %w", err))
	}
	return nil
}

const orderColumns = `
	id::text, order_number, client_name, phone, items,
	total_amount::text, advance_amount::text, balance_amount::text,
	work_status, delivery_status, payment_status, payment_history,
	order_date, due_date, delivered_date, notes, created_at`

func (s *Store) ListOrders(ctx context.Context) ([]ledger.Order, error) {
	rows, err := s.q.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, order_number DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list orders: %w", err)
	}
	defer rows.Close()
	var out []ledger.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore: scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id string) (ledger.Order, error) {
	key, err := rowID(id, ledger.ErrOrderNotFound)
	if err != nil {
		return ledger.Order{}, err
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1::uuid`
	if s.inTx {
		query += ` FOR UPDATE`
	}
	o, err := scanOrder(s.q.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Order{}, ledger.ErrOrderNotFound
	}
	if err != nil {
		return ledger.Order{}, fmt.Errorf("pgstore: get order: %w", err)
	}
	return o, nil
}

func (s *Store) InsertOrder(ctx context.Context, o ledger.Order) error {
	items, history, err := encodeOrderJSON(o)
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, client_name, phone, items,
			total_amount, advance_amount, balance_amount,
			work_status, delivery_status, payment_status, payment_history,
			order_date, due_date, delivered_date, notes, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::numeric, $7::numeric, $8::numeric,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17
		)`,
		o.ID, o.OrderNumber, o.ClientName, o.Phone, items,
		o.TotalAmount.String(), o.AdvanceAmount.String(), o.BalanceAmount.String(),
		string(o.WorkStatus), string(o.DeliveryStatus), string(o.PaymentStatus), history,
		dateParam(&o.OrderDate), dateParam(o.DueDate), dateParam(o.DeliveredDate), o.Notes, o.CreatedAt,
	)
	return mapOrderError("insert order", err)
}

func (s *Store) UpdateOrder(ctx context.Context, o ledger.Order) error {
	key, err := rowID(o.ID, ledger.ErrOrderNotFound)
	if err != nil {
		return err
	}
	items, history, err := encodeOrderJSON(o)
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE orders SET
			order_number = $2, client_name = $3, phone = $4, items = $5,
			total_amount = $6::numeric, advance_amount = $7::numeric, balance_amount = $8::numeric,
			work_status = $9, delivery_status = $10, payment_status = $11, payment_history = $12,
			order_date = $13, due_date = $14, delivered_date = $15, notes = $16
		WHERE id = $1::uuid`,
		key, o.OrderNumber, o.ClientName, o.Phone, items,
		o.TotalAmount.String(), o.AdvanceAmount.String(), o.BalanceAmount.String(),
		string(o.WorkStatus), string(o.DeliveryStatus), string(o.PaymentStatus), history,
		dateParam(&o.OrderDate), dateParam(o.DueDate), dateParam(o.DeliveredDate), o.Notes,
	)
	if err != nil {
		return mapOrderError("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrOrderNotFound
	}
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "orders", id, ledger.ErrOrderNotFound)
}

const expenseColumns = `id::text, description, category, amount::text, date, mode, created_at`

func (s *Store) ListExpenses(ctx context.Context) ([]ledger.Expense, error) {
	rows, err := s.q.Query(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list expenses: %w", err)
	}
	defer rows.Close()
	var out []ledger.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore: scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetExpense(ctx context.Context, id string) (ledger.Expense, error) {
	key, err := rowID(id, ledger.ErrExpenseNotFound)
	if err != nil {
		return ledger.Expense{}, err
	}
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1::uuid`
	if s.inTx {
		query += ` FOR UPDATE`
	}
	e, err := scanExpense(s.q.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Expense{}, ledger.ErrExpenseNotFound
	}
	if err != nil {
		return ledger.Expense{}, fmt.Errorf("pgstore: get expense: %w", err)
	}
	return e, nil
}

func (s *Store) InsertExpense(ctx context.Context, e ledger.Expense) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO expenses (id, description, category, amount, date, mode, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`,
		e.ID, e.Description, e.Category, e.Amount.String(), e.Date.Time(), string(e.Mode), e.CreatedAt)
	if err != nil {
		return db.MapError(fmt.Errorf("pgstore: insert expense: %w", err))
	}
	return nil
}

func (s *Store) UpdateExpense(ctx context.Context, e ledger.Expense) error {
	key, err := rowID(e.ID, ledger.ErrExpenseNotFound)
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE expenses
		SET description = $2, category = $3, amount = $4::numeric, date = $5, mode = $6
		WHERE id = $1::uuid`,
		key, e.Description, e.Category, e.Amount.String(), e.Date.Time(), string(e.Mode))
	if err != nil {
		return db.MapError(fmt.Errorf("pgstore: update expense: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrExpenseNotFound
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "expenses", id, ledger.ErrExpenseNotFound)
}

const transactionColumns = `id::text, type, amount::text, description, date, mode, created_at`

func (s *Store) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	rows, err := s.q.Query(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list transactions: %w", err)
	}
	defer rows.Close()
	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore: scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, id string) (ledger.Transaction, error) {
	key, err := rowID(id, ledger.ErrTransactionNotFound)
	if err != nil {
		return ledger.Transaction{}, err
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1::uuid`
	if s.inTx {
		query += ` FOR UPDATE`
	}
	t, err := scanTransaction(s.q.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("pgstore: get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) InsertTransaction(ctx context.Context, t ledger.Transaction) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO transactions (id, type, amount, description, date, mode, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)`,
		t.ID, string(t.Type), t.Amount.String(), t.Description, t.Date.Time(), string(t.Mode), t.CreatedAt)
	if err != nil {
		return db.MapError(fmt.Errorf("pgstore: insert transaction: %w", err))
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t ledger.Transaction) error {
	key, err := rowID(t.ID, ledger.ErrTransactionNotFound)
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE transactions
		SET type = $2, amount = $3::numeric, description = $4, date = $5, mode = $6
		WHERE id = $1::uuid`,
		key, string(t.Type), t.Amount.String(), t.Description, t.Date.Time(), string(t.Mode))
	if err != nil {
		return db.MapError(fmt.Errorf("pgstore: update transaction: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "transactions", id, ledger.ErrTransactionNotFound)
}

// deleteRow removes one row by id. table is always a package constant.
func (s *Store) deleteRow(ctx context.Context, table, id string, notFound error) error {
	key, err := rowID(id, notFound)
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1::uuid`, key)
	if err != nil {
		return db.MapError(fmt.Errorf("pgstore: delete from %s: %w", table, err))
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// rowID canonicalises a record id so lookups compare against the uuid primary
// key directly. Ids that are not uuids cannot exist and report notFound.
func rowID(id string, notFound error) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", notFound
	}
	return parsed.String(), nil
}

func mapOrderError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ledger.ErrDuplicateOrderNumber
	}
	return db.MapError(fmt.Errorf("pgstore: %s: %w", op, err))
}

func encodeOrderJSON(o ledger.Order) ([]byte, []byte, error) {
	items := o.Items
	if items == nil {
		items = []ledger.OrderItem{}
	}
	history := o.PaymentHistory
	if history == nil {
		history = []ledger.PaymentRecord{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, nil, fmt.Errorf("pgstore: encode items: %w", err)
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, nil, fmt.Errorf("pgstore: encode payment history: %w", err)
	}
	return itemsJSON, historyJSON, nil
}

func dateParam(d *ledger.Date) pgtype.Date {
	if d == nil || d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func dateValue(d pgtype.Date) ledger.Date {
	if !d.Valid {
		return ledger.Date{}
	}
	return ledger.NewDate(d.Time.Year(), d.Time.Month(), d.Time.Day())
}

func optionalDate(d pgtype.Date) *ledger.Date {
	if !d.Valid {
		return nil
	}
	v := dateValue(d)
	return &v
}

func scanOrder(row pgx.Row) (ledger.Order, error) {
	var (
		o                             ledger.Order
		itemsJSON, historyJSON        []byte
		total, advance, balance       string
		work, delivery, payment       string
		orderDate, dueDate, delivered pgtype.Date
		createdAt                     time.Time
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.ClientName, &o.Phone, &itemsJSON,
		&total, &advance, &balance,
		&work, &delivery, &payment, &historyJSON,
		&orderDate, &dueDate, &delivered, &o.Notes, &createdAt,
	)
	if err != nil {
		return ledger.Order{}, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return ledger.Order{}, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &o.PaymentHistory); err != nil {
		return ledger.Order{}, fmt.Errorf("decode payment history: %w", err)
	}
	if o.PaymentHistory == nil {
		o.PaymentHistory = []ledger.PaymentRecord{}
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return ledger.Order{}, err
	}
	if o.AdvanceAmount, err = decimal.NewFromString(advance); err != nil {
		return ledger.Order{}, err
	}
	if o.BalanceAmount, err = decimal.NewFromString(balance); err != nil {
		return ledger.Order{}, err
	}
	o.WorkStatus = ledger.WorkStatus(work)
	o.DeliveryStatus = ledger.DeliveryStatus(delivery)
	o.PaymentStatus = ledger.PaymentStatus(payment)
	o.OrderDate = dateValue(orderDate)
	o.DueDate = optionalDate(dueDate)
	o.DeliveredDate = optionalDate(delivered)
	o.CreatedAt = createdAt.UTC()
	return o, nil
}

func scanExpense(row pgx.Row) (ledger.Expense, error) {
	var (
		e      ledger.Expense
		amount string
		date   pgtype.Date
		mode   string
	)
	if err := row.Scan(&e.ID, &e.Description, &e.Category, &amount, &date, &mode, &e.CreatedAt); err != nil {
		return ledger.Expense{}, err
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return ledger.Expense{}, err
	}
	e.Amount = v
	e.Date = dateValue(date)
	e.Mode = ledger.Mode(mode)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func scanTransaction(row pgx.Row) (ledger.Transaction, error) {
	var (
		t         ledger.Transaction
		typ, mode string
		amount    string
		date      pgtype.Date
	)
	if err := row.Scan(&t.ID, &typ, &amount, &t.Description, &date, &mode, &t.CreatedAt); err != nil {
		return ledger.Transaction{}, err
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return ledger.Transaction{}, err
	}
	t.Type = ledger.TxType(typ)
	t.Amount = v
	t.Date = dateValue(date)
	t.Mode = ledger.Mode(mode)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

var _ ledger.Repository = (*Store)(nil)
