// Package memstore is the in-memory ledger repository used for demo mode and
// tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/stitchbook/stitchbook/internal/ledger"
)

type state struct {
	balance      *ledger.Balance
	orders       map[string]ledger.Order
	expenses     map[string]ledger.Expense
	transactions map[string]ledger.Transaction
}

func (st *state) clone() *state {
	out := &state{
		orders:       make(map[string]ledger.Order, len(st.orders)),
		expenses:     make(map[string]ledger.Expense, len(st.expenses)),
		transactions: make(map[string]ledger.Transaction, len(st.transactions)),
	}
	if st.balance != nil {
		b := *st.balance
		out.balance = &b
	}
	for k, v := range st.orders {
		out.orders[k] = v.Clone()
	}
	for k, v := range st.expenses {
		out.expenses[k] = v
	}
	for k, v := range st.transactions {
		out.transactions[k] = v
	}
	return out
}

// Store is a mutex guarded ledger.Repository. Transactions run against a copy
// of the state that replaces the live one only when fn succeeds.
type Store struct {
	mu      sync.Mutex
	st      *state
	initial ledger.Balance
}

// New returns an empty store whose balance row is created lazily from
// initial on first read.
func New(initial ledger.Balance) *Store {
	return &Store{
		st: &state{
			orders:       make(map[string]ledger.Order),
			expenses:     make(map[string]ledger.Expense),
			transactions: make(map[string]ledger.Transaction),
		},
		initial: initial,
	}
}

// WithTx runs fn against a snapshot and commits it on success.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, ledger.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := &txView{st: s.st.clone(), initial: s.initial}
	if err := fn(ctx, work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work.st
	return nil
}

func (s *Store) view() *txView {
	return &txView{st: s.st, initial: s.initial}
}

func (s *Store) GetBalance(ctx context.Context) (ledger.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetBalance(ctx)
}

func (s *Store) SaveBalance(ctx context.Context, b ledger.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SaveBalance(ctx, b)
}

func (s *Store) ListOrders(ctx context.Context) ([]ledger.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListOrders(ctx)
}

func (s *Store) GetOrder(ctx context.Context, id string) (ledger.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetOrder(ctx, id)
}

func (s *Store) InsertOrder(ctx context.Context, o ledger.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertOrder(ctx, o)
}

func (s *Store) UpdateOrder(ctx context.Context, o ledger.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateOrder(ctx, o)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteOrder(ctx, id)
}

func (s *Store) ListExpenses(ctx context.Context) ([]ledger.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListExpenses(ctx)
}

func (s *Store) GetExpense(ctx context.Context, id string) (ledger.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetExpense(ctx, id)
}

func (s *Store) InsertExpense(ctx context.Context, e ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertExpense(ctx, e)
}

func (s *Store) UpdateExpense(ctx context.Context, e ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateExpense(ctx, e)
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteExpense(ctx, id)
}

func (s *Store) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListTransactions(ctx)
}

func (s *Store) GetTransaction(ctx context.Context, id string) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetTransaction(ctx, id)
}

func (s *Store) InsertTransaction(ctx context.Context, t ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertTransaction(ctx, t)
}

func (s *Store) UpdateTransaction(ctx context.Context, t ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateTransaction(ctx, t)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteTransaction(ctx, id)
}

// txView operates on a state without locking; the owning Store holds the lock.
type txView struct {
	st      *state
	initial ledger.Balance
}

// WithTx on a view joins the surrounding transaction.
func (v *txView) WithTx(ctx context.Context, fn func(context.Context, ledger.Repository) error) error {
	return fn(ctx, v)
}

func (v *txView) GetBalance(ctx context.Context) (ledger.Balance, error) {
	if v.st.balance == nil {
		b := v.initial
		v.st.balance = &b
	}
	return *v.st.balance, nil
}

func (v *txView) SaveBalance(ctx context.Context, b ledger.Balance) error {
	v.st.balance = &b
	return nil
}

func (v *txView) ListOrders(ctx context.Context) ([]ledger.Order, error) {
	out := make([]ledger.Order, 0, len(v.st.orders))
	for _, o := range v.st.orders {
		out = append(out, o.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber > out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (v *txView) GetOrder(ctx context.Context, id string) (ledger.Order, error) {
	o, ok := v.st.orders[id]
	if !ok {
		return ledger.Order{}, ledger.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (v *txView) InsertOrder(ctx context.Context, o ledger.Order) error {
	if _, ok := v.st.orders[o.ID]; ok {
		return ledger.ErrDuplicateOrderNumber
	}
	if v.numberTaken(o.OrderNumber, o.ID) {
		return ledger.ErrDuplicateOrderNumber
	}
	v.st.orders[o.ID] = o.Clone()
	return nil
}

func (v *txView) UpdateOrder(ctx context.Context, o ledger.Order) error {
	if _, ok := v.st.orders[o.ID]; !ok {
		return ledger.ErrOrderNotFound
	}
	if v.numberTaken(o.OrderNumber, o.ID) {
		return ledger.ErrDuplicateOrderNumber
	}
	v.st.orders[o.ID] = o.Clone()
	return nil
}

func (v *txView) numberTaken(number, exceptID string) bool {
	for id, existing := range v.st.orders {
		if id != exceptID && existing.OrderNumber == number {
			return true
		}
	}
	return false
}

func (v *txView) DeleteOrder(ctx context.Context, id string) error {
	if _, ok := v.st.orders[id]; !ok {
		return ledger.ErrOrderNotFound
	}
	delete(v.st.orders, id)
	return nil
}

func (v *txView) ListExpenses(ctx context.Context) ([]ledger.Expense, error) {
	out := make([]ledger.Expense, 0, len(v.st.expenses))
	for _, e := range v.st.expenses {
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (v *txView) GetExpense(ctx context.Context, id string) (ledger.Expense, error) {
	e, ok := v.st.expenses[id]
	if !ok {
		return ledger.Expense{}, ledger.ErrExpenseNotFound
	}
	return e, nil
}

func (v *txView) InsertExpense(ctx context.Context, e ledger.Expense) error {
	v.st.expenses[e.ID] = e
	return nil
}

func (v *txView) UpdateExpense(ctx context.Context, e ledger.Expense) error {
	if _, ok := v.st.expenses[e.ID]; !ok {
		return ledger.ErrExpenseNotFound
	}
	v.st.expenses[e.ID] = e
	return nil
}

func (v *txView) DeleteExpense(ctx context.Context, id string) error {
	if _, ok := v.st.expenses[id]; !ok {
		return ledger.ErrExpenseNotFound
	}
	delete(v.st.expenses, id)
	return nil
}

func (v *txView) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	out := make([]ledger.Transaction, 0, len(v.st.transactions))
	for _, t := range v.st.transactions {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (v *txView) GetTransaction(ctx context.Context, id string) (ledger.Transaction, error) {
	t, ok := v.st.transactions[id]
	if !ok {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return t, nil
}

func (v *txView) InsertTransaction(ctx context.Context, t ledger.Transaction) error {
	v.st.transactions[t.ID] = t
	return nil
}

func (v *txView) UpdateTransaction(ctx context.Context, t ledger.Transaction) error {
	if _, ok := v.st.transactions[t.ID]; !ok {
		return ledger.ErrTransactionNotFound
	}
	v.st.transactions[t.ID] = t
	return nil
}

func (v *txView) DeleteTransaction(ctx context.Context, id string) error {
	if _, ok := v.st.transactions[id]; !ok {
		return ledger.ErrTransactionNotFound
	}
	delete(v.st.transactions, id)
	return nil
}

var (
	_ ledger.Repository = (*Store)(nil)
	_ ledger.Repository = (*txView)(nil)
)
