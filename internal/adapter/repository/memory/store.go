// Package memory provides transactional in-memory implementations of the
// repository ports, used by the memory storage driver and by tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// ErrTxClosed is returned when a transaction is used after commit or rollback.
var ErrTxClosed = errors.New("memory: transaction already closed")

type snapshotKey struct {
	accountID string
	date      string
}

// state is one consistent version of every table.
type state struct {
	accounts   map[string]*domain.Account
	shares     map[string]map[string]domain.AccessLevel
	categories map[string]*domain.Category
	entries    map[string]*domain.Entry
	snapshots  map[snapshotKey]domain.DailySnapshot
}

func newState() *state {
	return &state{
		accounts:   make(map[string]*domain.Account),
		shares:     make(map[string]map[string]domain.AccessLevel),
		categories: make(map[string]*domain.Category),
		entries:    make(map[string]*domain.Entry),
		snapshots:  make(map[snapshotKey]domain.DailySnapshot),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, a := range s.accounts {
		c.accounts[id] = copyAccount(a)
	}
	for id, users := range s.shares {
		m := make(map[string]domain.AccessLevel, len(users))
		for u, l := range users {
			m[u] = l
		}
		c.shares[id] = m
	}
	for id, cat := range s.categories {
		cp := *cat
		c.categories[id] = &cp
	}
	for id, e := range s.entries {
		c.entries[id] = copyEntry(e)
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = v
	}
	return c
}

// Store is the committed state plus the lock serializing writers. Each
// transaction works on a private copy that replaces the committed state on
// commit, so readers outside a transaction never observe partial writes.
type Store struct {
	writer sync.Mutex
	mu     sync.RWMutex
	state  *state
}

// New creates an empty Store.
func New() *Store {
	return &Store{state: newState()}
}

// AddCategory inserts a category. Categories are managed outside the ledger;
// this seeds them.
func (s *Store) AddCategory(c domain.Category) {
	s.writer.Lock()
	defer s.writer.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c
	s.state.categories[c.ID] = &cp
}

// Begin implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.writer.Lock()

	s.mu.RLock()
	working := s.state.clone()
	s.mu.RUnlock()

	return &Tx{store: s, state: working}, nil
}

// Tx is an open memory transaction.
type Tx struct {
	store  *Store
	state  *state
	closed bool
}

// Commit publishes the transaction's writes.
func (t *Tx) Commit(_ context.Context) error {
	if t.closed {
		return ErrTxClosed
	}
	t.closed = true

	t.store.mu.Lock()
	t.store.state = t.state
	t.store.mu.Unlock()

	t.store.writer.Unlock()
	return nil
}

// Rollback discards the transaction's writes.
func (t *Tx) Rollback(_ context.Context) error {
	if t.closed {
		return ErrTxClosed
	}
	t.closed = true
	t.store.writer.Unlock()
	return nil
}

// read runs fn against the transaction's state, or the committed state when
// tx is nil.
func (s *Store) read(tx usecase.Transaction, fn func(*state) error) error {
	if tx != nil {
		t, err := s.txOf(tx)
		if err != nil {
			return err
		}
		return fn(t.state)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// write runs fn inside tx, or inside its own transaction when tx is nil.
func (s *Store) write(ctx context.Context, tx usecase.Transaction, fn func(*state) error) error {
	if tx != nil {
		t, err := s.txOf(tx)
		if err != nil {
			return err
		}
		return fn(t.state)
	}

	auto, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = auto.Rollback(ctx) }()

	if err := fn(auto.(*Tx).state); err != nil {
		return err
	}
	return auto.Commit(ctx)
}

func (s *Store) txOf(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, errors.New("memory: foreign transaction")
	}
	if t.closed {
		return nil, ErrTxClosed
	}
	return t, nil
}

func copyAccount(a *domain.Account) *domain.Account {
	cp := *a
	if a.CreditCard != nil {
		card := *a.CreditCard
		cp.CreditCard = &card
	}
	return &cp
}

func copyEntry(e *domain.Entry) *domain.Entry {
	cp := *e
	if e.CategoryID != nil {
		id := *e.CategoryID
		cp.CategoryID = &id
	}
	if e.Series != nil {
		series := *e.Series
		cp.Series = &series
	}
	if e.PurchaseDate != nil {
		d := *e.PurchaseDate
		cp.PurchaseDate = &d
	}
	cp.Tags = append([]string(nil), e.Tags...)
	return &cp
}

func dayKey(t time.Time) string {
	return domain.Day(t).Format(time.DateOnly)
}
