// Package memory is an in-memory repository.Store with transactional
// semantics, used to exercise services and handlers without PostgreSQL.
package memory

import (
	"commerce_server/repository"
	"commerce_server/structs/tables"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type state struct {
	users    map[uuid.UUID]tables.User
	tokens   map[uuid.UUID]tables.AccessToken
	products map[uuid.UUID]tables.Product
	orders   map[uuid.UUID]tables.Order
	lines    map[uuid.UUID]tables.OrderLine
	// insertion sequence per row, used for stable ordering
	seq  map[uuid.UUID]int64
	next int64
}

func newState() *state {
	return &state{
		users:    map[uuid.UUID]tables.User{},
		tokens:   map[uuid.UUID]tables.AccessToken{},
		products: map[uuid.UUID]tables.Product{},
		orders:   map[uuid.UUID]tables.Order{},
		lines:    map[uuid.UUID]tables.OrderLine{},
		seq:      map[uuid.UUID]int64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	c.next = s.next
	return c
}

func (s *state) track(id uuid.UUID) {
	s.next++
	s.seq[id] = s.next
}

// Store keeps every table in maps. A transaction works on a copy of the
// tables that replaces the originals on commit; transactions are serialized.
type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		st:       newState(),
		failures: map[string]error{},
		now:      time.Now,
	}
}

// FailOn makes the next call of op return err. Operations are named
// "<table>.<method>", for example "order_lines.create_many".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Counts returns the number of orders and order lines currently committed.
func (s *Store) Counts() (orders, lines int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders), len(s.st.lines)
}

// fail is called with the store lock held
func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *Store) root() *view {
	return &view{store: s, st: func() *state { return s.st }, lock: &s.mu}
}

func (s *Store) Users() repository.UserRepository           { return &users{s.root()} }
func (s *Store) Tokens() repository.TokenRepository         { return &tokens{s.root()} }
func (s *Store) Products() repository.ProductRepository     { return &products{s.root()} }
func (s *Store) Orders() repository.OrderRepository         { return &orders{s.root()} }
func (s *Store) OrderLines() repository.OrderLineRepository { return &orderLines{s.root()} }

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("tx.begin"); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	working := s.st.clone()
	tx := &view{store: s, st: func() *state { return working }, lock: noLock{}}

	defer func() {
		if p := recover(); p != nil {
			panic(p)
		}
		if err == nil {
			s.st = working
		}
	}()

	return fn(ctx, tx)
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

// view binds the repositories to either the committed state or a transaction copy
type view struct {
	store *Store
	st    func() *state
	lock  sync.Locker
}

func (v *view) Users() repository.UserRepository           { return &users{v} }
func (v *view) Tokens() repository.TokenRepository         { return &tokens{v} }
func (v *view) Products() repository.ProductRepository     { return &products{v} }
func (v *view) Orders() repository.OrderRepository         { return &orders{v} }
func (v *view) OrderLines() repository.OrderLineRepository { return &orderLines{v} }

// do runs fn on the bound state after consuming an injected failure for op
func (v *view) do(op string, fn func(st *state) error) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	if err := v.store.fail(op); err != nil {
		return err
	}
	return fn(v.st())
}
