package repository

import (
	"commerce_server/database"
	"commerce_server/structs"
	"commerce_server/structs/tables"
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Lookups return lib.ErrNotFound when the row does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *tables.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*tables.User, error)
	FindByEmail(ctx context.Context, email string) (*tables.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type TokenRepository interface {
	Create(ctx context.Context, token *tables.AccessToken) error
	FindByID(ctx context.Context, id uuid.UUID) (*tables.AccessToken, error)
	// DeleteByUser removes every token of the user and returns their ids.
	DeleteByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type ProductRepository interface {
	List(ctx context.Context, opts structs.ProductListOptions) ([]tables.Product, int, error)
	Create(ctx context.Context, product *tables.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*tables.Product, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*tables.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// LockForOrder reads the products with a shared lock; missing ids are absent from the map.
	LockForOrder(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*tables.Product, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *tables.Order) error
	// FindByID loads the order with its lines and their products.
	FindByID(ctx context.Context, id uuid.UUID) (*tables.Order, error)
	// FindForUpdate loads the bare order row and locks it.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*tables.Order, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, opts structs.OrderListOptions) ([]tables.Order, int, error)
}

type OrderLineRepository interface {
	CreateMany(ctx context.Context, lines []*tables.OrderLine) error
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int, error)
}

// Tx exposes the repositories bound to one connection or transaction.
type Tx interface {
	Users() UserRepository
	Tokens() TokenRepository
	Products() ProductRepository
	Orders() OrderRepository
	OrderLines() OrderLineRepository
}

// Store is the entry point of the persistence layer. RunInTx commits when fn
// returns nil, rolls back when it returns an error, and rolls back then
// re-panics when it panics.
type Store interface {
	Tx
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type bunStore struct {
	db bun.IDB

	// reads outside a transaction retry transient failures
	retry database.RetryConfig
}

func NewStore(db *database.DB) Store {
	return &bunStore{db: db, retry: database.DefaultRetryConfig()}
}

func (s *bunStore) Users() UserRepository           { return &userRepository{db: s.db} }
func (s *bunStore) Tokens() TokenRepository         { return &tokenRepository{db: s.db} }
func (s *bunStore) Products() ProductRepository     { return &productRepository{db: s.db, retry: s.retry} }
func (s *bunStore) Orders() OrderRepository         { return &orderRepository{db: s.db} }
func (s *bunStore) OrderLines() OrderLineRepository { return &orderLineRepository{db: s.db} }

func (s *bunStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &bunStore{db: tx, retry: database.NoRetry()})
	})
}
