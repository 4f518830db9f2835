package repository

import (
	"commerce_server/database"
	"commerce_server/lib"
	"commerce_server/structs"
	"commerce_server/structs/tables"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type orderRepository struct {
	db bun.IDB
}

// withLines preloads the order lines and the product of each line
func withLines(q *database.QueryBuilder[tables.Order]) *database.QueryBuilder[tables.Order] {
	return q.
		With("Lines", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("ol.created_at ASC", "ol.id ASC")
		}).
		With("Lines.Product")
}

func (r *orderRepository) Create(ctx context.Context, order *tables.Order) error {
	_, err := database.Query[tables.Order](r.db).Insert(ctx, order)
	return lib.MapPgError(err)
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*tables.Order, error) {
	return first(withLines(database.Query[tables.Order](r.db).Where("o.id", id)).First(ctx))
}

func (r *orderRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*tables.Order, error) {
	return first(database.Query[tables.Order](r.db).Where("o.id", id).ForUpdate().First(ctx))
}

func (r *orderRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	affected, err := database.Query[tables.Order](r.db).Where("o.id", id).Update(ctx, fields)
	if err != nil {
		return lib.MapPgError(err)
	}
	if affected == 0 {
		return lib.ErrNotFound
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := database.DeleteByID[tables.Order](r.db, ctx, "o.id", id)
	if err != nil {
		return lib.MapPgError(err)
	}
	if affected == 0 {
		return lib.ErrNotFound
	}
	return nil
}

func (r *orderRepository) Search(ctx context.Context, opts structs.OrderListOptions) ([]tables.Order, int, error) {
	query := database.Query[tables.Order](r.db)
	if name := strings.TrimSpace(opts.ClientName); name != "" {
		query = query.WhereContains("o.client_name", name)
	}
	query = withLines(query).OrderBy("o.created_at", database.ASC).OrderBy("o.id", database.ASC)

	result, err := database.Paginate(query, ctx, opts.Page, opts.PerPage)
	if err != nil {
		return nil, 0, lib.MapPgError(err)
	}
	return result.Data, result.Pagination.Total, nil
}

type orderLineRepository struct {
	db bun.IDB
}

func (r *orderLineRepository) CreateMany(ctx context.Context, lines []*tables.OrderLine) error {
	_, err := database.Query[tables.OrderLine](r.db).InsertMany(ctx, lines)
	return lib.MapPgError(err)
}

func (r *orderLineRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	affected, err := database.Query[tables.OrderLine](r.db).Where("ol.order_id", orderID).Delete(ctx)
	if err != nil {
		return 0, lib.MapPgError(err)
	}
	return affected, nil
}
