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

type productRepository struct {
	db    bun.IDB
	retry database.RetryConfig
}

func (r *productRepository) List(ctx context.Context, opts structs.ProductListOptions) ([]tables.Product, int, error) {
	query := database.Query[tables.Product](r.db).Retry(r.retry)
	if search := strings.TrimSpace(opts.Search); search != "" {
		query = query.WhereContains("p.name", search)
	}
	query = query.OrderBy("p.created_at", database.ASC).OrderBy("p.id", database.ASC)

	result, err := database.Paginate(query, ctx, opts.Page, opts.PerPage)
	if err != nil {
		return nil, 0, lib.MapPgError(err)
	}
	return result.Data, result.Pagination.Total, nil
}

func (r *productRepository) Create(ctx context.Context, product *tables.Product) error {
	_, err := database.Query[tables.Product](r.db).Insert(ctx, product)
	return lib.MapPgError(err)
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*tables.Product, error) {
	return first(database.Query[tables.Product](r.db).Retry(r.retry).Where("p.id", id).First(ctx))
}

func (r *productRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*tables.Product, error) {
	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
		affected, err := database.Query[tables.Product](r.db).Where("p.id", id).Update(ctx, fields)
		if err != nil {
			return nil, lib.MapPgError(err)
		}
		if affected == 0 {
			return nil, lib.ErrNotFound
		}
	}
	return r.FindByID(ctx, id)
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := database.DeleteByID[tables.Product](r.db, ctx, "p.id", id)
	if err != nil {
		return lib.MapPgError(err)
	}
	if affected == 0 {
		return lib.ErrNotFound
	}
	return nil
}

func (r *productRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return database.Query[tables.Product](r.db).Retry(r.retry).Where("p.id", id).Exists(ctx)
}

func (r *productRepository) LockForOrder(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*tables.Product, error) {
	products := make(map[uuid.UUID]*tables.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	// rows are locked in id order
	rows, err := database.Query[tables.Product](r.db).
		WhereIn("p.id", ids).
		OrderBy("p.id", database.ASC).
		ForShare().
		All(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	for i := range rows {
		products[rows[i].ID] = &rows[i]
	}
	return products, nil
}
