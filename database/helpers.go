package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Transaction executes fn within a database transaction. The transaction is
// committed when fn returns nil and rolled back when it returns an error or
// panics.
func Transaction(ctx context.Context, db bun.IDB, fn func(ctx context.Context, tx bun.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(ctx, tx)
}

// Pagination represents pagination parameters
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// PaginationResult wraps paginated data with metadata
type PaginationResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NormalizePage clamps page to at least 1 and pageSize to 1..100, using
// fallback when pageSize is unset.
func NormalizePage(page, pageSize, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = fallback
	}
	if pageSize > 100 {
		pageSize = 100 // Max page size
	}
	return page, pageSize
}

// Paginate applies pagination to a query builder and returns results with metadata
func Paginate[T any](q *QueryBuilder[T], ctx context.Context, page, pageSize int) (*PaginationResult[T], error) {
	page, pageSize = NormalizePage(page, pageSize, 10)

	// Get total count
	total, err := q.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	// Calculate offset
	offset := (page - 1) * pageSize

	// Get paginated data
	data, err := q.Limit(pageSize).Offset(offset).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get paginated data: %w", err)
	}

	return &PaginationResult[T]{
		Data: data,
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// DeleteByID is a helper to delete a record by primary key column
func DeleteByID[T any](db bun.IDB, ctx context.Context, column string, id any) (int, error) {
	return Query[T](db).Where(column, id).Delete(ctx)
}
