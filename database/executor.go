package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// run applies the retry policy of the query to fn
func (q *QueryBuilder[T]) run(ctx context.Context, fn func(ctx context.Context) error) error {
	return RetryWithBackoff(ctx, q.retry, func() error {
		return fn(ctx)
	})
}

// All executes the query and returns all matching records
func (q *QueryBuilder[T]) All(ctx context.Context) ([]T, error) {
	start := time.Now()
	var data []T

	err := q.run(ctx, func(ctx context.Context) error {
		data = nil // Reset on retry
		return q.buildSelect(&data, true).Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute select query: %w (took %v)", err, time.Since(start))
	}

	if data == nil {
		data = []T{}
	}
	return data, nil
}

// First executes the query and returns the first matching record, or nil
// when nothing matches
func (q *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	start := time.Now()
	var data T

	err := q.run(ctx, func(ctx context.Context) error {
		return q.buildSelect(&data, true).Limit(1).Scan(ctx)
	})
	if err != nil {
		// Return nil for no rows instead of error
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute first query: %w (took %v)", err, time.Since(start))
	}

	return &data, nil
}

// Count returns the number of matching records, ignoring limit and offset
func (q *QueryBuilder[T]) Count(ctx context.Context) (int, error) {
	start := time.Now()
	var count int

	err := q.run(ctx, func(ctx context.Context) error {
		var err error
		count, err = q.buildSelect((*T)(nil), false).Count(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w (took %v)", err, time.Since(start))
	}

	return count, nil
}

// Exists reports whether any record matches
func (q *QueryBuilder[T]) Exists(ctx context.Context) (bool, error) {
	var exists bool

	err := q.run(ctx, func(ctx context.Context) error {
		var err error
		exists, err = q.buildSelect((*T)(nil), false).Exists(ctx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to execute exists query: %w", err)
	}

	return exists, nil
}

// Insert inserts a record and fills in database defaults
func (q *QueryBuilder[T]) Insert(ctx context.Context, data *T) (*T, error) {
	start := time.Now()

	err := q.run(ctx, func(ctx context.Context) error {
		_, err := q.db.NewInsert().Model(data).Returning("*").Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}

// InsertMany inserts multiple records in a single statement
func (q *QueryBuilder[T]) InsertMany(ctx context.Context, data []*T) ([]*T, error) {
	if len(data) == 0 {
		return data, nil
	}
	start := time.Now()

	err := q.run(ctx, func(ctx context.Context) error {
		_, err := q.db.NewInsert().Model(&data).Returning("*").Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert records: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}

// Update sets the given columns on every matching record and returns the
// number of affected rows
func (q *QueryBuilder[T]) Update(ctx context.Context, data map[string]any) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	start := time.Now()
	var affected int64

	err := q.run(ctx, func(ctx context.Context) error {
		query := q.db.NewUpdate().Model((*T)(nil)).ApplyQueryBuilder(q.applyWheres)
		for column, value := range data {
			query = query.Set("? = ?", bun.Ident(column), value)
		}

		res, err := query.Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update records: %w (took %v)", err, time.Since(start))
	}

	return int(affected), nil
}

// Delete removes every matching record and returns the number of affected rows
func (q *QueryBuilder[T]) Delete(ctx context.Context) (int, error) {
	if len(q.wheres) == 0 {
		return 0, fmt.Errorf("refusing to delete without a condition")
	}
	start := time.Now()
	var affected int64

	err := q.run(ctx, func(ctx context.Context) error {
		res, err := q.db.NewDelete().Model((*T)(nil)).ApplyQueryBuilder(q.applyWheres).Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w (took %v)", err, time.Since(start))
	}

	return int(affected), nil
}
