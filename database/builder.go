package database

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// WhereClause represents a WHERE condition
type WhereClause struct {
	Column   string
	Operator string
	Value    any
	IsRaw    bool
	RawSQL   string
	RawArgs  []any
}

// OrderClause represents an ORDER BY clause
type OrderClause struct {
	Column    string
	Direction OrderDirection
}

// OrderDirection represents sort direction
type OrderDirection string

const (
	ASC  OrderDirection = "ASC"
	DESC OrderDirection = "DESC"
)

// LockMode is the row lock taken by a SELECT inside a transaction
type LockMode string

const (
	LockNone   LockMode = ""
	LockUpdate LockMode = "UPDATE"
	LockShare  LockMode = "SHARE"
)

type relation struct {
	name  string
	apply []func(*bun.SelectQuery) *bun.SelectQuery
}

// QueryBuilder provides a fluent, type-safe API for building database queries.
// It runs against any bun.IDB, so the same query works on the pool and inside
// a transaction.
type QueryBuilder[T any] struct {
	db bun.IDB

	// Query clauses
	wheres    []*WhereClause
	orders    []*OrderClause
	limitVal  *int
	offsetVal *int

	// Relations to preload
	relations []relation

	// Options
	lock  LockMode
	retry RetryConfig
}

// Query creates a new QueryBuilder instance
func Query[T any](db bun.IDB) *QueryBuilder[T] {
	return &QueryBuilder[T]{
		db:    db,
		retry: NoRetry(),
	}
}

// Where adds an equality condition
func (q *QueryBuilder[T]) Where(column string, value any) *QueryBuilder[T] {
	return q.WhereOp(column, "=", value)
}

// WhereOp adds a condition with a custom operator
func (q *QueryBuilder[T]) WhereOp(column, operator string, value any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, &WhereClause{
		Column:   column,
		Operator: operator,
		Value:    value,
	})
	return q
}

// WhereIn adds an IN condition
func (q *QueryBuilder[T]) WhereIn(column string, values any) *QueryBuilder[T] {
	return q.WhereRaw(column+" IN (?)", bun.In(values))
}

// WhereContains adds a case-insensitive substring match. Wildcards in term
// are matched literally.
func (q *QueryBuilder[T]) WhereContains(column, term string) *QueryBuilder[T] {
	return q.WhereRaw(column+" ILIKE ?", "%"+EscapeLike(term)+"%")
}

// WhereRaw adds a raw SQL condition
func (q *QueryBuilder[T]) WhereRaw(sql string, args ...any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, &WhereClause{
		IsRaw:   true,
		RawSQL:  sql,
		RawArgs: args,
	})
	return q
}

// OrderBy adds an ORDER BY clause
func (q *QueryBuilder[T]) OrderBy(column string, direction OrderDirection) *QueryBuilder[T] {
	q.orders = append(q.orders, &OrderClause{Column: column, Direction: direction})
	return q
}

// Limit sets the maximum number of records to return
func (q *QueryBuilder[T]) Limit(limit int) *QueryBuilder[T] {
	q.limitVal = &limit
	return q
}

// Offset sets the number of records to skip
func (q *QueryBuilder[T]) Offset(offset int) *QueryBuilder[T] {
	q.offsetVal = &offset
	return q
}

// With preloads a bun relation, optionally narrowing the related query
func (q *QueryBuilder[T]) With(name string, apply ...func(*bun.SelectQuery) *bun.SelectQuery) *QueryBuilder[T] {
	q.relations = append(q.relations, relation{name: name, apply: apply})
	return q
}

// ForUpdate locks the selected rows until the transaction ends
func (q *QueryBuilder[T]) ForUpdate() *QueryBuilder[T] {
	q.lock = LockUpdate
	return q
}

// ForShare takes a shared lock on the selected rows
func (q *QueryBuilder[T]) ForShare() *QueryBuilder[T] {
	q.lock = LockShare
	return q
}

// Retry enables retries of transient failures. Only safe outside a transaction.
func (q *QueryBuilder[T]) Retry(cfg RetryConfig) *QueryBuilder[T] {
	q.retry = cfg
	return q
}

// applyWheres adds every WHERE clause to a select, update or delete query
func (q *QueryBuilder[T]) applyWheres(qb bun.QueryBuilder) bun.QueryBuilder {
	for _, w := range q.wheres {
		if w.IsRaw {
			qb = qb.Where(w.RawSQL, w.RawArgs...)
			continue
		}
		qb = qb.Where(fmt.Sprintf("%s %s ?", w.Column, w.Operator), w.Value)
	}
	return qb
}

// buildSelect builds the select query scanning into model
func (q *QueryBuilder[T]) buildSelect(model any, paged bool) *bun.SelectQuery {
	query := q.db.NewSelect().Model(model).ApplyQueryBuilder(q.applyWheres)

	if !paged {
		return query
	}

	for _, rel := range q.relations {
		query = query.Relation(rel.name, rel.apply...)
	}
	for _, o := range q.orders {
		query = query.OrderExpr(fmt.Sprintf("%s %s", o.Column, o.Direction))
	}
	if q.limitVal != nil {
		query = query.Limit(*q.limitVal)
	}
	if q.offsetVal != nil {
		query = query.Offset(*q.offsetVal)
	}
	if q.lock != LockNone {
		query = query.For(string(q.lock))
	}

	return query
}

// EscapeLike escapes the LIKE wildcards in s
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
