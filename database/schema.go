package database

import (
	"commerce_server/structs/tables"
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

type tableSpec struct {
	model       any
	foreignKeys []string
}

// schema lists the tables in dependency order
var schema = []tableSpec{
	{model: (*tables.User)(nil)},
	{
		model:       (*tables.AccessToken)(nil),
		foreignKeys: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`},
	},
	{model: (*tables.Product)(nil)},
	{
		model:       (*tables.Order)(nil),
		foreignKeys: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`},
	},
	{
		model: (*tables.OrderLine)(nil),
		foreignKeys: []string{
			`("order_id") REFERENCES "orders" ("id") ON DELETE CASCADE`,
			// deleting a product keeps the price snapshot of its lines
			`("product_id") REFERENCES "products" ("id") ON DELETE SET NULL`,
		},
	},
}

type indexSpec struct {
	model  any
	name   string
	column string
	using  string
}

var indexes = []indexSpec{
	{model: (*tables.AccessToken)(nil), name: "access_tokens_user_id_idx", column: "user_id"},
	// trigram indexes serve the ILIKE '%term%' searches
	{model: (*tables.Product)(nil), name: "products_name_trgm_idx", column: "name gin_trgm_ops", using: "gin"},
	{model: (*tables.Order)(nil), name: "orders_user_id_idx", column: "user_id"},
	{model: (*tables.Order)(nil), name: "orders_client_name_trgm_idx", column: "client_name gin_trgm_ops", using: "gin"},
	{model: (*tables.OrderLine)(nil), name: "order_lines_order_id_idx", column: "order_id"},
}

// CreateSchema creates every table, foreign key and index that does not exist yet
func CreateSchema(ctx context.Context, db bun.IDB) error {
	// gen_random_uuid() is built in from PostgreSQL 13, pgcrypto covers older servers
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS pgcrypto"); err != nil {
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS pg_trgm"); err != nil {
		return fmt.Errorf("failed to enable pg_trgm: %w", err)
	}

	for _, t := range schema {
		query := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			query = query.ForeignKey(fk)
		}
		if _, err := query.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", t.model, err)
		}
	}

	for _, idx := range indexes {
		if _, err := createIndexQuery(db, idx).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

func createIndexQuery(db bun.IDB, idx indexSpec) *bun.CreateIndexQuery {
	query := db.NewCreateIndex().
		Model(idx.model).
		Index(idx.name).
		IfNotExists().
		ColumnExpr(idx.column)
	if idx.using != "" {
		query = query.Using(idx.using)
	}
	return query
}

// DropSchema drops every table in reverse dependency order
func DropSchema(ctx context.Context, db bun.IDB) error {
	for i := len(schema) - 1; i >= 0; i-- {
		model := schema[i].model
		if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", model, err)
		}
	}
	return nil
}
