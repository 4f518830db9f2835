package tables

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`
	ID            uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Name          string          `bun:"name,notnull" json:"name"`
	Description   string          `bun:"description,notnull" json:"description"`
	Price         decimal.Decimal `bun:"price,type:numeric(12,2),notnull" json:"price"`
	Stock         int             `bun:"stock,notnull,default:0" json:"stock"` // not decremented by orders
	CreatedAt     time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
