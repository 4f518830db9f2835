package tables

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`
	Id            uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	UserId        uuid.UUID       `bun:"user_id,notnull,type:uuid" json:"user_id"`
	ClientName    string          `bun:"client_name,notnull" json:"client_name"`
	ClientPhone   string          `bun:"client_phone,notnull" json:"client_phone"`
	TotalPrice    decimal.Decimal `bun:"total_price,type:numeric(14,2),notnull,default:0" json:"total_price"` // sum of line quantity * unit_price
	Status        OrderStatus     `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt     time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	User  *User        `bun:"rel:belongs-to,join:user_id=id,on_delete:cascade" json:"-"`
	Lines []*OrderLine `bun:"rel:has-many,join:id=order_id" json:"order_lines"`
}

type OrderLine struct {
	bun.BaseModel `bun:"table:order_lines,alias:ol"`
	Id            uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	OrderId       uuid.UUID  `bun:"order_id,notnull,type:uuid" json:"order_id"`
	ProductId     *uuid.UUID `bun:"product_id,type:uuid,nullzero" json:"product_id"` // nulled when the product is deleted
	Quantity      int        `bun:"quantity,notnull" json:"quantity"`

	// Snapshot of the product price when the line was created
	UnitPrice decimal.Decimal `bun:"unit_price,type:numeric(12,2),notnull" json:"unit_price"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Order   *Order   `bun:"rel:belongs-to,join:order_id=id,on_delete:cascade" json:"-"`
	Product *Product `bun:"rel:belongs-to,join:product_id=id,on_delete:set null" json:"product"`
}

// LineTotal returns quantity * unit_price.
func (ol *OrderLine) LineTotal() decimal.Decimal {
	return ol.UnitPrice.Mul(decimal.NewFromInt(int64(ol.Quantity)))
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
)
