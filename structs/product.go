package structs

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       *int             `json:"stock" validate:"required"`
}

// UpdateProductRequest carries only the fields the client sent.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitnil,filled,max=255"`
	Description *string          `json:"description" validate:"omitnil,filled"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
}

// IsEmpty reports whether nothing would change.
func (r *UpdateProductRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil && r.Stock == nil
}

type ProductListOptions struct {
	Search  string
	Page    int
	PerPage int
}

type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}
