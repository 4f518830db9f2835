package structs

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderLineRequest struct {
	Id       *uuid.UUID `json:"id" validate:"required,product_exists"`
	Quantity *int       `json:"quantity" validate:"required,min=1"`
}

type PlaceOrderRequest struct {
	ClientName  string             `json:"client_name" validate:"required,max=255"`
	ClientPhone string             `json:"client_phone" validate:"required,max=20"`
	OrderLines  []OrderLineRequest `json:"order_lines" validate:"required,min=1,dive"`
}

// AmendOrderRequest applies partial update semantics: nil means "not sent".
type AmendOrderRequest struct {
	ClientName  *string             `json:"client_name" validate:"omitnil,filled,max=255"`
	ClientPhone *string             `json:"client_phone" validate:"omitnil,filled,max=20"`
	OrderLines  *[]OrderLineRequest `json:"order_lines" validate:"omitnil,required,min=1,dive"`
}

// LineItem is a validated (product, quantity) pair ready to be priced.
type LineItem struct {
	ProductId uuid.UUID
	Quantity  int
}

// LineItems flattens validated line requests.
func LineItems(lines []OrderLineRequest) []LineItem {
	items := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		if l.Id == nil || l.Quantity == nil {
			continue
		}
		items = append(items, LineItem{ProductId: *l.Id, Quantity: *l.Quantity})
	}
	return items
}

type OrderListOptions struct {
	ClientName string
	Page       int
	PerPage    int
}

type OrderLineResponse struct {
	Id        uuid.UUID        `json:"id"`
	OrderId   uuid.UUID        `json:"order_id"`
	ProductId *uuid.UUID       `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
	Product   *ProductResponse `json:"product"`
}

type OrderResponse struct {
	Id          uuid.UUID           `json:"id"`
	UserId      uuid.UUID           `json:"user_id"`
	ClientName  string              `json:"client_name"`
	ClientPhone string              `json:"client_phone"`
	TotalPrice  decimal.Decimal     `json:"total_price"`
	Status      string              `json:"status"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
	OrderLines  []OrderLineResponse `json:"order_lines"`
}

// Page mirrors the paginator shape clients already consume.
type Page[T any] struct {
	CurrentPage int `json:"current_page"`
	Data        []T `json:"data"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}
