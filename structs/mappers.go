package structs

import (
	"commerce_server/structs/tables"
	"sync/atomic"
	"time"
)

// DisplayLayout is the dd/mm/yyyy HH:MM:SS format every exposed timestamp uses.
const DisplayLayout = "02/01/2006 15:04:05"

var displayLocation atomic.Pointer[time.Location]

// SetDisplayLocation changes the timezone timestamps are rendered in.
func SetDisplayLocation(loc *time.Location) {
	if loc != nil {
		displayLocation.Store(loc)
	}
}

// FormatTime renders t in the display layout and timezone.
func FormatTime(t time.Time) string {
	loc := displayLocation.Load()
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayLayout)
}

func ToUserResponse(u *tables.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		Id:        u.Id,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: FormatTime(u.CreatedAt),
		UpdatedAt: FormatTime(u.UpdatedAt),
	}
}

func ToProductResponse(p *tables.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   FormatTime(p.CreatedAt),
		UpdatedAt:   FormatTime(p.UpdatedAt),
	}
}

func ToProductResponses(products []tables.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, *ToProductResponse(&products[i]))
	}
	return out
}

func ToOrderLineResponse(ol *tables.OrderLine) OrderLineResponse {
	product := ol.Product
	if ol.ProductId == nil {
		// the product was deleted after the line was priced
		product = nil
	}
	return OrderLineResponse{
		Id:        ol.Id,
		OrderId:   ol.OrderId,
		ProductId: ol.ProductId,
		Quantity:  ol.Quantity,
		UnitPrice: ol.UnitPrice,
		CreatedAt: FormatTime(ol.CreatedAt),
		UpdatedAt: FormatTime(ol.UpdatedAt),
		Product:   ToProductResponse(product),
	}
}

func ToOrderResponse(o *tables.Order) *OrderResponse {
	if o == nil {
		return nil
	}
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, ol := range o.Lines {
		lines = append(lines, ToOrderLineResponse(ol))
	}
	return &OrderResponse{
		Id:          o.Id,
		UserId:      o.UserId,
		ClientName:  o.ClientName,
		ClientPhone: o.ClientPhone,
		TotalPrice:  o.TotalPrice,
		Status:      string(o.Status),
		CreatedAt:   FormatTime(o.CreatedAt),
		UpdatedAt:   FormatTime(o.UpdatedAt),
		OrderLines:  lines,
	}
}

func ToOrderResponses(orders []tables.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, *ToOrderResponse(&orders[i]))
	}
	return out
}

// NewPage builds the paginator envelope; lastPage is at least 1.
func NewPage[T any](data []T, page, perPage, total int) Page[T] {
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = (total + perPage - 1) / perPage
	}
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		CurrentPage: page,
		Data:        data,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}
}
