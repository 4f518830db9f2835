package products

import (
	"commerce_server/handling"
	"commerce_server/lib"
	"commerce_server/services"
	"commerce_server/structs"
	"net/http"

	"github.com/MonkyMars/gecho"
)

// FetchAllProducts handles GET /products?search=&per_page=&page=
func (p *ProductRoutesManager) FetchAllProducts(w http.ResponseWriter, r *http.Request) {
	opts, err := handling.ParseProductListOptions(r)
	if err != nil {
		p.logger.Warn("Invalid query parameters", gecho.Field("error", err))
		handling.HandleError(err, p.logger, w)
		return
	}

	result, err := p.productService.List(r.Context(), opts)
	if err != nil {
		handling.HandleError(err, p.logger, w)
		return
	}

	page := structs.NewPage(structs.ToProductResponses(result.Data), result.CurrentPage, result.PerPage, result.Total)
	lib.JSON(w, http.StatusOK, "Products retrieved successfully.", lib.Envelope{
		"products": page,
	})
}

// FetchProductByID handles GET /products/{id}
func (p *ProductRoutesManager) FetchProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := handling.PathID(r, services.ProductNotFound())
	if err != nil {
		handling.HandleError(err, p.logger, w)
		return
	}

	product, err := p.productService.Get(r.Context(), id)
	if err != nil {
		handling.HandleError(err, p.logger, w)
		return
	}

	lib.JSON(w, http.StatusOK, "Product details retrieved successfully.", lib.Envelope{
		"product": structs.ToProductResponse(product),
	})
}
