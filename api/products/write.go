package products

import (
	"commerce_server/handling"
	"commerce_server/lib"
	"commerce_server/services"
	"commerce_server/structs"
	"net/http"

	"github.com/MonkyMars/gecho"
)

func (p *ProductRoutesManager) CreateProduct(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.CreateProductRequest](r, p.validator)
	if err != nil {
		p.logger.Warn("Invalid product payload", gecho.Field("error", err))
		handling.HandleError(err, p.logger, w)
		return
	}

	product, err := p.productService.Create(r.Context(), body)
	if err != nil {
		handling.HandleError(err, p.logger, w)
		return
	}

	lib.JSON(w, http.StatusCreated, "Product created successfully.", lib.Envelope{
		"product": structs.ToProductResponse(product),
	})
}

// UpdateProduct validates the body before looking the product up
func (p *ProductRoutesManager) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.UpdateProductRequest](r, p.validator)
	if err != nil {
		p.logger.Warn("Invalid product payload", gecho.Field("error", err))
		handling.HandleError(err, p.logger, w)
		return
	}

	id, err := handling.PathID(r, services.ProductNotFound())
	if err != nil {
		handling.HandleError(err, p.logger, w)
		return
	}

	product, err := p.productService.Update(r.Context(), id, body)
	if err != nil {
		handling.HandleError(err, p.logger, w)
		return
	}

	lib.JSON(w, http.StatusOK, "Product updated successfully.", lib.Envelope{
		"product": structs.ToProductResponse(product),
	})
}

func (p *ProductRoutesManager) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := handling.PathID(r, services.ProductNotFound())
	if err != nil {
		handling.HandleError(err, p.logger, w)
		return
	}

	if err := p.productService.Delete(r.Context(), id); err != nil {
		handling.HandleError(err, p.logger, w)
		return
	}

	lib.JSON(w, http.StatusOK, "Product deleted successfully.", nil)
}
