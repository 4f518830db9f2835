package services

import (
	"commerce_server/database"
	"commerce_server/lib"
	"commerce_server/repository"
	"commerce_server/structs"
	"commerce_server/structs/tables"
	"context"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

const msgProductNotFound = "Product not found."

type ProductService struct {
	logger       *gecho.Logger
	store        repository.Store
	cacheService *CacheService
}

func NewProductService(logger *gecho.Logger, store repository.Store, cacheService *CacheService, val *lib.Validator) *ProductService {
	ps := &ProductService{
		logger:       logger,
		store:        store,
		cacheService: cacheService,
	}

	val.RegisterRule("product_exists", func(ctx context.Context, value any) (bool, error) {
		switch id := value.(type) {
		case uuid.UUID:
			return ps.store.Products().Exists(ctx, id)
		case *uuid.UUID:
			if id == nil {
				return true, nil
			}
			return ps.store.Products().Exists(ctx, *id)
		}
		return false, nil
	})

	return ps
}

func ProductNotFound() error {
	return &lib.NotFoundError{Resource: "product", Message: msgProductNotFound}
}

// List returns one page of products whose name contains opts.Search
func (ps *ProductService) List(ctx context.Context, opts structs.ProductListOptions) (*structs.Page[tables.Product], error) {
	startTime := time.Now()
	opts.Page, opts.PerPage = database.NormalizePage(opts.Page, opts.PerPage, 10)

	products, total, err := ps.store.Products().List(ctx, opts)
	if err != nil {
		ps.logger.Error("Failed to list products", gecho.Field("error", err), gecho.Field("search", opts.Search))
		return nil, lib.Internal("Failed to retrieve products.", err)
	}

	ps.logger.Debug("Products listed",
		gecho.Field("count", len(products)),
		gecho.Field("total", total),
		gecho.Field("duration", time.Since(startTime)),
	)

	page := structs.NewPage(products, opts.Page, opts.PerPage, total)
	return &page, nil
}

func (ps *ProductService) Create(ctx context.Context, req *structs.CreateProductRequest) (*tables.Product, error) {
	product := &tables.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Stock:       *req.Stock,
	}

	if err := ps.store.Products().Create(ctx, product); err != nil {
		ps.logger.Error("Failed to create product", gecho.Field("error", err), gecho.Field("product_name", product.Name))
		return nil, lib.Internal("Failed to create product.", err)
	}

	ps.logger.Info("Product created successfully", gecho.Field("id", product.ID))
	return product, nil
}

// Get serves the product from cache when possible
func (ps *ProductService) Get(ctx context.Context, id uuid.UUID) (*tables.Product, error) {
	cachedProduct, err := ps.cacheService.GetProductByID(ctx, id)
	if err == nil && cachedProduct != nil {
		ps.logger.Debug("Product retrieved from cache", gecho.Field("id", id))
		return cachedProduct, nil
	}

	// Cache miss - fetch from database
	product, err := ps.store.Products().FindByID(ctx, id)
	if err != nil {
		if lib.IsNotFound(err) {
			return nil, ProductNotFound()
		}
		ps.logger.Error("Failed to fetch product by ID", gecho.Field("id", id), gecho.Field("error", err))
		return nil, lib.Internal("Failed to retrieve product.", err)
	}

	if err := ps.cacheService.SetProductByID(ctx, product); err != nil {
		ps.logger.Warn("Failed to cache product", gecho.Field("error", err), gecho.Field("id", id))
	}

	return product, nil
}

// Update applies only the supplied fields
func (ps *ProductService) Update(ctx context.Context, id uuid.UUID, req *structs.UpdateProductRequest) (*tables.Product, error) {
	// Build update map with only provided fields
	updateData := make(map[string]any)
	if req.Name != nil {
		updateData["name"] = *req.Name
	}
	if req.Description != nil {
		updateData["description"] = *req.Description
	}
	if req.Price != nil {
		updateData["price"] = req.Price.Round(2)
	}
	if req.Stock != nil {
		updateData["stock"] = *req.Stock
	}

	product, err := ps.store.Products().Update(ctx, id, updateData)
	if err != nil {
		if lib.IsNotFound(err) {
			return nil, ProductNotFound()
		}
		ps.logger.Error("Failed to update product", gecho.Field("id", id), gecho.Field("error", err))
		return nil, lib.Internal("Failed to update product.", err)
	}

	ps.invalidate(ctx, id)
	return product, nil
}

// Delete removes the product. Order lines keep their price snapshot.
func (ps *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ps.store.Products().Delete(ctx, id); err != nil {
		if lib.IsNotFound(err) {
			return ProductNotFound()
		}
		ps.logger.Error("Failed to delete product", gecho.Field("id", id), gecho.Field("error", err))
		return lib.Internal("Failed to delete product.", err)
	}

	ps.invalidate(ctx, id)
	ps.logger.Info("Product deleted", gecho.Field("id", id))
	return nil
}

func (ps *ProductService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := ps.cacheService.InvalidateProduct(ctx, id); err != nil {
		ps.logger.Warn("Failed to invalidate product cache", gecho.Field("error", err), gecho.Field("product_id", id))
	}
}
