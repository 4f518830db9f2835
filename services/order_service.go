package services

import (
	"commerce_server/database"
	"commerce_server/lib"
	"commerce_server/repository"
	"commerce_server/structs"
	"commerce_server/structs/tables"
	"context"
	"fmt"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgOrderNotFound     = "Order not found."
	msgOrderForbidden    = "You are not allowed to update this order."
	msgDeleteForbidden   = "You are not allowed to delete this order."
	msgOrderDelivered    = "Cannot update a delivered order."
	msgOrderPaid         = "Cannot update a paid order."
	msgOrderCreateFailed = "Error while creating the order."
	msgOrderUpdateFailed = "Error while updating the order."
	msgOrderDeleteFailed = "Error while deleting the order."
)

type OrderService struct {
	logger  *gecho.Logger
	store   repository.Store
	metrics *Metrics
}

func NewOrderService(logger *gecho.Logger, store repository.Store, metrics *Metrics) *OrderService {
	return &OrderService{
		logger:  logger,
		store:   store,
		metrics: metrics,
	}
}

func OrderNotFound() error {
	return &lib.NotFoundError{Resource: "order", Message: msgOrderNotFound}
}

// checkAmendable enforces ownership and the pending-only policy
func checkAmendable(order *tables.Order, actor *tables.User) error {
	if actor == nil || order.UserId != actor.Id {
		return &lib.AuthorizationError{Message: msgOrderForbidden}
	}
	switch order.Status {
	case tables.OrderStatusDelivered:
		return &lib.InvalidStateError{Message: msgOrderDelivered}
	case tables.OrderStatusPaid:
		return &lib.InvalidStateError{Message: msgOrderPaid}
	}
	return nil
}

// Place creates a pending order with one line per item, each priced at the
// product's current price, and the sum as total. Nothing is persisted when
// any step fails.
func (os *OrderService) Place(ctx context.Context, owner *tables.User, req *structs.PlaceOrderRequest) (*tables.Order, error) {
	startTime := time.Now()
	items := structs.LineItems(req.OrderLines)

	var order *tables.Order
	err := os.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		created := &tables.Order{
			UserId:      owner.Id,
			ClientName:  req.ClientName,
			ClientPhone: req.ClientPhone,
			TotalPrice:  decimal.Zero,
			Status:      tables.OrderStatusPending,
		}
		if err := tx.Orders().Create(ctx, created); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		total, err := writeLines(ctx, tx, created.Id, items)
		if err != nil {
			return err
		}

		if err := tx.Orders().Update(ctx, created.Id, map[string]any{"total_price": total}); err != nil {
			return fmt.Errorf("failed to update order total: %w", err)
		}

		order, err = tx.Orders().FindByID(ctx, created.Id)
		return err
	})
	if err != nil {
		os.logger.Error("Failed to place order", gecho.Field("error", err), gecho.Field("user_id", owner.Id))
		return nil, lib.Internal(msgOrderCreateFailed, err)
	}

	os.metrics.OrdersPlaced.Inc()
	os.logger.Info("Order placed",
		gecho.Field("order_id", order.Id),
		gecho.Field("total_price", order.TotalPrice),
		gecho.Field("lines", len(order.Lines)),
		gecho.Field("duration", time.Since(startTime)),
	)
	return order, nil
}

// writeLines prices items against the locked products, inserts them as lines
// of orderID and returns their total
func writeLines(ctx context.Context, tx repository.Tx, orderID uuid.UUID, items []structs.LineItem) (decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductId] {
			seen[item.ProductId] = true
			ids = append(ids, item.ProductId)
		}
	}

	products, err := tx.Products().LockForOrder(ctx, ids)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read products: %w", err)
	}

	total := decimal.Zero
	lines := make([]*tables.OrderLine, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductId]
		if !ok {
			return decimal.Zero, fmt.Errorf("product %s no longer exists: %w", item.ProductId, lib.ErrNotFound)
		}

		productID := product.ID
		line := &tables.OrderLine{
			OrderId:   orderID,
			ProductId: &productID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		}
		total = total.Add(line.LineTotal())
		lines = append(lines, line)
	}

	if err := tx.OrderLines().CreateMany(ctx, lines); err != nil {
		return decimal.Zero, fmt.Errorf("failed to create order lines: %w", err)
	}

	return total, nil
}

func (os *OrderService) Get(ctx context.Context, id uuid.UUID) (*tables.Order, error) {
	order, err := os.store.Orders().FindByID(ctx, id)
	if err != nil {
		if lib.IsNotFound(err) {
			return nil, OrderNotFound()
		}
		os.logger.Error("Failed to fetch order", gecho.Field("error", err), gecho.Field("order_id", id))
		return nil, lib.Internal("Failed to retrieve order.", err)
	}
	return order, nil
}

// Authorize reports whether actor may amend the order right now. It reads
// without locking; Amend repeats the check under a row lock.
func (os *OrderService) Authorize(ctx context.Context, actor *tables.User, id uuid.UUID) error {
	order, err := os.store.Orders().FindByID(ctx, id)
	if err != nil {
		if lib.IsNotFound(err) {
			return OrderNotFound()
		}
		return lib.Internal("Failed to retrieve order.", err)
	}
	return checkAmendable(order, actor)
}

// Amend applies the supplied fields. When lines are supplied they replace
// every existing line and the total is recomputed; otherwise lines and total
// are left untouched.
func (os *OrderService) Amend(ctx context.Context, actor *tables.User, id uuid.UUID, req *structs.AmendOrderRequest) (*tables.Order, error) {
	var order *tables.Order
	err := os.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		current, err := tx.Orders().FindForUpdate(ctx, id)
		if err != nil {
			if lib.IsNotFound(err) {
				return OrderNotFound()
			}
			return err
		}
		if err := checkAmendable(current, actor); err != nil {
			return err
		}

		fields := make(map[string]any)
		if req.ClientName != nil {
			fields["client_name"] = *req.ClientName
		}
		if req.ClientPhone != nil {
			fields["client_phone"] = *req.ClientPhone
		}

		if req.OrderLines != nil {
			removed, err := tx.OrderLines().DeleteByOrder(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to delete order lines: %w", err)
			}
			os.logger.Debug("Replacing order lines", gecho.Field("order_id", id), gecho.Field("removed", removed))

			total, err := writeLines(ctx, tx, id, structs.LineItems(*req.OrderLines))
			if err != nil {
				return err
			}
			fields["total_price"] = total
		}

		if len(fields) > 0 {
			if err := tx.Orders().Update(ctx, id, fields); err != nil {
				return fmt.Errorf("failed to update order: %w", err)
			}
		}

		order, err = tx.Orders().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, lib.Internal(msgOrderUpdateFailed, err)
	}

	os.metrics.OrdersAmended.Inc()
	os.logger.Info("Order amended", gecho.Field("order_id", id), gecho.Field("user_id", actor.Id))
	return order, nil
}

// Cancel deletes the order and its lines. Only the owner may cancel; the
// status is not checked.
func (os *OrderService) Cancel(ctx context.Context, actor *tables.User, id uuid.UUID) error {
	err := os.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		current, err := tx.Orders().FindForUpdate(ctx, id)
		if err != nil {
			if lib.IsNotFound(err) {
				return OrderNotFound()
			}
			return err
		}
		if actor == nil || current.UserId != actor.Id {
			return &lib.AuthorizationError{Message: msgDeleteForbidden}
		}
		return tx.Orders().Delete(ctx, id)
	})
	if err != nil {
		return lib.Internal(msgOrderDeleteFailed, err)
	}

	os.metrics.OrdersCancelled.Inc()
	os.logger.Info("Order cancelled", gecho.Field("order_id", id), gecho.Field("user_id", actor.Id))
	return nil
}

// Search returns one page of orders whose client name contains opts.ClientName
func (os *OrderService) Search(ctx context.Context, opts structs.OrderListOptions) (*structs.Page[tables.Order], error) {
	opts.Page, opts.PerPage = database.NormalizePage(opts.Page, opts.PerPage, 10)

	orders, total, err := os.store.Orders().Search(ctx, opts)
	if err != nil {
		os.logger.Error("Failed to search orders", gecho.Field("error", err), gecho.Field("client_name", opts.ClientName))
		return nil, lib.Internal("Failed to retrieve orders.", err)
	}

	page := structs.NewPage(orders, opts.Page, opts.PerPage, total)
	return &page, nil
}
