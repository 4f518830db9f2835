package orders

import (
	"commerce_server/api/middleware"
	"commerce_server/handling"
	"commerce_server/lib"
	"commerce_server/services"
	"commerce_server/structs"
	"net/http"

	"github.com/MonkyMars/gecho"
)

func (orm *OrderRoutesManager) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	body, err := lib.ExtractAndValidateBody[structs.PlaceOrderRequest](r, orm.validator)
	if err != nil {
		orm.logger.Warn("Invalid order payload", gecho.Field("error", err))
		handling.HandleError(err, orm.logger, w)
		return
	}

	order, err := orm.orderService.Place(r.Context(), user, body)
	if err != nil {
		handling.HandleError(err, orm.logger, w)
		return
	}

	lib.JSON(w, http.StatusCreated, "Order created successfully.", lib.Envelope{
		"order": structs.ToOrderResponse(order),
	})
}

// UpdateOrder rejects missing, foreign and closed orders before looking at the
// body, so a paid order answers 400 whatever the payload
func (orm *OrderRoutesManager) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	id, err := handling.PathID(r, services.OrderNotFound())
	if err != nil {
		handling.HandleError(err, orm.logger, w)
		return
	}

	if err := orm.orderService.Authorize(r.Context(), user, id); err != nil {
		orm.logger.Debug("Order amendment refused", gecho.Field("error", err), gecho.Field("order_id", id))
		handling.HandleError(err, orm.logger, w)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.AmendOrderRequest](r, orm.validator)
	if err != nil {
		orm.logger.Warn("Invalid order payload", gecho.Field("error", err))
		handling.HandleError(err, orm.logger, w)
		return
	}

	order, err := orm.orderService.Amend(r.Context(), user, id, body)
	if err != nil {
		handling.HandleError(err, orm.logger, w)
		return
	}

	lib.JSON(w, http.StatusOK, "Order updated successfully.", lib.Envelope{
		"order": structs.ToOrderResponse(order),
	})
}

func (orm *OrderRoutesManager) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	id, err := handling.PathID(r, services.OrderNotFound())
	if err != nil {
		handling.HandleError(err, orm.logger, w)
		return
	}

	if err := orm.orderService.Cancel(r.Context(), user, id); err != nil {
		handling.HandleError(err, orm.logger, w)
		return
	}

	lib.JSON(w, http.StatusOK, "Order deleted successfully.", nil)
}
