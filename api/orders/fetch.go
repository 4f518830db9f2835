package orders

import (
	"commerce_server/handling"
	"commerce_server/lib"
	"commerce_server/services"
	"commerce_server/structs"
	"net/http"

	"github.com/MonkyMars/gecho"
)

// ListOrders handles GET /orders?client_name=&per_page=&page=
func (orm *OrderRoutesManager) ListOrders(w http.ResponseWriter, r *http.Request) {
	opts, err := handling.ParseOrderListOptions(r)
	if err != nil {
		orm.logger.Warn("Invalid query parameters", gecho.Field("error", err))
		handling.HandleError(err, orm.logger, w)
		return
	}

	result, err := orm.orderService.Search(r.Context(), opts)
	if err != nil {
		handling.HandleError(err, orm.logger, w)
		return
	}

	page := structs.NewPage(structs.ToOrderResponses(result.Data), result.CurrentPage, result.PerPage, result.Total)
	lib.JSON(w, http.StatusOK, "Order list", lib.Envelope{
		"orders": page,
	})
}

func (orm *OrderRoutesManager) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := handling.PathID(r, services.OrderNotFound())
	if err != nil {
		handling.HandleError(err, orm.logger, w)
		return
	}

	order, err := orm.orderService.Get(r.Context(), id)
	if err != nil {
		handling.HandleError(err, orm.logger, w)
		return
	}

	lib.JSON(w, http.StatusOK, "Order details retrieved successfully.", lib.Envelope{
		"order": structs.ToOrderResponse(order),
	})
}
