package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecoshop/internal/middleware/auth"
	"github.com/Skotchmaster/ecoshop/internal/service"
	"github.com/Skotchmaster/ecoshop/internal/transport"
	"github.com/Skotchmaster/ecoshop/pkg/logging"
)

type OrdersHTTP struct {
	Svc *service.OrderService
}

func (h *OrdersHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.create")

	var req transport.CreateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "create_order_failed", err)
	}

	order, err := h.Svc.CreateOrder(ctx, auth.IdentityFrom(c).UserID, req)
	if err != nil {
		return fail(l, "create_order_failed", err)
	}

	l.Info("create_order_success", "order_id", order.ID.String())
	return c.JSON(http.StatusCreated, order)
}

func (h *OrdersHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get")

	id, err := parseID(c, l, "get_order_failed")
	if err != nil {
		return err
	}

	caller := auth.IdentityFrom(c)
	order, err := h.Svc.GetOrder(ctx, caller.UserID, caller.Role, id)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrdersHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list")

	orders, err := h.Svc.ListOrders(ctx)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrdersHTTP) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.update")

	id, err := parseID(c, l, "update_order_failed")
	if err != nil {
		return err
	}

	var req transport.UpdateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "update_order_failed", err)
	}

	order, err := h.Svc.UpdateOrder(ctx, id, req)
	if err != nil {
		return fail(l, "update_order_failed", err)
	}

	l.Info("update_order_success", "order_id", id.String())
	return c.JSON(http.StatusOK, order)
}
