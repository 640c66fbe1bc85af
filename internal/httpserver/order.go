package httpserver

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/middleware/auth"
	"github.com/Skotchmaster/online_restaurant/internal/service"
	"github.com/Skotchmaster/online_restaurant/internal/session"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	orders, err := h.Svc.ListMine(ctx, auth.PrincipalFrom(c))
	if err != nil {
		return internalError(l, "my_orders_error", err)
	}
	return render(c, "my_orders", Page{"us_orders": orders})
}

func (h *OrderHTTP) MyOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_order")

	id, ok := parseID(c.Param("id"))
	if !ok {
		flash(c, session.FlashDanger, "Order not found or you have no access.")
		return redirect(c, "/my_orders")
	}

	view, err := h.Svc.Get(ctx, auth.PrincipalFrom(c), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("my_order_error", "status", 404, "reason", "not found or not owned", "id", id)
			flash(c, session.FlashDanger, "Order not found or you have no access.")
			return redirect(c, "/my_orders")
		}
		return internalError(l, "my_order_error", err)
	}
	return render(c, "my_order", Page{
		"order":       view.Order,
		"lines":       view.Quote.Lines,
		"total_price": view.Quote.Total,
	})
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, ok := parseID(c.Param("id"))
	if !ok {
		flash(c, session.FlashDanger, "Could not find the order or you have no rights")
		return redirect(c, "/my_orders")
	}

	if err := h.Svc.Cancel(ctx, auth.PrincipalFrom(c), id); err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			return internalError(l, "cancel_order_error", err)
		}
		l.Warn("cancel_order_error", "status", 404, "reason", "not found or not owned", "id", id)
		flash(c, session.FlashDanger, "Could not find the order or you have no rights")
		return redirect(c, "/my_orders")
	}

	l.Info("cancel_order_success", "id", id)
	flash(c, session.FlashSuccess, "Order cancelled")
	return redirect(c, "/my_orders")
}

func (h *OrderHTTP) OrdersCheck(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.orders_check")

	orders, err := h.Svc.ListAll(ctx, auth.PrincipalFrom(c))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return redirect(c, auth.HomePath)
		}
		return internalError(l, "orders_check_error", err)
	}
	return render(c, "orders_check", Page{"all_orders": orders})
}

func (h *OrderHTTP) OrdersCheckAction(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.orders_check_action")

	id, ok := parseID(c.FormValue("order_id"))
	if !ok {
		flash(c, session.FlashDanger, "Unknown order.")
		return redirect(c, "/orders_check")
	}

	err := h.Svc.Delete(ctx, auth.PrincipalFrom(c), id)
	switch {
	case err == nil:
		flash(c, session.FlashSuccess, "Order deleted.")
	case errors.Is(err, service.ErrNotFound):
		flash(c, session.FlashDanger, "Unknown order.")
	case errors.Is(err, service.ErrForbidden):
		return redirect(c, auth.HomePath)
	default:
		return internalError(l, "orders_check_error", err)
	}
	return redirect(c, "/orders_check")
}
