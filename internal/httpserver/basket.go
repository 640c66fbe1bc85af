package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/basket"
	"github.com/Skotchmaster/online_restaurant/internal/middleware/auth"
	"github.com/Skotchmaster/online_restaurant/internal/service"
	"github.com/Skotchmaster/online_restaurant/internal/session"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

const msgRegisterToOrder = "You must be registered to place an order"

type BasketHTTP struct {
	Orders *service.OrderService
}

func (h *BasketHTTP) TestBasket(c echo.Context) error {
	return c.JSON(http.StatusOK, session.FromContext(c).Basket)
}

func (h *BasketHTTP) CreateOrderPage(c echo.Context) error {
	return h.renderBasket(c)
}

func (h *BasketHTTP) renderBasket(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "basket.create_order")

	b := session.FromContext(c).Basket
	q, err := h.Orders.Quote(ctx, b)
	if err != nil {
		return internalError(l, "create_order_error", err)
	}
	return render(c, "create_order", Page{
		"basket":      b,
		"lines":       q.Lines,
		"total_price": q.Total,
		"unavailable": q.Unavailable,
	})
}

func (h *BasketHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "basket.checkout")
	sess := session.FromContext(c)

	order, err := h.Orders.Checkout(ctx, sess.Basket, auth.PrincipalFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			l.Warn("checkout_error", "status", 401, "reason", "anonymous")
			flash(c, session.FlashDanger, msgRegisterToOrder)
		case errors.Is(err, service.ErrEmptyBasket):
			l.Warn("checkout_error", "status", 400, "reason", "empty basket")
			flash(c, session.FlashWarning, "Your basket is empty")
		case errors.Is(err, service.ErrDishUnavailable):
			l.Warn("checkout_error", "status", 409, "reason", err.Error())
			flash(c, session.FlashDanger, fmt.Sprintf("%s is no longer available. Remove it to continue.",
				reason(err, service.ErrDishUnavailable)))
		default:
			return internalError(l, "checkout_error", err)
		}
		return h.renderBasket(c)
	}

	sess.Touch()
	return redirect(c, "/my_order/"+strconv.FormatUint(uint64(order.ID), 10))
}

func (h *BasketHTTP) UpdateBasket(c echo.Context) error {
	sess := session.FromContext(c)
	if !auth.PrincipalFrom(c).Authenticated() {
		flash(c, session.FlashInfo, msgRegisterToOrder)
	}

	err := sess.Basket.Update(c.Param("item"), basket.Action(c.FormValue("action")))
	switch {
	case err == nil:
		sess.Touch()
	case errors.Is(err, basket.ErrNotInBasket):
		flash(c, session.FlashDanger, "Item not found in basket")
	case errors.Is(err, basket.ErrMaxQuantity):
		flash(c, session.FlashWarning, fmt.Sprintf("Maximum quantity is %d", basket.MaxQuantity))
	case errors.Is(err, basket.ErrMinQuantity):
		flash(c, session.FlashWarning, fmt.Sprintf("Minimum quantity is %d", basket.MinQuantity))
	default:
		flash(c, session.FlashDanger, "Unknown basket action")
	}
	return redirect(c, "/create_order")
}

func (h *BasketHTTP) ClearBasket(c echo.Context) error {
	sess := session.FromContext(c)
	sess.Basket.Clear()
	sess.Touch()
	flash(c, session.FlashInfo, "Basket cleared")
	return redirect(c, "/create_order")
}
