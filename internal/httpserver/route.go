package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/middleware/auth"
	"github.com/Skotchmaster/online_restaurant/internal/middleware/csp"
	"github.com/Skotchmaster/online_restaurant/internal/middleware/csrf"
	"github.com/Skotchmaster/online_restaurant/internal/session"
)

type Deps struct {
	Account      *AccountHTTP
	Menu         *MenuHTTP
	Basket       *BasketHTTP
	Orders       *OrderHTTP
	Reservations *ReservationHTTP

	Auth          *auth.Middleware
	Sessions      session.Store
	SessionCookie session.CookieConfig
	CSRF          csrf.Config

	MediaDir string
	Ready    func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.String(http.StatusServiceUnavailable, err.Error())
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.MediaDir != "" {
		e.Static("/static/menu", d.MediaDir)
	}

	app := e.Group("",
		csp.Middleware,
		session.Middleware(d.Sessions, d.SessionCookie),
		d.Auth.Identify,
		csrf.Middleware(d.CSRF),
	)

	app.GET("/", d.Account.Home)
	app.GET("/home", d.Account.Home)
	app.GET("/register", d.Account.RegisterForm)
	app.POST("/register", d.Account.Register)
	app.GET("/login", d.Account.LoginForm)
	app.POST("/login", d.Account.Login)
	app.GET("/logout", d.Account.Logout, auth.RequireAuth)

	app.GET("/menu", d.Menu.Menu)
	app.GET("/menu/search", d.Menu.Search)
	app.GET("/position/:name", d.Menu.Position)
	app.POST("/position/:name", d.Menu.AddToBasket)

	app.GET("/test_basket", d.Basket.TestBasket)
	app.GET("/create_order", d.Basket.CreateOrderPage)
	app.POST("/create_order", d.Basket.CreateOrder)
	app.POST("/basket/update/:item", d.Basket.UpdateBasket)
	app.POST("/basket/clear", d.Basket.ClearBasket)

	app.GET("/my_orders", d.Orders.MyOrders, auth.RequireAuth)
	app.GET("/my_order/:id", d.Orders.MyOrder, auth.RequireAuth)
	app.POST("/cancel_order/:id", d.Orders.CancelOrder, auth.RequireAuth)
	app.GET("/reserved", d.Reservations.ReservedForm, auth.RequireAuth)
	app.POST("/reserved", d.Reservations.Reserve, auth.RequireAuth)
	app.GET("/my_reservation", d.Reservations.MyReservation, auth.RequireAuth)
	app.GET("/my_reservation/qr", d.Reservations.MyReservationQR, auth.RequireAuth)
	app.POST("/cancel_reservation", d.Reservations.CancelReservation, auth.RequireAuth)

	app.GET("/add_position", d.Menu.AddPositionForm, auth.RequireAdmin)
	app.POST("/add_position", d.Menu.AddPosition, auth.RequireAdmin)
	app.GET("/menu_check", d.Menu.MenuCheck, auth.RequireAdmin)
	app.POST("/menu_check", d.Menu.MenuCheckAction, auth.RequireAdmin)
	app.GET("/reservations_check", d.Reservations.ReservationsCheck, auth.RequireAdmin)
	app.POST("/reservations_check", d.Reservations.ReservationsCheckAction, auth.RequireAdmin)
	app.GET("/orders_check", d.Orders.OrdersCheck, auth.RequireAdmin)
	app.POST("/orders_check", d.Orders.OrdersCheckAction, auth.RequireAdmin)
	app.GET("/all_users", d.Account.AllUsers, auth.RequireAdmin)
}
