package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/service"
)

const principalKey = "principal"

const (
	LoginPath = "/login"
	HomePath  = "/home"
)

func setPrincipal(c echo.Context, p service.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the caller set by Identify, or an anonymous principal.
func PrincipalFrom(c echo.Context) service.Principal {
	if p, ok := c.Get(principalKey).(service.Principal); ok {
		return p
	}
	return service.Principal{}
}

func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !PrincipalFrom(c).Authenticated() {
			return c.Redirect(http.StatusSeeOther, LoginPath)
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := PrincipalFrom(c)
		if !p.Authenticated() {
			return c.Redirect(http.StatusSeeOther, LoginPath)
		}
		if !p.IsAdmin() {
			return c.Redirect(http.StatusSeeOther, HomePath)
		}
		return next(c)
	}
}
