package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/service"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
	"github.com/Skotchmaster/online_restaurant/pkg/tokens"
)

const CookieName = "auth_token"

// UserLookup loads the current account behind a token.
type UserLookup interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

type Middleware struct {
	JWTSecret []byte
	TTL       time.Duration
	Secure    bool

	// Users, when set, re-checks admin tokens against the stored role so a
	// demoted or deleted admin loses access without logging out.
	Users UserLookup
}

func New(secret []byte, ttl time.Duration, secure bool) *Middleware {
	return &Middleware{JWTSecret: secret, TTL: ttl, Secure: secure}
}

// Identify resolves the caller from the auth cookie. Missing or invalid
// tokens leave the request anonymous; an invalid cookie is cleared.
func (m *Middleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ck, err := c.Cookie(CookieName)
		if err != nil || ck.Value == "" {
			return next(c)
		}

		claims, err := tokens.SessionClaimsFromToken(ck.Value, m.JWTSecret)
		if err != nil {
			logging.FromContext(c.Request().Context()).Debug("auth_cookie_rejected", "error", err)
			c.SetCookie(deleteCookie(CookieName, m.Secure))
			return next(c)
		}
		id, err := claims.UserID()
		if err != nil || id == 0 {
			c.SetCookie(deleteCookie(CookieName, m.Secure))
			return next(c)
		}

		p := service.Principal{UserID: id, Nickname: claims.Nickname, Role: claims.Role}
		if p.IsAdmin() && m.Users != nil {
			return m.refreshAdmin(c, next, p)
		}
		setPrincipal(c, p)
		return next(c)
	}
}

func (m *Middleware) refreshAdmin(c echo.Context, next echo.HandlerFunc, p service.Principal) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("mw", "auth")

	u, err := m.Users.Get(ctx, p.UserID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Warn("auth_user_gone", "user_id", p.UserID)
		c.SetCookie(deleteCookie(CookieName, m.Secure))
		return next(c)
	case err != nil:
		l.Error("auth_lookup_error", "user_id", p.UserID, "error", err)
		p.Role = models.RoleUser
		setPrincipal(c, p)
		return next(c)
	case u.Role != p.Role:
		l.Info("auth_role_refreshed", "user_id", u.ID, "role", u.Role)
		if err := m.SignIn(c, u); err != nil {
			return err
		}
		return next(c)
	}
	setPrincipal(c, p)
	return next(c)
}

func (m *Middleware) SignIn(c echo.Context, u *models.User) error {
	exp := time.Now().Add(m.TTL)
	token, err := tokens.SignSession(u.ID, u.Nickname, u.Role, exp, m.JWTSecret)
	if err != nil {
		return err
	}
	c.SetCookie(createCookie(CookieName, token, exp, m.Secure))
	setPrincipal(c, service.PrincipalOf(u))
	return nil
}

func (m *Middleware) SignOut(c echo.Context) {
	c.SetCookie(deleteCookie(CookieName, m.Secure))
	setPrincipal(c, service.Principal{})
}

func createCookie(name, value string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func deleteCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
