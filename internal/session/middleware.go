package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/basket"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

const contextKey = "session"

type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
	MaxAge time.Duration
}

func DefaultCookieConfig() CookieConfig {
	return CookieConfig{Name: "session_id", Path: "/", MaxAge: 24 * time.Hour}
}

func (cfg CookieConfig) cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    id,
		Path:     cfg.Path,
		Secure:   cfg.Secure,
		HttpOnly: true,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		SameSite: http.SameSiteStrictMode,
	}
}

// Middleware loads the session named by the cookie, or starts a new one, and
// stores it back once the response headers are about to be written.
func Middleware(store Store, cfg CookieConfig) echo.MiddlewareFunc {
	def := DefaultCookieConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Path == "" {
		cfg.Path = def.Path
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "session")

			var sess *Session
			if ck, err := c.Cookie(cfg.Name); err == nil && ck.Value != "" {
				sess, err = store.Load(ctx, ck.Value)
				if err != nil && !errors.Is(err, ErrNotFound) {
					l.Error("session_load_error", "status", 500, "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
			}
			if sess == nil {
				var err error
				if sess, err = New(); err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
			}
			c.Set(contextKey, sess)

			done := false
			persist := func() {
				if done {
					return
				}
				done = true
				if sess.staleID != "" {
					if err := store.Delete(ctx, sess.staleID); err != nil {
						l.Warn("session_delete_error", "error", err)
					}
					sess.staleID = ""
				}
				if sess.isNew {
					c.SetCookie(cfg.cookie(sess.ID))
					sess.isNew = false
				}
				if sess.dirty {
					if err := store.Save(ctx, sess); err != nil {
						l.Error("session_save_error", "error", err)
					}
				}
			}
			c.Response().Before(persist)

			err := next(c)
			if !c.Response().Committed {
				persist()
			}
			return err
		}
	}
}

// FromContext returns the request session. Outside the middleware it returns
// a throwaway session so callers never see nil.
func FromContext(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok && s != nil {
		return s
	}
	s, err := New()
	if err != nil {
		s = &Session{Basket: basket.New()}
	}
	c.Set(contextKey, s)
	return s
}
