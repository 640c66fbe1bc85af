package httpserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/middleware/auth"
	"github.com/Skotchmaster/online_restaurant/internal/middleware/csp"
	"github.com/Skotchmaster/online_restaurant/internal/session"
)

// Page is the JSON payload a template would have been rendered with.
type Page map[string]any

type viewer struct {
	ID       uint   `json:"id"`
	Nickname string `json:"nickname"`
	Admin    bool   `json:"admin"`
}

func render(c echo.Context, name string, data Page) error {
	return renderStatus(c, http.StatusOK, name, data)
}

func renderStatus(c echo.Context, status int, name string, data Page) error {
	if data == nil {
		data = Page{}
	}
	sess := session.FromContext(c)
	data["page"] = name
	data["flashes"] = sess.PopFlashes()
	data["csrf_token"] = sess.CSRFToken
	data["nonce"] = csp.Nonce(c)

	if p := auth.PrincipalFrom(c); p.Authenticated() {
		data["user"] = viewer{ID: p.UserID, Nickname: p.Nickname, Admin: p.IsAdmin()}
	} else {
		data["user"] = nil
	}
	return c.JSON(status, data)
}

func redirect(c echo.Context, path string) error {
	return c.Redirect(http.StatusSeeOther, path)
}

func flash(c echo.Context, category, msg string) {
	session.FromContext(c).AddFlash(category, msg)
}

func internalError(l *slog.Logger, event string, err error) error {
	l.Error(event, "status", 500, "reason", "internal error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// reason strips the sentinel prefix from a wrapped service error.
func reason(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
