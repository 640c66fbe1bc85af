package httpserver

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/middleware/auth"
	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/service"
	"github.com/Skotchmaster/online_restaurant/internal/session"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

type AccountHTTP struct {
	Svc  *service.AccountService
	Auth *auth.Middleware
}

func (h *AccountHTTP) Home(c echo.Context) error {
	return render(c, "home", nil)
}

func (h *AccountHTTP) RegisterForm(c echo.Context) error {
	return render(c, "register", nil)
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.register")

	user, err := h.Svc.Register(ctx, c.FormValue("nickname"), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			flash(c, session.FlashDanger, "A user with this email or nickname already exists!")
			return render(c, "register", nil)
		case errors.Is(err, service.ErrValidation):
			l.Warn("register_error", "status", 400, "reason", err.Error())
			flash(c, session.FlashDanger, "Please fill in nickname, a valid email and password.")
			return render(c, "register", nil)
		}
		return internalError(l, "register_error", err)
	}

	if err := h.signIn(c, user); err != nil {
		return internalError(l, "register_error", err)
	}
	l.Info("register_success", "user_id", user.ID)
	return redirect(c, "/home")
}

func (h *AccountHTTP) LoginForm(c echo.Context) error {
	return render(c, "login", nil)
}

func (h *AccountHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.login")

	user, err := h.Svc.Login(ctx, c.FormValue("nickname"), c.FormValue("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login_error", "status", 401, "reason", "invalid credentials")
			flash(c, session.FlashDanger, "Wrong nickname or password!")
			return render(c, "login", nil)
		}
		return internalError(l, "login_error", err)
	}

	if err := h.signIn(c, user); err != nil {
		return internalError(l, "login_error", err)
	}
	l.Info("login_success", "user_id", user.ID)
	return redirect(c, "/home")
}

func (h *AccountHTTP) Logout(c echo.Context) error {
	h.Auth.SignOut(c)
	if err := session.FromContext(c).Regenerate(); err != nil {
		return internalError(logging.FromContext(c.Request().Context()), "logout_error", err)
	}
	return redirect(c, auth.LoginPath)
}

func (h *AccountHTTP) AllUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.all_users")

	users, err := h.Svc.ListUsers(ctx, auth.PrincipalFrom(c))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) || errors.Is(err, service.ErrUnauthenticated) {
			return redirect(c, auth.HomePath)
		}
		return internalError(l, "all_users_error", err)
	}
	return render(c, "all_users", Page{"all_users": users})
}

// signIn moves the visitor to a fresh session id, then issues the auth cookie.
func (h *AccountHTTP) signIn(c echo.Context, user *models.User) error {
	if err := session.FromContext(c).Regenerate(); err != nil {
		return err
	}
	return h.Auth.SignIn(c, user)
}
