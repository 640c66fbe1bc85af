package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/middleware/auth"
	"github.com/Skotchmaster/online_restaurant/internal/service"
	"github.com/Skotchmaster/online_restaurant/internal/session"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

type MenuHTTP struct {
	Svc *service.MenuService
}

func (h *MenuHTTP) Menu(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.list")

	items, err := h.Svc.ListActive(ctx)
	if err != nil {
		return internalError(l, "menu_error", err)
	}
	return render(c, "menu", Page{"all_positions": items})
}

func (h *MenuHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.search")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("search_error", "status", 400, "reason", "empty query")
			flash(c, session.FlashWarning, "Enter something to search for.")
			return render(c, "menu_search", Page{"result": nil})
		}
		return internalError(l, "search_error", err)
	}
	return render(c, "menu_search", Page{"result": res})
}

func (h *MenuHTTP) Position(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.position")

	name := c.Param("name")
	item, err := h.Svc.GetActive(ctx, name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("position_error", "status", 404, "reason", "not found", "name", name)
			flash(c, session.FlashDanger, "Dish not found.")
			return redirect(c, "/menu")
		}
		return internalError(l, "position_error", err)
	}
	return render(c, "position", Page{"position": item})
}

// AddToBasket stores the chosen quantity in the session basket. The dish is
// only checked against the menu at checkout.
func (h *MenuHTTP) AddToBasket(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "menu.add_to_basket")

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = c.Param("name")
	}
	back := "/position/" + url.PathEscape(c.Param("name"))

	qty, err := strconv.Atoi(strings.TrimSpace(c.FormValue("num")))
	if err != nil {
		l.Warn("add_to_basket_error", "status", 400, "reason", "invalid quantity")
		flash(c, session.FlashDanger, "Quantity must be a number.")
		return redirect(c, back)
	}

	sess := session.FromContext(c)
	if err := sess.Basket.Add(name, qty); err != nil {
		l.Warn("add_to_basket_error", "status", 400, "reason", err.Error())
		flash(c, session.FlashDanger, "Dish name is required.")
		return redirect(c, back)
	}
	sess.Touch()

	flash(c, session.FlashSuccess, "Item added to basket!")
	return redirect(c, back)
}

func (h *MenuHTTP) AddPositionForm(c echo.Context) error {
	return render(c, "add_position", nil)
}

func (h *MenuHTTP) AddPosition(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.add_position")

	in := service.MenuItemInput{
		Name:        c.FormValue("name"),
		Ingredients: c.FormValue("ingredients"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		Weight:      c.FormValue("weight"),
	}

	fh, err := c.FormFile("img")
	if err != nil {
		l.Warn("add_position_error", "status", 400, "reason", "file missing")
		flash(c, session.FlashDanger, "No file selected or the upload failed.")
		return render(c, "add_position", nil)
	}
	f, err := fh.Open()
	if err != nil {
		return internalError(l, "add_position_error", err)
	}
	defer f.Close()

	item, err := h.Svc.Create(ctx, auth.PrincipalFrom(c), in, fh.Filename, f)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrUnauthenticated):
			return redirect(c, auth.HomePath)
		case errors.Is(err, service.ErrValidation):
			l.Warn("add_position_error", "status", 400, "reason", err.Error())
			flash(c, session.FlashDanger, reason(err, service.ErrValidation))
			return render(c, "add_position", nil)
		}
		return internalError(l, "add_position_error", err)
	}

	l.Info("add_position_success", "id", item.ID)
	flash(c, session.FlashSuccess, "Item added successfully!")
	return render(c, "add_position", Page{"position": item})
}

func (h *MenuHTTP) MenuCheck(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.menu_check")

	items, err := h.Svc.ListAll(ctx, auth.PrincipalFrom(c))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return redirect(c, auth.HomePath)
		}
		return internalError(l, "menu_check_error", err)
	}
	return render(c, "check_menu", Page{"all_positions": items})
}

// MenuCheckAction toggles or deletes the item named by pos_id depending on
// which submit button was pressed.
func (h *MenuHTTP) MenuCheckAction(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.menu_check_action")
	p := auth.PrincipalFrom(c)

	id, ok := parseID(c.FormValue("pos_id"))
	if !ok {
		flash(c, session.FlashDanger, "Unknown menu item.")
		return redirect(c, "/menu_check")
	}

	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	switch {
	case form.Has("change_status"):
		item, err := h.Svc.ToggleActive(ctx, p, id)
		if err == nil {
			state := "hidden"
			if item.Active {
				state = "visible"
			}
			flash(c, session.FlashSuccess, fmt.Sprintf("%s is now %s.", item.Name, state))
		}
		return h.afterAction(c, l, err)
	case form.Has("delete_position"):
		err := h.Svc.Delete(ctx, p, id)
		if err == nil {
			flash(c, session.FlashSuccess, "Item deleted.")
		}
		return h.afterAction(c, l, err)
	}

	flash(c, session.FlashWarning, "Choose an action.")
	return redirect(c, "/menu_check")
}

func (h *MenuHTTP) afterAction(c echo.Context, l *slog.Logger, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotFound):
		flash(c, session.FlashDanger, "Unknown menu item.")
	case errors.Is(err, service.ErrForbidden):
		return redirect(c, auth.HomePath)
	default:
		l.Error("menu_check_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return redirect(c, "/menu_check")
}
