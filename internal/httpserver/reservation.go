package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_restaurant/internal/geo"
	"github.com/Skotchmaster/online_restaurant/internal/middleware/auth"
	"github.com/Skotchmaster/online_restaurant/internal/service"
	"github.com/Skotchmaster/online_restaurant/internal/session"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

type ReservationHTTP struct {
	Svc *service.ReservationService
}

func (h *ReservationHTTP) renderReserved(c echo.Context, message string) error {
	ctx := c.Request().Context()
	avail, err := h.Svc.Availability(ctx)
	if err != nil {
		return internalError(logging.FromContext(ctx), "reserved_error", err)
	}
	data := Page{"availability": avail, "message": nil}
	if message != "" {
		data["message"] = message
	}
	return render(c, "reserved", data)
}

func (h *ReservationHTTP) ReservedForm(c echo.Context) error {
	return h.renderReserved(c, "")
}

func (h *ReservationHTTP) Reserve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reservation.reserve")

	tableType := c.FormValue("table_type")
	start := c.FormValue("time")

	loc, err := geo.ParsePoint(c.FormValue("latitude"), c.FormValue("longitude"))
	if err != nil {
		l.Warn("reserve_error", "status", 400, "reason", "invalid coordinates")
		return h.renderReserved(c, "Your location could not be read. Please try again.")
	}

	res, err := h.Svc.Reserve(ctx, auth.PrincipalFrom(c), tableType, start, loc)
	if err != nil {
		msg, ok := reservationMessage(err, h.Svc.Fence.RadiusKm)
		if !ok {
			return internalError(l, "reserve_error", err)
		}
		l.Warn("reserve_error", "status", 409, "reason", err.Error())
		return h.renderReserved(c, msg)
	}

	return h.renderReserved(c, fmt.Sprintf("Table for %s people reserved for %s!",
		res.TypeTable, res.TimeStart.Format("2006-01-02 15:04")))
}

func reservationMessage(err error, radiusKm float64) (string, bool) {
	var de *geo.DistanceError
	switch {
	case errors.Is(err, geo.ErrMissingLocation):
		return "You did not share your location. Allow access to geolocation.", true
	case errors.Is(err, geo.ErrInvalidCoordinates):
		return "Your location could not be read. Please try again.", true
	case errors.As(err, &de):
		return fmt.Sprintf("You are %.2f km away from us. Unfortunately you are outside the booking zone (%g km).",
			de.DistanceKm, radiusKm), true
	case errors.Is(err, service.ErrAlreadyReserved):
		return "Only one active reservation is allowed. Cancel the old one to create a new one.", true
	case errors.Is(err, service.ErrNoCapacity):
		return "Unfortunately all tables of this type are currently reserved.", true
	case errors.Is(err, service.ErrValidation):
		return "Choose a table type and a valid time.", true
	}
	return "", false
}

func (h *ReservationHTTP) MyReservation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reservation.mine")

	res, err := h.Svc.Mine(ctx, auth.PrincipalFrom(c))
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		return internalError(l, "my_reservation_error", err)
	}
	return render(c, "my_reservation", Page{"reservation": res})
}

func (h *ReservationHTTP) MyReservationQR(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reservation.qr")

	png, err := h.Svc.Ticket(ctx, auth.PrincipalFrom(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			flash(c, session.FlashWarning, "You have no active reservation.")
			return redirect(c, "/reserved")
		}
		return internalError(l, "qr_error", err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *ReservationHTTP) CancelReservation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reservation.cancel")

	if err := h.Svc.CancelMine(ctx, auth.PrincipalFrom(c)); err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			return internalError(l, "cancel_reservation_error", err)
		}
		flash(c, session.FlashWarning, "You have no active reservation.")
		return redirect(c, "/my_reservation")
	}
	flash(c, session.FlashSuccess, "Reservation cancelled")
	return redirect(c, "/my_reservation")
}

func (h *ReservationHTTP) ReservationsCheck(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reservation.reservations_check")

	all, err := h.Svc.ListAll(ctx, auth.PrincipalFrom(c))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return redirect(c, auth.HomePath)
		}
		return internalError(l, "reservations_check_error", err)
	}
	return render(c, "reservations_check", Page{"all_reservations": all})
}

func (h *ReservationHTTP) ReservationsCheckAction(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reservation.reservations_check_action")

	id, ok := parseID(c.FormValue("reserv_id"))
	if !ok {
		flash(c, session.FlashDanger, "Unknown reservation.")
		return redirect(c, "/reservations_check")
	}

	err := h.Svc.Delete(ctx, auth.PrincipalFrom(c), id)
	switch {
	case err == nil:
		flash(c, session.FlashSuccess, "Reservation deleted.")
	case errors.Is(err, service.ErrNotFound):
		flash(c, session.FlashDanger, "Unknown reservation.")
	case errors.Is(err, service.ErrForbidden):
		return redirect(c, auth.HomePath)
	default:
		return internalError(l, "reservations_check_error", err)
	}
	return redirect(c, "/reservations_check")
}
