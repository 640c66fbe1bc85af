package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"net/http"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kyiv = url.Values{"latitude": {"50.4501"}, "longitude": {"30.5234"}}

func reserveForm(tableType, start string, loc url.Values) url.Values {
	form := url.Values{"table_type": {tableType}, "time": {start}}
	for k, v := range loc {
		form[k] = v
	}
	return form
}

func reserve(t *testing.T, cl *client, form url.Values) string {
	t.Helper()
	rec := cl.post("/reserved", form)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	msg, _ := decodePage(t, rec)["message"].(string)
	return msg
}

func TestReserveFlow(t *testing.T) {
	h := newHarness(t)
	cl := h.client(t)
	cl.register("olena")

	p := cl.page("/reserved")
	assert.Len(t, p["availability"], 3)
	assert.Nil(t, p["message"])

	msg := reserve(t, cl, reserveForm("1-2", "2026-05-01T19:30", nil))
	assert.Equal(t, "You did not share your location. Allow access to geolocation.", msg)

	msg = reserve(t, cl, reserveForm("1-2", "2026-05-01T19:30", url.Values{"latitude": {"abc"}, "longitude": {"30"}}))
	assert.Equal(t, "Your location could not be read. Please try again.", msg)

	lviv := url.Values{"latitude": {"49.8397"}, "longitude": {"24.0297"}}
	msg = reserve(t, cl, reserveForm("1-2", "2026-05-01T19:30", lviv))
	assert.Contains(t, msg, "outside the booking zone (20 km)")

	msg = reserve(t, cl, reserveForm("7-8", "2026-05-01T19:30", kyiv))
	assert.Equal(t, "Choose a table type and a valid time.", msg)

	msg = reserve(t, cl, reserveForm("1-2", "2026-05-01T19:30", kyiv))
	assert.Equal(t, "Table for 1-2 people reserved for 2026-05-01 19:30!", msg)

	msg = reserve(t, cl, reserveForm("3-4", "2026-05-02T19:30", kyiv))
	assert.Equal(t, "Only one active reservation is allowed. Cancel the old one to create a new one.", msg)
	msg = reserve(t, cl, reserveForm("5-6", "tomorrow", kyiv))
	assert.Equal(t, "Only one active reservation is allowed. Cancel the old one to create a new one.", msg)

	mine := cl.page("/my_reservation")["reservation"].(map[string]any)
	assert.Equal(t, "1-2", mine["type_table"])

	rec := cl.get("/my_reservation/qr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)

	rec = cl.post("/cancel_reservation", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	p = cl.page("/my_reservation")
	assert.Nil(t, p["reservation"])
	assert.Contains(t, messages(p), "Reservation cancelled")

	rec = cl.get("/my_reservation/qr")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/reserved", rec.Header().Get(echo.HeaderLocation))
}

func TestReserve_CapacityExhausted(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 4; i++ {
		cl := h.client(t)
		cl.register(fmt.Sprintf("guest%d", i))
		msg := reserve(t, cl, reserveForm("4+", "2026-05-01T20:00", kyiv))
		require.Contains(t, msg, "reserved for")
	}

	late := h.client(t)
	late.register("late")
	msg := reserve(t, late, reserveForm("4+", "2026-05-01T20:00", kyiv))
	assert.Equal(t, "Unfortunately all tables of this type are currently reserved.", msg)

	n, err := h.repo.CountReservations(context.Background(), "4+")
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestReservationsCheck_AdminDelete(t *testing.T) {
	h := newHarness(t)
	user := h.client(t)
	user.register("olena")
	reserve(t, user, reserveForm("3-4", "2026-05-01T20:00", kyiv))

	admin := h.admin(t)
	all := admin.page("/reservations_check")["all_reservations"].([]any)
	require.Len(t, all, 1)
	id := fmt.Sprint(all[0].(map[string]any)["id"])

	rec := admin.post("/reservations_check", url.Values{"reserv_id": {id}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	p := admin.page("/reservations_check")
	assert.Empty(t, p["all_reservations"])
	assert.Contains(t, messages(p), "Reservation deleted.")

	assert.Nil(t, user.page("/my_reservation")["reservation"])
}
