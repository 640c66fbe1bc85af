package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_restaurant/internal/geo"
	"github.com/Skotchmaster/online_restaurant/internal/models"
)

var kyiv = geo.Point{Lat: 50.4501, Lon: 30.5234}

func newReservationService(f *fixture) *ReservationService {
	return &ReservationService{
		Repo:   f.repo,
		Fence:  geo.Fence{Center: kyiv, RadiusKm: 20},
		Events: f.pub,
	}
}

func TestReserve_Geofence(t *testing.T) {
	f := newFixture(t)
	svc := newReservationService(f)
	ctx := context.Background()
	user := f.user(t, "olena", models.RoleUser)

	_, err := svc.Reserve(ctx, user, "1-2", "2026-05-01T19:00", nil)
	require.ErrorIs(t, err, geo.ErrMissingLocation)

	lviv := &geo.Point{Lat: 49.8397, Lon: 24.0297}
	_, err = svc.Reserve(ctx, user, "1-2", "2026-05-01T19:00", lviv)
	require.ErrorIs(t, err, geo.ErrOutsideFence)
	var de *geo.DistanceError
	require.True(t, errors.As(err, &de))
	assert.Greater(t, de.DistanceKm, 20.0)

	here := kyiv
	res, err := svc.Reserve(ctx, user, "1-2", "2026-05-01T19:00", &here)
	require.NoError(t, err)
	assert.Equal(t, "1-2", res.TypeTable)
	assert.Equal(t, 19, res.TimeStart.Hour())
	assert.Equal(t, []string{"reservation_created"}, f.pub.types())
}

func TestReserve_InputValidation(t *testing.T) {
	f := newFixture(t)
	svc := newReservationService(f)
	ctx := context.Background()
	user := f.user(t, "olena", models.RoleUser)
	here := kyiv

	_, err := svc.Reserve(ctx, user, "bar", "2026-05-01T19:00", &here)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Reserve(ctx, user, "3-4", "tomorrow evening", &here)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Reserve(ctx, Principal{}, "3-4", "2026-05-01T19:00", &here)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestReserve_ExistingReservationWinsOverBadInput(t *testing.T) {
	f := newFixture(t)
	svc := newReservationService(f)
	ctx := context.Background()
	user := f.user(t, "olena", models.RoleUser)
	here := kyiv

	_, err := svc.Reserve(ctx, user, "3-4", "2026-05-01T19:00", &here)
	require.NoError(t, err)

	cases := []struct{ tableType, start string }{
		{"5-6", "2026-05-02T19:00"},
		{"1-2", "tomorrow"},
		{"", ""},
	}
	for _, tc := range cases {
		_, err := svc.Reserve(ctx, user, tc.tableType, tc.start, &here)
		require.ErrorIs(t, err, ErrAlreadyReserved, "%q %q", tc.tableType, tc.start)
	}

	_, err = svc.Reserve(ctx, user, "5-6", "tomorrow", nil)
	require.ErrorIs(t, err, geo.ErrMissingLocation)
}

func TestReserve_OnePerUserAndCapacity(t *testing.T) {
	f := newFixture(t)
	svc := newReservationService(f)
	ctx := context.Background()
	here := kyiv

	guests := make([]Principal, 5)
	for i := range guests {
		guests[i] = f.user(t, fmt.Sprintf("guest%d", i), models.RoleUser)
	}
	for i := 0; i < 4; i++ {
		_, err := svc.Reserve(ctx, guests[i], "4+", "2026-05-01T19:00", &here)
		require.NoError(t, err)
	}

	_, err := svc.Reserve(ctx, guests[4], "4+", "2026-05-01T19:00", &here)
	require.ErrorIs(t, err, ErrNoCapacity)

	_, err = svc.Reserve(ctx, guests[0], "1-2", "2026-05-02T19:00", &here)
	require.ErrorIs(t, err, ErrAlreadyReserved)

	avail, err := svc.Availability(ctx)
	require.NoError(t, err)
	byType := map[string]Availability{}
	for _, a := range avail {
		byType[a.TypeTable] = a
	}
	assert.EqualValues(t, 0, byType["4+"].Free)
	assert.EqualValues(t, 10, byType["1-2"].Free)

	_, err = svc.Reserve(ctx, guests[4], "1-2", "2026-05-01T19:00", &here)
	require.NoError(t, err)
}

func TestReserve_ConcurrentCapacity(t *testing.T) {
	f := newFixture(t)
	svc := newReservationService(f)
	ctx := context.Background()

	guests := make([]Principal, 12)
	for i := range guests {
		guests[i] = f.user(t, fmt.Sprintf("crowd%d", i), models.RoleUser)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		full     int
	)
	for _, g := range guests {
		wg.Add(1)
		go func(p Principal) {
			defer wg.Done()
			here := kyiv
			_, err := svc.Reserve(ctx, p, "4+", "2026-05-01T19:00", &here)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, ErrNoCapacity):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 4, admitted)
	assert.Equal(t, 8, full)
}

func TestReservation_MineTicketCancel(t *testing.T) {
	f := newFixture(t)
	svc := newReservationService(f)
	ctx := context.Background()
	user := f.user(t, "olena", models.RoleUser)
	here := kyiv

	_, err := svc.Mine(ctx, user)
	require.ErrorIs(t, err, ErrNotFound)

	res, err := svc.Reserve(ctx, user, "3-4", "2026-05-01T19:00", &here)
	require.NoError(t, err)

	mine, err := svc.Mine(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, res.ID, mine.ID)

	data, err := svc.Ticket(ctx, user)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	require.NoError(t, svc.CancelMine(ctx, user))
	require.ErrorIs(t, svc.CancelMine(ctx, user), ErrNotFound)

	_, err = svc.Reserve(ctx, user, "3-4", "2026-05-01T20:00", &here)
	require.NoError(t, err)
}

func TestReservation_AdminOversight(t *testing.T) {
	f := newFixture(t)
	svc := newReservationService(f)
	ctx := context.Background()
	user := f.user(t, "olena", models.RoleUser)
	admin := f.user(t, "boss", models.RoleAdmin)
	here := kyiv

	res, err := svc.Reserve(ctx, user, "1-2", "2026-05-01T19:00", &here)
	require.NoError(t, err)

	_, err = svc.ListAll(ctx, user)
	require.ErrorIs(t, err, ErrForbidden)

	all, err := svc.ListAll(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "olena", all[0].User.Nickname)

	require.ErrorIs(t, svc.Delete(ctx, user, res.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, res.ID))
	require.ErrorIs(t, svc.Delete(ctx, admin, res.ID), ErrNotFound)
}

func TestParseStartTime(t *testing.T) {
	for _, raw := range []string{"2026-05-01T19:00", "2026-05-01T19:00:00", "2026-05-01 19:00", "2026-05-01T19:00:00Z"} {
		got, err := ParseStartTime(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, 19, got.Hour(), raw)
	}
	_, err := ParseStartTime("")
	require.ErrorIs(t, err, ErrValidation)
}
