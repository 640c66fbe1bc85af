package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/online_restaurant/internal/events"
	"github.com/Skotchmaster/online_restaurant/internal/geo"
	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/repo"
	"github.com/Skotchmaster/online_restaurant/internal/ticket"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func ParseStartTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid start time %q", ErrValidation, raw)
}

type ReservationService struct {
	Repo   *repo.GormRepo
	Fence  geo.Fence
	Events events.Publisher
}

type Availability struct {
	TypeTable string `json:"type_table"`
	Capacity  int    `json:"capacity"`
	Reserved  int64  `json:"reserved"`
	Free      int64  `json:"free"`
}

// Reserve admits a booking for p. Checks run in order: geofence, one
// reservation per user, input, table capacity. A user who already holds a
// reservation is told so whatever table type or time they submit.
func (s *ReservationService) Reserve(ctx context.Context, p Principal, tableType, start string, loc *geo.Point) (*models.Reservation, error) {
	l := logging.FromContext(ctx).With("svc", "reservation.reserve", "user_id", p.UserID)

	if err := EnsureAuthenticated(p); err != nil {
		return nil, err
	}

	distance, err := s.Fence.Check(loc)
	if err != nil {
		l.Warn("reserve_rejected", "reason", err.Error())
		return nil, err
	}

	switch _, err := s.Repo.GetReservationByUser(ctx, p.UserID); {
	case err == nil:
		return nil, ErrAlreadyReserved
	case !errors.Is(err, gorm.ErrRecordNotFound):
		l.Error("reserve_error", "status", 500, "error", err)
		return nil, err
	}

	if !slices.Contains(models.TableTypes, tableType) {
		return nil, fmt.Errorf("%w: unknown table type %q", ErrValidation, tableType)
	}
	startAt, err := ParseStartTime(start)
	if err != nil {
		return nil, err
	}

	res := &models.Reservation{TypeTable: tableType, TimeStart: startAt, UserID: p.UserID}
	if err := s.Repo.AdmitReservation(ctx, res); err != nil {
		switch {
		case errors.Is(err, repo.ErrAlreadyReserved):
			return nil, ErrAlreadyReserved
		case errors.Is(err, repo.ErrNoCapacity):
			return nil, ErrNoCapacity
		case errors.Is(err, repo.ErrUnknownTableType):
			return nil, fmt.Errorf("%w: unknown table type %q", ErrValidation, tableType)
		}
		l.Error("reserve_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("reserve_success", "reservation_id", res.ID, "type_table", tableType, "distance_km", distance)
	publish(ctx, s.Events, events.TopicReservations, itemKey(res.ID), events.New("reservation_created", res))
	return res, nil
}

func (s *ReservationService) Availability(ctx context.Context) ([]Availability, error) {
	caps, err := s.Repo.ListCapacities(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Availability, 0, len(caps))
	for _, c := range caps {
		n, err := s.Repo.CountReservations(ctx, c.TypeTable)
		if err != nil {
			return nil, err
		}
		free := int64(c.Capacity) - n
		if free < 0 {
			free = 0
		}
		out = append(out, Availability{TypeTable: c.TypeTable, Capacity: c.Capacity, Reserved: n, Free: free})
	}
	return out, nil
}

func (s *ReservationService) Mine(ctx context.Context, p Principal) (*models.Reservation, error) {
	if err := EnsureAuthenticated(p); err != nil {
		return nil, err
	}
	res, err := s.Repo.GetReservationByUser(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active reservation", ErrNotFound)
		}
		return nil, err
	}
	return res, nil
}

func (s *ReservationService) Ticket(ctx context.Context, p Principal) ([]byte, error) {
	res, err := s.Mine(ctx, p)
	if err != nil {
		return nil, err
	}
	return ticket.PNG(*res, p.Nickname)
}

func (s *ReservationService) CancelMine(ctx context.Context, p Principal) error {
	if err := EnsureAuthenticated(p); err != nil {
		return err
	}
	res, err := s.Repo.DeleteReservationByUser(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no active reservation", ErrNotFound)
		}
		return err
	}
	publish(ctx, s.Events, events.TopicReservations, itemKey(res.ID),
		events.New("reservation_cancelled", map[string]any{"id": res.ID, "user_id": p.UserID}))
	return nil
}

func (s *ReservationService) ListAll(ctx context.Context, p Principal) ([]models.Reservation, error) {
	if err := EnsureAdmin(p); err != nil {
		return nil, err
	}
	return s.Repo.ListReservations(ctx)
}

func (s *ReservationService) Delete(ctx context.Context, p Principal, id uint) error {
	if err := EnsureAdmin(p); err != nil {
		return err
	}
	res, err := s.Repo.DeleteReservation(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: reservation %d", ErrNotFound, id)
		}
		return err
	}
	publish(ctx, s.Events, events.TopicReservations, itemKey(res.ID),
		events.New("reservation_deleted", map[string]any{"id": res.ID, "user_id": res.UserID}))
	return nil
}
