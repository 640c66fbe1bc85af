package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/online_restaurant/internal/events"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409

	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid nickname or password")

	ErrEmptyBasket     = errors.New("basket is empty")
	ErrDishUnavailable = errors.New("dish unavailable")

	ErrAlreadyReserved = errors.New("only one active reservation per user")
	ErrNoCapacity      = errors.New("all tables of this type are reserved")
)

// publish never fails the calling operation; delivery errors are logged.
func publish(ctx context.Context, pub events.Publisher, topic, key string, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_error", "topic", topic, "type", ev.Type, "error", err)
	}
}
