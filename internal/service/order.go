package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_restaurant/internal/basket"
	"github.com/Skotchmaster/online_restaurant/internal/events"
	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/repo"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Now    func() time.Time
}

type QuoteLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int    `json:"price"`
	Subtotal  int    `json:"subtotal"`
	Available bool   `json:"available"`
}

// Quote prices a dish→quantity map at current menu prices. Dishes that are
// missing or inactive contribute nothing and are listed in Unavailable.
type Quote struct {
	Lines       []QuoteLine `json:"lines"`
	Total       int         `json:"total"`
	Unavailable []string    `json:"unavailable,omitempty"`
}

type OrderView struct {
	Order models.Order `json:"order"`
	Quote *Quote       `json:"quote"`
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *OrderService) Quote(ctx context.Context, b *basket.Basket) (*Quote, error) {
	return s.quote(ctx, b.Snapshot())
}

func (s *OrderService) quote(ctx context.Context, list map[string]int) (*Quote, error) {
	b := basket.FromMap(list)
	names := b.Names()
	items, err := s.Repo.ActiveMenuByNames(ctx, names)
	if err != nil {
		return nil, err
	}

	q := &Quote{Lines: make([]QuoteLine, 0, len(names))}
	for _, name := range names {
		qty, _ := b.Quantity(name)
		line := QuoteLine{Name: name, Quantity: qty}
		if it, ok := items[name]; ok {
			line.Available = true
			line.Price = it.Price
			line.Subtotal = it.Price * qty
			q.Total += line.Subtotal
		} else {
			q.Unavailable = append(q.Unavailable, name)
		}
		q.Lines = append(q.Lines, line)
	}
	return q, nil
}

// Checkout turns the basket into an order for p and clears the basket. The
// basket is left untouched when the checkout is rejected.
func (s *OrderService) Checkout(ctx context.Context, b *basket.Basket, p Principal) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout")

	if err := EnsureAuthenticated(p); err != nil {
		return nil, err
	}
	if b == nil || b.IsEmpty() {
		return nil, ErrEmptyBasket
	}

	q, err := s.Quote(ctx, b)
	if err != nil {
		return nil, err
	}
	if len(q.Unavailable) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDishUnavailable, q.Unavailable[0])
	}

	order := &models.Order{
		OrderList: datatypes.NewJSONType(models.OrderList(b.Snapshot())),
		OrderTime: s.now(),
		UserID:    p.UserID,
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		l.Error("checkout_error", "status", 500, "reason", "cannot create order", "error", err)
		return nil, err
	}
	b.Clear()

	l.Info("checkout_success", "order_id", order.ID, "user_id", p.UserID, "total", q.Total)
	publish(ctx, s.Events, events.TopicOrders, itemKey(order.ID), events.New("order_created", map[string]any{
		"id":      order.ID,
		"user_id": p.UserID,
		"items":   order.OrderList.Data(),
		"total":   q.Total,
	}))
	return order, nil
}

func (s *OrderService) ListMine(ctx context.Context, p Principal) ([]models.Order, error) {
	if err := EnsureAuthenticated(p); err != nil {
		return nil, err
	}
	return s.Repo.ListOrdersByUser(ctx, p.UserID)
}

// Get returns an order to its owner or to an admin; anyone else sees
// ErrNotFound.
func (s *OrderService) Get(ctx context.Context, p Principal, id uint) (*OrderView, error) {
	if err := EnsureAuthenticated(p); err != nil {
		return nil, err
	}
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}
	if order.UserID != p.UserID && !p.IsAdmin() {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}

	q, err := s.quote(ctx, order.OrderList.Data())
	if err != nil {
		return nil, err
	}
	return &OrderView{Order: *order, Quote: q}, nil
}

func (s *OrderService) Cancel(ctx context.Context, p Principal, id uint) error {
	if err := EnsureAuthenticated(p); err != nil {
		return err
	}
	if err := s.Repo.DeleteOwnedOrder(ctx, id, p.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return err
	}
	publish(ctx, s.Events, events.TopicOrders, itemKey(id),
		events.New("order_cancelled", map[string]any{"id": id, "user_id": p.UserID}))
	return nil
}

func (s *OrderService) ListAll(ctx context.Context, p Principal) ([]models.Order, error) {
	if err := EnsureAdmin(p); err != nil {
		return nil, err
	}
	return s.Repo.ListOrders(ctx)
}

func (s *OrderService) Delete(ctx context.Context, p Principal, id uint) error {
	if err := EnsureAdmin(p); err != nil {
		return err
	}
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return err
	}
	publish(ctx, s.Events, events.TopicOrders, itemKey(id),
		events.New("order_deleted", map[string]any{"id": id}))
	return nil
}
