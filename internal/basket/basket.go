// Package basket holds the session-scoped shopping basket: a mapping from dish
// name to a quantity bounded to [MinQuantity, MaxQuantity].
package basket

import (
	"encoding/json"
	"errors"
	"sort"
)

const (
	MinQuantity = 1
	MaxQuantity = 10
)

type Action string

const (
	ActionPlus   Action = "plus"
	ActionMinus  Action = "minus"
	ActionDelete Action = "delete"
)

var (
	ErrNotInBasket   = errors.New("dish is not in the basket")
	ErrMaxQuantity   = errors.New("maximum quantity reached")
	ErrMinQuantity   = errors.New("minimum quantity reached")
	ErrUnknownAction = errors.New("unknown basket action")
	ErrEmptyName     = errors.New("dish name is empty")
)

// Basket is not safe for concurrent use; each request works on its own copy
// loaded from the session store.
type Basket struct {
	items map[string]int
}

func New() *Basket {
	return &Basket{items: map[string]int{}}
}

// FromMap builds a basket from a decoded snapshot, clamping quantities and
// dropping empty names.
func FromMap(m map[string]int) *Basket {
	b := New()
	for name, qty := range m {
		if name == "" {
			continue
		}
		b.items[name] = clamp(qty)
	}
	return b
}

func clamp(qty int) int {
	if qty < MinQuantity {
		return MinQuantity
	}
	if qty > MaxQuantity {
		return MaxQuantity
	}
	return qty
}

// Add inserts or overwrites the quantity for a dish.
func (b *Basket) Add(name string, qty int) error {
	if name == "" {
		return ErrEmptyName
	}
	if b.items == nil {
		b.items = map[string]int{}
	}
	b.items[name] = clamp(qty)
	return nil
}

func (b *Basket) Update(name string, action Action) error {
	qty, ok := b.items[name]
	if !ok {
		return ErrNotInBasket
	}

	switch action {
	case ActionPlus:
		if qty >= MaxQuantity {
			return ErrMaxQuantity
		}
		b.items[name] = qty + 1
	case ActionMinus:
		if qty <= MinQuantity {
			return ErrMinQuantity
		}
		b.items[name] = qty - 1
	case ActionDelete:
		delete(b.items, name)
	default:
		return ErrUnknownAction
	}
	return nil
}

func (b *Basket) Remove(name string) error {
	if _, ok := b.items[name]; !ok {
		return ErrNotInBasket
	}
	delete(b.items, name)
	return nil
}

func (b *Basket) Clear() {
	b.items = map[string]int{}
}

func (b *Basket) Quantity(name string) (int, bool) {
	qty, ok := b.items[name]
	return qty, ok
}

func (b *Basket) Len() int {
	return len(b.items)
}

func (b *Basket) IsEmpty() bool {
	return len(b.items) == 0
}

// Snapshot returns a copy that later mutations do not affect.
func (b *Basket) Snapshot() map[string]int {
	out := make(map[string]int, len(b.items))
	for name, qty := range b.items {
		out[name] = qty
	}
	return out
}

// Names returns the dish names in lexical order.
func (b *Basket) Names() []string {
	names := make([]string, 0, len(b.items))
	for name := range b.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Basket) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Snapshot())
}

func (b *Basket) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*b = *FromMap(m)
	return nil
}
