// Package session keeps per-visitor state (basket, CSRF token, flash
// messages) in Redis, keyed by an opaque cookie id.
package session

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/Skotchmaster/online_restaurant/internal/basket"
)

const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type Session struct {
	ID        string         `json:"-"`
	CSRFToken string         `json:"csrf_token"`
	Basket    *basket.Basket `json:"basket"`
	Flashes   []Flash        `json:"flashes,omitempty"`

	dirty   bool
	isNew   bool
	staleID string
}

func New() (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        uuid.NewString(),
		CSRFToken: token,
		Basket:    basket.New(),
		dirty:     true,
		isNew:     true,
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Touch marks the session for saving at the end of the request.
func (s *Session) Touch() { s.dirty = true }

func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
	s.dirty = true
}

func (s *Session) PopFlashes() []Flash {
	out := s.Flashes
	if len(out) > 0 {
		s.Flashes = nil
		s.dirty = true
	}
	return out
}

// Regenerate moves the session to a fresh id and CSRF token, keeping the
// basket and pending flashes. Call it when the logged-in identity changes.
func (s *Session) Regenerate() error {
	token, err := newToken()
	if err != nil {
		return err
	}
	if !s.isNew && s.staleID == "" {
		s.staleID = s.ID
	}
	s.ID = uuid.NewString()
	s.CSRFToken = token
	s.isNew = true
	s.dirty = true
	return nil
}
