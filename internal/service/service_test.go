package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_restaurant/internal/events"
	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/repo"
	"github.com/Skotchmaster/online_restaurant/internal/testdb"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	args := m.Called(ctx, topic, key, event)
	return args.Error(0)
}

func (m *mockPublisher) types() []string {
	var out []string
	for _, c := range m.Calls {
		if ev, ok := c.Arguments.Get(3).(events.Event); ok {
			out = append(out, ev.Type)
		}
	}
	return out
}

func newPublisher() *mockPublisher {
	p := &mockPublisher{}
	p.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return p
}

type memImages struct {
	saved   map[string]string
	removed []string
}

func (m *memImages) Save(original string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.saved == nil {
		m.saved = map[string]string{}
	}
	name := "fixed_" + original
	m.saved[name] = string(data)
	return name, nil
}

func (m *memImages) Remove(name string) error {
	m.removed = append(m.removed, name)
	return nil
}

type fixture struct {
	repo *repo.GormRepo
	pub  *mockPublisher
}

func newFixture(t *testing.T) *fixture {
	return &fixture{repo: &repo.GormRepo{DB: testdb.Open(t)}, pub: newPublisher()}
}

func (f *fixture) user(t *testing.T, nickname, role string) Principal {
	t.Helper()
	u := &models.User{Nickname: nickname, Email: nickname + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, f.repo.CreateUser(context.Background(), u))
	return PrincipalOf(u)
}

func (f *fixture) dish(t *testing.T, name string, price int) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{Name: name, Ingredients: "-", Description: "-", Price: price, Weight: 300, FileName: "f.png", Active: true}
	require.NoError(t, f.repo.CreateMenuItem(context.Background(), item))
	return item
}

func image(content string) io.Reader { return strings.NewReader(content) }
