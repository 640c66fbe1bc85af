package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/service"
	"github.com/Skotchmaster/online_restaurant/pkg/tokens"
)

var secret = []byte("test-secret")

func newEcho(m *Middleware) *echo.Echo {
	e := echo.New()
	e.Use(m.Identify)
	whoami := func(c echo.Context) error {
		p := PrincipalFrom(c)
		return c.JSON(http.StatusOK, map[string]any{"id": p.UserID, "role": p.Role})
	}
	e.GET("/open", whoami)
	e.GET("/private", whoami, RequireAuth)
	e.GET("/admin", whoami, RequireAdmin)
	return e
}

func do(e *echo.Echo, path string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sign(t *testing.T, id uint, role string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.SignSession(id, "nick", role, exp, secret)
	require.NoError(t, err)
	return tok
}

func TestRequireAuth(t *testing.T) {
	e := newEcho(New(secret, time.Hour, false))

	rec := do(e, "/private", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get(echo.HeaderLocation))

	rec = do(e, "/private", sign(t, 7, models.RoleUser, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"user"}`, rec.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	e := newEcho(New(secret, time.Hour, false))

	rec := do(e, "/admin", "")
	assert.Equal(t, LoginPath, rec.Header().Get(echo.HeaderLocation))

	rec = do(e, "/admin", sign(t, 7, models.RoleUser, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, HomePath, rec.Header().Get(echo.HeaderLocation))

	rec = do(e, "/admin", sign(t, 1, models.RoleAdmin, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdentify_InvalidTokensAreAnonymous(t *testing.T) {
	e := newEcho(New(secret, time.Hour, false))

	cases := map[string]string{
		"garbage":      "not-a-jwt",
		"expired":      sign(t, 7, models.RoleUser, time.Now().Add(-time.Minute)),
		"wrong secret": func() string { tok, _ := tokens.SignSession(7, "n", "admin", time.Now().Add(time.Hour), []byte("other")); return tok }(),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(e, "/open", tok)
			assert.JSONEq(t, `{"id":0,"role":""}`, rec.Body.String())

			var cleared bool
			for _, ck := range rec.Result().Cookies() {
				if ck.Name == CookieName && ck.MaxAge < 0 {
					cleared = true
				}
			}
			assert.True(t, cleared)
		})
	}
}

func TestSignInSignOut(t *testing.T) {
	m := New(secret, time.Hour, true)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), rec)

	require.NoError(t, m.SignIn(c, &models.User{ID: 3, Nickname: "olena", Role: models.RoleUser}))
	assert.Equal(t, uint(3), PrincipalFrom(c).UserID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	claims, err := tokens.SessionClaimsFromToken(cookies[0].Value, secret)
	require.NoError(t, err)
	assert.Equal(t, "olena", claims.Nickname)

	m.SignOut(c)
	assert.False(t, PrincipalFrom(c).Authenticated())
}

type stubUsers struct {
	users map[uint]*models.User
	err   error
	calls int
}

func (s *stubUsers) Get(_ context.Context, id uint) (*models.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return u, nil
}

func TestIdentify_RechecksAdminTokens(t *testing.T) {
	users := &stubUsers{users: map[uint]*models.User{
		1: {ID: 1, Nickname: "Admin", Role: models.RoleAdmin},
		2: {ID: 2, Nickname: "former", Role: models.RoleUser},
	}}
	m := New(secret, time.Hour, false)
	m.Users = users
	e := newEcho(m)
	exp := time.Now().Add(time.Hour)

	rec := do(e, "/admin", sign(t, 1, models.RoleAdmin, exp))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, "/private", sign(t, 7, models.RoleUser, exp))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, users.calls)

	rec = do(e, "/admin", sign(t, 2, models.RoleAdmin, exp))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, HomePath, rec.Header().Get(echo.HeaderLocation))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	claims, err := tokens.SessionClaimsFromToken(cookies[0].Value, secret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)

	rec = do(e, "/admin", sign(t, 9, models.RoleAdmin, exp))
	assert.Equal(t, LoginPath, rec.Header().Get(echo.HeaderLocation))
}

func TestIdentify_LookupFailureDropsAdminRights(t *testing.T) {
	m := New(secret, time.Hour, false)
	m.Users = &stubUsers{err: errors.New("db down")}
	e := newEcho(m)

	rec := do(e, "/admin", sign(t, 1, models.RoleAdmin, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, HomePath, rec.Header().Get(echo.HeaderLocation))

	rec = do(e, "/private", sign(t, 1, models.RoleAdmin, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
