package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_restaurant/internal/events"
	"github.com/Skotchmaster/online_restaurant/internal/geo"
	"github.com/Skotchmaster/online_restaurant/internal/media"
	"github.com/Skotchmaster/online_restaurant/internal/middleware/auth"
	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/repo"
	"github.com/Skotchmaster/online_restaurant/internal/service"
	"github.com/Skotchmaster/online_restaurant/internal/session"
	"github.com/Skotchmaster/online_restaurant/internal/testdb"
)

type harness struct {
	e        *echo.Echo
	repo     *repo.GormRepo
	accounts *service.AccountService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	r := &repo.GormRepo{DB: testdb.Open(t)}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	images, err := media.NewStore(t.TempDir())
	require.NoError(t, err)

	pub := events.Nop{}
	authMW := auth.New([]byte("test-secret"), time.Hour, false)
	accounts := &service.AccountService{Repo: r, Events: pub}
	authMW.Users = accounts

	deps := &Deps{
		Account: &AccountHTTP{Svc: accounts, Auth: authMW},
		Menu:    &MenuHTTP{Svc: &service.MenuService{Repo: r, Images: images, Events: pub}},
		Basket:  &BasketHTTP{Orders: &service.OrderService{Repo: r, Events: pub}},
		Orders:  &OrderHTTP{Svc: &service.OrderService{Repo: r, Events: pub}},
		Reservations: &ReservationHTTP{Svc: &service.ReservationService{
			Repo:   r,
			Fence:  geo.Fence{Center: geo.Point{Lat: 50.4501, Lon: 30.5234}, RadiusKm: 20},
			Events: pub,
		}},
		Auth:     authMW,
		Sessions: session.NewRedisStore(rdb, time.Hour),
		Ready:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	e := echo.New()
	Register(e, deps)
	return &harness{e: e, repo: r, accounts: accounts}
}

func (h *harness) dish(t *testing.T, name string, price int) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{Name: name, Ingredients: "-", Description: "-", Price: price, Weight: 300, FileName: "x.png", Active: true}
	require.NoError(t, h.repo.CreateMenuItem(context.Background(), item))
	return item
}

// client is a tiny browser: it keeps cookies and fetches a CSRF token before
// every form post.
type client struct {
	t       *testing.T
	h       *harness
	cookies map[string]*http.Cookie
}

func (h *harness) client(t *testing.T) *client {
	return &client{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	rec := httptest.NewRecorder()
	cl.h.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(cl.cookies, ck.Name)
			continue
		}
		cl.cookies[ck.Name] = ck
	}
	return rec
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// token reads the session CSRF token from a page that does not consume
// flash messages.
func (cl *client) token() string {
	tok := cl.get("/test_basket").Header().Get("X-CSRF-Token")
	require.NotEmpty(cl.t, tok)
	return tok
}

func (cl *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", cl.token())
	return cl.postRaw(path, form)
}

func (cl *client) postRaw(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return cl.do(req)
}

func (cl *client) postMultipart(path string, fields map[string]string, fileField, fileName string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(cl.t, w.WriteField("csrf_token", cl.token()))
	for k, v := range fields {
		require.NoError(cl.t, w.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(cl.t, err)
		_, err = fw.Write(content)
		require.NoError(cl.t, err)
	}
	require.NoError(cl.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return cl.do(req)
}

func (cl *client) page(path string) Page {
	cl.t.Helper()
	rec := cl.get(path)
	require.Equal(cl.t, http.StatusOK, rec.Code, "GET %s: %s", path, rec.Body.String())
	return decodePage(cl.t, rec)
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) Page {
	t.Helper()
	var p Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p), rec.Body.String())
	return p
}

func (cl *client) register(nickname string) {
	cl.t.Helper()
	rec := cl.post("/register", url.Values{
		"nickname": {nickname},
		"email":    {nickname + "@example.com"},
		"password": {"pw-" + nickname},
	})
	require.Equal(cl.t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func (cl *client) login(nickname, password string) {
	cl.t.Helper()
	rec := cl.post("/login", url.Values{"nickname": {nickname}, "password": {password}})
	require.Equal(cl.t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func (h *harness) admin(t *testing.T) *client {
	t.Helper()
	_, err := h.accounts.SeedAdmin(context.Background(), "Admin", "admin@example.com", "root")
	require.NoError(t, err)
	cl := h.client(t)
	cl.login("Admin", "root")
	return cl
}

func messages(p Page) []string {
	raw, _ := p["flashes"].([]any)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(map[string]any); ok {
			out = append(out, m["message"].(string))
		}
	}
	return out
}
