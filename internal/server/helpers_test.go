package server_test

import (
	"bytes"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"homeshop/internal/config"
	"homeshop/internal/http/handlers"
	applog "homeshop/internal/log"
	"homeshop/internal/mail"
	"homeshop/internal/repos"
	"homeshop/internal/server"
)

type outbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (o *outbox) Dispatch(m mail.Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, m)
	return true
}

func (o *outbox) sent() []mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mail.Message(nil), o.msgs...)
}

// safeBuffer lets tests read the log while handlers write to it.
type safeBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type testApp struct {
	app    *fiber.App
	store  *repos.Store
	logs   *safeBuffer
	outbox *outbox
}

func newTestApp(t *testing.T, limits server.Limits) *testApp {
	t.Helper()
	return newTestAppWith(t, server.Options{Limits: limits})
}

func newTestAppWith(t *testing.T, opts server.Options) *testApp {
	t.Helper()
	cfg := config.Config{
		DBDSN:        ":memory:",
		MediaDir:     "../../web/media",
		StaticDir:    "../../web/static",
		TemplatesDir: "../../web/templates",
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logs := &safeBuffer{}
	lg, err := applog.New(logs, "info")
	require.NoError(t, err)

	store := repos.NewStore(db)
	ob := &outbox{}
	deps := handlers.NewDeps(store, cfg, ob, lg)
	deps.Auth.Cost = bcrypt.MinCost

	if opts.Limits == (server.Limits{}) {
		opts.Limits = server.Limits{Global: 10000, Search: 10000, Login: 10000}
	}
	app := server.NewApp(cfg, deps, opts)
	return &testApp{app: app, store: store, logs: logs, outbox: ob}
}

// client carries cookies between requests like a browser would.
type client struct {
	t       *testing.T
	ta      *testApp
	cookies map[string]string
}

func (ta *testApp) client(t *testing.T) *client {
	return &client{t: t, ta: ta, cookies: map[string]string{}}
}

func (cl *client) do(req *http.Request) *http.Response {
	cl.t.Helper()
	for k, v := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := cl.ta.app.Test(req, -1)
	require.NoError(cl.t, err)
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) || c.MaxAge < 0 {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c.Value
	}
	return resp
}

func (cl *client) get(path string) *http.Response {
	cl.t.Helper()
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits a form, adding this client's csrf field unless one is given.
// The caller's form is left untouched so it can be resent by another client.
func (cl *client) post(path string, form url.Values) *http.Response {
	cl.t.Helper()
	form = maps.Clone(form)
	if form == nil {
		form = url.Values{}
	}
	if _, ok := form["csrf"]; !ok {
		form.Set("csrf", cl.csrf())
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

func (cl *client) csrf() string {
	cl.t.Helper()
	if tok := cl.cookies["csrf_"]; tok != "" {
		return tok
	}
	cl.get("/login/")
	tok := cl.cookies["csrf_"]
	require.NotEmpty(cl.t, tok, "csrf token missing")
	return tok
}

func (cl *client) login(username string) {
	cl.t.Helper()
	resp := cl.post("/login/", url.Values{"username": {username}, "password": {"Passw0rd!"}})
	require.Equal(cl.t, http.StatusFound, resp.StatusCode)
	require.NotEmpty(cl.t, cl.cookies["sid"])
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
