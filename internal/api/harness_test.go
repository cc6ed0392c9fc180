package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/crypto"
	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/db/dbtest"
	"github.com/example/gymdesk/internal/identity/identitytest"
	"github.com/example/gymdesk/internal/middleware"
	"github.com/example/gymdesk/internal/models"
	"github.com/example/gymdesk/internal/session"
)

const testCookie = "gymdesk_session"

type testApp struct {
	t        *testing.T
	auth     *identitytest.Service
	store    *dbtest.Store
	registry *session.Registry
	router   *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	cipher, err := crypto.NewCipherFromKey(bytes.Repeat([]byte{7}, crypto.KeySize))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	store := dbtest.New()
	gym := core.NewGymService(core.Deps{
		Members:      store.MemberRepo(),
		Payments:     store.PaymentRepo(),
		Classes:      store.ClassRepo(),
		TourRequests: store.TourRequestRepo(),
		Cipher:       cipher,
		Logger:       logger,
	})

	app := &testApp{t: t, auth: identitytest.NewService(), store: store}
	app.registry = session.NewRegistry(app.auth, db.NewRoleStore(store.UserRepo()), gym, logger, session.Options{}, 0)
	t.Cleanup(app.registry.Close)

	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.SessionMiddleware(app.registry, middleware.CookieConfig{Name: testCookie, MaxAge: time.Hour}, logger))
	SetupRoutes(r, Services{
		Members:  gym,
		Payments: gym,
		Classes:  gym,
		Tours:    gym,
		Audit:    core.NewAuditService(store.AuditRepo(), logger),
	}, middleware.NewGuard(0, logger), time.Second, logger)
	app.router = r
	return app
}

// account registers credentials and, when role is set, a role record.
func (a *testApp) account(email string, role models.Role) string {
	uid := a.auth.AddAccount(email, "secret1")
	if role != models.RoleNone {
		a.store.Users[uid] = models.UserProfile{Email: email, Role: string(role)}
	}
	return uid
}

// client is a browser: it keeps the session cookie between requests.
type client struct {
	app    *testApp
	cookie *http.Cookie
}

func (a *testApp) client() *client { return &client{app: a} }

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.app.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.app.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.app.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == testCookie {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) login(email string) {
	c.app.t.Helper()
	w := c.do(http.MethodPost, "/api/v1/session/login", LoginRequest{Email: email, Password: "secret1"})
	if w.Code != http.StatusOK {
		c.app.t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// envelope decodes a successful facade Result.
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Error
}
