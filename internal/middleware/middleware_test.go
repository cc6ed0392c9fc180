package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/db/dbtest"
	"github.com/example/gymdesk/internal/guard"
	"github.com/example/gymdesk/internal/identity"
	"github.com/example/gymdesk/internal/identity/identitytest"
	"github.com/example/gymdesk/internal/models"
	"github.com/example/gymdesk/internal/session"
)

const cookieName = "sid"

type harness struct {
	svc      *identitytest.Service
	store    *dbtest.Store
	registry *session.Registry
	router   *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	h := &harness{svc: identitytest.NewService(), store: dbtest.New()}
	h.registry = session.NewRegistry(h.svc, db.NewRoleStore(h.store.UserRepo()), nil, logger, session.Options{}, 0)
	t.Cleanup(h.registry.Close)

	g := NewGuard(0, logger)
	r := gin.New()
	r.Use(RecoveryMiddleware(logger), SessionMiddleware(h.registry, CookieConfig{Name: cookieName, MaxAge: time.Hour}, logger))
	ok := func(c *gin.Context) {
		snap, _ := SnapshotFrom(c)
		c.JSON(http.StatusOK, gin.H{"role": snap.Role})
	}
	r.GET("/dashboard", g.Require(guard.MemberOnly()), ok)
	r.GET("/admin", g.Require(guard.AdminOnly()), ok)
	r.GET("/api/v1/admin/members", g.Require(guard.AdminOnly()), ok)
	r.GET("/api/v1/classes", g.Require(guard.Authenticated()), ok)
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/signin", func(c *gin.Context) {
		m, err := StartSession(c)
		if err != nil {
			AbortSessionError(c, err)
			return
		}
		if _, err := m.Login(c.Request.Context(), c.Query("email"), "secret1"); err != nil {
			DiscardIssuedSession(c)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if err := RotateSession(c); err != nil {
			AbortSessionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	h.router = r
	return h
}

// signedIn creates an account with role and a session id already signed in.
func (h *harness) signedIn(email string, role models.Role) string {
	uid := h.svc.AddAccount(email, "secret1")
	h.store.Users[uid] = models.UserProfile{Email: email, Role: string(role)}
	sid := uuid.NewString()
	h.svc.Persist(sid, uid)
	return sid
}

func (h *harness) do(method, path, sid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sid})
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func sessionCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			out = append(out, c)
		}
	}
	return out
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := sessionCookies(w)
	if len(cookies) == 0 {
		t.Fatalf("no %s cookie in response", cookieName)
	}
	return cookies[len(cookies)-1]
}

func TestCookielessRequestsStartNoSession(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 100; i++ {
		if w := h.do(http.MethodGet, "/health", ""); w.Code != http.StatusOK || len(sessionCookies(w)) != 0 {
			t.Fatalf("health: unexpected %d with cookies %v", w.Code, sessionCookies(w))
		}
		if w := h.do(http.MethodGet, "/dashboard", ""); w.Code != http.StatusSeeOther || len(sessionCookies(w)) != 0 {
			t.Fatalf("dashboard: unexpected %d with cookies %v", w.Code, sessionCookies(w))
		}
	}
	if h.registry.Len() != 0 {
		t.Fatalf("expected no sessions for anonymous traffic, got %d", h.registry.Len())
	}
}

func TestSessionCookieRefreshedAndReused(t *testing.T) {
	h := newHarness(t)
	sid := h.signedIn("member@example.com", models.RoleMember)

	w := h.do(http.MethodGet, "/dashboard", sid)
	c := sessionCookie(t, w)
	if c.Value != sid || !c.HttpOnly {
		t.Fatalf("expected cookie %s to be refreshed, got %+v", sid, c)
	}
	h.do(http.MethodGet, "/dashboard", sid)
	if h.registry.Len() != 1 {
		t.Fatalf("expected one session, got %d", h.registry.Len())
	}
}

func TestMalformedCookieIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.svc.AddAccount("member@example.com", "secret1")

	w := h.do(http.MethodGet, "/dashboard", "../../etc")
	if w.Header().Get("Location") != guard.LoginPath || len(sessionCookies(w)) != 0 {
		t.Fatalf("expected an anonymous redirect, got %d %v", w.Code, sessionCookies(w))
	}
	w = h.do(http.MethodPost, "/signin?email=member@example.com", "../../etc")
	if got := sessionCookie(t, w).Value; uuid.Validate(got) != nil {
		t.Fatalf("expected a fresh session id, got %q", got)
	}
}

func TestSignInRotatesSessionID(t *testing.T) {
	h := newHarness(t)
	uid := h.svc.AddAccount("member@example.com", "secret1")
	h.store.Users[uid] = models.UserProfile{Email: "member@example.com", Role: string(models.RoleMember)}
	planted := "11111111-2222-4333-8444-555555555555"

	w := h.do(http.MethodPost, "/signin?email=member@example.com", planted)
	if w.Code != http.StatusNoContent {
		t.Fatalf("sign in: %d", w.Code)
	}
	rotated := sessionCookie(t, w).Value
	if rotated == planted || uuid.Validate(rotated) != nil {
		t.Fatalf("expected a new session id after sign-in, got %q", rotated)
	}

	if w := h.do(http.MethodGet, "/api/v1/classes", planted); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected the pre-sign-in id to be anonymous, got %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/api/v1/classes", rotated); w.Code != http.StatusOK {
		t.Fatalf("expected the rotated id to be signed in, got %d", w.Code)
	}
}

func TestSignInOnNewSessionIssuesOneCookie(t *testing.T) {
	h := newHarness(t)
	h.svc.AddAccount("member@example.com", "secret1")

	w := h.do(http.MethodPost, "/signin?email=member@example.com", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("sign in: %d", w.Code)
	}
	if n := len(sessionCookies(w)); n != 1 {
		t.Fatalf("expected a single session cookie, got %d", n)
	}
	if w := h.do(http.MethodGet, "/api/v1/classes", sessionCookie(t, w).Value); w.Code != http.StatusOK {
		t.Fatalf("expected the issued id to be signed in, got %d", w.Code)
	}
}

func TestSignInFailsWhenRotationFails(t *testing.T) {
	h := newHarness(t)
	h.svc.AddAccount("member@example.com", "secret1")
	h.svc.RekeyErr = errors.New("redis down")

	w := h.do(http.MethodPost, "/signin?email=member@example.com", uuid.NewString())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the session id cannot be rotated, got %d", w.Code)
	}
}

func TestAnonymousPageRedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/dashboard", "")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != guard.LoginPath {
		t.Fatalf("expected 303 to %s, got %d %q", guard.LoginPath, w.Code, w.Header().Get("Location"))
	}
}

func TestAnonymousAPIGets401(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/api/v1/classes", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Redirect != guard.LoginPath {
		t.Fatalf("expected redirect %s, got %+v", guard.LoginPath, body)
	}
}

func TestMemberOnAdminRoutes(t *testing.T) {
	h := newHarness(t)
	sid := h.signedIn("member@example.com", models.RoleMember)

	if w := h.do(http.MethodGet, "/admin", sid); w.Code != http.StatusSeeOther || w.Header().Get("Location") != guard.LandingPath {
		t.Fatalf("expected 303 to landing, got %d %q", w.Code, w.Header().Get("Location"))
	}
	w := h.do(http.MethodGet, "/api/v1/admin/members", sid)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/dashboard", sid); w.Code != http.StatusOK {
		t.Fatalf("expected member dashboard to render, got %d", w.Code)
	}
}

func TestAdminAdmitted(t *testing.T) {
	h := newHarness(t)
	sid := h.signedIn("admin@example.com", models.RoleAdmin)

	w := h.do(http.MethodGet, "/admin", sid)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Role != "admin" {
		t.Fatalf("expected the admitted snapshot to carry the admin role, got %s", w.Body.String())
	}
	if w := h.do(http.MethodGet, "/dashboard", sid); w.Code != http.StatusSeeOther {
		t.Fatalf("expected admin to be turned away from the member dashboard, got %d", w.Code)
	}
}

func TestSignedInWithoutRoleRecord(t *testing.T) {
	h := newHarness(t)
	uid := h.svc.AddAccount("orphan@example.com", "secret1")
	sid := uuid.NewString()
	h.svc.Persist(sid, uid)

	if w := h.do(http.MethodGet, "/api/v1/classes", sid); w.Code != http.StatusOK {
		t.Fatalf("expected authenticated route to render, got %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/dashboard", sid); w.Header().Get("Location") != guard.LandingPath {
		t.Fatalf("expected redirect to landing, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newHarness(t)
	if w := h.do(http.MethodGet, "/panic", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestClosedRegistryAnswers503(t *testing.T) {
	h := newHarness(t)
	h.registry.Close()
	if w := h.do(http.MethodGet, "/dashboard", uuid.NewString()); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

// silentProvider never reports an auth state, so its session stays loading.
type silentProvider struct{}

func (silentProvider) Subscribe(identity.Listener) func() { return func() {} }
func (silentProvider) CreateAccount(context.Context, string, string) (*identity.Identity, error) {
	return nil, identity.ErrUnknown
}
func (silentProvider) VerifyCredentials(context.Context, string, string) (*identity.Identity, error) {
	return nil, identity.ErrUnknown
}
func (silentProvider) SignInWithToken(context.Context, string) (*identity.Identity, error) {
	return nil, identity.ErrUnknown
}
func (silentProvider) EndSession(context.Context) error    { return nil }
func (silentProvider) Rekey(context.Context, string) error { return nil }
func (silentProvider) Close()                              {}

type staticSource struct{ m *session.Manager }

func (s staticSource) Get(string) (*session.Manager, error)        { return s.m, nil }
func (s staticSource) Rekey(context.Context, string, string) error { return nil }
func (s staticSource) Remove(string)                               {}

func TestLoadingSessionGets202(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	m := session.NewManager(silentProvider{}, db.NewRoleStore(dbtest.New().UserRepo()), nil, logger, session.Options{})
	if err := m.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(m.Close)

	for _, wait := range []time.Duration{0, 20 * time.Millisecond} {
		r := gin.New()
		r.Use(SessionMiddleware(staticSource{m}, CookieConfig{Name: cookieName}, logger))
		r.GET("/admin", NewGuard(wait, logger).Require(guard.AdminOnly()), func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: cookieName, Value: uuid.NewString()})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusAccepted {
			t.Fatalf("wait %v: expected 202 while loading, got %d", wait, w.Code)
		}
		if w.Header().Get("Retry-After") != RetryAfterSeconds || w.Header().Get("Location") != "" {
			t.Fatalf("wait %v: unexpected headers %v", wait, w.Header())
		}
	}
}

func TestCORSMiddlewareAllowsClientOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware("http://localhost:3000, https://gym.example.com/"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://gym.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://gym.example.com" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials to be allowed")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected foreign origin to be rejected, got %d", w.Code)
	}
}

type rotatingSource struct{}

func (rotatingSource) Get(string) (*session.Manager, error)        { return nil, session.ErrRotating }
func (rotatingSource) Rekey(context.Context, string, string) error { return session.ErrRotating }
func (rotatingSource) Remove(string)                               {}

func TestRotatingSessionIDIsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	r := gin.New()
	r.Use(SessionMiddleware(rotatingSource{}, CookieConfig{Name: cookieName}, logger))
	r.GET("/api/v1/classes", NewGuard(0, logger).Require(guard.Authenticated()), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/signin", func(c *gin.Context) {
		if _, err := StartSession(c); err != nil {
			AbortSessionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	for path, want := range map[string]int{"/api/v1/classes": http.StatusUnauthorized, "/signin": http.StatusConflict} {
		method := http.MethodGet
		if path == "/signin" {
			method = http.MethodPost
		}
		req := httptest.NewRequest(method, path, nil)
		req.AddCookie(&http.Cookie{Name: cookieName, Value: uuid.NewString()})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("%s %s: expected %d, got %d", method, path, want, w.Code)
		}
	}
}

func TestFailedSignInDiscardsIssuedSession(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 10; i++ {
		w := h.do(http.MethodPost, "/signin?email=nobody@example.com", "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if c := sessionCookie(t, w); c.MaxAge >= 0 {
			t.Fatalf("expected the issued cookie to be expired, got %+v", c)
		}
	}
	if n := h.registry.Len(); n != 0 {
		t.Fatalf("expected no sessions after failed sign-ins, got %d", n)
	}

	sid := uuid.NewString()
	h.do(http.MethodPost, "/signin?email=nobody@example.com", sid)
	if n := h.registry.Len(); n != 1 {
		t.Fatalf("expected a failed sign-in to keep the client's own session, got %d", n)
	}
}
