package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/session"
)

// Context keys set by the session helpers and Guard.Require.
const (
	ContextSessionKey   = "session"
	ContextSessionIDKey = "sessionID"
	ContextSnapshotKey  = "sessionSnapshot"
)

// ErrorResponse is the JSON error body written by middleware. Redirect is
// set when a guard turned the request away.
type ErrorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// SessionSource hands out the session manager for a client id.
// *session.Registry satisfies it.
type SessionSource interface {
	Get(sessionID string) (*session.Manager, error)
	Rekey(ctx context.Context, oldID, newID string) error
	Remove(sessionID string)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type sessionBinding struct {
	sessions SessionSource
	cookie   CookieConfig
	maxAge   int
	logger   *zap.Logger
}

func (b *sessionBinding) setCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(b.cookie.Name, id, b.maxAge, "/", "", b.cookie.Secure, true)
	c.Set(ContextSessionIDKey, id)
}

const (
	contextBindingKey = "sessionBinding"
	contextIssuedKey  = "sessionIssued"
)

var errNoSessionMiddleware = errors.New("session middleware not installed")

// SessionMiddleware reads the session cookie. No manager is started here:
// handlers that need one call CurrentSession or StartSession, so anonymous
// traffic costs nothing. A malformed cookie is ignored.
func SessionMiddleware(sessions SessionSource, cookie CookieConfig, logger *zap.Logger) gin.HandlerFunc {
	if sessions == nil || logger == nil {
		panic("SessionMiddleware requires a session source and a logger")
	}
	b := &sessionBinding{sessions: sessions, cookie: cookie, maxAge: int(cookie.MaxAge / time.Second), logger: logger}

	return func(c *gin.Context) {
		c.Set(contextBindingKey, b)
		if id, err := c.Cookie(cookie.Name); err == nil && uuid.Validate(id) == nil {
			// Refresh on every request so the cookie expiry slides.
			b.setCookie(c, id)
		}
		c.Next()
	}
}

func bindingFrom(c *gin.Context) (*sessionBinding, error) {
	v, ok := c.Get(contextBindingKey)
	if !ok {
		return nil, errNoSessionMiddleware
	}
	b, ok := v.(*sessionBinding)
	if !ok {
		return nil, errNoSessionMiddleware
	}
	return b, nil
}

// CurrentSession returns the manager for the request's session cookie,
// starting it on first use. A request without a session cookie is anonymous
// and gets a nil manager and a nil error.
func CurrentSession(c *gin.Context) (*session.Manager, error) {
	if v, ok := c.Get(ContextSessionKey); ok {
		if m, ok := v.(*session.Manager); ok && m != nil {
			return m, nil
		}
	}
	id := SessionID(c)
	if id == "" {
		return nil, nil
	}
	b, err := bindingFrom(c)
	if err != nil {
		return nil, err
	}
	m, err := b.sessions.Get(id)
	if errors.Is(err, session.ErrRotating) {
		// The id is being retired by a sign-in; until then it is anonymous.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Set(ContextSessionKey, m)
	return m, nil
}

// StartSession is CurrentSession for handlers that are about to sign in: a
// client without a session cookie is issued one.
func StartSession(c *gin.Context) (*session.Manager, error) {
	if SessionID(c) == "" {
		b, err := bindingFrom(c)
		if err != nil {
			return nil, err
		}
		b.setCookie(c, uuid.NewString())
		c.Set(contextIssuedKey, true)
	}
	m, err := CurrentSession(c)
	if err == nil && m == nil {
		return nil, session.ErrRotating
	}
	return m, err
}

// DiscardIssuedSession drops a session StartSession issued in this response
// and expires its cookie. Call it when the sign-in fails: a client that
// never signed in keeps no session. A session the client already had is
// left alone.
func DiscardIssuedSession(c *gin.Context) {
	if !c.GetBool(contextIssuedKey) {
		return
	}
	b, err := bindingFrom(c)
	if err != nil {
		return
	}
	if id := SessionID(c); id != "" {
		b.sessions.Remove(id)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(b.cookie.Name, "", -1, "/", "", b.cookie.Secure, true)
	c.Set(ContextSessionIDKey, "")
	c.Set(ContextSessionKey, (*session.Manager)(nil))
	c.Set(contextIssuedKey, false)
}

// CurrentSnapshot returns the state of the request's session, or the
// anonymous state when the client has none.
func CurrentSnapshot(c *gin.Context) (session.Snapshot, error) {
	m, err := CurrentSession(c)
	if err != nil {
		return session.Snapshot{}, err
	}
	if m == nil {
		return session.Anonymous(), nil
	}
	return m.Snapshot(), nil
}

// RotateSession moves the request's session to a new id and reissues the
// cookie. Call it after every sign-in: an id that existed before the
// sign-in must not carry the signed-in session.
func RotateSession(c *gin.Context) error {
	if c.GetBool(contextIssuedKey) {
		// Issued in this response; no one else has seen it.
		return nil
	}
	b, err := bindingFrom(c)
	if err != nil {
		return err
	}
	oldID := SessionID(c)
	if oldID == "" {
		return session.ErrUnknownSession
	}
	newID := uuid.NewString()
	if err := b.sessions.Rekey(c.Request.Context(), oldID, newID); err != nil {
		return err
	}
	b.setCookie(c, newID)
	return nil
}

// AbortSessionError answers a failure to start the request's session.
func AbortSessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrClosed) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Server is shutting down"})
		return
	}
	if errors.Is(err, session.ErrRotating) {
		c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{Error: "A sign-in is already in progress. Please try again."})
		return
	}
	if b, berr := bindingFrom(c); berr == nil {
		b.logger.Error("session unavailable", zap.String("session", shortID(SessionID(c))), zap.Error(err))
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Session could not be started"})
}

// SessionID returns the client session id, or "" for a client without one.
func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}

// SnapshotFrom returns the snapshot a guard admitted the request with.
func SnapshotFrom(c *gin.Context) (session.Snapshot, bool) {
	v, ok := c.Get(ContextSnapshotKey)
	if !ok {
		return session.Snapshot{}, false
	}
	s, ok := v.(session.Snapshot)
	return s, ok
}
