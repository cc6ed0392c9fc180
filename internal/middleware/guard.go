package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/guard"
	"github.com/example/gymdesk/internal/session"
)

// RetryAfterSeconds is sent with 202 responses for sessions still loading.
const RetryAfterSeconds = "1"

// LoadingResponse is the placeholder body for a session that has not
// finished loading.
type LoadingResponse struct {
	Status string `json:"status"`
}

// Guard turns guard decisions into HTTP responses.
type Guard struct {
	wait   time.Duration
	logger *zap.Logger
}

// NewGuard returns a Guard that holds a loading request up to wait for the
// session to settle before answering 202. A zero wait answers immediately.
func NewGuard(wait time.Duration, logger *zap.Logger) *Guard {
	return &Guard{wait: wait, logger: logger}
}

// Require admits the request when p renders for the caller's session.
// Page routes are redirected with 303; routes under /api/ get 401 or 403
// with the redirect location in the body.
func (g *Guard) Require(p guard.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := CurrentSession(c)
		if err != nil {
			AbortSessionError(c, err)
			return
		}

		snap := session.Anonymous()
		if m != nil {
			snap = m.Snapshot()
			if snap.IsLoading() && g.wait > 0 {
				ctx, cancel := context.WithTimeout(c.Request.Context(), g.wait)
				snap, _ = m.Await(ctx, func(s session.Snapshot) bool { return !s.IsLoading() })
				cancel()
			}
		}

		d := p.Evaluate(snap)
		switch d.Outcome {
		case guard.Render:
			c.Set(ContextSnapshotKey, snap)
			c.Next()
		case guard.Wait:
			c.Header("Retry-After", RetryAfterSeconds)
			c.AbortWithStatusJSON(http.StatusAccepted, LoadingResponse{Status: "loading"})
		case guard.Redirect:
			g.redirect(c, d)
		}
	}
}

func (g *Guard) redirect(c *gin.Context, d guard.Decision) {
	g.logger.Debug("guard turned request away",
		zap.String("path", c.Request.URL.Path), zap.String("location", d.Location), zap.String("session", shortID(SessionID(c))))
	if !isAPIRequest(c) {
		c.Redirect(http.StatusSeeOther, d.Location)
		c.Abort()
		return
	}
	if d.Reason == guard.ReasonForbidden {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "You do not have access to this resource", Redirect: d.Location})
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Redirect: d.Location})
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}
