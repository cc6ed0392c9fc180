package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/guard"
	"github.com/example/gymdesk/internal/middleware"
	"github.com/example/gymdesk/internal/models"
	"github.com/example/gymdesk/internal/session"
)

// AuthHandler serves the session endpoints: signup, login, token exchange,
// logout and the current snapshot.
type AuthHandler struct {
	audit        core.AuditService
	awaitTimeout time.Duration
	logger       *zap.Logger
}

// NewAuthHandler creates an AuthHandler. After a successful sign-in the
// handler waits up to awaitTimeout for the session to settle so it can
// answer with a role-specific redirect.
func NewAuthHandler(audit core.AuditService, awaitTimeout time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{audit: audit, awaitTimeout: awaitTimeout, logger: logger}
}

// GetSession handles GET /api/v1/session.
func (h *AuthHandler) GetSession(c *gin.Context) {
	snap, err := middleware.CurrentSnapshot(c)
	if err != nil {
		middleware.AbortSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(snap))
}

// Signup handles POST /api/v1/session/signup. New accounts always get the
// member role.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgFillAllFields})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgPasswordMismatch})
		return
	}
	if req.Phone != "" && core.ValidatePhone(req.Phone) != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgInvalidPhone})
		return
	}
	if req.MembershipPlan != "" && !req.MembershipPlan.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgInvalidPlan})
		return
	}

	sr := session.SignupRequest{Email: req.Email, Password: req.Password, Role: models.RoleMember}
	if name := strings.TrimSpace(req.Name); name != "" {
		sr.Profile = &models.NewMember{Name: name, Phone: req.Phone, MembershipPlan: req.MembershipPlan}
	}

	m, ok := startSession(c)
	if !ok {
		return
	}
	id, err := m.Signup(c.Request.Context(), sr)
	if err != nil {
		status, msg := signupFailure(err)
		if id != nil {
			h.logger.Error("signup left an incomplete account", zap.String("uid", id.UID), zap.Error(err))
			if rerr := middleware.RotateSession(c); rerr != nil {
				h.endUnrotated(c, m, id.UID, rerr)
			}
		} else {
			h.logger.Info("signup rejected", zap.Int("status", status), zap.Error(err))
			middleware.DiscardIssuedSession(c)
		}
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	if !h.rotate(c, m, id.UID) {
		return
	}
	snap := h.settle(c, m, session.SignedIn(id.UID))
	h.record(c, id.UID, models.AuditActionSignup)
	c.JSON(http.StatusCreated, AuthResponse{
		Message:  "Account created",
		Redirect: redirectFor(snap),
		Session:  newSessionResponse(snap),
	})
}

// Login handles POST /api/v1/session/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgFillAllFields})
		return
	}
	m, ok := startSession(c)
	if !ok {
		return
	}

	id, err := m.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := loginFailure(err)
		h.logger.Info("login rejected", zap.Int("status", status), zap.Error(err))
		middleware.DiscardIssuedSession(c)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}
	h.signedIn(c, m, id.UID)
}

// LoginWithToken handles POST /api/v1/session/token.
func (h *AuthHandler) LoginWithToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, ok := startSession(c)
	if !ok {
		return
	}
	id, err := m.LoginWithIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		status, msg := loginFailure(err)
		middleware.DiscardIssuedSession(c)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}
	h.signedIn(c, m, id.UID)
}

func (h *AuthHandler) signedIn(c *gin.Context, m *session.Manager, uid string) {
	if !h.rotate(c, m, uid) {
		return
	}
	snap := h.settle(c, m, session.SignedIn(uid))
	h.record(c, uid, models.AuditActionLogin)
	c.JSON(http.StatusOK, AuthResponse{
		Message:  "Logged in",
		Redirect: redirectFor(snap),
		Session:  newSessionResponse(snap),
	})
}

// Logout handles POST /api/v1/session/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	m, err := middleware.CurrentSession(c)
	if err != nil {
		middleware.AbortSessionError(c, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusOK, AuthResponse{Message: "Logged out", Redirect: guard.LoginPath, Session: newSessionResponse(session.Anonymous())})
		return
	}
	var uid string
	if id := m.CurrentIdentity(); id != nil {
		uid = id.UID
	}
	if err := m.Logout(c.Request.Context()); err != nil {
		h.logger.Warn("logout failed", zap.String("uid", uid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MsgLogoutFailed})
		return
	}

	snap := h.settle(c, m, session.SignedOut)
	if uid != "" {
		h.record(c, uid, models.AuditActionLogout)
	}
	c.JSON(http.StatusOK, AuthResponse{
		Message:  "Logged out",
		Redirect: guard.LoginPath,
		Session:  newSessionResponse(snap),
	})
}

// rotate moves a fresh sign-in onto a new session id and reports whether
// the handler may go on answering.
func (h *AuthHandler) rotate(c *gin.Context, m *session.Manager, uid string) bool {
	err := middleware.RotateSession(c)
	if err == nil {
		return true
	}
	h.endUnrotated(c, m, uid, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MsgLoginFailed})
	return false
}

// endUnrotated signs out a session whose id could not be rotated, so the
// sign-in never lives on an id that predates it.
func (h *AuthHandler) endUnrotated(c *gin.Context, m *session.Manager, uid string, err error) {
	h.logger.Error("session id not rotated after sign-in", zap.String("uid", uid), zap.Error(err))
	if lerr := m.Logout(context.WithoutCancel(c.Request.Context())); lerr != nil {
		h.logger.Error("could not end unrotated session", zap.String("uid", uid), zap.Error(lerr))
	}
}

// settle waits for the notification that applies a sign-in or sign-out.
func (h *AuthHandler) settle(c *gin.Context, m *session.Manager, cond func(session.Snapshot) bool) session.Snapshot {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.awaitTimeout)
	defer cancel()
	snap, err := m.Await(ctx, cond)
	if err != nil {
		h.logger.Warn("session did not settle", zap.Duration("timeout", h.awaitTimeout), zap.Error(err))
	}
	return snap
}

func (h *AuthHandler) record(c *gin.Context, uid, action string) {
	recordAudit(c, h.audit, h.logger, models.AuditLog{UserID: uid, Action: action})
}

// redirectFor picks the landing page for a settled session: admins go to
// the admin dashboard, members to theirs and everyone else to the landing
// page. A loading session gets no redirect.
func redirectFor(s session.Snapshot) string {
	if s.IsLoading() {
		return ""
	}
	switch s.Role {
	case models.RoleAdmin:
		return AdminPath
	case models.RoleMember:
		return DashboardPath
	}
	return guard.LandingPath
}

// startSession returns the manager a sign-in runs on, issuing a session
// cookie to a client that has none. Failed sign-ins hand an issued session
// back with middleware.DiscardIssuedSession.
func startSession(c *gin.Context) (*session.Manager, bool) {
	m, err := middleware.StartSession(c)
	if err != nil {
		middleware.DiscardIssuedSession(c)
		middleware.AbortSessionError(c, err)
		return nil, false
	}
	return m, true
}

// currentUID returns the uid a guard admitted the request with, or answers
// 401.
func currentUID(c *gin.Context) (string, bool) {
	uid := admittedUID(c)
	if uid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return "", false
	}
	return uid, true
}

func admittedUID(c *gin.Context) string {
	snap, ok := middleware.SnapshotFrom(c)
	if !ok || snap.Identity == nil {
		return ""
	}
	return snap.Identity.UID
}

// recordAudit writes an audit entry. Failures are logged and never fail
// the request.
func recordAudit(c *gin.Context, audit core.AuditService, logger *zap.Logger, entry models.AuditLog) {
	if audit == nil {
		return
	}
	entry.IPAddress = c.ClientIP()
	entry.UserAgent = c.Request.UserAgent()
	if err := audit.CreateAuditLog(c.Request.Context(), entry); err != nil {
		logger.Warn("audit log not written", zap.String("action", entry.Action), zap.Error(err))
	}
}
