package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/models"
)

// MemberHandler serves the signed-in member's own profile, payments and
// bookings.
type MemberHandler struct {
	members  core.MemberService
	payments core.PaymentService
	classes  core.ClassService
	audit    core.AuditService
	logger   *zap.Logger
}

func NewMemberHandler(members core.MemberService, payments core.PaymentService, classes core.ClassService, audit core.AuditService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{members: members, payments: payments, classes: classes, audit: audit, logger: logger}
}

// GetMe handles GET /api/v1/members/me
func (h *MemberHandler) GetMe(c *gin.Context) {
	uid, ok := currentUID(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.members.GetMember(c.Request.Context(), uid))
}

// UpdateMe handles PATCH /api/v1/members/me. Members cannot change their
// own membership status.
func (h *MemberHandler) UpdateMe(c *gin.Context) {
	uid, ok := currentUID(c)
	if !ok {
		return
	}
	var req models.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Status != nil {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Membership status can only be changed by staff"})
		return
	}
	respond(c, http.StatusOK, h.members.UpdateMember(c.Request.Context(), uid, req))
}

// GetMyPayments handles GET /api/v1/members/me/payments
func (h *MemberHandler) GetMyPayments(c *gin.Context) {
	uid, ok := currentUID(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.payments.GetPaymentsByMember(c.Request.Context(), uid))
}

// BookClass handles POST /api/v1/members/me/bookings
func (h *MemberHandler) BookClass(c *gin.Context) {
	uid, ok := currentUID(c)
	if !ok {
		return
	}
	var req models.BookClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if respond(c, http.StatusOK, h.classes.BookClass(c.Request.Context(), uid, req.ClassID)) {
		recordAudit(c, h.audit, h.logger, models.AuditLog{
			UserID: uid, Action: models.AuditActionBookClass, TargetType: "CLASS", TargetID: req.ClassID,
		})
	}
}

// CancelBooking handles DELETE /api/v1/members/me/bookings/:classId
func (h *MemberHandler) CancelBooking(c *gin.Context) {
	uid, ok := currentUID(c)
	if !ok {
		return
	}
	classID := c.Param("classId")
	if respond(c, http.StatusOK, h.classes.CancelBooking(c.Request.Context(), uid, classID)) {
		recordAudit(c, h.audit, h.logger, models.AuditLog{
			UserID: uid, Action: models.AuditActionCancelClass, TargetType: "CLASS", TargetID: classID,
		})
	}
}
