package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/models"
)

// AdminHandler serves staff operations on members and payments.
type AdminHandler struct {
	members  core.MemberService
	payments core.PaymentService
	audit    core.AuditService
	logger   *zap.Logger
}

func NewAdminHandler(members core.MemberService, payments core.PaymentService, audit core.AuditService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{members: members, payments: payments, audit: audit, logger: logger}
}

// ListMembers handles GET /api/v1/admin/members
func (h *AdminHandler) ListMembers(c *gin.Context) {
	respond(c, http.StatusOK, h.members.ListMembers(c.Request.Context()))
}

// CreateMember handles POST /api/v1/admin/members. The uid must belong to
// an existing account.
func (h *AdminHandler) CreateMember(c *gin.Context) {
	var req models.NewMember
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.members.CreateMember(c.Request.Context(), req))
}

// GetMember handles GET /api/v1/admin/members/:memberId
func (h *AdminHandler) GetMember(c *gin.Context) {
	respond(c, http.StatusOK, h.members.GetMember(c.Request.Context(), c.Param("memberId")))
}

// UpdateMember handles PATCH /api/v1/admin/members/:memberId
func (h *AdminHandler) UpdateMember(c *gin.Context) {
	var req models.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.members.UpdateMember(c.Request.Context(), c.Param("memberId"), req))
}

// GetMemberPayments handles GET /api/v1/admin/members/:memberId/payments
func (h *AdminHandler) GetMemberPayments(c *gin.Context) {
	respond(c, http.StatusOK, h.payments.GetPaymentsByMember(c.Request.Context(), c.Param("memberId")))
}

// CreatePayment handles POST /api/v1/admin/payments
func (h *AdminHandler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r := h.payments.CreatePayment(c.Request.Context(), req)
	if respond(c, http.StatusCreated, r) {
		recordAudit(c, h.audit, h.logger, models.AuditLog{
			UserID:     admittedUID(c),
			Action:     models.AuditActionPayment,
			TargetType: "PAYMENT",
			TargetID:   r.Data.ID,
			Details:    map[string]interface{}{"memberId": req.MemberID, "amount": req.Amount},
		})
	}
}
