package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/models"
)

// TourHandler serves tour requests from prospective members.
type TourHandler struct {
	tours core.TourService
}

func NewTourHandler(tours core.TourService) *TourHandler {
	return &TourHandler{tours: tours}
}

// CreateTourRequest handles POST /api/v1/tour-requests. No session is
// required.
func (h *TourHandler) CreateTourRequest(c *gin.Context) {
	var req models.CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.tours.CreateTourRequest(c.Request.Context(), req))
}

// ListTourRequests handles GET /api/v1/admin/tour-requests
func (h *TourHandler) ListTourRequests(c *gin.Context) {
	respond(c, http.StatusOK, h.tours.ListTourRequests(c.Request.Context()))
}

// UpdateStatus handles PATCH /api/v1/admin/tour-requests/:id
func (h *TourHandler) UpdateStatus(c *gin.Context) {
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.tours.UpdateTourRequestStatus(c.Request.Context(), c.Param("id"), req.Status))
}
