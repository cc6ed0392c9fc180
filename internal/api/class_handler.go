package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/models"
)

// ClassHandler serves the class schedule.
type ClassHandler struct {
	classes core.ClassService
}

func NewClassHandler(classes core.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// ListClasses handles GET /api/v1/classes
func (h *ClassHandler) ListClasses(c *gin.Context) {
	respond(c, http.StatusOK, h.classes.GetAllClasses(c.Request.Context()))
}

// CreateClass handles POST /api/v1/admin/classes
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req models.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.classes.CreateClass(c.Request.Context(), req))
}

// ReplaceBookings handles PUT /api/v1/admin/classes/:classId/bookings
func (h *ClassHandler) ReplaceBookings(c *gin.Context) {
	var req BookingsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.classes.UpdateClassBookings(c.Request.Context(), c.Param("classId"), req.Bookings))
}
