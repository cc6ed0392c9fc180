package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/guard"
	"github.com/example/gymdesk/internal/middleware"
	"github.com/example/gymdesk/internal/models"
)

// PageHandler serves the page routes. Bodies describe what the client
// should render; the guards in front of the dashboards decide whether it
// may.
type PageHandler struct {
	members core.MemberService
	classes core.ClassService
	tours   core.TourService
}

func NewPageHandler(members core.MemberService, classes core.ClassService, tours core.TourService) *PageHandler {
	return &PageHandler{members: members, classes: classes, tours: tours}
}

func (h *PageHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// Landing handles GET /. It is public and reports the session as is,
// loading or not.
func (h *PageHandler) Landing(c *gin.Context) {
	snap, err := middleware.CurrentSnapshot(c)
	if err != nil {
		middleware.AbortSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, PageResponse{
		Title:    "GymDesk",
		Sections: []string{"Classes", "Membership Plans", "Book a Tour"},
		Session:  newSessionResponse(snap),
		Data: gin.H{
			"login":       guard.LoginPath,
			"signup":      SignupPath,
			"tourRequest": "/api/v1/tour-requests",
		},
	})
}

var loginForm = FormDescriptor{
	Title:  "Sign In",
	Action: "/api/v1/session/login",
	Fields: []FormField{
		{Name: "email", Type: "email", Label: "Email", Required: true},
		{Name: "password", Type: "password", Label: "Password", Required: true},
	},
	Links: map[string]string{"signup": SignupPath},
}

var signupForm = FormDescriptor{
	Title:  "Sign Up",
	Action: "/api/v1/session/signup",
	Fields: []FormField{
		{Name: "email", Type: "email", Label: "Email", Required: true},
		{Name: "password", Type: "password", Label: "Password", Required: true},
		{Name: "confirmPassword", Type: "password", Label: "Confirm Password", Required: true},
		{Name: "name", Type: "text", Label: "Full Name"},
		{Name: "phone", Type: "tel", Label: "Phone"},
		{Name: "membershipPlan", Type: "select", Label: "Membership Plan"},
	},
	Links: map[string]string{"login": guard.LoginPath},
}

func (h *PageHandler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, loginForm)
}

func (h *PageHandler) SignupPage(c *gin.Context) {
	c.JSON(http.StatusOK, signupForm)
}

// MemberDashboard handles GET /dashboard. Sections whose data cannot be
// loaded are left out.
func (h *PageHandler) MemberDashboard(c *gin.Context) {
	snap, _ := middleware.SnapshotFrom(c)
	data := gin.H{}
	if snap.Identity != nil {
		if r := h.members.GetMember(c.Request.Context(), snap.Identity.UID); r.Success {
			data["profile"] = r.Data
		}
	}
	if r := h.classes.GetAllClasses(c.Request.Context()); r.Success {
		data["classes"] = r.Data
	}
	c.JSON(http.StatusOK, PageResponse{
		Title:    "Member Dashboard",
		Sections: []string{"My Workouts", "Schedule", "Profile"},
		Session:  newSessionResponse(snap),
		Data:     data,
	})
}

// AdminDashboard handles GET /admin.
func (h *PageHandler) AdminDashboard(c *gin.Context) {
	snap, _ := middleware.SnapshotFrom(c)
	counts := gin.H{}
	if r := h.members.ListMembers(c.Request.Context()); r.Success {
		counts["members"] = len(r.Data)
	}
	if r := h.classes.GetAllClasses(c.Request.Context()); r.Success {
		counts["classes"] = len(r.Data)
	}
	if r := h.tours.ListTourRequests(c.Request.Context()); r.Success {
		open := 0
		for _, t := range r.Data {
			if t.Status == models.TourRequestStatusNew {
				open++
			}
		}
		counts["openTourRequests"] = open
	}
	c.JSON(http.StatusOK, PageResponse{
		Title:    "Admin Dashboard",
		Sections: []string{"Manage Members", "Manage Classes", "Reports", "Settings"},
		Session:  newSessionResponse(snap),
		Data:     counts,
	})
}
