package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/guard"
	"github.com/example/gymdesk/internal/middleware"
)

// Page paths besides guard.LoginPath and guard.LandingPath.
const (
	SignupPath    = "/signup"
	DashboardPath = "/dashboard"
	AdminPath     = "/admin"
)

// Services are the facade operations the routes call.
type Services struct {
	Members  core.MemberService
	Payments core.PaymentService
	Classes  core.ClassService
	Tours    core.TourService
	Audit    core.AuditService
}

// SetupRoutes registers every route on router. SessionMiddleware must
// already be installed on router; the guards read the session it binds.
func SetupRoutes(router *gin.Engine, svc Services, g *middleware.Guard, awaitTimeout time.Duration, logger *zap.Logger) {
	pages := NewPageHandler(svc.Members, svc.Classes, svc.Tours)
	auth := NewAuthHandler(svc.Audit, awaitTimeout, logger)
	members := NewMemberHandler(svc.Members, svc.Payments, svc.Classes, svc.Audit, logger)
	admin := NewAdminHandler(svc.Members, svc.Payments, svc.Audit, logger)
	classes := NewClassHandler(svc.Classes)
	tours := NewTourHandler(svc.Tours)

	memberOnly := g.Require(guard.MemberOnly())
	adminOnly := g.Require(guard.AdminOnly())
	signedIn := g.Require(guard.Authenticated())

	router.GET("/health", pages.Health)
	router.GET(guard.LandingPath, pages.Landing)
	router.GET(guard.LoginPath, pages.LoginPage)
	router.GET(SignupPath, pages.SignupPage)
	router.GET(DashboardPath, memberOnly, pages.MemberDashboard)
	router.GET(AdminPath, adminOnly, pages.AdminDashboard)

	apiV1 := router.Group("/api/v1")
	{
		sessionGroup := apiV1.Group("/session")
		{
			sessionGroup.GET("", auth.GetSession)
			sessionGroup.POST("/signup", auth.Signup)
			sessionGroup.POST("/login", auth.Login)
			sessionGroup.POST("/token", auth.LoginWithToken)
			sessionGroup.POST("/logout", auth.Logout)
		}

		me := apiV1.Group("/members/me", memberOnly)
		{
			me.GET("", members.GetMe)
			me.PATCH("", members.UpdateMe)
			me.GET("/payments", members.GetMyPayments)
			me.POST("/bookings", members.BookClass)
			me.DELETE("/bookings/:classId", members.CancelBooking)
		}

		apiV1.GET("/classes", signedIn, classes.ListClasses)
		apiV1.POST("/tour-requests", tours.CreateTourRequest)

		adminGroup := apiV1.Group("/admin", adminOnly)
		{
			adminGroup.GET("/members", admin.ListMembers)
			adminGroup.POST("/members", admin.CreateMember)
			adminGroup.GET("/members/:memberId", admin.GetMember)
			adminGroup.PATCH("/members/:memberId", admin.UpdateMember)
			adminGroup.GET("/members/:memberId/payments", admin.GetMemberPayments)
			adminGroup.POST("/payments", admin.CreatePayment)
			adminGroup.POST("/classes", classes.CreateClass)
			adminGroup.PUT("/classes/:classId/bookings", classes.ReplaceBookings)
			adminGroup.GET("/tour-requests", tours.ListTourRequests)
			adminGroup.PATCH("/tour-requests/:id", tours.UpdateStatus)
		}
	}
}
