package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sharath018/campus-events-backend/docs"
	"github.com/sharath018/campus-events-backend/internal/auditlog"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/internal/event"
	"github.com/sharath018/campus-events-backend/internal/favorite"
	"github.com/sharath018/campus-events-backend/internal/notification"
	"github.com/sharath018/campus-events-backend/internal/registration"
	"github.com/sharath018/campus-events-backend/internal/reports"
	"github.com/sharath018/campus-events-backend/internal/review"
	"github.com/sharath018/campus-events-backend/internal/rolerequest"
	"github.com/sharath018/campus-events-backend/internal/userprofile"
	"github.com/sharath018/campus-events-backend/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth          *auth.Handler
	Profile       *userprofile.Handler
	RoleRequests  *rolerequest.Handler
	Events        *event.Handler
	Registrations *registration.Handler
	Favorites     *favorite.Handler
	Reviews       *review.Handler
	Notifications *notification.Handler
	Reports       *reports.Handler
	Audit         *auditlog.Handler
}

// Setup mounts the API under /api/v1. authn must put the caller on the context.
func Setup(r *gin.Engine, h Handlers, authn gin.HandlerFunc) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	// 🔓 Public
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.POST("/refresh", h.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(authn)

	staff := middleware.RequireRoles(auth.RoleStudentRep, auth.RoleOrganizer)
	authors := middleware.RequireRoles(auth.RoleStudentRep, auth.RoleOrganizer, auth.RoleAdmin)
	admin := middleware.RequireRoles(auth.RoleAdmin)

	protected.GET("/auth/me", h.Auth.Me)

	// 👤 Profile
	profile := protected.Group("/profile")
	{
		profile.GET("", h.Profile.GetMyProfile)
		profile.PATCH("", h.Profile.UpdateMyProfile)
		profile.PATCH("/preferences", h.Profile.UpdateMyPreferences)
	}

	// 🪪 Role requests
	roleRequests := protected.Group("/role-requests")
	{
		roleRequests.POST("", h.RoleRequests.Create)
		roleRequests.GET("/me", h.RoleRequests.ListMine)
		roleRequests.DELETE("/me", h.RoleRequests.CancelPending)
	}

	// 📅 Events
	events := protected.Group("/events")
	{
		events.GET("", h.Events.ListEvents)
		events.POST("", authors, h.Events.CreateEvent)
		events.GET("/mine", authors, h.Events.ListMine)
		events.GET("/organization", staff, h.Events.ListOrganization)
		events.GET("/pending", admin, h.Events.ListPending)
		events.GET("/rejected", admin, h.Events.ListRejected)

		events.GET("/:id", h.Events.GetEvent)
		events.PUT("/:id", authors, h.Events.UpdateEvent)
		events.DELETE("/:id", authors, h.Events.DeleteEvent)
		events.POST("/:id/approve", admin, h.Events.ApproveEvent)
		events.POST("/:id/reject", admin, h.Events.RejectEvent)

		events.POST("/:id/register", h.Registrations.Register)
		events.GET("/:id/register", h.Registrations.GetMyRegistration)
		events.DELETE("/:id/register", h.Registrations.Unregister)
		events.POST("/:id/check-in/:ticketCode", staff, h.Registrations.CheckIn)

		events.POST("/:id/favorite", h.Favorites.Mark)
		events.GET("/:id/favorite", h.Favorites.Status)
		events.DELETE("/:id/favorite", h.Favorites.Unmark)

		events.POST("/:id/reviews", h.Reviews.AddReview)
		events.GET("/:id/reviews", h.Reviews.ListReviews)

		events.GET("/:id/participants", staff, h.Reports.GetParticipants)
		events.GET("/:id/participants/export", staff, h.Reports.ExportParticipants)
		events.GET("/:id/statistics", staff, h.Reports.GetStatistics)
	}

	protected.GET("/registrations", h.Registrations.GetMyRegistrations)
	protected.GET("/favorites", h.Favorites.List)
	protected.DELETE("/reviews/:reviewId", h.Reviews.DeleteReview)

	// 🔔 Notifications
	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.Notifications.GetMyNotifications)
		notifications.GET("/unread-count", h.Notifications.GetUnreadCount)
		notifications.PUT("/read-all", h.Notifications.MarkAllAsRead)
		notifications.PUT("/:id/read", h.Notifications.MarkAsRead)
		notifications.DELETE("/:id", h.Notifications.DeleteNotification)
		notifications.POST("/device-tokens", h.Notifications.RegisterDeviceToken)
		notifications.DELETE("/device-tokens", h.Notifications.RemoveDeviceToken)
	}

	// 🛡️ Admin
	adminRoutes := protected.Group("/admin", admin)
	{
		adminRoutes.GET("/role-requests", h.RoleRequests.List)
		adminRoutes.POST("/role-requests/:id/approve", h.RoleRequests.Approve)
		adminRoutes.POST("/role-requests/:id/reject", h.RoleRequests.Reject)

		adminRoutes.GET("/statistics", h.Reports.GetOverview)

		adminRoutes.GET("/auditlogs", h.Audit.GetAuditLogs)
		adminRoutes.GET("/auditlogs/stats", h.Audit.GetAuditLogStats)
		adminRoutes.GET("/auditlogs/:id", h.Audit.GetAuditLogByID)
	}
}
