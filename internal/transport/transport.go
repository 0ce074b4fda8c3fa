package transport

import (
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

func InitRoutes(calendarHandler *CalendarHandler, sessionHandler *SessionHandler, notificationHandler *NotificationHandler, healthHandler *HealthHandler, timeout time.Duration) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(timeout))
	router.Use(middleware.BearerToken())

	// API routes
	api := router.Group("/api/v1")
	{
		api.GET("/calendar", calendarHandler.GetMonth)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Mount)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.DELETE("/:id", sessionHandler.Unmount)
			sessions.GET("/:id/mutations", sessionHandler.GetMutations)
			sessions.GET("/:id/mutations/:ref", sessionHandler.GetMutation)

			// Calendar view
			sessions.GET("/:id/calendar", sessionHandler.GetCalendar)
			sessions.POST("/:id/calendar/next", sessionHandler.NextMonth)
			sessions.POST("/:id/calendar/prev", sessionHandler.PrevMonth)
			sessions.POST("/:id/calendar/goto", sessionHandler.GotoMonth)
			sessions.POST("/:id/calendar/retry", sessionHandler.RetryCalendar)

			// Notification indicator
			sessions.POST("/:id/pointer", notificationHandler.Pointer)
			sessions.GET("/:id/notifications", notificationHandler.GetIndicator)
			sessions.POST("/:id/notifications/poll", notificationHandler.Poll)
			sessions.POST("/:id/notifications/open", notificationHandler.Open)
			sessions.POST("/:id/notifications/close", notificationHandler.Close)
			sessions.POST("/:id/notifications/read-all", notificationHandler.MarkAllRead)
			sessions.POST("/:id/notifications/:nid/read", notificationHandler.MarkRead)
			sessions.POST("/:id/notifications/:nid/activate", notificationHandler.Activate)
		}
	}

	// Health check
	router.GET("/health", healthHandler.Health)

	return router
}
