package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/sehaty-api/internal/middleware"
	"github.com/harentsoaR/sehaty-api/internal/models"
)

type RouterConfig struct {
	CORSOrigins []string
	// LoginLimiter counts login attempts; nil disables limiting.
	LoginLimiter middleware.Counter
	LoginLimit   middleware.RateLimitConfig
	// Ping reports storage health for /health; nil means always healthy.
	Ping func(ctx context.Context) error
	Log  zerolog.Logger
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(cfg.Log))
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		if cfg.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", middleware.RateLimiter(cfg.LoginLimiter, cfg.LoginLimit, cfg.Log), h.Login)
	}
	api.GET("/providers", h.GetProviders)
	api.GET("/queue/simulate", h.SimulateQueue)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(h.Auth))
	{
		protected.GET("/auth/me", h.GetCurrentUser)
		protected.PUT("/auth/profile", h.UpdateCurrentUser)

		protected.GET("/user/dashboard", h.GetDashboard)

		protected.GET("/user/appointments", h.GetAppointments)
		protected.POST("/user/appointments", middleware.RequireRole(models.RolePatient), h.CreateAppointment)
		protected.GET("/doctor/appointments", middleware.RequireRole(models.RoleDoctor), h.GetDoctorAppointments)
		protected.POST("/appointments/cancel/:id", h.CancelAppointment)

		protected.GET("/user/prescriptions", h.GetPrescriptions)
		protected.POST("/user/prescriptions", h.CreatePrescription)
		protected.POST("/user/prescriptions/embedded", middleware.RequireRole(models.RolePatient, models.RoleDoctor), h.AddEmbeddedPrescription)
		protected.PATCH("/user/prescriptions/:id", h.UpdatePrescriptionStatus)

		protected.GET("/user/health-records", h.GetHealthRecords)
		protected.POST("/user/health-records", middleware.RequireRole(models.RolePatient, models.RoleDoctor), h.AddHealthRecord)

		protected.GET("/user/notifications", h.GetNotifications)
		protected.PATCH("/user/notifications/read-all", h.MarkAllNotificationsRead)
		protected.PATCH("/user/notifications/:id/read", h.MarkNotificationRead)
	}

	return r
}
