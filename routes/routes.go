package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"salonpro-scheduler/config"
	"salonpro-scheduler/controllers"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/services"
	"salonpro-scheduler/utils"
)

// Deps is everything the router hands to controllers.
type Deps struct {
	Config        *config.Config
	Logger        zerolog.Logger
	Scheduling    *services.SchedulingService
	Catalog       repository.CatalogRepository
	Directory     repository.DirectoryRepository
	Notifications repository.NotificationRepository
	// RateLimiter guards booking mutations when set.
	RateLimiter *utils.RedisRateLimiter
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "X-RateLimit-Limit"},
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(corsConfig(d.Config.CORSOrigins)))

	r.Use(config.PerformanceLogger(d.Logger, time.Duration(d.Config.SlowRequestMS)*time.Millisecond))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	appointments := controllers.NewAppointmentController(d.Scheduling, d.Logger)
	availability := controllers.NewAvailabilityController(d.Scheduling, d.Logger)
	waitlist := controllers.NewWaitlistController(d.Scheduling, d.Logger)
	catalog := controllers.NewServiceController(d.Catalog, d.Logger)
	templates := controllers.NewTemplateController(d.Notifications, d.Logger)
	bundles := controllers.NewAppointmentTemplateController(d.Scheduling, d.Logger)
	branch := controllers.NewBranchController(d.Directory, d.Logger)

	limit := func(c *gin.Context) { c.Next() }
	if d.RateLimiter != nil {
		limit = d.RateLimiter.Middleware(d.Logger)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(d.Config.JWTSecret))
	{
		// Appointment routes
		appts := api.Group("/appointments")
		{
			appts.POST("", limit, appointments.CreateAppointment)
			appts.POST("/recurring", limit, appointments.CreateRecurringAppointments)
			appts.GET("/:id", appointments.GetAppointment)
			appts.PUT("/:id", limit, appointments.UpdateAppointment)
			appts.DELETE("/:id", limit, appointments.DeleteAppointment)
			appts.PATCH("/:id/status", limit, appointments.UpdateStatus)
			appts.PATCH("/:id/cancel", limit, appointments.CancelAppointment)
			appts.PATCH("/:id/reschedule", limit, appointments.RescheduleAppointment)
			appts.GET("/series/:parentId", appointments.GetSeries)
			appts.POST("/series/:parentId/cancel", limit, appointments.CancelSeries)
		}

		// Availability routes
		avail := api.Group("/availability")
		{
			avail.GET("/staff/:staffId", availability.GetStaffAvailability)
			avail.GET("/staff/:staffId/suggestions", availability.GetSuggestedSlots)
			avail.GET("/staff/:staffId/conflicts", availability.CheckConflict)
			avail.GET("/branch/:branchId", availability.GetBranchAvailability)
		}
		api.GET("/staff/:staffId/appointments", appointments.ListStaffAppointments)

		// Waitlist routes
		wl := api.Group("/waitlist")
		{
			wl.POST("", limit, waitlist.AddToWaitlist)
			wl.GET("/:id", waitlist.GetEntry)
			wl.GET("/staff/:staffId", waitlist.ListStaffWaitlist)
			wl.GET("/customer/:customerId", waitlist.ListCustomerWaitlist)
			wl.GET("/stats/branch/:branchId", waitlist.Stats)
			wl.POST("/:id/convert", limit, waitlist.ConvertToAppointment)
			wl.DELETE("/:id", waitlist.RemoveFromWaitlist)
		}

		// Service catalog routes
		svc := api.Group("/services")
		{
			svc.POST("", catalog.CreateService)
			svc.GET("", catalog.GetServices)
			svc.GET("/:id", catalog.GetService)
			svc.PUT("/:id", catalog.UpdateService)
			svc.DELETE("/:id", catalog.DeactivateService)
		}

		// Appointment template routes
		at := api.Group("/appointment-templates")
		{
			at.POST("", bundles.CreateTemplate)
			at.GET("", bundles.GetTemplates)
			at.GET("/popular", bundles.GetPopularTemplates)
			at.GET("/:id", bundles.GetTemplate)
			at.PUT("/:id", bundles.UpdateTemplate)
			at.DELETE("/:id", bundles.DeactivateTemplate)
			at.POST("/:id/book", limit, bundles.BookTemplate)
		}

		// Notification template routes
		tpl := api.Group("/templates")
		{
			tpl.POST("", templates.CreateTemplate)
			tpl.GET("", templates.GetTemplates)
			tpl.PUT("/:id", templates.UpdateTemplate)
			tpl.DELETE("/:id", templates.DeleteTemplate)
		}

		// Branch settings routes
		br := api.Group("/branch")
		{
			br.GET("", branch.GetBranch)
			br.PUT("", branch.UpdateBranch)
			br.PUT("/hours", branch.UpdateWorkingHours)
			br.PUT("/notifications", branch.UpdateNotificationSettings)
		}
	}

	return r
}
