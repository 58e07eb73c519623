package router

import (
	"time"

	"staffhub/internal/config"
	"staffhub/internal/handler"
	"staffhub/internal/infra"
	"staffhub/internal/middleware"
	"staffhub/internal/repository"
	"staffhub/internal/service"
	"staffhub/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, webhookCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	timeOffRepo := repository.NewTimeOffRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	permSvc := service.NewPermissionService(userRepo, venueRepo, service.DefaultPermissions())
	venueSvc := service.NewVenueService(venueRepo, permSvc)
	authSvc := service.NewAuthService(userRepo, permSvc, cfg)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	timeOffSvc := service.NewTimeOffService(timeOffRepo, userRepo, scheduleRepo, venueSvc, permSvc, dispatcher)
	scheduleSvc := service.NewScheduleService(scheduleRepo, timeOffRepo, permSvc)
	reportSvc := service.NewReportService(venueRepo, userRepo, timeOffRepo, permSvc, cfg.PDFStoragePath)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	venuesH := handler.NewVenuesHandler(venueSvc)
	timeOffH := handler.NewTimeOffHandler(timeOffSvc)
	schedulesH := handler.NewSchedulesHandler(scheduleSvc)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, webhookCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes. RequireRole is the coarse route gate; the services run
	// the venue-scoped permission checks behind it.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Time off — every authenticated role; fine-grained rules in the service
		v1.POST("/timeoff", timeOffH.Create)
		v1.GET("/timeoff", timeOffH.ListVisible)
		v1.GET("/timeoff/mine", timeOffH.ListOwn)
		v1.DELETE("/timeoff/:id", timeOffH.Cancel)
		v1.POST("/timeoff/:id/review", middleware.RequireRole(service.RoleManager, service.RoleAdmin), timeOffH.Review)

		// Schedules
		v1.POST("/schedules", middleware.RequireRole(service.RoleManager, service.RoleAdmin), schedulesH.Create)
		v1.PUT("/schedules/:id/status", middleware.RequireRole(service.RoleManager, service.RoleAdmin), schedulesH.SetStatus)
		v1.POST("/schedules/:id/entries", middleware.RequireRole(service.RoleManager, service.RoleAdmin), schedulesH.AddEntry)
		v1.GET("/schedules/:id/entries", schedulesH.ListEntries)
		v1.GET("/venues/:venueId/schedules", schedulesH.ListByVenue)

		// Reports
		v1.GET("/venues/:venueId/reports/timeoff", middleware.RequireRole(service.RoleManager, service.RoleAdmin), reportsH.MonthlyTimeOff)

		// Venues — reads for everyone, writes behind venue:manage (admin)
		v1.GET("/venues", venuesH.List)
		venues := v1.Group("/venues", middleware.RequireRole(service.RoleAdmin))
		{
			venues.POST("", venuesH.Create)
			venues.PUT("/:venueId/active", venuesH.SetActive)
			venues.POST("/:venueId/members", venuesH.AddMember)
			venues.DELETE("/:venueId/members/:userId", venuesH.RemoveMember)
		}
		v1.PUT("/users/:id/primary-venue", middleware.RequireRole(service.RoleAdmin), venuesH.SetPrimary)

		// Users
		v1.GET("/users/:id", usersH.Get)
		v1.GET("/users", middleware.RequireRole(service.RoleManager, service.RoleAdmin), usersH.List)
		users := v1.Group("/users", middleware.RequireRole(service.RoleAdmin))
		{
			users.POST("", usersH.Create)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.POST("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
