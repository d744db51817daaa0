package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/udacchi/attendance-management-sub000/api/swagger"
	"github.com/udacchi/attendance-management-sub000/internal/handler"
	"github.com/udacchi/attendance-management-sub000/internal/middleware"
	"github.com/udacchi/attendance-management-sub000/internal/models"
	"github.com/udacchi/attendance-management-sub000/internal/repository"
	"github.com/udacchi/attendance-management-sub000/internal/service"
	"github.com/udacchi/attendance-management-sub000/pkg/cache"
	"github.com/udacchi/attendance-management-sub000/pkg/config"
	"github.com/udacchi/attendance-management-sub000/pkg/database"
	"github.com/udacchi/attendance-management-sub000/pkg/logger"
	corsmiddleware "github.com/udacchi/attendance-management-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/udacchi/attendance-management-sub000/pkg/middleware/requestid"
)

// @title Attendance Management API
// @version 1.0.0
// @description Employee time tracking with punch clock, corrections and exports
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Summary.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, summary cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Summary.CacheTTL, logr, cfg.Summary.CacheEnabled && cacheRepo != nil)

	clock := service.NewClock(cfg.Time.Timezone)
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	correctionRepo := repository.NewCorrectionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authOpts := []service.AuthServiceOption{}
	attendanceOpts := []service.AttendanceServiceOption{
		service.WithAttendanceCache(cacheSvc),
		service.WithAttendanceMetrics(metricsSvc),
		service.WithAdminEditLock(cfg.Corrections.LockAdminEdits),
	}
	correctionOpts := []service.CorrectionServiceOption{
		service.WithCorrectionCache(cacheSvc),
		service.WithCorrectionMetrics(metricsSvc),
	}
	if cfg.Corrections.AuditEnabled {
		authOpts = append(authOpts, service.WithAuthAudit(auditRepo))
		attendanceOpts = append(attendanceOpts, service.WithAttendanceAudit(auditRepo))
		correctionOpts = append(correctionOpts, service.WithCorrectionAudit(auditRepo))
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "attendance-management",
	}, authOpts...)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, userRepo, correctionRepo, clock, logr, attendanceOpts...)
	correctionSvc := service.NewCorrectionService(correctionRepo, attendanceRepo, clock, logr, correctionOpts...)
	userSvc := service.NewUserService(userRepo, validate, logr)
	exportSvc := service.NewExportService(attendanceRepo, clock, logr, cfg.Exports.MaxRows, nil, nil)

	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	correctionHandler := handler.NewCorrectionHandler(correctionSvc)
	adminHandler := handler.NewAdminHandler(attendanceSvc, userSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	attendance := api.Group("/attendance", middleware.JWT(authSvc))
	{
		attendance.POST("/punch", attendanceHandler.Punch)
		attendance.GET("/today", attendanceHandler.Today)
		attendance.GET("/days", attendanceHandler.Month)
		attendance.GET("/days/:date", attendanceHandler.Day)
		attendance.PUT("/days/:date", attendanceHandler.EditDay)
	}

	corrections := api.Group("/corrections", middleware.JWT(authSvc))
	{
		corrections.POST("", correctionHandler.Create)
		corrections.GET("", correctionHandler.List)
		corrections.GET("/:id", correctionHandler.Get)
		corrections.POST("/:id/review", middleware.RequireRoles(models.RoleAdmin), correctionHandler.Review)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/attendance", adminHandler.ListAttendance)
		admin.GET("/attendance/export", adminHandler.Export)
		admin.GET("/attendance/:userId/days", adminHandler.UserMonth)
		admin.GET("/attendance/:userId/days/:date", adminHandler.UserDay)
		admin.PUT("/attendance/:userId/days/:date", adminHandler.EditUserDay)
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users", adminHandler.CreateUser)
		admin.POST("/users/:userId/verify-email", adminHandler.VerifyUserEmail)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "timezone", cfg.Time.Timezone)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
