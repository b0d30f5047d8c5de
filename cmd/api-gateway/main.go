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

	_ "github.com/noah-isme/capstone-api/api/swagger"
	"github.com/noah-isme/capstone-api/internal/handler"
	"github.com/noah-isme/capstone-api/internal/middleware"
	"github.com/noah-isme/capstone-api/internal/models"
	"github.com/noah-isme/capstone-api/internal/repository"
	"github.com/noah-isme/capstone-api/internal/service"
	"github.com/noah-isme/capstone-api/pkg/cache"
	"github.com/noah-isme/capstone-api/pkg/config"
	"github.com/noah-isme/capstone-api/pkg/database"
	"github.com/noah-isme/capstone-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/capstone-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/capstone-api/pkg/middleware/requestid"
)

// @title Capstone Proposal API
// @version 1.0.0
// @description Capstone proposal lifecycle: screening, board review, review rounds, defense scheduling and grading
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	lecturerRepo := repository.NewLecturerRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	boardRepo := repository.NewBoardDecisionRepository(db)
	councilRepo := repository.NewCouncilRepository(db)
	scheduleRepo := repository.NewDefenseScheduleRepository(db)
	resultRepo := repository.NewDefenseResultRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.LecturerTTL, logr, cfg.Cache.Enabled)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	lecturerSvc := service.NewLecturerService(lecturerRepo, cacheSvc, validate, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, lecturerRepo, validate, logr)
	duplicateChecker := service.NewHTTPDuplicateChecker(cfg.Duplicate, logr)
	var checker service.DuplicateChecker
	if duplicateChecker != nil {
		checker = duplicateChecker
	}
	proposalSvc := service.NewProposalService(proposalRepo, semesterRepo, checker, validate, logr)
	reviewSvc := service.NewReviewService(proposalRepo, lecturerRepo, validate, logr)
	boardSvc := service.NewBoardService(boardRepo, proposalRepo, semesterRepo, metricsSvc, validate, logr)
	councilSvc := service.NewCouncilService(councilRepo, semesterRepo, lecturerRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, proposalSvc, councilSvc, nil, metricsSvc, validate, logr)
	gradingSvc := service.NewGradingService(resultRepo, scheduleRepo, councilSvc, proposalSvc, metricsSvc, validate, logr)
	reportSvc := service.NewReportService(resultRepo, semesterRepo, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	lecturerHandler := handler.NewLecturerHandler(lecturerSvc)
	semesterHandler := handler.NewSemesterHandler(semesterSvc)
	proposalHandler := handler.NewProposalHandler(proposalSvc, reviewSvc, boardSvc, councilSvc)
	councilHandler := handler.NewCouncilHandler(councilSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	gradingHandler := handler.NewGradingHandler(gradingSvc)
	reportHandler := handler.NewReportHandler(reportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer)

	lecturers := authed.Group("/lecturers")
	{
		lecturers.GET("", anyRole, lecturerHandler.List)
		lecturers.GET("/:code", anyRole, lecturerHandler.Get)
		lecturers.POST("", adminOnly, lecturerHandler.Create)
	}

	semesters := authed.Group("/semesters")
	{
		semesters.GET("", anyRole, semesterHandler.List)
		semesters.GET("/current", anyRole, semesterHandler.Current)
		semesters.GET("/:id", anyRole, semesterHandler.Get)
		semesters.POST("", adminOnly, semesterHandler.Create)
		semesters.PUT("/:id/review-board", adminOnly, semesterHandler.SetReviewBoard)
	}

	proposals := authed.Group("/proposals")
	{
		proposals.GET("", anyRole, proposalHandler.List)
		proposals.GET("/:id", anyRole, proposalHandler.Get)
		proposals.POST("", adminOnly, proposalHandler.Create)
		proposals.POST("/:id/screen", adminOnly, proposalHandler.Screen)
		proposals.POST("/:id/duplicate-outcome", adminOnly, proposalHandler.DuplicateOutcome)
		proposals.POST("/:id/reject", adminOnly, proposalHandler.Reject)
		proposals.GET("/:id/board-decisions", anyRole, proposalHandler.BoardDecisions)
		proposals.POST("/:id/board-decisions", middleware.RequireRoles(models.RoleLecturer), proposalHandler.RecordBoardDecision)
		proposals.POST("/:id/reviews", adminOnly, proposalHandler.AssignReviewers)
		proposals.GET("/:id/eligible-reviewers", anyRole, proposalHandler.EligibleReviewers)
		proposals.GET("/:id/eligible-councils", anyRole, proposalHandler.EligibleCouncils)
	}

	councils := authed.Group("/councils")
	{
		councils.GET("", anyRole, councilHandler.List)
		councils.GET("/:id", anyRole, councilHandler.Get)
		councils.POST("", adminOnly, councilHandler.Create)
	}

	schedules := authed.Group("/schedules")
	{
		schedules.GET("", anyRole, scheduleHandler.List)
		schedules.GET("/slots", anyRole, scheduleHandler.Slots)
		schedules.GET("/:id", anyRole, scheduleHandler.Get)
		schedules.POST("", adminOnly, scheduleHandler.Book)
		schedules.GET("/:id/result", anyRole, gradingHandler.Result)
		schedules.POST("/:id/result", middleware.RequireRoles(models.RoleLecturer), gradingHandler.RecordResult)
	}

	reports := authed.Group("/reports")
	{
		reports.GET("/defense-results", adminOnly, reportHandler.DefenseResults)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
