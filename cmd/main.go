package main

import (
	"shutsugan-server/internal/auditlog"
	"shutsugan-server/internal/dataset"
	"shutsugan-server/internal/handler"
	"shutsugan-server/internal/middleware"
	"shutsugan-server/pkg/config"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/jwtutil"
	"shutsugan-server/pkg/logger"
	"shutsugan-server/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting application-tracking server...", cfg.LogConfig()...)

	// Initialize database
	if err := database.Initialize(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)

	// Audit log: buffered, consumed off the request path
	auditlog.Init(auditlog.GormWriter{DB: database.GetDB()}, cfg.Data.AuditQueueSize)
	defer auditlog.Close()

	// Reference-data snapshot store and admission-score pipeline
	handler.Snapshot = &dataset.Store{
		DataDir:   cfg.Data.Dir,
		BackupDir: cfg.Data.BackupDir,
	}
	handler.Scores = &dataset.ScoreModel{
		DataDir:   cfg.Data.Dir,
		BackupDir: cfg.Data.BackupDir,
		Command:   cfg.Analyzer.Command,
		Timeout:   cfg.Analyzer.Timeout,
	}
	handler.MaxUploadBytes = cfg.Data.MaxUploadBytes

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.GET("/api/overview", handler.GetOverview)

	// Account routes
	e.POST("/api/register", handler.Register)
	e.POST("/api/login", handler.Login)
	e.POST("/api/admin/login", handler.AdminLogin)

	// Student-facing routes - require a valid token
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)
	api.GET("/me", handler.Me)

	api.GET("/schools", handler.ListSchools)
	api.POST("/schools", handler.CreateSchool)
	api.DELETE("/schools/:id", handler.DeleteSchool)

	api.GET("/plan", handler.ListPlan)
	api.POST("/plan", handler.CreatePlanItem)
	api.DELETE("/plan/:id", handler.DeletePlanItem)

	api.GET("/reminders", handler.ListMyReminders)
	api.POST("/reminders/:id/read", handler.MarkReminderRead)

	// Admin surface - staff roles only, account reloaded per request
	admin := e.Group("/api/admin")
	admin.Use(middleware.StaffMiddleware)
	admin.GET("/me", handler.AdminMe)
	admin.POST("/student-preview-token", handler.StudentPreviewToken)

	admin.GET("/dashboard", handler.Dashboard)
	admin.GET("/dashboard/recent", handler.DashboardRecent)

	admin.POST("/users/create", handler.CreateStudentAccount)
	admin.POST("/users/create-teacher", handler.CreateTeacherAccount, middleware.RequireElevated)
	admin.GET("/users", handler.ListUsers)
	admin.GET("/users/:id", handler.GetUser)
	admin.PATCH("/users/:id", handler.UpdateUser)

	admin.GET("/schools", handler.AdminListSchools)
	admin.DELETE("/schools/:id", handler.AdminDeleteSchool)

	teacher := admin.Group("/teacher")
	teacher.GET("/my-students", handler.MyStudents)
	teacher.GET("/students/available", handler.AvailableStudents)
	teacher.POST("/students/:id", handler.AttachStudent)
	teacher.DELETE("/students/:id", handler.DetachStudent)
	teacher.GET("/students/:id/plans", handler.StudentPlans)
	teacher.POST("/students/:id/plan", handler.AddStudentPlan)
	teacher.POST("/remind", handler.SendReminder)
	teacher.GET("/students/:id/reminders", handler.StudentReminders)
	teacher.GET("/reminders/sent", handler.SentReminders)

	admin.POST("/data-update", handler.DataUpdate)
	admin.GET("/data-update/info", handler.DataUpdateInfo)
	admin.POST("/admission-score-update", handler.ScoreUpdate)
	admin.GET("/admission-score-update/info", handler.ScoreUpdateInfo)

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
