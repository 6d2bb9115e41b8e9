package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call_center_app_go/config"
	"call_center_app_go/db"
	"call_center_app_go/handlers"
	"call_center_app_go/middleware"
	"call_center_app_go/models"
	"call_center_app_go/services"
	"call_center_app_go/services/jobs"
	"call_center_app_go/services/realtime"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logCloser := config.SetupLogging(cfg)
	defer logCloser.Close()

	// Initialize database
	if err := db.Open(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Providers
	services.InitializeStorage(cfg)
	services.InitializeTelephony(cfg)
	services.InitializeAI(cfg)
	services.InitLoginMonitor(cfg)

	hub := realtime.NewHub(cfg.AllowedOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	// Middleware
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.Metrics())

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	e.GET("/", handlers.HomeHandler)
	e.GET("/ws", handlers.WebSocketHandler(hub))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(cfg.JWTSecret)
	api := e.Group("/api")

	// Authentication
	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.RegisterHandler, middleware.RegisterRateLimiter.Middleware())
		auth.POST("/login", handlers.LoginHandler, middleware.LoginRateLimiter.Middleware())
		auth.GET("/verify", handlers.VerifyHandler, requireAuth)
		auth.GET("/me", handlers.MeHandler, requireAuth)
	}

	// Public routes
	api.POST("/analyze-lead", handlers.AnalyzeLeadHandler, middleware.AnalysisRateLimiter.Middleware())
	api.POST("/status-callback", handlers.StatusCallbackHandler, middleware.CallbackRateLimiter.Middleware())
	api.POST("/contact", handlers.ContactHandler, middleware.PublicFormRateLimiter.Middleware())

	// Protected routes
	protected := api.Group("")
	protected.Use(requireAuth)
	{
		protected.GET("/appointments", handlers.ListAppointmentsHandler)
		protected.POST("/appointments", handlers.CreateAppointmentHandler)
		protected.GET("/appointments/export", handlers.ExportAppointmentsHandler)
		protected.GET("/appointments/stats/summary", handlers.AppointmentSummaryHandler)
		protected.PATCH("/appointments/bulk-status", handlers.BulkStatusHandler)
		protected.GET("/appointments/:id", handlers.GetAppointmentHandler)
		protected.PUT("/appointments/:id", handlers.UpdateAppointmentHandler)
		protected.DELETE("/appointments/:id", handlers.DeleteAppointmentHandler)

		protected.GET("/fetch-calls", handlers.FetchCallsHandler)
		protected.GET("/analyze-all-calls", handlers.AnalyzeAllCallsHandler)
		protected.GET("/calls", handlers.ListCallsHandler)
		protected.GET("/calls/export", handlers.ExportCallsHandler)
		protected.POST("/outbound-call", handlers.OutboundCallHandler)
		protected.GET("/recording/:callSid", handlers.RecordingHandler)
		protected.POST("/transcribe/:callSid", handlers.TranscribeHandler)
		protected.POST("/summarize", handlers.SummarizeHandler)
	}

	// Background jobs: provider sync and real-time delivery
	scheduler, err := jobs.StartScheduler(cfg, db.DB, services.Telephony, hub)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start server
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")

	// Wait for running jobs before closing the store
	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	hub.Close()
}
