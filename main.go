package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tesseract-Nexus/go-shared/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"scheduling-service/internal/authz"
	"scheduling-service/internal/config"
	"scheduling-service/internal/handlers"
	"scheduling-service/internal/identity"
	appMetrics "scheduling-service/internal/metrics"
	"scheduling-service/internal/middleware"
	"scheduling-service/internal/models"
	natsClient "scheduling-service/internal/nats"
	"scheduling-service/internal/parser"
	"scheduling-service/internal/redis"
	"scheduling-service/internal/repository"
	"scheduling-service/internal/services"
)

func main() {
	// Load configuration
	cfg := config.New()

	logger := newLogger(cfg)

	// Initialize database connection
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto-migrate models
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis connection (optional: rate limiting degrades without it)
	var redisClient *redis.Client
	redisClient, err = redis.NewClient(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("Public submission rate limiting is disabled")
		redisClient = nil
	} else {
		log.Println("Connected to Redis successfully")
	}

	// Initialize NATS connection for event publishing (optional)
	var nc *natsClient.Client
	nc, err = natsClient.NewClient(nil) // Uses NATS_URL env var or default
	if err != nil {
		log.Printf("Warning: Failed to connect to NATS: %v", err)
		log.Println("Event publishing will be disabled")
		nc = nil
	} else {
		log.Println("Connected to NATS successfully")
		defer nc.Close()
	}

	// Initialize metrics
	appMetrics.Init()
	metricsCollector := metrics.New(metrics.Config{
		ServiceName: "scheduling-service",
		Namespace:   "scheduling",
		Subsystem:   "http",
	})

	// Initialize repositories
	tenantRepo := repository.NewTenantRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	identityStore := identity.NewStore(db)

	// Identity resolution and authorization
	resolver := identity.NewTokenResolver(cfg.App.JWTSecret, 24*time.Hour)
	engine := authz.NewEngine(cfg.App.SuperAdminEmail)
	if cfg.App.SuperAdminEmail == "" {
		log.Println("SUPER_ADMIN_EMAIL not set - tenant administration endpoints are disabled")
	}

	// Email extraction for the intake pipeline
	var emailParser parser.Parser
	if cfg.Intake.OpenAIAPIKey != "" {
		emailParser = parser.NewOpenAIParser(cfg.Intake.OpenAIAPIKey, cfg.Intake.OpenAIModel, logger)
		log.Printf("Email extraction enabled (model: %s)", cfg.Intake.OpenAIModel)
	} else {
		emailParser = parser.NoopParser{}
		log.Println("OPENAI_API_KEY not set - case intake will use default field values")
	}
	if cfg.Intake.ZapierWebhookSecret == "" {
		log.Println("Warning: ZAPIER_WEBHOOK_SECRET not set - inbound email webhook is disabled")
	}

	// Initialize services
	tenantSvc := services.NewTenantService(tenantRepo, profileRepo, identityStore, engine, nc, cfg.App.MailboxDomain, logger)
	userSvc := services.NewUserService(identityStore, profileRepo, engine, logger)
	caseSvc := services.NewCaseService(caseRepo, slotRepo, engine)
	slotSvc := services.NewSlotService(slotRepo, caseRepo, engine, nc, logger)
	availabilitySvc := services.NewAvailabilityService(availabilityRepo, caseRepo, slotRepo, logger)
	intakeSvc := services.NewIntakeService(caseRepo, tenantRepo, emailParser, engine, nc, cfg.Intake.MinEmailLength, logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, nc)
	authHandler := handlers.NewAuthHandler(identityStore, profileRepo, tenantRepo, resolver, engine, logger)
	adminHandler := handlers.NewAdminHandler(tenantSvc, logger)
	tenantHandler := handlers.NewTenantHandler(tenantSvc, logger)
	userHandler := handlers.NewUserHandler(userSvc, logger)
	caseHandler := handlers.NewCaseHandler(caseSvc, intakeSvc, logger)
	slotHandler := handlers.NewSlotHandler(slotSvc, availabilitySvc, logger)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilitySvc, redisClient, logger)
	webhookHandler := handlers.NewWebhookHandler(intakeSvc, cfg.Intake.ZapierWebhookSecret, logger)

	// Setup router
	router := setupRouter(
		cfg,
		logger,
		metricsCollector,
		resolver,
		profileRepo,
		tenantRepo,
		healthHandler,
		authHandler,
		adminHandler,
		tenantHandler,
		userHandler,
		caseHandler,
		slotHandler,
		availabilityHandler,
		webhookHandler,
	)

	// Setup server
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting scheduling-service on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}

	log.Println("Server exited")
}

func setupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	metricsCollector *metrics.Metrics,
	resolver *identity.TokenResolver,
	profileRepo *repository.ProfileRepository,
	tenantRepo *repository.TenantRepository,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	tenantHandler *handlers.TenantHandler,
	userHandler *handlers.UserHandler,
	caseHandler *handlers.CaseHandler,
	slotHandler *handlers.SlotHandler,
	availabilityHandler *handlers.AvailabilityHandler,
	webhookHandler *handlers.WebhookHandler,
) *gin.Engine {
	// Set Gin mode
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, origins)
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true

	// Global middleware
	router.Use(cors.New(corsConfig))
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(metricsCollector.Middleware())

	// Metrics endpoint (Prometheus scraping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	api := router.Group("/api")
	{
		// Public endpoints (no bearer credential required)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/admin/check-super-admin", authHandler.CheckSuperAdmin)
		api.POST("/webhooks/zapier", webhookHandler.IngestEmail)
		api.POST("/candidate-availabilities", availabilityHandler.Submit)
		api.GET("/public/cases/:publicId", caseHandler.GetPublic)

		// Authenticated endpoints. Profile and tenant state are loaded fresh
		// on every request.
		authed := api.Group("")
		authed.Use(middleware.Authenticate(resolver, profileRepo, tenantRepo))
		{
			authed.GET("/auth/me", authHandler.Me)
			authed.POST("/auth/change-password", userHandler.ChangePassword)

			authed.GET("/admin/tenants", adminHandler.ListTenants)
			authed.PATCH("/admin/tenants/:id/toggle-active", adminHandler.ToggleTenantActive)

			authed.POST("/tenants/create", tenantHandler.ProvisionTenant)

			authed.GET("/users", userHandler.ListUsers)
			authed.POST("/users/create", userHandler.CreateUser)
			authed.PATCH("/users/:id/toggle-active", userHandler.ToggleUserActive)

			authed.POST("/create-case-from-email", caseHandler.CreateFromEmail)
			authed.GET("/cases", caseHandler.List)
			authed.GET("/cases/:id", caseHandler.Get)
			authed.PATCH("/cases/:id/status", caseHandler.UpdateStatus)

			authed.POST("/cases/:id/slots", slotHandler.Create)
			authed.GET("/cases/:id/slots", slotHandler.List)
			authed.PATCH("/slots/:id", slotHandler.Update)
			authed.DELETE("/slots/:id", slotHandler.Delete)
			authed.GET("/slots/:id/availabilities", slotHandler.ListAvailabilities)
		}
	}

	return router
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.App.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Connected to database successfully")
	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	log.Println("Starting database migration...")

	// Enable UUID extension in PostgreSQL
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		log.Printf("Warning: Failed to create uuid-ossp extension: %v", err)
	}

	modelsToMigrate := []interface{}{
		&models.Tenant{},
		&models.Identity{},
		&models.Profile{},
		&models.Case{},
		&models.Slot{},
		&models.CandidateAvailability{},
	}

	for _, model := range modelsToMigrate {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	log.Println("Database migration completed successfully")
	return nil
}
