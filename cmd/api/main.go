package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/learnportal/backend/docs"
	"github.com/learnportal/backend/internal/auth"
	"github.com/learnportal/backend/internal/cache"
	"github.com/learnportal/backend/internal/config"
	"github.com/learnportal/backend/internal/handlers"
	"github.com/learnportal/backend/internal/jobs"
	"github.com/learnportal/backend/internal/logger"
	"github.com/learnportal/backend/internal/middleware"
	"github.com/learnportal/backend/internal/models"
	"github.com/learnportal/backend/internal/repositories"
	"github.com/learnportal/backend/internal/services"
	"github.com/learnportal/backend/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// @title LearnPortal API
// @version 1.0
// @description API for course enrollment, payment proof review, video progress, quizzes and assignments

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting LearnPortal API")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT token generator
	tokenGenerator := auth.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	courseRepo := repositories.NewCourseRepository(db, logger.Logger)
	videoRepo := repositories.NewVideoRepository(db, logger.Logger)
	enrollmentRepo := repositories.NewEnrollmentRepository(db, logger.Logger)
	proofRepo := repositories.NewPaymentProofRepository(db)
	bankAccountRepo := bankAccounts(cfg, db)
	passwordResetRepo := repositories.NewPasswordResetRepository(db)
	dashboardRepo := repositories.NewDashboardRepository(db)
	quizRepo := repositories.NewQuizRepository(db, logger.Logger)
	assignmentRepo := repositories.NewAssignmentRepository(db, logger.Logger)

	media := storage.NewLocalStorage(cfg.Media.BasePath)
	proofStorage := media.In(storage.ProofDir)

	// Initialize services
	authService := services.NewAuthService(userRepo, userTokenRepo, tokenGenerator, logger.Logger)
	courseService := services.NewCourseService(courseRepo, videoRepo, logger.Logger)
	videoService := services.NewVideoService(videoRepo, enrollmentRepo, courseRepo, logger.Logger)
	certificateService := services.NewCertificateService(videoService, courseRepo, userRepo, logger.Logger)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, courseRepo, proofRepo, proofStorage, logger.Logger)
	paymentService := services.NewPaymentService(bankAccountRepo, logger.Logger)
	notificationService := services.NewNotificationService(mailSender(cfg), cfg.SMTP.From, logger.Logger)
	adminService := services.NewAdminService(enrollmentRepo, proofRepo, courseRepo, userRepo, proofStorage, notificationService, logger.Logger)
	passwordResetService := services.NewPasswordResetService(userRepo, passwordResetRepo, userTokenRepo, notificationService, logger.Logger)
	profileService := services.NewProfileService(userRepo, media.In(storage.AvatarDir), logger.Logger)
	dashboardService := services.NewDashboardService(userRepo, dashboardRepo, enrollmentRepo, logger.Logger)
	quizService := services.NewQuizService(quizRepo, courseRepo, enrollmentRepo, logger.Logger)
	assignmentService := services.NewAssignmentService(assignmentRepo, courseRepo, enrollmentRepo, media.In(storage.SubmissionDir), logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, passwordResetService, handlers.CookieSettings{
		AccessTokenExpiry:  cfg.JWT.AccessTokenExpiry,
		RefreshTokenExpiry: cfg.JWT.RefreshTokenExpiry,
		Secure:             cfg.Server.SecureCookies,
	}, logger.Logger)
	courseHandler := handlers.NewCourseHandler(courseService, logger.Logger)
	videoHandler := handlers.NewVideoHandler(videoService, logger.Logger)
	certificateHandler := handlers.NewCertificateHandler(certificateService, logger.Logger)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, logger.Logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger.Logger)
	adminHandler := handlers.NewAdminHandler(adminService, courseService, paymentService, dashboardService, logger.Logger)
	profileHandler := handlers.NewProfileHandler(profileService, logger.Logger)
	quizHandler := handlers.NewQuizHandler(quizService, logger.Logger)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService, logger.Logger)
	healthHandler := handlers.NewHealthHandler(db, logger.Logger)

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(tokenGenerator)
	adminMiddleware := middleware.RoleMiddleware(models.RoleAdmin)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)

	// Background jobs
	scheduler := jobs.NewScheduler(logger.Logger)
	cleaner := jobs.NewTokenCleaner(userTokenRepo, cfg.JWT.RefreshTokenExpiry, logger.Logger)
	if err := scheduler.AddTokenCleanup(cfg.Jobs.TokenCleanupSchedule, cleaner); err != nil {
		logger.Logger.Fatal("Failed to schedule token cleanup", zap.Error(err))
	}
	resetCleaner := jobs.NewTokenCleaner(passwordResetRepo, services.ResetTokenLifetime, logger.Logger.Named("password_resets"))
	if err := scheduler.AddTokenCleanup(cfg.Jobs.TokenCleanupSchedule, resetCleaner); err != nil {
		logger.Logger.Fatal("Failed to schedule password reset cleanup", zap.Error(err))
	}
	scheduler.Start()

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimit, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		healthHandler.RegisterRoutes(r)
		authHandler.RegisterRoutes(r)
		paymentHandler.RegisterRoutes(r)
		courseHandler.RegisterRoutes(r, authMiddleware)
		videoHandler.RegisterRoutes(r, authMiddleware)
		certificateHandler.RegisterRoutes(r, authMiddleware)
		enrollmentHandler.RegisterRoutes(r, authMiddleware)
		profileHandler.RegisterRoutes(r, authMiddleware)
		quizHandler.RegisterRoutes(r, authMiddleware)
		assignmentHandler.RegisterRoutes(r, authMiddleware)
		// Register admin routes with role middleware
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			adminHandler.RegisterRoutes(r)
			quizHandler.RegisterAdminRoutes(r)
			assignmentHandler.RegisterAdminRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(ctx)

	logger.Logger.Info("Server exited")
}

// bankAccounts returns the bank account repository, cached in Redis when configured
func bankAccounts(cfg *config.Config, db *sql.DB) services.BankAccountRepository {
	repo := repositories.NewBankAccountRepository(db)
	addr := cfg.RedisAddr()
	if addr == "" {
		return repo
	}

	client, err := cache.NewRedis(addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		// The cache is optional; serve from MySQL only.
		logger.Logger.Warn("Redis unavailable, bank account cache disabled", zap.String("addr", addr), zap.Error(err))
		return repo
	}
	logger.Logger.Info("Bank account cache enabled", zap.String("addr", addr))
	return repositories.NewCachedBankAccountRepository(repo, cache.NewStore(client, "learnportal", cfg.Redis.TTL), logger.Logger)
}

// mailSender returns the SMTP dialer, or nil when email delivery is not configured
func mailSender(cfg *config.Config) services.MailSender {
	if cfg.SMTP.Host == "" {
		logger.Logger.Info("SMTP_HOST not set, enrollment and password reset emails disabled")
		return nil
	}
	return mail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "learnportal_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directories if running from cmd/api
		for _, dir := range []string{"../migrations", "../../migrations"} {
			if _, err := os.Stat(dir); err == nil {
				migrationPath = "file://" + dir
				break
			}
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
