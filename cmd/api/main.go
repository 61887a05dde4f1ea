package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lamarea/storefront/internal/auth"
	"github.com/lamarea/storefront/internal/background"
	"github.com/lamarea/storefront/internal/cart"
	"github.com/lamarea/storefront/internal/config"
	"github.com/lamarea/storefront/internal/database"
	"github.com/lamarea/storefront/internal/handlers"
	middlewareCustom "github.com/lamarea/storefront/internal/middleware"
	"github.com/lamarea/storefront/internal/repositories"
	"github.com/lamarea/storefront/internal/routes"
	"github.com/lamarea/storefront/internal/services"
	pkglogger "github.com/lamarea/storefront/pkg/logger"
	"github.com/lamarea/storefront/pkg/httpx"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.Migrate(&cfg.Database, logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	productRepo := repositories.NewProductRepository(db)
	emailVerificationRepo := repositories.NewEmailVerificationRepository(db)

	// Cart storage backend
	var cartStore cart.Store
	switch cfg.Cart.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			pingCancel()
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		pingCancel()
		defer redisClient.Close()
		cartStore = cart.NewRedisStore(redisClient, cfg.Cart.IdleTTL)
		logger.Info("cart store initialized", slog.String("backend", "redis"))
	default:
		cartStore = cart.NewMemoryStore()
		logger.Info("cart store initialized", slog.String("backend", "memory"))
	}

	// Initialize token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTokenExpiry)

	// Audit logging for auth events
	auditLogger := pkglogger.NewAuditLogger(logger)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.VerificationURLBase,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	emailVerificationService := services.NewEmailVerificationService(
		emailVerificationRepo,
		userRepo,
		emailService,
		logger,
		cfg.Email.TokenExpiry,
	)
	authService := services.NewAuthService(
		userRepo,
		tokenManager,
		emailVerificationService,
		logger,
		auditLogger,
		cfg.Auth.MaxFailedAttempts,
		cfg.Auth.LockoutDuration,
	)
	cartService := services.NewCartService(cartStore, productRepo, logger)

	// Initialize handlers
	cookieConfig := auth.CookieConfig{Secure: cfg.Server.Env == "production"}
	ipConfig := &httpx.IPConfig{}

	authHandler := handlers.NewAuthHandler(
		authService,
		emailVerificationService,
		cookieConfig,
		cfg.Auth.SessionTokenExpiry,
		ipConfig,
	)
	cartHandler := handlers.NewCartHandler(cartService, cookieConfig, cfg.Cart.CookieTTL)
	productHandler := handlers.NewProductHandler(productRepo)

	// Background janitor: expired verification tokens + idle carts
	janitor := background.NewJanitor(
		emailVerificationService,
		cartStore,
		cfg.Cart.IdleTTL,
		logger,
		cfg.Auth.CleanupInterval,
	)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, cartHandler, productHandler, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start janitor
	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()

	go janitor.Start(janitorCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	janitorCancel()
	janitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
