package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/storefront/internal/events"
	"github.com/yourorg/storefront/internal/handler"
	"github.com/yourorg/storefront/internal/infrastructure/logger"
	"github.com/yourorg/storefront/internal/infrastructure/redis"
	"github.com/yourorg/storefront/internal/observability/metrics"
	"github.com/yourorg/storefront/internal/observability/tracing"
	"github.com/yourorg/storefront/internal/repository"
	"github.com/yourorg/storefront/internal/security"
	"github.com/yourorg/storefront/internal/security/audit"
	"github.com/yourorg/storefront/internal/security/auth"
	"github.com/yourorg/storefront/internal/security/middleware"
	"github.com/yourorg/storefront/internal/security/ratelimit"
	"github.com/yourorg/storefront/internal/service"
	"github.com/yourorg/storefront/internal/worker"
	"github.com/yourorg/storefront/pkg/config"
	"github.com/yourorg/storefront/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting storefront server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "storefront", cfg.Environment)
	if err != nil {
		log.Warn("tracing disabled", slog.String("error", err.Error()))
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	dbPool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to Postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	// Kafka is optional: with no brokers configured order events stay local.
	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaCfg := &events.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			UseTLS:  cfg.KafkaTLSEnable,
		}
		if cfg.KafkaSASLEnable {
			kafkaCfg.Username = cfg.KafkaSASLUser
			kafkaCfg.Password = cfg.KafkaSASLPassword
			kafkaCfg.SASLMechanism = cfg.KafkaSASLMechanism
		}
		producer, err := events.NewProducer(kafkaCfg, log)
		if err != nil {
			log.Error("failed to connect to Kafka", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer producer.Close()
		publisher = producer
		log.Info("kafka producer connected", slog.String("topic", cfg.KafkaTopic))
	}

	// Repositories
	userRepo := repository.NewPostgresUserRepository(dbPool.GetDB(), log)
	inventoryRepo := repository.NewPostgresInventoryRepository(dbPool.GetDB(), log)
	orderRepo := repository.NewPostgresOrderRepository(dbPool.GetDB(), log)
	tokenStore := repository.NewRedisTokenStore(redisClient, log)

	// Services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenService := service.NewTokenService(tokenManager, tokenStore, log)
	authService := service.NewAuthService(userRepo, tokenService, log)
	inventoryService := service.NewInventoryService(inventoryRepo, log)
	orderService := service.NewOrderService(orderRepo, inventoryRepo, publisher, log)

	authz := security.NewAuthorizationService(log)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	userHandler := handler.NewUserHandler(authService, authz, log)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, authz, log)
	orderHandler := handler.NewOrderHandler(orderService, authz, log)
	streamHandler := handler.NewOrderStreamHandler(orderService, tokenService, authz, log, cfg.CORSAllowedOrigins)
	healthHandler := handler.NewHealthHandler(redisClient, dbPool, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/auth/logout-all", authHandler.LogoutAll)

	mux.HandleFunc("GET /api/users/me", userHandler.Me)
	mux.HandleFunc("PUT /api/users/me/profile", userHandler.UpdateProfile)
	mux.HandleFunc("DELETE /api/users/{id}", userHandler.Deactivate)

	mux.HandleFunc("POST /api/inventory", inventoryHandler.Create)
	mux.HandleFunc("GET /api/inventory", inventoryHandler.List)
	mux.HandleFunc("GET /api/inventory/low-stock", inventoryHandler.LowStock)
	mux.HandleFunc("GET /api/inventory/quote", inventoryHandler.Quote)
	mux.HandleFunc("GET /api/inventory/{id}", inventoryHandler.Get)
	mux.HandleFunc("POST /api/inventory/{id}/stock", inventoryHandler.AdjustStock)
	mux.HandleFunc("POST /api/inventory/{id}/discounts", inventoryHandler.AddDiscount)
	mux.HandleFunc("DELETE /api/inventory/{id}/discounts/{discountId}", inventoryHandler.RemoveDiscount)

	mux.HandleFunc("POST /api/orders", orderHandler.Checkout)
	mux.HandleFunc("GET /api/orders", orderHandler.List)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.Get)
	mux.HandleFunc("POST /api/orders/{id}/status", orderHandler.UpdateStatus)
	mux.HandleFunc("POST /api/orders/{id}/cancel", orderHandler.Cancel)
	mux.HandleFunc("POST /api/orders/{id}/pay", orderHandler.Pay)

	mux.Handle("GET /ws/orders/{id}", streamHandler)

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain: request ID -> metrics -> JWT -> rate limit -> audit -> content type -> CORS+mux
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.JWTMiddleware(tokenService, log)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.AuditMiddleware(auditLogger)(
						middleware.ValidateJSONContentType(log)(handlerWithCORS),
					),
				),
			),
		),
		log,
	)
	rootHandler = otelhttp.NewHandler(rootHandler, "storefront")

	// Background sweeper: expired discounts and stale unpaid orders.
	sweeper := worker.NewSweeper(orderRepo, inventoryRepo, log, cfg.SweepInterval, cfg.StaleOrderAge)
	go sweeper.Start(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop the sweeper
	rateLimiter.Stop()
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for
// traceability.
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
