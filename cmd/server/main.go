package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storygen-server/internal/ai"
	"storygen-server/internal/authutils"
	"storygen-server/internal/config"
	"storygen-server/internal/database"
	"storygen-server/internal/handler"
	appLogger "storygen-server/internal/logger"
	"storygen-server/internal/messaging"
	"storygen-server/internal/middleware"
	"storygen-server/internal/migration"
	"storygen-server/internal/service"
	"storygen-server/internal/usage"
	"storygen-server/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	// .env нужен только для локальной разработки; в контейнере его нет.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := appLogger.New(appLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))

	// --- External Connections ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgPool, err := setupPostgres(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	zap.L().Info("Connected to PostgreSQL")

	// --- Database Migrations ---
	if err := migration.Apply(ctx, pgPool, database.MigrationsFS, database.MigrationsPath, logger); err != nil {
		zap.L().Fatal("Failed to apply database migrations", zap.Error(err))
	}

	redisClient, err := setupRedis(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	zap.L().Info("Connected to Redis")

	mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()
	zap.L().Info("Connected to RabbitMQ")

	// --- Dependency Injection ---
	projectRepo := database.NewPgProjectRepository(pgPool, logger.Named("PgProjectRepo"))
	versionRepo := database.NewPgProjectVersionRepository(pgPool, logger.Named("PgVersionRepo"))
	userRepo := database.NewPgUserRepository(pgPool, logger.Named("PgUserRepo"))
	profileRepo := database.NewPgUserProfileRepository(pgPool, logger.Named("PgProfileRepo"))
	sessionRepo := database.NewRedisSessionRepository(redisClient, logger.Named("RedisSessionRepo"))
	tokenRepo := database.NewRedisTokenRepository(redisClient, logger.Named("RedisTokenRepo"))

	publisher, err := messaging.NewRabbitClientEventPublisher(mqConn, cfg.ClientEventsExchange, logger)
	if err != nil {
		zap.L().Fatal("Failed to create ClientEventPublisher", zap.Error(err))
	}

	// AI-клиент и оркестратор логируют через zerolog
	zlog := zerolog.New(os.Stdout).With().Timestamp().Str("component", "ai").Logger()
	aiClient, err := ai.NewClient(cfg, zlog)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}
	orchestrator := ai.NewOrchestrator(aiClient, zlog)

	tracker := usage.NewTracker(logger.Named("UsageTracker"))

	storySvc := service.NewStoryService(projectRepo, versionRepo, userRepo, sessionRepo, publisher, orchestrator, tracker, logger)
	authSvc := service.NewAuthService(userRepo, profileRepo, tokenRepo, cfg, logger)

	// --- WebSocket Hub & Event Consumer ---
	wsManager := ws.NewConnectionManager(logger)

	wsVerifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, logger)
	if err != nil {
		zap.L().Fatal("Failed to create WS JWT Verifier", zap.Error(err))
	}
	wsHandler := ws.NewHandler(wsManager, wsVerifier, logger)

	eventConsumer, err := messaging.NewClientEventConsumer(mqConn, wsManager, cfg.ClientEventsExchange, logger)
	if err != nil {
		zap.L().Fatal("Failed to create ClientEventConsumer", zap.Error(err))
	}

	apiHandler := handler.NewAPIHandler(storySvc, authSvc, tokenRepo, wsHandler, logger, cfg.JWTSecret)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.ZapLoggingMiddlewareForGin(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Дополнительная метрика: число активных WebSocket-подключений
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "storygen_websocket_connections",
		Help: "Number of active WebSocket connections.",
	}, func() float64 {
		return float64(wsManager.OnlineCount())
	}))

	p := ginprometheus.NewPrometheus("storygen")

	apiHandler.RegisterRoutes(router)

	// Prometheus middleware применяем после регистрации роутов
	p.Use(router)

	// --- Start Background Workers (Consumers) ---
	go func() {
		zap.L().Info("Starting ClientEventConsumer...")
		if err := eventConsumer.StartConsuming(); err != nil {
			zap.L().Error("ClientEventConsumer stopped with error", zap.Error(err))
		} else {
			zap.L().Info("ClientEventConsumer stopped gracefully.")
		}
	}()

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.Port))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	zap.L().Info("Stopping ClientEventConsumer...")
	eventConsumer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	if err := publisher.Close(); err != nil {
		zap.L().Error("Error closing ClientEventPublisher", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	zap.L().Debug("Setting up PostgreSQL connection...")

	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	var pool *pgxpool.Pool
	var lastErr error
	maxRetries := 50
	retryDelay := 3 * time.Second

	zap.L().Info("Attempting to connect to PostgreSQL", zap.Int("max_retries", maxRetries), zap.Duration("retry_delay", retryDelay))

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		pool, err = pgxpool.NewWithConfig(connectCtx, poolConfig)
		connectCancel()

		if err != nil {
			lastErr = fmt.Errorf("unable to create postgres connection pool (attempt %d/%d): %w", attempt, maxRetries, err)
			zap.L().Warn("Postgres connection pool creation failed, retrying...",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
			}
			continue
		}

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()

		if err == nil {
			zap.L().Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}

		pool.Close()
		lastErr = fmt.Errorf("unable to ping postgres database (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Postgres ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	zap.L().Debug("Setting up Redis connection...")
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	var lastErr error
	maxRetries := 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			return client, nil
		}
		lastErr = err
		zap.L().Warn("Redis ping failed, retrying...", zap.Int("attempt", i+1), zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// connectRabbitMQ dials RabbitMQ with retry logic.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	var lastErr error
	maxRetries := 10
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		conn, lastErr = amqp091.Dial(url)
		if lastErr == nil {
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying...", zap.Int("attempt", i+1), zap.Error(lastErr))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", maxRetries, lastErr)
}
