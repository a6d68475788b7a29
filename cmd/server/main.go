package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bloodconnect/internal/config"
	handlers "bloodconnect/internal/handlers/shared"
	"bloodconnect/internal/middleware"
	"bloodconnect/internal/repositories/interfaces"
	mongorepo "bloodconnect/internal/repositories/mongodb"
	pgrepo "bloodconnect/internal/repositories/postgres"
	"bloodconnect/internal/services"
	"bloodconnect/internal/utils"
	"bloodconnect/internal/validators"
	"bloodconnect/pkg/cache"
	"bloodconnect/pkg/database"
	"bloodconnect/pkg/logger"
	"bloodconnect/pkg/sms"
	"bloodconnect/pkg/voice"
	"bloodconnect/pkg/websocket"
	"bloodconnect/routes"
)

type stores struct {
	donors      interfaces.DonorRepository
	emergencies interfaces.EmergencyRepository
	ping        func(ctx context.Context) error
	close       func()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		Caller:  cfg.App.Debug,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := validators.RegisterBindingValidations(); err != nil {
		log.WithError(err).Fatal("Failed to register validators")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional Redis: cache, idempotency and cross-instance events
	var (
		redisCache   *cache.RedisCache
		cacheService services.CacheService
	)
	if cfg.Redis.Enabled() {
		redisCache, err = cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
		cacheService = services.NewCacheService(redisCache, log, utils.CacheKeyPrefix, utils.ActiveEmergencyCacheTTL)
		log.Info("Redis connected")
	} else {
		log.Warn("REDIS_HOST not set: idempotency keys and cross-instance events are disabled")
	}

	st, err := openStores(ctx, cfg, cacheService, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open donor store")
	}
	defer st.close()

	notifier, err := buildNotifier(ctx, cfg.SMS, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure notifications")
	}

	// Live feed
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	var (
		events      = services.NewHubPublisher(hub, log)
		idempotency services.IdempotencyStore
	)
	if redisCache != nil {
		local := events
		events = services.NewRedisEventPublisher(redisCache, utils.EmergencyEventsChannel, log)
		idempotency = services.NewIdempotencyStore(cacheService, cfg.Dispatch.IdempotencyTTL)

		go func() {
			if err := services.RunEventRelay(ctx, redisCache, utils.EmergencyEventsChannel, local, log); err != nil {
				log.WithError(err).Error("Emergency event relay stopped")
			}
		}()
	}

	matcher := services.NewDonorMatcher(st.donors, log)
	dispatcher := services.NewEmergencyDispatcher(
		st.emergencies,
		matcher,
		notifier,
		idempotency,
		events,
		services.DispatcherConfig{
			MaxConcurrency: cfg.Dispatch.MaxConcurrency,
			AttemptTimeout: cfg.Dispatch.AttemptTimeout,
		},
		log,
	)

	// Initialize handlers
	donorHandler := handlers.NewDonorHandler(matcher, cfg.Dispatch.MaxSearchLimit, log)
	emergencyHandler := handlers.NewEmergencyHandler(dispatcher, log)
	wsHandler := websocket.NewHandler(hub, websocket.HandlerConfig{
		ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		PingInterval:     cfg.WebSocket.PingInterval,
		PongTimeout:      cfg.WebSocket.PongTimeout,
		MaxConnections:   cfg.WebSocket.MaxConnections,
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
	}, handlers.ResolveFeedRoom, handlers.CanJoinFeedRoom)

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		log.WithError(err).Fatal("Invalid TRUSTED_PROXIES")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security.RateLimitPerMinute, 10*time.Minute, log)
	go rateLimiter.Cleanup(ctx)

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(rateLimiter.Middleware())
	{
		routes.SetupDonorRoutes(v1, donorHandler, cfg.Security.JWTSecret)
		routes.SetupEmergencyRoutes(v1, emergencyHandler, cfg.Security.JWTSecret)
	}
	routes.SetupWebSocketRoutes(router, cfg.WebSocket.Path, wsHandler, cfg.Security.JWTSecret)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := st.ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"version": cfg.App.Version,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"version":     cfg.App.Version,
			"driver":      cfg.Database.Driver,
			"ws_clients":  hub.ClientCount(),
			"idempotency": idempotency != nil,
		})
	})

	// Start server
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

func openStores(ctx context.Context, cfg *config.Config, cacheService services.CacheService, log *logger.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg := cfg.Database.Postgres
		pool, err := database.NewPostgres(ctx, &database.PostgresConfig{
			DSN:             pg.DSN,
			MaxConns:        pg.MaxConns,
			MinConns:        pg.MinConns,
			MaxConnLifetime: pg.MaxConnLifetime,
			ConnectTimeout:  pg.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := database.BootstrapPostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("PostgreSQL connected")

		return &stores{
			donors:      pgrepo.NewDonorRepository(pool),
			emergencies: pgrepo.NewEmergencyRepository(pool),
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil

	default:
		mc := cfg.Database.Mongo
		db, err := database.NewMongoDB(ctx, &database.MongoConfig{
			URI:            mc.URI,
			Database:       mc.Database,
			MaxPoolSize:    mc.MaxPoolSize,
			MinPoolSize:    mc.MinPoolSize,
			ConnectTimeout: mc.ConnectTimeout,
			SocketTimeout:  mc.SocketTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := database.NewMigrator(db.Database, log).Up(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("MongoDB connected")

		return &stores{
			donors:      mongorepo.NewDonorRepository(db.Database),
			emergencies: mongorepo.NewEmergencyRepository(db.Database, cacheService),
			ping:        db.Ping,
			close: func() {
				if err := db.Close(); err != nil {
					log.WithError(err).Warn("Failed to close MongoDB")
				}
			},
		}, nil
	}
}

func buildNotifier(ctx context.Context, cfg *config.SMSConfig, log *logger.Logger) (services.Notifier, error) {
	var smsProvider sms.SMSProvider
	switch cfg.Provider {
	case config.SMSProviderAWSSNS:
		provider, err := sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.DefaultFrom)
		if err != nil {
			return nil, err
		}
		smsProvider = provider
	default:
		if !cfg.Twilio.Configured() {
			return nil, errors.New("twilio SMS provider selected but TWILIO_* credentials are missing")
		}
		smsProvider = sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	}

	var callProvider voice.CallProvider
	if cfg.Twilio.Configured() {
		callProvider = voice.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	} else {
		log.Warn("Twilio credentials missing: voice calls for critical and high urgency will be recorded as failed")
	}

	log.WithField("sms_provider", smsProvider.Name()).Info("Notifier configured")
	return services.NewNotifier(smsProvider, callProvider, log), nil
}
