package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggoFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "membership-backend/docs"
	"membership-backend/internal/common/cache"
	"membership-backend/internal/common/config"
	"membership-backend/internal/common/logger"
	"membership-backend/internal/common/middleware"
	authhttp "membership-backend/internal/features/auth/delivery/http"
	authmw "membership-backend/internal/features/auth/middleware"
	authservice "membership-backend/internal/features/auth/service"
	eventhttp "membership-backend/internal/features/event/delivery/http"
	eventpg "membership-backend/internal/features/event/repository/postgres"
	eventservice "membership-backend/internal/features/event/service"
	levelinghttp "membership-backend/internal/features/leveling/delivery/http"
	levelingpg "membership-backend/internal/features/leveling/repository/postgres"
	levelingservice "membership-backend/internal/features/leveling/service"
	newshttp "membership-backend/internal/features/news/delivery/http"
	newspg "membership-backend/internal/features/news/repository/postgres"
	newsservice "membership-backend/internal/features/news/service"
	uploadhttp "membership-backend/internal/features/upload/delivery/http"
	uploadstorage "membership-backend/internal/features/upload/storage"
	usercache "membership-backend/internal/features/user/cache"
	userhttp "membership-backend/internal/features/user/delivery/http"
	userpg "membership-backend/internal/features/user/repository/postgres"
	userservice "membership-backend/internal/features/user/service"
	"membership-backend/internal/platform/postgres"
	"membership-backend/internal/platform/redis"
)

// @title           Membership Platform API
// @version         1.0
// @description     Backend for the membership platform: accounts, referral codes, XP and levels, events and news.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token issued by /auth/login

// @tag.name auth
// @tag.description Registration and login

// @tag.name users
// @tag.description User management and profiles

// @tag.name leveling
// @tag.description XP and level progression

// @tag.name events
// @tag.description Events and participation

// @tag.name news
// @tag.description News feed

// @tag.name uploads
// @tag.description Image uploads

func main() {
	cfg := config.Load()

	logger.Init("membership-backend", cfg.Debug)

	logger.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Msg("Starting Membership Backend")

	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	if err := postgresClient.Migrate(cfg.Postgres.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	logger.Info().Msg("Database connection established")

	ctx := context.Background()
	redisClient, err := redis.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewService(redisClient)
	logger.Info().Msg("Cache service initialized")

	userRepository := userpg.NewPostgresRepository(postgresClient.GetDB())
	levelRepository := levelingpg.NewPostgresRepository(postgresClient.GetDB())
	eventRepository := eventpg.NewEventRepository(postgresClient.GetDB())
	newsRepository := newspg.NewNewsRepository(postgresClient.GetDB())

	logger.Info().Msg("Repositories initialized")

	hasher := authservice.NewBcryptHasher()
	tokens := authservice.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry)

	lookupCache := usercache.NewLookupCache(cacheService)
	allocator := userservice.NewCodeAllocator(userRepository)
	levelingSvc := levelingservice.NewLevelingService(levelRepository)
	userSvc := userservice.NewUserService(userRepository, lookupCache, hasher, allocator, levelingSvc)
	authSvc := authservice.NewAuthService(userRepository, hasher, tokens)
	eventSvc := eventservice.NewEventService(eventRepository)
	newsSvc := newsservice.NewNewsService(newsRepository, cacheService)

	fileStorage, err := uploadstorage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize upload storage")
	}

	logger.Info().Msg("Services initialized")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(authmw.Authenticate(tokens))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	logger.Info().Msg("Middleware configured")

	// The acting user is identified by the email inside the bearer token.
	resolveActingUser := func(c *gin.Context, email string) (int64, error) {
		user, err := userSvc.GetByEmail(c.Request.Context(), email)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	}

	v1 := router.Group("/api/v1")
	{
		authhttp.NewAuthHandler(authSvc, userSvc).RegisterRoutes(v1)
		userhttp.NewUserHandler(userSvc).RegisterRoutes(v1)
		levelinghttp.NewLevelingHandler(levelingSvc, resolveActingUser).RegisterRoutes(v1)
		eventhttp.NewEventHandler(eventSvc, resolveActingUser).RegisterRoutes(v1)
		newshttp.NewNewsHandler(newsSvc).RegisterRoutes(v1)
		uploadhttp.NewUploadHandler(fileStorage, cfg.Storage.BaseURL).RegisterRoutes(v1)
	}

	router.Static("/uploads", cfg.Storage.UploadDir)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggoFiles.Handler))

	setupProbes(router, postgresClient, redisClient)

	logger.Info().Msg("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupProbes(router *gin.Engine, postgresClient *postgres.Client, redisClient *redis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "membership-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := postgresClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "postgres unavailable",
				"details": err.Error(),
			})
			return
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "membership-backend",
		})
	})
}
