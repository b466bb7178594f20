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

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"blog-be/internal/cache"
	"blog-be/internal/config"
	"blog-be/internal/database"
	"blog-be/internal/jwt"
	"blog-be/internal/middleware"
	"blog-be/internal/notify"
	"blog-be/internal/observability"
	"blog-be/internal/repository"
	"blog-be/internal/repository/mongostore"
	"blog-be/internal/server"
	"blog-be/internal/service"
	"blog-be/internal/upload"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	users repository.UserRepository
	posts repository.PostRepository
	close func()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger("blog-be", cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the selected store
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer st.close()

	hub := notify.NewHub(logger)
	defer hub.Close()

	// Redis is optional: without it posts are read uncached and events stay local
	var cacheClient cache.Cache
	var publisher notify.Publisher = hub
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			relay := notify.NewRedisRelay(redisClient, hub, logger)
			if err := relay.Subscribe(ctx); err != nil {
				logger.Warn("redis relay unavailable, broadcasting locally", zap.Error(err))
			} else {
				publisher = relay
			}
			cacheClient = cache.NewRedisCache(redisClient)
			logger.Info("connected to redis")
		}
	}

	uploads, err := upload.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	accessLog, err := os.OpenFile(cfg.AccessLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Fatal("failed to open access log", zap.Error(err))
	}
	defer accessLog.Close()

	jwtService := jwt.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)

	authService := service.NewAuthService(st.users, jwtService, logger)
	feedService := service.NewFeedService(st.posts, st.users, cacheClient, publisher, cfg.FeedPageSize, logger)

	authLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitAuthRPS), cfg.RateLimitAuthBurst)
	defer authLimiter.Stop()

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Log:         logger,
		AccessLog:   accessLog,
		Uploads:     uploads,
		Tokens:      jwtService,
		Auth:        authService,
		Feed:        feedService,
		Hub:         hub,
		AuthLimiter: authLimiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.Bool("mongo", cfg.UseMongo()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStores connects to MongoDB when MONGO_CONNECTION_STRING is set and to
// PostgreSQL otherwise.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.UseMongo() {
		client, err := database.NewMongoConnection(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))
		return &stores{
			users: mongostore.NewUserRepository(db),
			posts: mongostore.NewPostRepository(db),
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("connected to postgres")
	return &stores{
		users: repository.NewUserRepository(db),
		posts: repository.NewPostRepository(db),
		close: func() { _ = db.Close() },
	}, nil
}
