package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jbrucker/home-log/internal/application/auth"
	"github.com/jbrucker/home-log/internal/application/logbook"
	"github.com/jbrucker/home-log/internal/config"
	infraauth "github.com/jbrucker/home-log/internal/infrastructure/auth"
	httprouter "github.com/jbrucker/home-log/internal/infrastructure/http"
	"github.com/jbrucker/home-log/internal/infrastructure/http/handlers"
	"github.com/jbrucker/home-log/internal/infrastructure/http/middleware"
	"github.com/jbrucker/home-log/internal/infrastructure/persistence/migrations"
	"github.com/jbrucker/home-log/internal/infrastructure/persistence/postgres"
	"github.com/jbrucker/home-log/internal/infrastructure/security"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	if err := migrations.Up(ctx, cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	userRepo := postgres.NewUserRepository(pool)
	sourceRepo := postgres.NewSourceRepository(pool)
	readingRepo := postgres.NewReadingRepository(pool)

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	})

	expiry := time.Duration(cfg.JWT.ExpireMinutes) * time.Minute
	signer, err := infraauth.NewTokenSigner([]byte(cfg.JWT.SecretKey), cfg.JWT.Algorithm, cfg.JWT.Issuer, expiry)
	if err != nil {
		log.Fatal().Err(err).Msg("create token signer")
	}

	loginUC := auth.NewLogin(userRepo, hasher, signer, int64(expiry.Seconds()))
	registerUC := auth.NewRegisterUser(userRepo, hasher)
	changePasswordUC := auth.NewChangePassword(userRepo, hasher)
	createSourceUC := logbook.NewCreateSource(sourceRepo)
	updateSourceUC := logbook.NewUpdateSource(sourceRepo)
	deleteSourceUC := logbook.NewDeleteSource(sourceRepo)
	createReadingUC := logbook.NewCreateReading(sourceRepo, readingRepo)
	editReadingUC := logbook.NewEditReading(sourceRepo, readingRepo)

	authHandler := handlers.NewAuthHandler(loginUC, userRepo, log)
	usersHandler := handlers.NewUsersHandler(registerUC, log)
	accountHandler := handlers.NewAccountHandler(userRepo, changePasswordUC, log)
	sourcesHandler := handlers.NewSourcesHandler(sourceRepo, readingRepo, createSourceUC, updateSourceUC, deleteSourceUC, log)
	readingsHandler := handlers.NewReadingsHandler(sourceRepo, readingRepo, createReadingUC, editReadingUC, log)
	healthHandler := handlers.NewHealthHandler(pool, redisClient)

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	userLimit, err := middleware.NewUserRateLimiter(cfg.RateLimit.RatePerUser, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("create user rate limiter")
	}

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		AccountHandler:  accountHandler,
		SourcesHandler:  sourcesHandler,
		ReadingsHandler: readingsHandler,
		HealthHandler:   healthHandler,
		RequireJWT:      middleware.NewAuthValidator(signer).Handler,
		Log:             log,
		Secure:          middleware.SecureHeaders(cfg.Server.IsDevelopment),
		CORS:            middleware.CORS(cfg.Server.AllowedOrigins),
		IPRateLimit:     ipLimit,
		UserRateLimit:   userLimit,
		Metrics:         true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}
