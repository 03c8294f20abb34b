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

	"asset-portal/internal/config"
	"asset-portal/internal/db"
	"asset-portal/internal/email"
	apihttp "asset-portal/internal/http"
	"asset-portal/internal/repository"
	"asset-portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	// Sin secreto de firma o sin DATABASE_URL el proceso no arranca.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// La conexión se abre con la primera consulta y se comparte entre repositorios.
	pool := db.NewLazyPool(cfg)
	defer pool.Close()

	identityRepo := repository.NewPgIdentityRepository(pool)
	portfolioRepo := repository.NewPgPortfolioRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	loginLimiter := service.NewMemoryLoginLimiter(cfg.LoginWindow, cfg.LoginMaxAttempts)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory login limiter", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginLimiter(redisClient, cfg.LoginWindow, cfg.LoginMaxAttempts)
		}
		cancel()
		defer redisClient.Close()
	}

	tokenSvc, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	if err != nil {
		logger.Fatal("token service", zap.Error(err))
	}

	policy := service.PasswordPolicy{
		MinLength:       cfg.PasswordMinLength,
		RequireNonAlpha: cfg.PasswordRequireNonAlpha,
	}
	credentialStore := service.NewCredentialStore(logger, identityRepo, service.NewBcryptHasher(cfg.BcryptCost), policy, emailSender)
	authSvc := service.NewAuthService(logger, credentialStore, tokenSvc, loginLimiter)
	portfolioSvc := service.NewPortfolioService(logger, portfolioRepo, identityRepo)

	authHandler := apihttp.NewAuthHandler(logger, authSvc, credentialStore)
	portfolioHandler := apihttp.NewPortfolioHandler(logger, portfolioSvc)
	gate := apihttp.AuthGate(logger, tokenSvc, credentialStore)
	router := apihttp.NewRouter(logger, gate, authHandler, portfolioHandler, pool)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return logger
}
