package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devconnect/backend/internal/jobs"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/internal/router"
	"github.com/devconnect/backend/internal/scheduler"
	"github.com/devconnect/backend/pkg/cache"
	"github.com/devconnect/backend/pkg/config"
	"github.com/devconnect/backend/pkg/email"
	"github.com/devconnect/backend/pkg/firebase"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/devconnect/backend/pkg/pubsub"
	"github.com/devconnect/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize databases")
	}
	defer db.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postRepo := repositories.NewMongoPostRepository(db.MongoDB)
	if err := postRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.WithError(err).Fatal("Failed to create MongoDB indexes")
	}

	broker, err := pubsub.New(pubsub.Options{Kind: cfg.Broker, RedisURL: cfg.RedisURL})
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize pub/sub broker")
	}
	defer broker.Close()

	listCache, err := cache.New(cache.Options{Kind: cfg.Cache, RedisURL: cfg.RedisURL})
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize cache")
	}
	defer listCache.Close()

	// Firebase login is optional
	var verifier firebase.TokenVerifier
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case err == nil:
		verifier = firebaseApp
	case errors.Is(err, firebase.ErrNotConfigured):
		logger.Log.Info("Firebase not configured, Firebase login disabled")
	default:
		logger.Log.WithError(err).Fatal("Failed to initialize Firebase")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e)

	if err := router.SetupRoutes(e, router.Dependencies{
		Postgres:  db.Postgres,
		Mongo:     db.MongoDB,
		Posts:     postRepo,
		Broker:    broker,
		Cache:     listCache,
		Firebase:  verifier,
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
	}); err != nil {
		logger.Log.WithError(err).Fatal("Failed to set up routes")
	}

	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	cron, err := scheduler.Start(
		scheduler.Entry{
			Spec: cfg.DigestSchedule,
			Job: jobs.NewDigestJob(notificationRepo, repositories.NewPostgresUserRepository(db.Postgres),
				email.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPSender, cfg.SMTPPassword)).WithSiteURL(cfg.SiteURL),
		},
		scheduler.Entry{
			Spec: cfg.CleanupSchedule,
			Job:  jobs.NewRetentionJob(notificationRepo, cfg.RetentionDays),
		},
	)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to start scheduler")
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	<-cron.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Server shutdown failed")
	}
}
