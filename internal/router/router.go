package router

import (
	"fmt"
	"time"

	"github.com/devconnect/backend/internal/handlers"
	"github.com/devconnect/backend/internal/middleware"
	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/notifications"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/cache"
	"github.com/devconnect/backend/pkg/firebase"
	"github.com/devconnect/backend/pkg/pubsub"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Dependencies are the external resources the routes are built on.
type Dependencies struct {
	Postgres *gorm.DB
	Mongo    *mongo.Database
	// Posts overrides the Mongo-backed post repository when set.
	Posts  repositories.PostRepository
	Broker pubsub.Broker
	// Cache holds the trending lists. Nil disables caching.
	Cache cache.Cache
	// Firebase may be nil, which disables Firebase login.
	Firebase  firebase.TokenVerifier
	JWTSecret string
	JWTTTL    time.Duration
}

// SetupRoutes migrates the relational schema, wires repositories, the
// notification service and handlers, and registers every route.
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	if err := deps.Postgres.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logrus.Info("PostgreSQL auto-migrations completed for all models.")

	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	postRepo := deps.Posts
	if postRepo == nil {
		postRepo = repositories.NewMongoPostRepository(deps.Mongo)
	}
	commentRepo := repositories.NewPostgresCommentRepository(deps.Postgres)
	commentLikeRepo := repositories.NewPostgresCommentLikeRepository(deps.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)
	bookmarkRepo := repositories.NewPostgresBookmarkRepository(deps.Postgres)
	snippetRepo := repositories.NewPostgresSnippetRepository(deps.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.Postgres)

	listCache := deps.Cache
	if listCache == nil {
		listCache = cache.Nop{}
	}

	// --- Notifications ---
	notificationService := notifications.NewService(notificationRepo, userRepo, notifications.NewPublisher(deps.Broker))
	hooks := notifications.NewHooks(notificationService)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(userRepo, deps.Firebase, deps.JWTSecret, deps.JWTTTL).RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.JWTSecret))

	handlers.NewUserHandler(userRepo, followRepo).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(followRepo, userRepo, hooks).RegisterFollowRoutes(api)
	handlers.NewPostHandler(postRepo, userRepo, likeRepo, bookmarkRepo, commentRepo, listCache).RegisterPostRoutes(api)
	handlers.NewTagHandler(postRepo, userRepo, likeRepo, bookmarkRepo).RegisterTagRoutes(api)
	handlers.NewFeedHandler(postRepo, userRepo, followRepo, likeRepo, bookmarkRepo).RegisterFeedRoutes(api)
	handlers.NewLikeHandler(likeRepo, postRepo, userRepo, hooks).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(commentRepo, commentLikeRepo, postRepo, userRepo, hooks).RegisterCommentRoutes(api)
	handlers.NewBookmarkHandler(bookmarkRepo, postRepo, userRepo, hooks).RegisterBookmarkRoutes(api)
	handlers.NewSnippetHandler(snippetRepo, userRepo, hooks, listCache).RegisterSnippetRoutes(api)
	handlers.NewNotificationHandler(notificationService).RegisterNotificationRoutes(api)
	handlers.NewNotificationSocket(notificationService, deps.Broker).RegisterSocketRoutes(api)

	logrus.WithField("routes", len(e.Routes())).Info("All routes configured.")
	return nil
}
