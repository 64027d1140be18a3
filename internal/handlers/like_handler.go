package handlers

import (
	"net/http"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/notifications"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to post likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	hooks          *notifications.Hooks
}

func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, hooks *notifications.Hooks) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		postRepository: postRepo,
		userRepository: userRepo,
		hooks:          hooks,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.GET("/posts/:post_id/likes/count", h.GetLikesCountForPost)
	g.GET("/posts/:post_id/likes/status", h.GetUserLikeStatusForPost)
}

func (h *LikeHandler) LikePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	postID := post.ID.Hex()

	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasLiked {
		return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
	}

	like := &models.Like{PostID: postID, UserID: userID}
	if err := h.likeRepository.CreateLike(like); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.IncrementCounter(ctx, postID, "likes_count", 1); err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Warn("likes_count update failed")
	}
	awardReputation(h.userRepository, post.AuthorID, userID, reputationPostLike)

	h.hooks.Fire(ctx, notifications.LikeEvent{
		Actor:  loadActor(h.userRepository, userID),
		Target: postTarget(post),
	})

	return c.JSON(http.StatusCreated, like)
}

func (h *LikeHandler) UnlikePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	postID := post.ID.Hex()

	if err := h.likeRepository.DeleteLike(postID, userID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.IncrementCounter(ctx, postID, "likes_count", -1); err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Warn("likes_count update failed")
	}
	awardReputation(h.userRepository, post.AuthorID, userID, -reputationPostLike)

	return c.NoContent(http.StatusNoContent)
}

func (h *LikeHandler) GetLikesCountForPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	count, err := h.likeRepository.GetLikesCountByPostID(post.ID.Hex())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"post_id": post.ID.Hex(), "likes_count": count})
}

// GetUserLikeStatusForPost checks if the authenticated user has liked a specific post
func (h *LikeHandler) GetUserLikeStatusForPost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	hasLiked, err := h.likeRepository.HasUserLikedPost(post.ID.Hex(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"post_id": post.ID.Hex(), "user_id": userID, "has_liked": hasLiked})
}

func postTarget(p *models.Post) notifications.PostTarget {
	return notifications.PostTarget{ID: p.ID.Hex(), Slug: p.Slug, Title: p.Title, AuthorID: p.AuthorID}
}
