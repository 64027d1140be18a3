package handlers

import (
	"net/http"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/notifications"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// BookmarkHandler handles bookmark HTTP requests
type BookmarkHandler struct {
	bookmarkRepository repositories.BookmarkRepository
	postRepository     repositories.PostRepository
	userRepository     repositories.UserRepository
	hooks              *notifications.Hooks
}

func NewBookmarkHandler(bookmarkRepo repositories.BookmarkRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, hooks *notifications.Hooks) *BookmarkHandler {
	return &BookmarkHandler{
		bookmarkRepository: bookmarkRepo,
		postRepository:     postRepo,
		userRepository:     userRepo,
		hooks:              hooks,
	}
}

func (h *BookmarkHandler) RegisterBookmarkRoutes(g *echo.Group) {
	g.POST("/posts/:id/bookmark", h.BookmarkPost)
	g.DELETE("/posts/:id/bookmark", h.RemoveBookmark)
	g.GET("/bookmarks", h.GetBookmarks)
}

func (h *BookmarkHandler) BookmarkPost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	postID := post.ID.Hex()

	isBookmarked, _ := h.bookmarkRepository.IsBookmarked(userID, postID)
	if isBookmarked {
		return echo.NewHTTPError(http.StatusConflict, "Post already bookmarked")
	}

	if err := h.bookmarkRepository.CreateBookmark(&models.Bookmark{UserID: userID, PostID: postID}); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Post already bookmarked")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.IncrementCounter(ctx, postID, "bookmarks_count", 1); err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Warn("bookmarks_count update failed")
	}

	h.hooks.Fire(ctx, notifications.BookmarkEvent{
		Actor: loadActor(h.userRepository, userID),
		Post:  postTarget(post),
	})

	return success(c, http.StatusOK, echo.Map{"bookmarked": true})
}

func (h *BookmarkHandler) RemoveBookmark(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	if err := h.bookmarkRepository.DeleteBookmark(userID, postID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Bookmark not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.IncrementCounter(c.Request().Context(), postID, "bookmarks_count", -1); err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Warn("bookmarks_count update failed")
	}

	return success(c, http.StatusOK, echo.Map{"bookmarked": false})
}

// GetBookmarks lists the caller's bookmarked posts, newest bookmark first.
// Bookmarks whose post no longer exists are skipped.
func (h *BookmarkHandler) GetBookmarks(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	bookmarks, err := h.bookmarkRepository.GetBookmarksByUser(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	posts := make([]models.Post, 0, len(bookmarks))
	for _, b := range bookmarks {
		post, err := h.postRepository.GetPostByID(ctx, b.PostID)
		if err != nil {
			continue
		}
		posts = append(posts, *post)
	}
	return success(c, http.StatusOK, echo.Map{"posts": posts})
}
