package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/cache"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/devconnect/backend/pkg/markdown"
	"github.com/labstack/echo/v4"
)

const excerptLength = 297

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository     repositories.PostRepository
	userRepository     repositories.UserRepository
	likeRepository     repositories.LikeRepository
	bookmarkRepository repositories.BookmarkRepository
	commentRepository  repositories.CommentRepository
	cache              cache.Cache
	enricher           *postEnricher
}

func NewPostHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	bookmarkRepo repositories.BookmarkRepository,
	commentRepo repositories.CommentRepository,
	c cache.Cache,
) *PostHandler {
	return &PostHandler{
		postRepository:     postRepo,
		userRepository:     userRepo,
		likeRepository:     likeRepo,
		bookmarkRepository: bookmarkRepo,
		commentRepository:  commentRepo,
		cache:              c,
		enricher:           &postEnricher{users: userRepo, likes: likeRepo, bookmarks: bookmarkRepo},
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/search", h.SearchPosts)
	g.GET("/posts/trending", h.GetTrendingPosts)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	html, err := markdown.Render(req.Content)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid markdown content")
	}

	status := req.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	post := &models.Post{
		AuthorID:    userID,
		Title:       req.Title,
		Slug:        makeSlug(req.Title, "post"),
		Content:     req.Content,
		ContentHTML: html,
		Excerpt:     req.Excerpt,
		Status:      status,
		Tags:        normalizeTags(req.Tags),
	}
	if post.Excerpt == "" {
		post.Excerpt = markdown.Excerpt(html, excerptLength)
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if status == models.PostStatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.userRepository.IncrementCounter(userID, "posts_count", 1); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("posts_count update failed")
	}

	return success(c, http.StatusCreated, post)
}

// GetPost returns a post and counts the view. Drafts are visible to their author only.
func (h *PostHandler) GetPost(c echo.Context) error {
	userID := getUserIDFromContext(c)
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if post.Status != models.PostStatusPublished && post.AuthorID != userID {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if post.AuthorID != userID {
		if err := h.postRepository.IncrementCounter(ctx, post.ID.Hex(), "views_count", 1); err == nil {
			post.ViewsCount++
		}
	}

	return success(c, http.StatusOK, h.enricher.enrich(userID, []models.Post{*post})[0])
}

// GetPosts lists posts, optionally by ?author=<id>. Authors also see their own drafts.
func (h *PostHandler) GetPosts(c echo.Context) error {
	userID := getUserIDFromContext(c)
	page, limit := paging(c, 10, 50)

	filter := repositories.PostFilter{Status: models.PostStatusPublished}
	if author := c.QueryParam("author"); author != "" {
		id, err := strconv.ParseUint(author, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid author ID")
		}
		filter.AuthorID = uint(id)
		if filter.AuthorID == userID {
			filter.Status = c.QueryParam("status")
		}
	}

	posts, err := h.postRepository.ListPosts(c.Request().Context(), filter, int64((page-1)*limit), int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": h.enricher.enrich(userID, posts)},
		"meta":    echo.Map{"currentPage": page, "itemsPerPage": limit, "hasNextPage": len(posts) == limit},
	})
}

// GetTrendingPosts ranks the week's published posts by likes, comments and views.
func (h *PostHandler) GetTrendingPosts(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := cachedList(ctx, h.cache, trendingPostsKey, func() ([]models.Post, error) {
		return h.postRepository.Trending(ctx, time.Now().Add(-trendingWindow), trendingLimit)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"posts": h.enricher.enrich(getUserIDFromContext(c), posts)})
}

// SearchPosts runs a full-text search over published posts
func (h *PostHandler) SearchPosts(c echo.Context) error {
	userID := getUserIDFromContext(c)
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}
	page, limit := paging(c, 10, 50)

	posts, err := h.postRepository.Search(c.Request().Context(), query, int64((page-1)*limit), int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"posts": h.enricher.enrich(userID, posts)})
}

func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if post.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this post")
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Content != "" {
		html, err := markdown.Render(req.Content)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid markdown content")
		}
		post.Content = req.Content
		post.ContentHTML = html
		if req.Excerpt == "" {
			post.Excerpt = markdown.Excerpt(html, excerptLength)
		}
	}
	if req.Excerpt != "" {
		post.Excerpt = req.Excerpt
	}
	if req.Tags != nil {
		post.Tags = normalizeTags(req.Tags)
	}
	if req.Status != "" {
		if req.Status == models.PostStatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
		post.Status = req.Status
	}

	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if post.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	postID := post.ID.Hex()
	if err := h.postRepository.DeletePost(ctx, postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.deleteEngagement(postID)
	if err := h.userRepository.IncrementCounter(userID, "posts_count", -1); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("posts_count update failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// deleteEngagement drops the likes, comments and bookmarks of a deleted post.
// The post is already gone, so failures are only logged.
func (h *PostHandler) deleteEngagement(postID string) {
	log := logger.Log.WithField("post_id", postID)
	if err := h.likeRepository.DeleteByPostID(postID); err != nil {
		log.WithError(err).Warn("failed to delete likes of removed post")
	}
	if err := h.commentRepository.DeleteByPostID(postID); err != nil {
		log.WithError(err).Warn("failed to delete comments of removed post")
	}
	if err := h.bookmarkRepository.DeleteByPostID(postID); err != nil {
		log.WithError(err).Warn("failed to delete bookmarks of removed post")
	}
}
