package handlers

import (
	"net/http"
	"strings"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const maxTags = 100

// TagHandler serves the tag catalog built from published posts
type TagHandler struct {
	postRepository repositories.PostRepository
	enricher       *postEnricher
}

func NewTagHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, likeRepo repositories.LikeRepository, bookmarkRepo repositories.BookmarkRepository) *TagHandler {
	return &TagHandler{
		postRepository: postRepo,
		enricher:       &postEnricher{users: userRepo, likes: likeRepo, bookmarks: bookmarkRepo},
	}
}

// RegisterTagRoutes registers tag catalog routes
func (h *TagHandler) RegisterTagRoutes(g *echo.Group) {
	g.GET("/tags", h.GetTags)
	g.GET("/tags/:tag/posts", h.GetPostsByTag)
}

// GetTags lists tags with the number of published posts carrying each.
func (h *TagHandler) GetTags(c echo.Context) error {
	tags, err := h.postRepository.TagCounts(c.Request().Context(), maxTags)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"tags": tags})
}

func (h *TagHandler) GetPostsByTag(c echo.Context) error {
	tag := strings.ToLower(strings.TrimSpace(c.Param("tag")))
	if tag == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Tag is required")
	}
	page, limit := paging(c, 10, 50)

	filter := repositories.PostFilter{Status: models.PostStatusPublished, Tag: tag}
	posts, err := h.postRepository.ListPosts(c.Request().Context(), filter, int64((page-1)*limit), int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"tag": tag, "posts": h.enricher.enrich(getUserIDFromContext(c), posts)},
		"meta":    echo.Map{"currentPage": page, "itemsPerPage": limit, "hasNextPage": len(posts) == limit},
	})
}
