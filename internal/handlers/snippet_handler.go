package handlers

import (
	"net/http"
	"time"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/notifications"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/cache"
	"github.com/labstack/echo/v4"
)

// maxSnippetTitle matches the title column size, counted in runes.
const maxSnippetTitle = 200

// SnippetHandler serves code snippets, their likes, comments and forks
type SnippetHandler struct {
	snippetRepository repositories.SnippetRepository
	userRepository    repositories.UserRepository
	hooks             *notifications.Hooks
	cache             cache.Cache
}

func NewSnippetHandler(snippetRepo repositories.SnippetRepository, userRepo repositories.UserRepository, hooks *notifications.Hooks, c cache.Cache) *SnippetHandler {
	return &SnippetHandler{
		snippetRepository: snippetRepo,
		userRepository:    userRepo,
		hooks:             hooks,
		cache:             c,
	}
}

func (h *SnippetHandler) RegisterSnippetRoutes(g *echo.Group) {
	g.POST("/snippets", h.CreateSnippet)
	g.GET("/snippets", h.ListSnippets)
	g.GET("/snippets/trending", h.GetTrendingSnippets)
	g.GET("/snippets/languages", h.GetLanguages)
	g.GET("/snippets/:id", h.GetSnippet)
	g.PUT("/snippets/:id", h.UpdateSnippet)
	g.DELETE("/snippets/:id", h.DeleteSnippet)
	g.POST("/snippets/:id/likes", h.LikeSnippet)
	g.DELETE("/snippets/:id/likes", h.UnlikeSnippet)
	g.POST("/snippets/:id/fork", h.ForkSnippet)
	g.GET("/snippets/:id/comments", h.GetComments)
	g.POST("/snippets/:id/comments", h.CreateComment)
}

// GetTrendingSnippets ranks the week's public snippets by likes, then views.
func (h *SnippetHandler) GetTrendingSnippets(c echo.Context) error {
	snippets, err := cachedList(c.Request().Context(), h.cache, trendingSnippetsKey, func() ([]models.Snippet, error) {
		return h.snippetRepository.Trending(time.Now().Add(-trendingWindow), trendingLimit)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"snippets": snippets})
}

// GetLanguages lists the languages of public snippets with their counts.
func (h *SnippetHandler) GetLanguages(c echo.Context) error {
	languages, err := h.snippetRepository.LanguageCounts()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"languages": languages})
}

func (h *SnippetHandler) CreateSnippet(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.CreateSnippetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	snippet := &models.Snippet{
		AuthorID:    userID,
		Title:       req.Title,
		Slug:        makeSlug(req.Title, "snippet"),
		Description: req.Description,
		Code:        req.Code,
		Language:    req.Language,
		Visibility:  visibility,
		Tags:        req.Tags,
	}
	if err := h.snippetRepository.CreateSnippet(snippet); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusCreated, snippet)
}

// ListSnippets filters by ?author=, ?language= and ?q=
func (h *SnippetHandler) ListSnippets(c echo.Context) error {
	page, limit := paging(c, 20, 100)
	filter := repositories.SnippetFilter{
		Language: c.QueryParam("language"),
		Query:    c.QueryParam("q"),
		ViewerID: getUserIDFromContext(c),
	}
	if c.QueryParam("author") != "" {
		id, err := parseIDParamValue(c.QueryParam("author"), "author")
		if err != nil {
			return err
		}
		filter.AuthorID = id
	}

	snippets, err := h.snippetRepository.ListSnippets(filter, (page-1)*limit, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"snippets": snippets},
		"meta":    echo.Map{"currentPage": page, "itemsPerPage": limit, "hasNextPage": len(snippets) == limit},
	})
}

func (h *SnippetHandler) GetSnippet(c echo.Context) error {
	snippet, err := h.loadVisible(c)
	if err != nil {
		return err
	}
	userID := getUserIDFromContext(c)
	if snippet.AuthorID != userID {
		if err := h.snippetRepository.IncrementViews(snippet.ID); err == nil {
			snippet.ViewsCount++
		}
	}

	isLiked := false
	if userID != 0 {
		isLiked, _ = h.snippetRepository.HasUserLiked(snippet.ID, userID)
	}
	return success(c, http.StatusOK, echo.Map{"snippet": snippet, "is_liked": isLiked})
}

func (h *SnippetHandler) UpdateSnippet(c echo.Context) error {
	snippet, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	var req models.UpdateSnippetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Title != "" {
		snippet.Title = req.Title
	}
	if req.Description != nil {
		snippet.Description = *req.Description
	}
	if req.Code != "" {
		snippet.Code = req.Code
	}
	if req.Language != "" {
		snippet.Language = req.Language
	}
	if req.Visibility != "" {
		snippet.Visibility = req.Visibility
	}
	if req.Tags != nil {
		snippet.Tags = req.Tags
	}

	if err := h.snippetRepository.UpdateSnippet(snippet); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, snippet)
}

func (h *SnippetHandler) DeleteSnippet(c echo.Context) error {
	snippet, err := h.loadOwned(c)
	if err != nil {
		return err
	}
	if err := h.snippetRepository.DeleteSnippet(snippet.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SnippetHandler) LikeSnippet(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	snippet, err := h.loadVisible(c)
	if err != nil {
		return err
	}

	if err := h.snippetRepository.CreateLike(&models.SnippetLike{SnippetID: snippet.ID, UserID: userID}); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Snippet already liked")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	awardReputation(h.userRepository, snippet.AuthorID, userID, reputationSnippetLike)

	h.hooks.Fire(c.Request().Context(), notifications.LikeEvent{
		Actor:  loadActor(h.userRepository, userID),
		Target: snippetTarget(snippet),
	})
	return success(c, http.StatusCreated, echo.Map{"liked": true, "likes_count": snippet.LikesCount + 1})
}

func (h *SnippetHandler) UnlikeSnippet(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	snippet, err := h.loadVisible(c)
	if err != nil {
		return err
	}

	if err := h.snippetRepository.DeleteLike(snippet.ID, userID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	awardReputation(h.userRepository, snippet.AuthorID, userID, -reputationSnippetLike)
	return success(c, http.StatusOK, echo.Map{"liked": false})
}

// ForkSnippet copies a visible snippet into the caller's account.
func (h *SnippetHandler) ForkSnippet(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	source, err := h.loadVisible(c)
	if err != nil {
		return err
	}

	title := "Fork of " + source.Title
	if r := []rune(title); len(r) > maxSnippetTitle {
		title = string(r[:maxSnippetTitle])
	}
	fork := &models.Snippet{
		AuthorID: userID,
		Title:    title,
		Slug:     makeSlug(source.Title, "snippet"),
	}
	if err := h.snippetRepository.Fork(source, fork); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.hooks.Fire(c.Request().Context(), notifications.ForkEvent{
		Actor:  loadActor(h.userRepository, userID),
		Source: snippetTarget(source),
		Fork:   snippetTarget(fork),
	})
	return success(c, http.StatusCreated, fork)
}

func (h *SnippetHandler) GetComments(c echo.Context) error {
	snippet, err := h.loadVisible(c)
	if err != nil {
		return err
	}
	comments, err := h.snippetRepository.GetComments(snippet.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"comments": comments})
}

func (h *SnippetHandler) CreateComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	snippet, err := h.loadVisible(c)
	if err != nil {
		return err
	}

	var req models.CreateSnippetCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment := &models.SnippetComment{
		SnippetID:  snippet.ID,
		AuthorID:   userID,
		Content:    req.Content,
		LineNumber: req.LineNumber,
	}
	if err := h.snippetRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	awardReputation(h.userRepository, snippet.AuthorID, userID, reputationSnippetComment)

	ctx := c.Request().Context()
	actor := loadActor(h.userRepository, userID)
	target := snippetTarget(snippet)
	h.hooks.Fire(ctx, notifications.CommentEvent{
		Actor:     actor,
		Target:    target,
		CommentID: comment.ID,
		Excerpt:   excerptText(req.Content, commentExcerptLength),
	})
	fireMentions(ctx, h.hooks, h.userRepository, actor, req.Content, target, snippet.AuthorID)

	return success(c, http.StatusCreated, comment)
}

// loadVisible fetches :id, hiding private snippets from everyone but their author.
func (h *SnippetHandler) loadVisible(c echo.Context) (*models.Snippet, error) {
	id, err := parseIDParam(c, "id", "snippet")
	if err != nil {
		return nil, err
	}
	snippet, err := h.snippetRepository.GetSnippetByID(id)
	if err != nil {
		if isNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Snippet not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if snippet.Visibility == models.VisibilityPrivate && snippet.AuthorID != getUserIDFromContext(c) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Snippet not found")
	}
	return snippet, nil
}

func (h *SnippetHandler) loadOwned(c echo.Context) (*models.Snippet, error) {
	userID, err := requireUser(c)
	if err != nil {
		return nil, err
	}
	snippet, err := h.loadVisible(c)
	if err != nil {
		return nil, err
	}
	if snippet.AuthorID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You are not authorized to modify this snippet")
	}
	return snippet, nil
}

func snippetTarget(s *models.Snippet) notifications.SnippetTarget {
	return notifications.SnippetTarget{ID: s.ID, Slug: s.Slug, Title: s.Title, AuthorID: s.AuthorID}
}
