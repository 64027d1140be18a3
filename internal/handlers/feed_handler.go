package handlers

import (
	"net/http"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the personalised feed: published posts by followed users and the caller.
type FeedHandler struct {
	postRepository   repositories.PostRepository
	followRepository repositories.FollowRepository
	enricher         *postEnricher
}

func NewFeedHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	followRepo repositories.FollowRepository,
	likeRepo repositories.LikeRepository,
	bookmarkRepo repositories.BookmarkRepository,
) *FeedHandler {
	return &FeedHandler{
		postRepository:   postRepo,
		followRepository: followRepo,
		enricher:         &postEnricher{users: userRepo, likes: likeRepo, bookmarks: bookmarkRepo},
	}
}

func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// EnrichedPost is a post with author info and user-specific flags
type EnrichedPost struct {
	models.Post
	Author       models.UserCompact `json:"author"`
	IsLiked      bool               `json:"is_liked"`
	IsBookmarked bool               `json:"is_bookmarked"`
}

func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	page, limit := paging(c, 10, 50)

	authorIDs, err := h.followRepository.GetFollowingIDs(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authorIDs = append(authorIDs, currentUserID)

	filter := repositories.PostFilter{AuthorIDs: authorIDs, Status: models.PostStatusPublished}
	posts, err := h.postRepository.ListPosts(c.Request().Context(), filter, int64((page-1)*limit), int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": h.enricher.enrich(currentUserID, posts)},
		"meta":    echo.Map{"currentPage": page, "itemsPerPage": limit, "hasNextPage": len(posts) == limit},
	})
}

type postEnricher struct {
	users     repositories.UserRepository
	likes     repositories.LikeRepository
	bookmarks repositories.BookmarkRepository
}

func (e *postEnricher) enrich(currentUserID uint, posts []models.Post) []EnrichedPost {
	seen := make(map[uint]bool)
	var authorIDs []uint
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID.Hex()
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	authors := make(map[uint]models.UserCompact)
	if users, err := e.users.GetUsersByIDs(authorIDs); err == nil {
		for i := range users {
			authors[users[i].ID] = users[i].ToCompact()
		}
	}

	likedMap := make(map[string]bool)
	bookmarkedMap := make(map[string]bool)
	if currentUserID > 0 {
		for _, pid := range postIDs {
			liked, _ := e.likes.HasUserLikedPost(pid, currentUserID)
			likedMap[pid] = liked
		}
		if m, err := e.bookmarks.GetBookmarkedPostIDs(currentUserID, postIDs); err == nil {
			bookmarkedMap = m
		}
	}

	enriched := make([]EnrichedPost, len(posts))
	for i, p := range posts {
		pid := postIDs[i]
		enriched[i] = EnrichedPost{
			Post:         p,
			Author:       authors[p.AuthorID],
			IsLiked:      likedMap[pid],
			IsBookmarked: bookmarkedMap[pid],
		}
	}
	return enriched
}
