package handlers

import (
	"context"
	"net/http"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/notifications"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/devconnect/backend/pkg/markdown"
	"github.com/labstack/echo/v4"
)

const commentExcerptLength = 100

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository     repositories.CommentRepository
	commentLikeRepository repositories.CommentLikeRepository
	postRepository        repositories.PostRepository
	userRepository        repositories.UserRepository
	hooks                 *notifications.Hooks
}

func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	commentLikeRepo repositories.CommentLikeRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	hooks *notifications.Hooks,
) *CommentHandler {
	return &CommentHandler{
		commentRepository:     commentRepo,
		commentLikeRepository: commentLikeRepo,
		postRepository:        postRepo,
		userRepository:        userRepo,
		hooks:                 hooks,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentsByPostID)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
	g.POST("/comments/:id/likes", h.LikeComment)
	g.DELETE("/comments/:id/likes", h.UnlikeComment)
}

// EnrichedComment carries the author and whether the caller liked it
type EnrichedComment struct {
	models.Comment
	Author  models.UserCompact `json:"author"`
	IsLiked bool               `json:"is_liked"`
}

// CreateComment adds a comment or, with parent_id, a reply on a post.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("post_id"))
	if err != nil || (post.Status != models.PostStatusPublished && post.AuthorID != userID) {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	postID := post.ID.Hex()

	var parent *models.Comment
	if req.ParentID != nil {
		parent, err = h.commentRepository.GetCommentByID(*req.ParentID)
		if err != nil || parent.PostID != postID {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment does not belong to this post")
		}
	}

	html, err := markdown.Render(req.Content)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid markdown content")
	}

	comment := &models.Comment{
		PostID:      postID,
		AuthorID:    userID,
		ParentID:    req.ParentID,
		Content:     req.Content,
		ContentHTML: html,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.IncrementCounter(ctx, postID, "comments_count", 1); err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Warn("comments_count update failed")
	}
	awardReputation(h.userRepository, post.AuthorID, userID, reputationPostComment)

	actor := loadActor(h.userRepository, userID)
	event := notifications.CommentEvent{
		Actor:     actor,
		Target:    postTarget(post),
		CommentID: comment.ID,
		Excerpt:   markdown.Excerpt(html, commentExcerptLength),
	}
	notified := post.AuthorID
	if parent != nil {
		event.Parent = &notifications.CommentTarget{ID: parent.ID, PostID: postID, PostSlug: post.Slug, AuthorID: parent.AuthorID}
		notified = parent.AuthorID
	}
	h.hooks.Fire(ctx, event)

	where := notifications.CommentTarget{ID: comment.ID, PostID: postID, PostSlug: post.Slug, AuthorID: userID}
	fireMentions(ctx, h.hooks, h.userRepository, actor, req.Content, where, notified)

	return c.JSON(http.StatusCreated, EnrichedComment{Comment: *comment, Author: models.UserCompact{ID: actor.ID, Username: actor.Username}})
}

// GetCommentsByPostID lists a post's comments oldest first
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	userID := getUserIDFromContext(c)
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	comments, err := h.commentRepository.GetCommentsByPostID(post.ID.Hex())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var authorIDs []uint
	for _, cm := range comments {
		authorIDs = append(authorIDs, cm.AuthorID)
	}
	authors := make(map[uint]models.UserCompact)
	if users, err := h.userRepository.GetUsersByIDs(authorIDs); err == nil {
		for i := range users {
			authors[users[i].ID] = users[i].ToCompact()
		}
	}

	enriched := make([]EnrichedComment, len(comments))
	for i, cm := range comments {
		enriched[i] = EnrichedComment{Comment: cm, Author: authors[cm.AuthorID]}
		if userID != 0 {
			enriched[i].IsLiked, _ = h.commentLikeRepository.HasUserLikedComment(cm.ID, userID)
		}
	}
	return success(c, http.StatusOK, echo.Map{"comments": enriched})
}

func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseIDParam(c, "id", "comment")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.commentRepository.GetCommentByID(commentID)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if comment.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this comment")
	}

	html, err := markdown.Render(req.Content)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid markdown content")
	}
	comment.Content = req.Content
	comment.ContentHTML = html
	comment.IsEdited = true

	if err := h.commentRepository.UpdateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment removes a comment together with its replies.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseIDParam(c, "id", "comment")
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetCommentByID(commentID)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if comment.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	removed, err := h.commentRepository.DeleteComment(commentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.IncrementCounter(c.Request().Context(), comment.PostID, "comments_count", -removed); err != nil {
		logger.Log.WithError(err).WithField("post_id", comment.PostID).Warn("comments_count update failed")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CommentHandler) LikeComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseIDParam(c, "id", "comment")
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetCommentByID(commentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	like := &models.CommentLike{CommentID: commentID, UserID: userID}
	if err := h.commentLikeRepository.CreateCommentLike(like); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Comment already liked")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	target := notifications.CommentTarget{ID: comment.ID, PostID: comment.PostID, AuthorID: comment.AuthorID}
	if post, err := h.postRepository.GetPostByID(ctx, comment.PostID); err == nil {
		target.PostSlug = post.Slug
	}
	h.hooks.Fire(ctx, notifications.LikeEvent{Actor: loadActor(h.userRepository, userID), Target: target})

	return success(c, http.StatusCreated, echo.Map{"liked": true})
}

func (h *CommentHandler) UnlikeComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseIDParam(c, "id", "comment")
	if err != nil {
		return err
	}

	if err := h.commentLikeRepository.DeleteCommentLike(commentID, userID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"liked": false})
}

// fireMentions notifies every existing user mentioned in text, except the
// actor and skip, who already heard about the comment.
func fireMentions(ctx context.Context, hooks *notifications.Hooks, users repositories.UserRepository, actor notifications.Actor, text string, where notifications.Target, skip uint) {
	names := notifications.ExtractMentions(text)
	if len(names) == 0 {
		return
	}
	mentioned, err := users.GetUsersByUsernames(names)
	if err != nil {
		logger.Log.WithError(err).Warn("mention lookup failed")
		return
	}
	for _, u := range mentioned {
		if u.ID == actor.ID || u.ID == skip {
			continue
		}
		hooks.Fire(ctx, notifications.MentionEvent{
			Actor:     actor,
			Mentioned: notifications.UserTarget{ID: u.ID, Username: u.Username},
			Where:     where,
		})
	}
}
