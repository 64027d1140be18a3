package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/devconnect/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow_NotifiesFollowedUser(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")

	rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := app.notificationsFor(t, bob)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationFollow, got[0].Type)
	assert.Equal(t, "/users/alice", got[0].Link)
	require.NotNil(t, got[0].SenderID)
	assert.Equal(t, alice.ID, *got[0].SenderID)
	assert.False(t, got[0].IsRead)

	var reloaded models.User
	require.NoError(t, app.db.First(&reloaded, bob.ID).Error)
	assert.Equal(t, 1, reloaded.FollowersCount)

	rec = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, alice)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, app.notificationsFor(t, bob), 1)
}

func TestFollow_SelfIsRejected(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")

	rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), nil, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, app.notificationsFor(t, alice))
}

func TestFollow_SucceedsWhenNotificationsAreDown(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")
	require.NoError(t, app.db.Migrator().DropTable(&models.Notification{}))

	rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	following, err := countRows(app, &models.Follow{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, following)
}

func TestComment_PersistsWhenBrokerIsUnreachable(t *testing.T) {
	app := newTestAppWithBroker(t, unreachableBroker{})
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")
	post := app.createPost(t, alice, "Backpressure", models.PostStatusPublished)

	rec := app.do(t, http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/comments", map[string]interface{}{"content": "solid"}, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var comment models.Comment
	require.NoError(t, jsonBody(rec, &comment))

	var stored models.Comment
	require.NoError(t, app.db.First(&stored, comment.ID).Error)
	assert.Equal(t, "solid", stored.Content)

	got := app.notificationsFor(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationComment, got[0].Type)
	assert.False(t, got[0].IsRead)
}

func TestUnfollow(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")

	rec := app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, alice)
	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLikePost_NotifiesAuthorOnce(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")
	post := app.createPost(t, bob, "Go generics", models.PostStatusPublished)
	path := "/api/v1/posts/" + post.ID.Hex() + "/likes"

	rec := app.do(t, http.MethodPost, path, nil, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := app.notificationsFor(t, bob)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationLike, got[0].Type)
	assert.Equal(t, "/posts/"+post.Slug, got[0].Link)
	assert.Contains(t, got[0].Message, "alice liked your post")

	rec = app.do(t, http.MethodPost, path, nil, alice)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, app.notificationsFor(t, bob), 1)

	stored, err := app.posts.GetPostByID(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LikesCount)
}

func TestLikePost_OwnPostIsSilent(t *testing.T) {
	app := newTestApp(t)
	bob := app.user(t, "bob")
	post := app.createPost(t, bob, "Mine", models.PostStatusPublished)

	rec := app.do(t, http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/likes", nil, bob)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, app.notificationsFor(t, bob))
}

func TestComment_NotifiesAuthorAndMentionedUsers(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")
	carol := app.user(t, "carol")
	post := app.createPost(t, bob, "Channels", models.PostStatusPublished)
	path := "/api/v1/posts/" + post.ID.Hex() + "/comments"

	rec := app.do(t, http.MethodPost, path, map[string]interface{}{
		"content": "Great read @carol and @bob, thanks @alice",
	}, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var comment models.Comment
	require.NoError(t, jsonBody(rec, &comment))

	toBob := app.notificationsFor(t, bob)
	require.Len(t, toBob, 1, "the author hears about the comment once, not again as a mention")
	assert.Equal(t, models.NotificationComment, toBob[0].Type)
	assert.Equal(t, fmt.Sprintf("/posts/%s#comment-%d", post.Slug, comment.ID), toBob[0].Link)

	toCarol := app.notificationsFor(t, carol)
	require.Len(t, toCarol, 1)
	assert.Equal(t, models.NotificationMention, toCarol[0].Type)

	assert.Empty(t, app.notificationsFor(t, alice))
}

func TestComment_ReplyNotifiesParentAuthor(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")
	post := app.createPost(t, bob, "Interfaces", models.PostStatusPublished)
	path := "/api/v1/posts/" + post.ID.Hex() + "/comments"

	rec := app.do(t, http.MethodPost, path, map[string]interface{}{"content": "question"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	var parent models.Comment
	require.NoError(t, jsonBody(rec, &parent))

	rec = app.do(t, http.MethodPost, path, map[string]interface{}{"content": "answer", "parent_id": parent.ID}, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	toAlice := app.notificationsFor(t, alice)
	require.Len(t, toAlice, 1)
	assert.Equal(t, models.NotificationReply, toAlice[0].Type)
	assert.Len(t, app.notificationsFor(t, bob), 1, "only alice's original comment notified bob")

	stored, err := app.posts.GetPostByID(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CommentsCount)

	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", parent.ID), nil, alice)
	require.Equal(t, http.StatusNoContent, rec.Code)
	stored, err = app.posts.GetPostByID(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CommentsCount)
}

func TestComment_ParentFromOtherPostRejected(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	first := app.createPost(t, alice, "First", models.PostStatusPublished)
	second := app.createPost(t, alice, "Second", models.PostStatusPublished)

	rec := app.do(t, http.MethodPost, "/api/v1/posts/"+first.ID.Hex()+"/comments", map[string]interface{}{"content": "x"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	var parent models.Comment
	require.NoError(t, jsonBody(rec, &parent))

	rec = app.do(t, http.MethodPost, "/api/v1/posts/"+second.ID.Hex()+"/comments",
		map[string]interface{}{"content": "y", "parent_id": parent.ID}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommentLike_NotifiesCommentAuthor(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")
	post := app.createPost(t, alice, "Testing", models.PostStatusPublished)

	rec := app.do(t, http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/comments", map[string]interface{}{"content": "mine"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	var comment models.Comment
	require.NoError(t, jsonBody(rec, &comment))

	rec = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/comments/%d/likes", comment.ID), nil, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/comments/%d/likes", comment.ID), nil, bob)
	assert.Equal(t, http.StatusConflict, rec.Code)

	got := app.notificationsFor(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationLike, got[0].Type)
	assert.Contains(t, got[0].Message, "liked your comment")
}

func TestBookmark_NotifiesAuthor(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")
	post := app.createPost(t, bob, "Worth keeping", models.PostStatusPublished)
	path := "/api/v1/posts/" + post.ID.Hex() + "/bookmark"

	rec := app.do(t, http.MethodPost, path, nil, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = app.do(t, http.MethodPost, path, nil, alice)
	assert.Equal(t, http.StatusConflict, rec.Code)

	got := app.notificationsFor(t, bob)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationPost, got[0].Type)
	assert.Equal(t, "bookmark", got[0].Data["event"])

	rec = app.do(t, http.MethodGet, "/api/v1/bookmarks", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Posts []models.Post `json:"posts"`
	}
	data(t, rec, &list)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, post.ID, list.Posts[0].ID)

	rec = app.do(t, http.MethodDelete, path, nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(t, http.MethodDelete, path, nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
