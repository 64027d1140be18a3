package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devconnect/backend/internal/middleware"
	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/internal/router"
	"github.com/devconnect/backend/internal/testutil"
	"github.com/devconnect/backend/pkg/cache"
	"github.com/devconnect/backend/pkg/pubsub"
	"github.com/devconnect/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// memoryPosts is a PostRepository kept in a map, standing in for MongoDB.
type memoryPosts struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
}

func newMemoryPosts() *memoryPosts {
	return &memoryPosts{posts: make(map[primitive.ObjectID]*models.Post)}
}

func (m *memoryPosts) EnsureIndexes(context.Context) error { return nil }

func (m *memoryPosts) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memoryPosts) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrInvalidPostID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[objID]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryPosts) GetPostBySlug(_ context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPostNotFound
}

func (m *memoryPosts) ListPosts(_ context.Context, filter repositories.PostFilter, skip, limit int64) ([]models.Post, error) {
	return m.collect(func(p *models.Post) bool {
		if filter.AuthorID != 0 && p.AuthorID != filter.AuthorID {
			return false
		}
		if len(filter.AuthorIDs) > 0 && !containsID(filter.AuthorIDs, p.AuthorID) {
			return false
		}
		if filter.Tag != "" && !containsTag(p.Tags, filter.Tag) {
			return false
		}
		return filter.Status == "" || p.Status == filter.Status
	}, skip, limit), nil
}

func (m *memoryPosts) Trending(_ context.Context, since time.Time, limit int64) ([]models.Post, error) {
	out := m.collect(func(p *models.Post) bool {
		return p.Status == models.PostStatusPublished && p.PublishedAt != nil && !p.PublishedAt.Before(since)
	}, 0, math.MaxInt64)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LikesCount != b.LikesCount {
			return a.LikesCount > b.LikesCount
		}
		if a.CommentsCount != b.CommentsCount {
			return a.CommentsCount > b.CommentsCount
		}
		return a.ViewsCount > b.ViewsCount
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryPosts) TagCounts(_ context.Context, limit int64) ([]repositories.TagCount, error) {
	m.mu.Lock()
	counts := make(map[string]int64)
	for _, p := range m.posts {
		if p.Status != models.PostStatusPublished {
			continue
		}
		for _, tag := range p.Tags {
			counts[tag]++
		}
	}
	m.mu.Unlock()

	out := []repositories.TagCount{}
	for tag, n := range counts {
		out = append(out, repositories.TagCount{Tag: tag, PostsCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostsCount != out[j].PostsCount {
			return out[i].PostsCount > out[j].PostsCount
		}
		return out[i].Tag < out[j].Tag
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryPosts) Search(_ context.Context, query string, skip, limit int64) ([]models.Post, error) {
	q := strings.ToLower(query)
	return m.collect(func(p *models.Post) bool {
		return p.Status == models.PostStatusPublished &&
			(strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q))
	}, skip, limit), nil
}

func (m *memoryPosts) collect(match func(*models.Post) bool, skip, limit int64) []models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Post{}
	for _, p := range m.posts {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= int64(len(out)) {
		return []models.Post{}
	}
	out = out[skip:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memoryPosts) UpdatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; !ok {
		return repositories.ErrPostNotFound
	}
	post.UpdatedAt = time.Now()
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memoryPosts) DeletePost(_ context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrInvalidPostID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[objID]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(m.posts, objID)
	return nil
}

func (m *memoryPosts) IncrementCounter(_ context.Context, id, field string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrInvalidPostID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[objID]
	if !ok {
		return nil
	}
	switch field {
	case "likes_count":
		p.LikesCount += delta
	case "comments_count":
		p.CommentsCount += delta
	case "bookmarks_count":
		p.BookmarksCount += delta
	case "views_count":
		p.ViewsCount += delta
	}
	return nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// unreachableBroker fails every publish, like a redis broker whose server is down.
type unreachableBroker struct{}

func (unreachableBroker) Publish(context.Context, string, pubsub.Message) error {
	return errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
}

func (unreachableBroker) Subscribe(context.Context, string) (pubsub.Subscription, error) {
	return nil, errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
}

func (unreachableBroker) Close() error { return nil }

type testApp struct {
	e     *echo.Echo
	db    *gorm.DB
	posts *memoryPosts
	cache *cache.MemoryCache
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	broker := pubsub.NewMemoryBroker()
	t.Cleanup(func() { broker.Close() })
	return newTestAppWithBroker(t, broker)
}

func newTestAppWithBroker(t *testing.T, broker pubsub.Broker) *testApp {
	t.Helper()
	db := testutil.NewDB(t)
	posts := newMemoryPosts()
	listCache := cache.NewMemoryCache()

	e := echo.New()
	e.Validator = validators.NewValidator()
	require.NoError(t, router.SetupRoutes(e, router.Dependencies{
		Postgres:  db,
		Posts:     posts,
		Broker:    broker,
		Cache:     listCache,
		JWTSecret: testSecret,
		JWTTTL:    time.Hour,
	}))
	return &testApp{e: e, db: db, posts: posts, cache: listCache}
}

func (a *testApp) user(t *testing.T, username string) *models.User {
	return testutil.CreateUser(t, a.db, username)
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := middleware.GenerateToken(u, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends a JSON request as user (anonymous when nil).
func (a *testApp) do(t *testing.T, method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokenFor(t, user))
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// data decodes the "data" member of a success envelope into out.
func data(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func (a *testApp) notificationsFor(t *testing.T, u *models.User) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, a.db.Where("recipient_id = ?", u.ID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func (a *testApp) createPost(t *testing.T, author *models.User, title, status string) models.Post {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"title":   title,
		"content": "Some **markdown** body for " + title,
		"status":  status,
	}, author)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post models.Post
	data(t, rec, &post)
	return post
}

func jsonBody(rec *httptest.ResponseRecorder, out interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), out)
}

func countRows(a *testApp, model interface{}) (int64, error) {
	var n int64
	err := a.db.Model(model).Count(&n).Error
	return n, err
}
