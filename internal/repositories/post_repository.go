package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/devconnect/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostFilter narrows ListPosts. Zero values match everything.
type PostFilter struct {
	AuthorID  uint
	AuthorIDs []uint
	Status    string
	Tag       string
}

// TagCount is the number of published posts carrying a tag.
type TagCount struct {
	Tag        string `json:"tag" bson:"_id"`
	PostsCount int64  `json:"posts_count" bson:"posts_count"`
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	EnsureIndexes(ctx context.Context) error
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListPosts(ctx context.Context, filter PostFilter, skip, limit int64) ([]models.Post, error)
	Search(ctx context.Context, query string, skip, limit int64) ([]models.Post, error)
	Trending(ctx context.Context, since time.Time, limit int64) ([]models.Post, error)
	TagCounts(ctx context.Context, limit int64) ([]TagCount, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	IncrementCounter(ctx context.Context, id, field string, delta int) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the slug, author and full-text indexes. Safe to call on every start.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "tags", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "content", Value: "text"},
				{Key: "tags", Value: "text"},
			},
			Options: options.Index().SetWeights(bson.D{
				{Key: "title", Value: 10},
				{Key: "tags", Value: 5},
				{Key: "content", Value: 1},
			}),
		},
	})
	return err
}

func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	now := time.Now()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidPostID
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *MongoPostRepository) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *MongoPostRepository) findOne(ctx context.Context, filter bson.M) (*models.Post, error) {
	var post models.Post
	if err := r.collection.FindOne(ctx, filter).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *MongoPostRepository) ListPosts(ctx context.Context, filter PostFilter, skip, limit int64) ([]models.Post, error) {
	query := bson.M{}
	if filter.AuthorID != 0 {
		query["author_id"] = filter.AuthorID
	}
	if len(filter.AuthorIDs) > 0 {
		query["author_id"] = bson.M{"$in": filter.AuthorIDs}
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Tag != "" {
		query["tags"] = filter.Tag
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, query, findOptions)
}

// Search runs a $text query over published posts, best matches first.
func (r *MongoPostRepository) Search(ctx context.Context, query string, skip, limit int64) ([]models.Post, error) {
	filter := bson.M{
		"$text":  bson.M{"$search": query},
		"status": models.PostStatusPublished,
	}
	findOptions := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetSkip(skip).
		SetLimit(limit)
	return r.find(ctx, filter, findOptions)
}

// Trending returns posts published since the given time ranked by likes, then
// comments, then views.
func (r *MongoPostRepository) Trending(ctx context.Context, since time.Time, limit int64) ([]models.Post, error) {
	filter := bson.M{
		"status":       models.PostStatusPublished,
		"published_at": bson.M{"$gte": since},
	}
	findOptions := options.Find().
		SetSort(bson.D{
			{Key: "likes_count", Value: -1},
			{Key: "comments_count", Value: -1},
			{Key: "views_count", Value: -1},
		}).
		SetLimit(limit)
	return r.find(ctx, filter, findOptions)
}

// TagCounts aggregates the tags of published posts, most used first.
func (r *MongoPostRepository) TagCounts(ctx context.Context, limit int64) ([]TagCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.PostStatusPublished}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "posts_count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "posts_count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := []TagCount{}
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *MongoPostRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Post, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost writes the editable fields of post back to its document.
func (r *MongoPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":        post.Title,
			"content":      post.Content,
			"content_html": post.ContentHTML,
			"excerpt":      post.Excerpt,
			"status":       post.Status,
			"tags":         post.Tags,
			"published_at": post.PublishedAt,
			"updated_at":   post.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidPostID
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// IncrementCounter adjusts one of likes_count, comments_count, bookmarks_count or views_count.
func (r *MongoPostRepository) IncrementCounter(ctx context.Context, id, field string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidPostID
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{field: delta}})
	return err
}
