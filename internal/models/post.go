package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// Post is a long-form markdown article stored in MongoDB
type Post struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID       uint               `json:"author_id" bson:"author_id"`
	Title          string             `json:"title" bson:"title"`
	Slug           string             `json:"slug" bson:"slug"`
	Content        string             `json:"content" bson:"content"`
	ContentHTML    string             `json:"content_html" bson:"content_html"`
	Excerpt        string             `json:"excerpt" bson:"excerpt"`
	Status         string             `json:"status" bson:"status"`
	Tags           []string           `json:"tags" bson:"tags"`
	ViewsCount     int                `json:"views_count" bson:"views_count"`
	LikesCount     int                `json:"likes_count" bson:"likes_count"`
	CommentsCount  int                `json:"comments_count" bson:"comments_count"`
	BookmarksCount int                `json:"bookmarks_count" bson:"bookmarks_count"`
	PublishedAt    *time.Time         `json:"published_at,omitempty" bson:"published_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title   string   `json:"title" validate:"required,min=1,max=200"`
	Content string   `json:"content" validate:"required,min=1"`
	Excerpt string   `json:"excerpt,omitempty" validate:"omitempty,max=300"`
	Status  string   `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title   string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content string   `json:"content,omitempty" validate:"omitempty,min=1"`
	Excerpt string   `json:"excerpt,omitempty" validate:"omitempty,max=300"`
	Status  string   `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
}
