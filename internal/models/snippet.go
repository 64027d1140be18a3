package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

// Snippet is a shareable piece of code. Forks keep a pointer to the snippet
// they were copied from.
type Snippet struct {
	ID           uint                        `json:"id" gorm:"primaryKey"`
	AuthorID     uint                        `json:"author_id" gorm:"index;not null"`
	Title        string                      `json:"title" gorm:"size:200;not null"`
	Slug         string                      `json:"slug" gorm:"size:250;uniqueIndex;not null"`
	Description  string                      `json:"description" gorm:"size:500"`
	Code         string                      `json:"code" gorm:"type:text;not null"`
	Language     string                      `json:"language" gorm:"size:50;index"`
	Visibility   string                      `json:"visibility" gorm:"size:10;default:public;index"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`
	ViewsCount   int                         `json:"views_count"`
	LikesCount   int                         `json:"likes_count"`
	ForksCount   int                         `json:"forks_count"`
	ForkedFromID *uint                       `json:"forked_from_id,omitempty" gorm:"index"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// SnippetComment may point at a specific line of the snippet.
type SnippetComment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SnippetID  uint      `json:"snippet_id" gorm:"index"`
	AuthorID   uint      `json:"author_id" gorm:"index"`
	Content    string    `json:"content" gorm:"size:1000"`
	LineNumber *int      `json:"line_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateSnippetRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Code        string   `json:"code" validate:"required"`
	Language    string   `json:"language" validate:"required,max=50"`
	Visibility  string   `json:"visibility,omitempty" validate:"omitempty,oneof=public unlisted private"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
}

type UpdateSnippetRequest struct {
	Title       string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Code        string   `json:"code,omitempty"`
	Language    string   `json:"language,omitempty" validate:"omitempty,max=50"`
	Visibility  string   `json:"visibility,omitempty" validate:"omitempty,oneof=public unlisted private"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
}

type CreateSnippetCommentRequest struct {
	Content    string `json:"content" validate:"required,min=1,max=1000"`
	LineNumber *int   `json:"line_number,omitempty" validate:"omitempty,min=1"`
}
