package models

import "time"

// Comment is a comment on a post. Replies point at their parent comment.
type Comment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PostID      string    `json:"post_id" gorm:"size:24;index"` // MongoDB ObjectID hex
	AuthorID    uint      `json:"author_id" gorm:"index"`
	ParentID    *uint     `json:"parent_id,omitempty" gorm:"index"`
	Content     string    `json:"content" gorm:"size:1000"`
	ContentHTML string    `json:"content_html"`
	LikesCount  int       `json:"likes_count"`
	IsEdited    bool      `json:"is_edited"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=1000"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// UpdateCommentRequest defines the request body for updating an existing comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
