package models

import "time"

// Like is a like on a post. Posts live in MongoDB, so PostID holds the ObjectID hex.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:24;index;uniqueIndex:idx_post_user_like"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_post_user_like"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"comment_id" gorm:"index;uniqueIndex:idx_comment_user_like"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_comment_user_like"`
	CreatedAt time.Time `json:"created_at"`
}

type SnippetLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SnippetID uint      `json:"snippet_id" gorm:"index;uniqueIndex:idx_snippet_user_like"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_snippet_user_like"`
	CreatedAt time.Time `json:"created_at"`
}
