package models

// All lists the relational models for AutoMigrate. Posts live in MongoDB.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&Like{},
		&CommentLike{},
		&Comment{},
		&Bookmark{},
		&Snippet{},
		&SnippetLike{},
		&SnippetComment{},
		&Notification{},
	}
}
