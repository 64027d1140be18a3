package repositories

import "errors"

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrInvalidPostID = errors.New("invalid post ID format")
	ErrNotFound      = errors.New("record not found")
)
