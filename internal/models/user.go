package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	Username           string    `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email              string    `json:"email" gorm:"uniqueIndex;not null"`
	Password           string    `json:"-"`
	FirebaseUID        *string   `json:"-" gorm:"uniqueIndex"`
	Bio                string    `json:"bio" gorm:"size:500"`
	Location           string    `json:"location" gorm:"size:100"`
	Website            string    `json:"website" gorm:"size:200"`
	GithubUsername     string    `json:"github_username" gorm:"size:39"`
	Reputation         int       `json:"reputation"`
	PostsCount         int       `json:"posts_count"`
	SnippetsCount      int       `json:"snippets_count"`
	FollowersCount     int       `json:"followers_count"`
	FollowingCount     int       `json:"following_count"`
	EmailNotifications bool      `json:"email_notifications" gorm:"default:true"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UserCompact is the author/sender shape embedded in other responses.
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type FirebaseLoginRequest struct {
	IDToken  string `json:"id_token" validate:"required"`
	Username string `json:"username" validate:"omitempty,min=3,max=150,alphanum"`
}

type UpdateUserRequest struct {
	Bio                *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Location           *string `json:"location,omitempty" validate:"omitempty,max=100"`
	Website            *string `json:"website,omitempty" validate:"omitempty,url,max=200"`
	GithubUsername     *string `json:"github_username,omitempty" validate:"omitempty,max=39"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
