package notifications

import "fmt"

// Target is the resource a social action was performed on. The set of
// implementations is closed: PostTarget, CommentTarget, SnippetTarget, UserTarget.
type Target interface {
	// OwnerID is the user who should hear about actions on the target.
	OwnerID() uint
	Link() string
	// Noun names the target in display text ("post", "comment", ...).
	Noun() string
	payload() map[string]interface{}
}

type PostTarget struct {
	ID       string
	Slug     string
	Title    string
	AuthorID uint
}

func (t PostTarget) OwnerID() uint { return t.AuthorID }
func (t PostTarget) Link() string  { return "/posts/" + t.Slug }
func (t PostTarget) Noun() string  { return "post" }
func (t PostTarget) payload() map[string]interface{} {
	return map[string]interface{}{"target_type": "post", "post_id": t.ID, "post_slug": t.Slug}
}

// CommentTarget is a comment on a post.
type CommentTarget struct {
	ID       uint
	PostID   string
	PostSlug string
	AuthorID uint
}

func (t CommentTarget) OwnerID() uint { return t.AuthorID }
func (t CommentTarget) Link() string  { return fmt.Sprintf("/posts/%s#comment-%d", t.PostSlug, t.ID) }
func (t CommentTarget) Noun() string  { return "comment" }
func (t CommentTarget) payload() map[string]interface{} {
	return map[string]interface{}{"target_type": "comment", "comment_id": t.ID, "post_id": t.PostID}
}

type SnippetTarget struct {
	ID       uint
	Slug     string
	Title    string
	AuthorID uint
}

func (t SnippetTarget) OwnerID() uint { return t.AuthorID }
func (t SnippetTarget) Link() string  { return "/snippets/" + t.Slug }
func (t SnippetTarget) Noun() string  { return "snippet" }
func (t SnippetTarget) payload() map[string]interface{} {
	return map[string]interface{}{"target_type": "snippet", "snippet_id": t.ID, "snippet_slug": t.Slug}
}

type UserTarget struct {
	ID       uint
	Username string
}

func (t UserTarget) OwnerID() uint { return t.ID }
func (t UserTarget) Link() string  { return "/users/" + t.Username }
func (t UserTarget) Noun() string  { return "profile" }
func (t UserTarget) payload() map[string]interface{} {
	return map[string]interface{}{"target_type": "user", "user_id": t.ID}
}

// Actor is the user who performed the action.
type Actor struct {
	ID       uint
	Username string
}
