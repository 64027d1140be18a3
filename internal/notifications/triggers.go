package notifications

import (
	"fmt"
	"regexp"

	"github.com/devconnect/backend/internal/models"
)

// NotificationTrigger turns a newly recorded social action into the parameters
// of a notification. ok is false when the action must not notify anyone, most
// often because the actor would notify themselves.
type NotificationTrigger interface {
	Notification() (params CreateParams, ok bool)
}

// LikeEvent fires when a like row is created on a post, comment or snippet.
type LikeEvent struct {
	Actor  Actor
	Target Target
}

func (e LikeEvent) Notification() (CreateParams, bool) {
	if !notifiable(e.Actor, e.Target.OwnerID()) {
		return CreateParams{}, false
	}
	return CreateParams{
		RecipientID: e.Target.OwnerID(),
		SenderID:    senderID(e.Actor),
		Type:        models.NotificationLike,
		Title:       "New like",
		Message:     fmt.Sprintf("%s liked your %s%s", e.Actor.Username, e.Target.Noun(), titled(e.Target)),
		Link:        e.Target.Link(),
		Data:        withActor(e.Target.payload(), e.Actor),
	}, true
}

// CommentEvent fires when a comment is created on a post or snippet. A reply
// (Parent set) notifies the parent comment's author with kind reply instead of
// notifying the content author.
type CommentEvent struct {
	Actor     Actor
	Target    Target
	CommentID uint
	Excerpt   string
	Parent    *CommentTarget
}

func (e CommentEvent) Notification() (CreateParams, bool) {
	if e.Parent != nil {
		if !notifiable(e.Actor, e.Parent.AuthorID) {
			return CreateParams{}, false
		}
		reply := CommentTarget{ID: e.CommentID, PostID: e.Parent.PostID, PostSlug: e.Parent.PostSlug}
		data := withActor(reply.payload(), e.Actor)
		data["parent_id"] = e.Parent.ID
		return CreateParams{
			RecipientID: e.Parent.AuthorID,
			SenderID:    senderID(e.Actor),
			Type:        models.NotificationReply,
			Title:       "New reply",
			Message:     fmt.Sprintf("%s replied to your comment: %s", e.Actor.Username, e.Excerpt),
			Link:        reply.Link(),
			Data:        data,
		}, true
	}

	if !notifiable(e.Actor, e.Target.OwnerID()) {
		return CreateParams{}, false
	}
	data := withActor(e.Target.payload(), e.Actor)
	data["comment_id"] = e.CommentID
	link := e.Target.Link()
	if _, ok := e.Target.(PostTarget); ok {
		link = fmt.Sprintf("%s#comment-%d", link, e.CommentID)
	}
	return CreateParams{
		RecipientID: e.Target.OwnerID(),
		SenderID:    senderID(e.Actor),
		Type:        models.NotificationComment,
		Title:       "New comment",
		Message:     fmt.Sprintf("%s commented on your %s%s: %s", e.Actor.Username, e.Target.Noun(), titled(e.Target), e.Excerpt),
		Link:        link,
		Data:        data,
	}, true
}

// MentionEvent fires for each @username found in a new comment.
type MentionEvent struct {
	Actor     Actor
	Mentioned UserTarget
	// Where is the comment containing the mention.
	Where Target
}

func (e MentionEvent) Notification() (CreateParams, bool) {
	if !notifiable(e.Actor, e.Mentioned.ID) {
		return CreateParams{}, false
	}
	return CreateParams{
		RecipientID: e.Mentioned.ID,
		SenderID:    senderID(e.Actor),
		Type:        models.NotificationMention,
		Title:       "You were mentioned",
		Message:     fmt.Sprintf("%s mentioned you in a %s", e.Actor.Username, e.Where.Noun()),
		Link:        e.Where.Link(),
		Data:        withActor(e.Where.payload(), e.Actor),
	}, true
}

type BookmarkEvent struct {
	Actor Actor
	Post  PostTarget
}

func (e BookmarkEvent) Notification() (CreateParams, bool) {
	if !notifiable(e.Actor, e.Post.AuthorID) {
		return CreateParams{}, false
	}
	data := withActor(e.Post.payload(), e.Actor)
	data["event"] = "bookmark"
	return CreateParams{
		RecipientID: e.Post.AuthorID,
		SenderID:    senderID(e.Actor),
		Type:        models.NotificationPost,
		Title:       "Post bookmarked",
		Message:     fmt.Sprintf("%s bookmarked your post%s", e.Actor.Username, titled(e.Post)),
		Link:        e.Post.Link(),
		Data:        data,
	}, true
}

// FollowEvent fires when a follow edge is created. Self-follows are rejected
// before the edge exists; the check here only keeps the invariant local.
type FollowEvent struct {
	Actor    Actor
	Followed UserTarget
}

func (e FollowEvent) Notification() (CreateParams, bool) {
	if !notifiable(e.Actor, e.Followed.ID) {
		return CreateParams{}, false
	}
	follower := UserTarget{ID: e.Actor.ID, Username: e.Actor.Username}
	return CreateParams{
		RecipientID: e.Followed.ID,
		SenderID:    senderID(e.Actor),
		Type:        models.NotificationFollow,
		Title:       "New follower",
		Message:     fmt.Sprintf("%s started following you", e.Actor.Username),
		Link:        follower.Link(),
		Data:        withActor(map[string]interface{}{}, e.Actor),
	}, true
}

// ForkEvent fires when Fork is created as a copy of Source.
type ForkEvent struct {
	Actor  Actor
	Source SnippetTarget
	Fork   SnippetTarget
}

func (e ForkEvent) Notification() (CreateParams, bool) {
	if !notifiable(e.Actor, e.Source.AuthorID) {
		return CreateParams{}, false
	}
	data := withActor(e.Source.payload(), e.Actor)
	data["event"] = "fork"
	data["fork_id"] = e.Fork.ID
	return CreateParams{
		RecipientID: e.Source.AuthorID,
		SenderID:    senderID(e.Actor),
		Type:        models.NotificationPost,
		Title:       "Snippet forked",
		Message:     fmt.Sprintf("%s forked your snippet%s", e.Actor.Username, titled(e.Source)),
		Link:        e.Fork.Link(),
		Data:        data,
	}, true
}

var mentionPattern = regexp.MustCompile(`(?:^|[^\w@])@([A-Za-z0-9]{3,150})\b`)

// ExtractMentions returns the distinct usernames mentioned with @ in text, in
// order of first appearance.
func ExtractMentions(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

func notifiable(actor Actor, recipientID uint) bool {
	return recipientID != 0 && recipientID != actor.ID
}

func senderID(a Actor) *uint {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

func withActor(data map[string]interface{}, a Actor) map[string]interface{} {
	data["actor_id"] = a.ID
	data["actor_username"] = a.Username
	return data
}

func titled(t Target) string {
	var title string
	switch v := t.(type) {
	case PostTarget:
		title = v.Title
	case SnippetTarget:
		title = v.Title
	}
	if title == "" {
		return ""
	}
	return fmt.Sprintf(" %q", title)
}
