// Package events turns validated webhook entries into typed domain
// events and dispatches them to registered handlers.
package events

import (
	"github.com/sarrtle/fbtools/services"
	"github.com/sarrtle/fbtools/webhooks"
)

// Event type names used for handler registration and stream frames.
const (
	TypeNewPost         = "new_post"
	TypePostReaction    = "post_reaction"
	TypeComment         = "comment"
	TypeCommentReaction = "comment_reaction"
	TypeMessage         = "message"
	TypeMessageReaction = "message_reaction"
)

// Event is implemented by every domain event the dispatcher can route.
type Event interface {
	EventType() string
}

// NewPost fires when the page publishes or edits a post.
type NewPost struct {
	// Post is a lazy handle for follow-up Graph API calls. Not
	// initialized by the classifier.
	Post *services.Post `json:"-"`

	PageID         string `json:"page_id"`
	PostID         string `json:"post_id"`
	Message        string `json:"message"`
	CreatedTime    int64  `json:"created_time"`
	WithAttachment bool   `json:"with_attachment"`
}

// PostReaction fires when someone reacts to a post.
type PostReaction struct {
	Post *services.Post `json:"-"`

	PageID       string        `json:"page_id"`
	PostID       string        `json:"post_id"`
	From         webhooks.User `json:"from"`
	ReactionType string        `json:"reaction_type"`
	CreatedTime  int64         `json:"created_time"`
}

// Comment fires when someone comments on a post or replies to a comment.
type Comment struct {
	Comment *services.Comment `json:"-"`

	PageID         string        `json:"page_id"`
	CommentID      string        `json:"comment_id"`
	PostID         string        `json:"post_id"`
	ParentID       string        `json:"parent_id"`
	From           webhooks.User `json:"from"`
	Message        string        `json:"message"`
	CreatedTime    int64         `json:"created_time"`
	IsReply        bool          `json:"is_reply"`
	WithAttachment bool          `json:"with_attachment"`
}

// CommentReaction fires when someone reacts to a comment.
type CommentReaction struct {
	Comment *services.Comment `json:"-"`

	PageID       string        `json:"page_id"`
	CommentID    string        `json:"comment_id"`
	PostID       string        `json:"post_id"`
	From         webhooks.User `json:"from"`
	ReactionType string        `json:"reaction_type"`
	CreatedTime  int64         `json:"created_time"`
}

// Message fires when someone messages the page. Echo events (the page's
// own outbound messages) do not produce this event.
type Message struct {
	Message *services.Message `json:"-"`

	PageID         string                       `json:"page_id"`
	MID            string                       `json:"mid"`
	SenderID       string                       `json:"sender_id"`
	RecipientID    string                       `json:"recipient_id"`
	Text           string                       `json:"text"`
	Attachments    []webhooks.MessageAttachment `json:"attachments,omitempty"`
	QuickReply     *webhooks.QuickReply         `json:"quick_reply,omitempty"`
	ReplyToMID     string                       `json:"reply_to_mid,omitempty"`
	Timestamp      int64                        `json:"timestamp"`
	WithAttachment bool                         `json:"with_attachment"`
}

// MessageReaction fires when someone reacts to a message.
type MessageReaction struct {
	Message *services.Message `json:"-"`

	PageID      string `json:"page_id"`
	MID         string `json:"mid"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Emoji       string `json:"emoji,omitempty"`
	Reaction    string `json:"reaction,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

func (*NewPost) EventType() string         { return TypeNewPost }
func (*PostReaction) EventType() string    { return TypePostReaction }
func (*Comment) EventType() string         { return TypeComment }
func (*CommentReaction) EventType() string { return TypeCommentReaction }
func (*Message) EventType() string         { return TypeMessage }
func (*MessageReaction) EventType() string { return TypeMessageReaction }
