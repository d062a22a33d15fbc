package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoredPost is a post notification persisted from the webhook pipeline.
type StoredPost struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID         string             `bson:"post_id" json:"post_id"`
	PageID         string             `bson:"page_id" json:"page_id"`
	Message        string             `bson:"message" json:"message"`
	WithAttachment bool               `bson:"with_attachment" json:"with_attachment"`
	CreatedTime    int64              `bson:"created_time" json:"created_time"`
	ReceivedAt     time.Time          `bson:"received_at" json:"received_at"`
}

// StoredComment is a comment or reply persisted from the webhook pipeline.
type StoredComment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CommentID      string             `bson:"comment_id" json:"comment_id"`
	PostID         string             `bson:"post_id" json:"post_id"`
	ParentID       string             `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	PageID         string             `bson:"page_id" json:"page_id"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	SenderName     string             `bson:"sender_name" json:"sender_name"`
	Message        string             `bson:"message" json:"message"`
	IsReply        bool               `bson:"is_reply" json:"is_reply"`
	WithAttachment bool               `bson:"with_attachment" json:"with_attachment"`
	CreatedTime    int64              `bson:"created_time" json:"created_time"`
	ReceivedAt     time.Time          `bson:"received_at" json:"received_at"`
}

// StoredMessage is a Messenger message persisted from the webhook pipeline.
type StoredMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MID            string             `bson:"mid" json:"mid"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	RecipientID    string             `bson:"recipient_id" json:"recipient_id"`
	PageID         string             `bson:"page_id" json:"page_id"`
	Text           string             `bson:"text" json:"text"`
	WithAttachment bool               `bson:"with_attachment" json:"with_attachment"`
	Timestamp      int64              `bson:"timestamp" json:"timestamp"`
	ReceivedAt     time.Time          `bson:"received_at" json:"received_at"`
}

// StoredReaction is a post, comment or message reaction persisted from
// the webhook pipeline.
type StoredReaction struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TargetKind   string             `bson:"target_kind" json:"target_kind"` // post, comment or message
	TargetID     string             `bson:"target_id" json:"target_id"`
	PageID       string             `bson:"page_id" json:"page_id"`
	SenderID     string             `bson:"sender_id" json:"sender_id"`
	ReactionType string             `bson:"reaction_type" json:"reaction_type"`
	CreatedTime  int64              `bson:"created_time" json:"created_time"`
	ReceivedAt   time.Time          `bson:"received_at" json:"received_at"`
}
