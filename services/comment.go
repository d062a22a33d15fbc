package services

import (
	"context"
	"sync"
)

// Comment is a lazily initialized handle on a Graph API comment node.
type Comment struct {
	client *GraphClient

	CommentID   string
	PostID      string
	Message     string
	AuthorID    string
	AuthorName  string
	CreatedTime string

	mu          sync.Mutex
	initialized bool
}

// NewComment creates an uninitialized handle for the given comment id.
func NewComment(client *GraphClient, commentID, postID string) *Comment {
	return &Comment{client: client, CommentID: commentID, PostID: postID}
}

// Init fetches the comment's fields from the Graph API. Repeat calls are
// no-ops.
func (c *Comment) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	var result struct {
		Message string `json:"message"`
		From    struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"from"`
		CreatedTime string `json:"created_time"`
	}
	if err := c.client.GetObject(ctx, c.CommentID, "message,from,created_time", &result); err != nil {
		return err
	}

	c.Message = result.Message
	c.AuthorID = result.From.ID
	c.AuthorName = result.From.Name
	c.CreatedTime = result.CreatedTime
	c.initialized = true
	return nil
}

// Reply writes a reply under this comment and returns a handle on it.
func (c *Comment) Reply(ctx context.Context, message string) (*Comment, error) {
	replyID, err := c.client.ReplyToComment(ctx, c.CommentID, message)
	if err != nil {
		return nil, err
	}
	return NewComment(c.client, replyID, c.PostID), nil
}

// IsFromPage checks whether the comment was written by the page itself.
func (c *Comment) IsFromPage(ctx context.Context) (bool, error) {
	return c.client.IsCommentFromPage(ctx, c.CommentID)
}
