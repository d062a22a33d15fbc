package services

import (
	"context"
	"sync"
)

// Post is a lazily initialized handle on a Graph API post node. Events
// carry the handle without touching the network; call Init when deep
// data is actually needed.
type Post struct {
	client *GraphClient

	PostID       string
	Message      string
	StatusType   string
	CreatedTime  string
	PermalinkURL string

	mu          sync.Mutex
	initialized bool
}

// NewPost creates an uninitialized handle for the given post id.
func NewPost(client *GraphClient, postID string) *Post {
	return &Post{client: client, PostID: postID}
}

// Init fetches the post's fields from the Graph API. Repeat calls are
// no-ops.
func (p *Post) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	var result struct {
		Message      string `json:"message"`
		StatusType   string `json:"status_type"`
		CreatedTime  string `json:"created_time"`
		PermalinkURL string `json:"permalink_url"`
	}
	if err := p.client.GetObject(ctx, p.PostID, "message,status_type,created_time,permalink_url", &result); err != nil {
		return err
	}

	p.Message = result.Message
	p.StatusType = result.StatusType
	p.CreatedTime = result.CreatedTime
	p.PermalinkURL = result.PermalinkURL
	p.initialized = true
	return nil
}

// Update rewrites the post's message.
func (p *Post) Update(ctx context.Context, message string) error {
	var result struct {
		Success bool `json:"success"`
	}
	if err := p.client.PostObject(ctx, p.PostID, map[string]string{"message": message}, &result); err != nil {
		return err
	}

	p.mu.Lock()
	p.Message = message
	p.mu.Unlock()
	return nil
}

// Comment writes a top-level comment on the post and returns a handle on
// the new comment.
func (p *Post) Comment(ctx context.Context, message string) (*Comment, error) {
	commentID, err := p.client.ReplyToComment(ctx, p.PostID, message)
	if err != nil {
		return nil, err
	}
	return NewComment(p.client, commentID, p.PostID), nil
}
