package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultGraphBaseURL = "https://graph.facebook.com"

// GraphClient performs Graph API calls on behalf of a page. All follow-up
// calls triggered by webhook events go through one client so they share
// the access token and the rate limit budget.
type GraphClient struct {
	baseURL     string
	version     string
	accessToken string
	httpClient  *http.Client
	limiter     *RateLimiter
}

// NewGraphClient creates a client for the given Graph API version
// (e.g. "v21.0") and page access token.
func NewGraphClient(version, accessToken string) *GraphClient {
	return &GraphClient{
		baseURL:     defaultGraphBaseURL,
		version:     version,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		// Page-level Graph API budget, generous default
		limiter: NewRateLimiter(600),
	}
}

// SetBaseURL overrides the Graph API host. Used in tests.
func (g *GraphClient) SetBaseURL(base string) {
	g.baseURL = base
}

func (g *GraphClient) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", g.baseURL, g.version, path)
}

// GetObject fetches the given fields of a Graph node into out.
func (g *GraphClient) GetObject(ctx context.Context, objectID, fields string, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	u := fmt.Sprintf("%s?fields=%s&access_token=%s",
		g.endpoint(objectID), url.QueryEscape(fields), url.QueryEscape(g.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("Graph API read failed", "objectID", objectID, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("graph api: get %s: %s", objectID, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// PostObject posts a JSON payload to a Graph node and decodes the
// response into out when out is non-nil.
func (g *GraphClient) PostObject(ctx context.Context, path string, payload any, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s?access_token=%s", g.endpoint(path), url.QueryEscape(g.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		slog.Error("Graph API write failed", "path", path, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("graph api: post %s: %s", path, resp.Status)
	}

	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}

// SendMessengerReply sends a text reply to a Messenger recipient.
func (g *GraphClient) SendMessengerReply(ctx context.Context, recipientID, message string) (string, error) {
	payload := map[string]any{
		"recipient":      map[string]string{"id": recipientID},
		"messaging_type": "RESPONSE",
		"message":        map[string]string{"text": message},
	}

	var result struct {
		MessageID string `json:"message_id"`
	}
	if err := g.PostObject(ctx, "me/messages", payload, &result); err != nil {
		return "", err
	}
	return result.MessageID, nil
}

// ReplyToComment replies to a comment and returns the new comment's id.
func (g *GraphClient) ReplyToComment(ctx context.Context, commentID, message string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := g.PostObject(ctx, commentID+"/comments", map[string]string{"message": message}, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// GetPageName retrieves a page's display name.
func (g *GraphClient) GetPageName(ctx context.Context, pageID string) (string, error) {
	var result struct {
		Name string `json:"name"`
	}
	if err := g.GetObject(ctx, pageID, "name", &result); err != nil {
		return "", err
	}
	return result.Name, nil
}

// IsCommentFromPage checks whether a comment was written by the page
// itself, so bots can avoid reacting to their own comments.
func (g *GraphClient) IsCommentFromPage(ctx context.Context, commentID string) (bool, error) {
	var comment struct {
		From struct {
			ID string `json:"id"`
		} `json:"from"`
	}
	if err := g.GetObject(ctx, commentID, "from{id}", &comment); err != nil {
		return false, err
	}

	var page struct {
		ID string `json:"id"`
	}
	if err := g.GetObject(ctx, "me", "id", &page); err != nil {
		return false, err
	}

	return comment.From.ID == page.ID, nil
}
