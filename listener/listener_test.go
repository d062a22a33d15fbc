package listener

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarrtle/fbtools/config"
	"github.com/sarrtle/fbtools/events"
	"github.com/sarrtle/fbtools/services"
)

const (
	testVerifyToken = "test_verify_token"
	testAppSecret   = "test_app_secret"
)

type capture struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capture) handler(ctx context.Context, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capture) all() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event(nil), c.events...)
}

func newTestApp(t *testing.T, cfg *config.Config) (*fiber.App, *capture) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{VerifyToken: testVerifyToken}
	}

	client := services.NewGraphClient("v21.0", "test-token")
	dispatcher := events.NewDispatcher()
	captured := &capture{}
	for _, eventType := range []string{
		events.TypeNewPost, events.TypePostReaction,
		events.TypeComment, events.TypeCommentReaction,
		events.TypeMessage, events.TypeMessageReaction,
	} {
		dispatcher.Register(eventType, 0, captured.handler)
	}

	app := fiber.New()
	l := New(cfg, services.NewDedupCache(16), events.NewClassifier(client), dispatcher)
	l.RegisterRoutes(app)
	return app, captured
}

func postWebhook(t *testing.T, app *fiber.App, body string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhook_ValidToken(t *testing.T) {
	app, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook/?hub.mode=subscribe&hub.verify_token="+testVerifyToken+"&hub.challenge=1158201444", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "1158201444", string(body))
}

func TestVerifyWebhook_WrongToken(t *testing.T) {
	app, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook/?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=123", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandleWebhookEvent_StatusAdd(t *testing.T) {
	app, captured := newTestApp(t, nil)

	resp := postWebhook(t, app, `{
		"object": "page",
		"entry": [{
			"id": "111",
			"time": 1700000001,
			"changes": [{
				"field": "feed",
				"value": {
					"item": "status",
					"verb": "add",
					"post_id": "111_222",
					"created_time": 1700000000,
					"message": "hello"
				}
			}]
		}]
	}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "EVENT_RECEIVED", string(body))

	all := captured.all()
	require.Len(t, all, 1)
	post, ok := all[0].(*events.NewPost)
	require.True(t, ok, "expected *events.NewPost, got %T", all[0])
	assert.Equal(t, "111_222", post.PostID)
	assert.False(t, post.WithAttachment)
}

func TestHandleWebhookEvent_RemovedReactionStillAccepted(t *testing.T) {
	app, captured := newTestApp(t, nil)

	resp := postWebhook(t, app, `{
		"object": "page",
		"entry": [{
			"id": "111",
			"changes": [{
				"field": "feed",
				"value": {
					"item": "reaction",
					"verb": "remove",
					"post_id": "111_222",
					"parent_id": "111_222",
					"created_time": 1700000000,
					"reaction_type": "like"
				}
			}]
		}]
	}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, captured.all())
}

func TestHandleWebhookEvent_InvalidPayload(t *testing.T) {
	app, _ := newTestApp(t, nil)

	resp := postWebhook(t, app, `{"object": "page", "entry": []}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "invalid payload", string(body))
}

func TestHandleWebhookEvent_InvalidPayloadDebugDetail(t *testing.T) {
	app, _ := newTestApp(t, &config.Config{VerifyToken: testVerifyToken, DebugWebhook: true})

	resp := postWebhook(t, app, `{
		"object": "page",
		"entry": [{
			"id": "111",
			"changes": [{"field": "feed", "value": {"item": "status", "verb": "add", "post_id": "1_2"}}]
		}]
	}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "detail")
	assert.Contains(t, string(body), "message")
}

func TestHandleWebhookEvent_NonPageObject(t *testing.T) {
	app, captured := newTestApp(t, nil)

	resp := postWebhook(t, app, `{
		"object": "instagram",
		"entry": [{"id": "111", "changes": [{"field": "comments", "value": {"text": "x"}}]}]
	}`, nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, captured.all())
}

func TestHandleWebhookEvent_HandlerFailureStillReturns200(t *testing.T) {
	cfg := &config.Config{VerifyToken: testVerifyToken}
	client := services.NewGraphClient("v21.0", "test-token")
	dispatcher := events.NewDispatcher()
	dispatcher.Register(events.TypeNewPost, 0, func(ctx context.Context, e events.Event) error {
		return errors.New("downstream unavailable")
	})

	app := fiber.New()
	l := New(cfg, services.NewDedupCache(16), events.NewClassifier(client), dispatcher)
	l.RegisterRoutes(app)

	resp := postWebhook(t, app, `{
		"object": "page",
		"entry": [{
			"id": "111",
			"changes": [{
				"field": "feed",
				"value": {"item": "status", "verb": "add", "post_id": "111_222", "message": "hi"}
			}]
		}]
	}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "EVENT_RECEIVED", string(body))
}

func TestHandleWebhookEvent_SuppressesRepeatedEditedPhoto(t *testing.T) {
	app, captured := newTestApp(t, nil)

	editedPhoto := `{
		"object": "page",
		"entry": [{
			"id": "111",
			"changes": [{
				"field": "feed",
				"value": {
					"item": "photo",
					"verb": "edited",
					"post_id": "111_222",
					"created_time": 1700000000,
					"message": "pfp thread",
					"link": "https://scontent.example/cdn-LINK",
					"photo_id": "333",
					"published": 1
				}
			}]
		}]
	}`

	resp := postWebhook(t, app, editedPhoto, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, captured.all(), 1)

	// Re-sent with only the CDN link varied: suppressed.
	resend := strings.Replace(editedPhoto, "cdn-LINK", "cdn-OTHER", 1)
	resp = postWebhook(t, app, resend, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, captured.all(), 1, "re-sent edited photo notification must be suppressed")

	// A fresh add of the same photo is not caught by the edited filter.
	added := strings.Replace(editedPhoto, `"verb": "edited"`, `"verb": "add"`, 1)
	resp = postWebhook(t, app, added, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, captured.all(), 2)
}

func TestHandleWebhookEvent_SignatureValidation(t *testing.T) {
	cfg := &config.Config{VerifyToken: testVerifyToken, AppSecret: testAppSecret}
	app, captured := newTestApp(t, cfg)

	body := `{
		"object": "page",
		"entry": [{
			"id": "111",
			"changes": [{
				"field": "feed",
				"value": {"item": "status", "verb": "add", "post_id": "111_222", "message": "signed"}
			}]
		}]
	}`

	resp := postWebhook(t, app, body, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "missing signature must be rejected")

	resp = postWebhook(t, app, body, map[string]string{"X-Hub-Signature-256": "sha256=deadbeef"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "wrong signature must be rejected")
	assert.Empty(t, captured.all())

	resp = postWebhook(t, app, body, map[string]string{"X-Hub-Signature-256": signBody(testAppSecret, body)})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, captured.all(), 1)
}

func TestHandleWebhookEvent_MessagingEntry(t *testing.T) {
	app, captured := newTestApp(t, nil)

	resp := postWebhook(t, app, `{
		"object": "page",
		"entry": [{
			"id": "111",
			"messaging": [{
				"sender": {"id": "555"},
				"recipient": {"id": "111"},
				"timestamp": 1700000002,
				"message": {"mid": "m.1", "text": "hi"}
			}]
		}]
	}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	all := captured.all()
	require.Len(t, all, 1)
	msg, ok := all[0].(*events.Message)
	require.True(t, ok)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "555", msg.SenderID)
}
