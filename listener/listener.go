// Package listener is the webhook endpoint adapter: it verifies the
// subscription handshake, validates inbound payloads and feeds them
// through the dedup/classify/dispatch pipeline.
package listener

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/sarrtle/fbtools/config"
	"github.com/sarrtle/fbtools/events"
	"github.com/sarrtle/fbtools/middleware"
	"github.com/sarrtle/fbtools/services"
	"github.com/sarrtle/fbtools/webhooks"
)

// Listener owns the processing chain for inbound webhook requests. All
// collaborators are injected; the process-lifetime instances live at the
// composition root.
type Listener struct {
	cfg        *config.Config
	cache      *services.DedupCache
	classifier *events.Classifier
	dispatcher *events.Dispatcher
}

// New creates a listener around the given pipeline components.
func New(cfg *config.Config, cache *services.DedupCache, classifier *events.Classifier, dispatcher *events.Dispatcher) *Listener {
	return &Listener{
		cfg:        cfg,
		cache:      cache,
		classifier: classifier,
		dispatcher: dispatcher,
	}
}

// RegisterRoutes mounts the webhook endpoints on the app.
func (l *Listener) RegisterRoutes(app *fiber.App) {
	webhook := app.Group("/webhook")

	// Webhook verification endpoint
	webhook.Get("/", l.verifyWebhook)

	// Webhook event handler
	webhook.Post("/", middleware.VerifySignature(l.cfg.AppSecret), l.handleWebhookEvent)
}

// verifyWebhook handles the one-time subscription verification
// handshake: echo hub.challenge when the verify token matches.
func (l *Listener) verifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == l.cfg.VerifyToken {
		slog.Info("Webhook verified successfully")
		return c.SendString(challenge)
	}

	slog.Warn("Webhook verification failed", "mode", mode)
	return c.SendStatus(fiber.StatusForbidden)
}

// handleWebhookEvent processes an incoming webhook notification.
//
// Dispatch is awaited within the request rather than spawned as a
// detached task, so handler failures always reach the error log with
// the request still in scope. The platform still gets a 200 either way:
// accepting the notification and completing its side effects are
// deliberately decoupled, webhooks are not redelivered on our errors.
func (l *Listener) handleWebhookEvent(c *fiber.Ctx) error {
	envelope, err := webhooks.ParseEnvelope(c.Body())
	if err != nil {
		var schemaErr *webhooks.SchemaError
		if errors.As(err, &schemaErr) {
			slog.Warn("Dropping webhook payload that failed validation", "error", err)
			if l.cfg.DebugWebhook {
				slog.Debug("Invalid webhook payload", "body", string(c.Body()))
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"detail": []string{schemaErr.Error()},
				})
			}
			return c.Status(fiber.StatusUnprocessableEntity).SendString("invalid payload")
		}
		return err
	}

	// Only page events are processed
	if envelope.Object != "page" {
		return c.SendStatus(fiber.StatusNotFound)
	}

	for _, entry := range envelope.Entries {
		entry.Changes = l.filterSuppressed(entry.Changes)

		for _, event := range l.classifier.Classify(entry) {
			if err := l.dispatcher.Invoke(c.UserContext(), event); err != nil {
				var dispatchErr *events.DispatchError
				if errors.As(err, &dispatchErr) {
					slog.Error("Event handlers failed",
						"eventType", dispatchErr.EventType,
						"priority", dispatchErr.Priority,
						"failed", len(dispatchErr.Errors),
						"error", err,
					)
					continue
				}
				slog.Error("Event dispatch failed", "eventType", event.EventType(), "error", err)
			}
		}
	}

	return c.SendString("EVENT_RECEIVED")
}

// filterSuppressed drops re-sent "edited" photo post notifications.
// Facebook keeps re-sending those for profile picture comment threads
// with nothing changed but the CDN link.
func (l *Listener) filterSuppressed(changes []webhooks.FeedChange) []webhooks.FeedChange {
	if len(changes) == 0 {
		return changes
	}

	kept := changes[:0:0]
	for _, change := range changes {
		if v, ok := change.Value.(*webhooks.NewPostWithPhoto); ok && v.Verb == webhooks.VerbEdited {
			if l.cache.ShouldSuppress(v.Fingerprint()) {
				slog.Debug("Suppressing re-sent edited notification", "postID", v.PostID)
				continue
			}
		}
		kept = append(kept, change)
	}
	return kept
}
