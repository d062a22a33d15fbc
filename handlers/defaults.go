// Package handlers provides the built-in event handlers: persistence to
// the event store and broadcast to the live event stream. Applications
// register their own handlers next to these.
package handlers

import (
	"context"
	"fmt"

	"github.com/sarrtle/fbtools/events"
	"github.com/sarrtle/fbtools/models"
	"github.com/sarrtle/fbtools/services"
)

// All six event types, used to register the catch-all handlers.
var allEventTypes = []string{
	events.TypeNewPost,
	events.TypePostReaction,
	events.TypeComment,
	events.TypeCommentReaction,
	events.TypeMessage,
	events.TypeMessageReaction,
}

// RegisterDefaults wires the built-in handlers into the dispatcher at
// priority 0. A nil store or stream disables the respective handler.
func RegisterDefaults(d *events.Dispatcher, store *services.EventStore, stream *services.EventStream) {
	if store != nil {
		for _, eventType := range allEventTypes {
			d.Register(eventType, 0, storeEvent(store))
		}
	}
	if stream != nil {
		for _, eventType := range allEventTypes {
			d.Register(eventType, 0, broadcastEvent(stream))
		}
	}
}

// storeEvent persists each event kind into its collection.
func storeEvent(store *services.EventStore) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		switch ev := event.(type) {
		case *events.NewPost:
			return store.SavePost(ctx, &models.StoredPost{
				PostID:         ev.PostID,
				PageID:         ev.PageID,
				Message:        ev.Message,
				WithAttachment: ev.WithAttachment,
				CreatedTime:    ev.CreatedTime,
			})

		case *events.Comment:
			return store.SaveComment(ctx, &models.StoredComment{
				CommentID:      ev.CommentID,
				PostID:         ev.PostID,
				ParentID:       ev.ParentID,
				PageID:         ev.PageID,
				SenderID:       ev.From.ID,
				SenderName:     ev.From.Name,
				Message:        ev.Message,
				IsReply:        ev.IsReply,
				WithAttachment: ev.WithAttachment,
				CreatedTime:    ev.CreatedTime,
			})

		case *events.Message:
			return store.SaveMessage(ctx, &models.StoredMessage{
				MID:            ev.MID,
				SenderID:       ev.SenderID,
				RecipientID:    ev.RecipientID,
				PageID:         ev.PageID,
				Text:           ev.Text,
				WithAttachment: ev.WithAttachment,
				Timestamp:      ev.Timestamp,
			})

		case *events.PostReaction:
			return store.SaveReaction(ctx, &models.StoredReaction{
				TargetKind:   "post",
				TargetID:     ev.PostID,
				PageID:       ev.PageID,
				SenderID:     ev.From.ID,
				ReactionType: ev.ReactionType,
				CreatedTime:  ev.CreatedTime,
			})

		case *events.CommentReaction:
			return store.SaveReaction(ctx, &models.StoredReaction{
				TargetKind:   "comment",
				TargetID:     ev.CommentID,
				PageID:       ev.PageID,
				SenderID:     ev.From.ID,
				ReactionType: ev.ReactionType,
				CreatedTime:  ev.CreatedTime,
			})

		case *events.MessageReaction:
			return store.SaveReaction(ctx, &models.StoredReaction{
				TargetKind:   "message",
				TargetID:     ev.MID,
				PageID:       ev.PageID,
				SenderID:     ev.SenderID,
				ReactionType: ev.Reaction,
				CreatedTime:  ev.Timestamp,
			})
		}

		return fmt.Errorf("no storage mapping for event type %s", event.EventType())
	}
}

// broadcastEvent forwards every event to the live stream.
func broadcastEvent(stream *services.EventStream) events.Handler {
	return func(_ context.Context, event events.Event) error {
		stream.Broadcast(event.EventType(), event)
		return nil
	}
}
