package events

import (
	"log/slog"

	"github.com/sarrtle/fbtools/services"
	"github.com/sarrtle/fbtools/webhooks"
)

// Classifier maps validated webhook entries to domain events. It
// performs no I/O; the resource handles on emitted events are created
// uninitialized so handlers that never need deep data cost no API calls.
type Classifier struct {
	client *services.GraphClient
}

// NewClassifier creates a classifier whose emitted events carry handles
// bound to the given Graph client.
func NewClassifier(client *services.GraphClient) *Classifier {
	return &Classifier{client: client}
}

// Classify returns the domain events for one entry. Entries holding only
// shapes or verbs with no event mapping yield an empty slice, which is
// not an error.
func (c *Classifier) Classify(entry webhooks.Entry) []Event {
	var out []Event

	for _, change := range entry.Changes {
		if ev := c.classifyFeedChange(entry.ID, change); ev != nil {
			out = append(out, ev)
		}
	}

	for _, messaging := range entry.Messaging {
		if ev := c.classifyMessaging(entry.ID, messaging); ev != nil {
			out = append(out, ev)
		}
	}

	return out
}

func (c *Classifier) classifyFeedChange(pageID string, change webhooks.FeedChange) Event {
	switch v := change.Value.(type) {
	case *webhooks.NewPost:
		if v.Verb != webhooks.VerbAdd && v.Verb != webhooks.VerbEdited {
			return c.unhandled("feed", "NewPost", v.Verb)
		}
		return &NewPost{
			Post:        services.NewPost(c.client, v.PostID),
			PageID:      pageID,
			PostID:      v.PostID,
			Message:     v.Message,
			CreatedTime: v.CreatedTime,
		}

	case *webhooks.NewPostWithPhoto:
		if v.Verb != webhooks.VerbAdd && v.Verb != webhooks.VerbEdited {
			return c.unhandled("feed", "NewPostWithPhoto", v.Verb)
		}
		return &NewPost{
			Post:           services.NewPost(c.client, v.PostID),
			PageID:         pageID,
			PostID:         v.PostID,
			Message:        v.Message,
			CreatedTime:    v.CreatedTime,
			WithAttachment: true,
		}

	case *webhooks.NewPostWithManyPhotos:
		if v.Verb != webhooks.VerbAdd && v.Verb != webhooks.VerbEdited {
			return c.unhandled("feed", "NewPostWithManyPhotos", v.Verb)
		}
		return &NewPost{
			Post:           services.NewPost(c.client, v.PostID),
			PageID:         pageID,
			PostID:         v.PostID,
			Message:        v.Message,
			CreatedTime:    v.CreatedTime,
			WithAttachment: true,
		}

	case *webhooks.NewPostWithVideo:
		if v.Verb != webhooks.VerbAdd && v.Verb != webhooks.VerbEdited {
			return c.unhandled("feed", "NewPostWithVideo", v.Verb)
		}
		return &NewPost{
			Post:           services.NewPost(c.client, v.PostID),
			PageID:         pageID,
			PostID:         v.PostID,
			Message:        v.Message,
			CreatedTime:    v.CreatedTime,
			WithAttachment: true,
		}

	case *webhooks.ReactionOnPost:
		// Reaction edits and removals have no event mapping yet.
		if v.Verb != webhooks.VerbAdd {
			return c.unhandled("feed", "ReactionOnPost", v.Verb)
		}
		return &PostReaction{
			Post:         services.NewPost(c.client, v.PostID),
			PageID:       pageID,
			PostID:       v.PostID,
			From:         v.From,
			ReactionType: v.ReactionType,
			CreatedTime:  v.CreatedTime,
		}

	case *webhooks.Comment:
		if v.Verb != webhooks.VerbAdd {
			return c.unhandled("feed", "Comment", v.Verb)
		}
		return &Comment{
			Comment:     services.NewComment(c.client, v.CommentID, v.PostID),
			PageID:      pageID,
			CommentID:   v.CommentID,
			PostID:      v.PostID,
			ParentID:    v.ParentID,
			From:        v.From,
			Message:     v.Message,
			CreatedTime: v.CreatedTime,
			IsReply:     v.IsReply,
		}

	case *webhooks.CommentWithPhoto:
		if v.Verb != webhooks.VerbAdd {
			return c.unhandled("feed", "CommentWithPhoto", v.Verb)
		}
		return &Comment{
			Comment:        services.NewComment(c.client, v.CommentID, v.PostID),
			PageID:         pageID,
			CommentID:      v.CommentID,
			PostID:         v.PostID,
			ParentID:       v.ParentID,
			From:           v.From,
			Message:        v.Message,
			CreatedTime:    v.CreatedTime,
			IsReply:        v.IsReply,
			WithAttachment: true,
		}

	case *webhooks.CommentWithVideo:
		if v.Verb != webhooks.VerbAdd {
			return c.unhandled("feed", "CommentWithVideo", v.Verb)
		}
		return &Comment{
			Comment:        services.NewComment(c.client, v.CommentID, v.PostID),
			PageID:         pageID,
			CommentID:      v.CommentID,
			PostID:         v.PostID,
			ParentID:       v.ParentID,
			From:           v.From,
			Message:        v.Message,
			CreatedTime:    v.CreatedTime,
			IsReply:        v.IsReply,
			WithAttachment: true,
		}

	case *webhooks.ReactionOnComment:
		if v.Verb != webhooks.VerbAdd {
			return c.unhandled("feed", "ReactionOnComment", v.Verb)
		}
		return &CommentReaction{
			Comment:      services.NewComment(c.client, v.CommentID, v.PostID),
			PageID:       pageID,
			CommentID:    v.CommentID,
			PostID:       v.PostID,
			From:         v.From,
			ReactionType: v.ReactionType,
			CreatedTime:  v.CreatedTime,
		}

	case *webhooks.UnsupportedChange:
		return c.unhandled(v.Field, "UnsupportedChange", "")
	}

	return nil
}

func (c *Classifier) classifyMessaging(pageID string, m webhooks.MessagingEvent) Event {
	switch p := m.Payload.(type) {
	case *webhooks.TextMessage:
		// Echoes are the page's own outbound messages.
		if p.IsEcho {
			return c.unhandled("messaging", "TextMessage", "echo")
		}
		replyTo := ""
		if p.ReplyTo != nil {
			replyTo = p.ReplyTo.MID
		}
		return &Message{
			Message:        services.NewMessage(c.client, p.MID, m.Sender.ID, m.Recipient.ID, m.Timestamp),
			PageID:         pageID,
			MID:            p.MID,
			SenderID:       m.Sender.ID,
			RecipientID:    m.Recipient.ID,
			Text:           p.Text,
			Attachments:    p.Attachments,
			QuickReply:     p.QuickReply,
			ReplyToMID:     replyTo,
			Timestamp:      m.Timestamp,
			WithAttachment: len(p.Attachments) > 0,
		}

	case *webhooks.MessageReaction:
		if p.Action != webhooks.ReactionActionReact {
			return c.unhandled("messaging", "MessageReaction", p.Action)
		}
		return &MessageReaction{
			Message:     services.NewMessage(c.client, p.MID, m.Sender.ID, m.Recipient.ID, m.Timestamp),
			PageID:      pageID,
			MID:         p.MID,
			SenderID:    m.Sender.ID,
			RecipientID: m.Recipient.ID,
			Emoji:       p.Emoji,
			Reaction:    p.Reaction,
			Timestamp:   m.Timestamp,
		}

	case *webhooks.MessageRead:
		return c.unhandled("messaging", "MessageRead", "")
	case *webhooks.MessageEdit:
		return c.unhandled("messaging", "MessageEdit", "")
	case *webhooks.MessageOptin:
		return c.unhandled("messaging", "MessageOptin", "")
	case *webhooks.MessagePostback:
		return c.unhandled("messaging", "MessagePostback", "")
	case *webhooks.MessagingReferral:
		return c.unhandled("messaging", "MessagingReferral", "")
	}

	return nil
}

// unhandled is the single exit for shapes and verbs that intentionally
// produce no event. Always returns nil; the log line keeps the gap
// visible instead of silently swallowing the branch.
func (c *Classifier) unhandled(field, variant, verb string) Event {
	slog.Debug("No event mapping for webhook payload",
		"field", field,
		"variant", variant,
		"verb", verb,
	)
	return nil
}
