package webhooks

import (
	"fmt"
	"strings"
)

// Envelope is the top-level webhook payload sent by the Graph API.
type Envelope struct {
	Object  string
	Entries []Entry
}

// Entry is one notification unit within an envelope. Exactly one of
// Changes or Messaging is populated, mirroring which key was present
// in the JSON object.
type Entry struct {
	ID        string
	Time      int64
	Changes   []FeedChange
	Messaging []MessagingEvent
}

// User identifies the account behind a change or message.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// PostMeta is the post metadata Facebook attaches to comment changes.
type PostMeta struct {
	StatusType      string `json:"status_type"`
	IsPublished     bool   `json:"is_published"`
	UpdatedTime     string `json:"updated_time"`
	PermalinkURL    string `json:"permalink_url"`
	PromotionStatus string `json:"promotion_status"`
	ID              string `json:"id"`
}

// SchemaError reports a webhook payload that failed structural validation.
// Variant names the shape being validated when one was selected, Field the
// missing or offending field.
type SchemaError struct {
	Variant string
	Field   string
	Detail  string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Variant != "" && e.Field != "":
		return fmt.Sprintf("webhook schema: variant %s missing required field %q", e.Variant, e.Field)
	case e.Field != "":
		return fmt.Sprintf("webhook schema: field %q: %s", e.Field, e.Detail)
	default:
		return "webhook schema: " + e.Detail
	}
}

func missingField(variant, field string) *SchemaError {
	return &SchemaError{Variant: variant, Field: field}
}

func offendingKeys(keys []string) *SchemaError {
	return &SchemaError{
		Field:  "messaging",
		Detail: fmt.Sprintf("expected exactly one payload key, got [%s]", strings.Join(keys, ", ")),
	}
}
