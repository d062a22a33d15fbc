package webhooks

import (
	"encoding/json"
)

type rawEnvelope struct {
	Object string     `json:"object"`
	Entry  []rawEntry `json:"entry"`
}

type rawEntry struct {
	ID        string              `json:"id"`
	Time      int64               `json:"time"`
	Changes   []rawChange         `json:"changes"`
	Messaging []rawMessagingEvent `json:"messaging"`
}

type rawChange struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// ParseEnvelope validates a raw webhook body into an Envelope. Every
// failure is a *SchemaError; the caller decides whether to expose the
// detail or just drop the payload.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &SchemaError{Detail: "malformed JSON: " + err.Error()}
	}

	if env.Object == "" {
		return nil, &SchemaError{Field: "object", Detail: "missing object kind"}
	}
	if len(env.Entry) == 0 {
		return nil, &SchemaError{Field: "entry", Detail: "missing or empty entry list"}
	}

	out := &Envelope{Object: env.Object, Entries: make([]Entry, 0, len(env.Entry))}
	for _, re := range env.Entry {
		entry, err := parseEntry(&re)
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, *entry)
	}

	return out, nil
}

func parseEntry(re *rawEntry) (*Entry, error) {
	if len(re.Changes) > 0 && len(re.Messaging) > 0 {
		return nil, &SchemaError{Field: "entry", Detail: "entry carries both changes and messaging"}
	}
	if len(re.Changes) == 0 && len(re.Messaging) == 0 {
		return nil, &SchemaError{Field: "entry", Detail: "entry carries neither changes nor messaging"}
	}

	entry := &Entry{ID: re.ID, Time: re.Time}

	for _, rc := range re.Changes {
		change, err := parseChange(&rc)
		if err != nil {
			return nil, err
		}
		entry.Changes = append(entry.Changes, *change)
	}

	for _, rm := range re.Messaging {
		payload, err := resolveMessagingPayload(&rm)
		if err != nil {
			return nil, err
		}
		entry.Messaging = append(entry.Messaging, MessagingEvent{
			Sender:    rm.Sender,
			Recipient: rm.Recipient,
			Timestamp: rm.Timestamp,
			Payload:   payload,
		})
	}

	return entry, nil
}

func parseChange(rc *rawChange) (*FeedChange, error) {
	if rc.Field != "feed" {
		// Fields like name, picture or bio are not modeled; carried as
		// an explicit unhandled variant so the classifier can skip them.
		return &FeedChange{Field: rc.Field, Value: &UnsupportedChange{Field: rc.Field}}, nil
	}

	if len(rc.Value) == 0 {
		return nil, &SchemaError{Field: "value", Detail: "feed change without value"}
	}

	var raw rawFeedValue
	if err := json.Unmarshal(rc.Value, &raw); err != nil {
		return nil, &SchemaError{Field: "value", Detail: "malformed feed change value: " + err.Error()}
	}

	value, err := resolveFeedValue(&raw)
	if err != nil {
		return nil, err
	}

	return &FeedChange{Field: rc.Field, Value: value}, nil
}
