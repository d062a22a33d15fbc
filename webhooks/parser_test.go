package webhooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope_FeedEntry(t *testing.T) {
	body := `{
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
	}`

	env, err := ParseEnvelope([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "page", env.Object)
	require.Len(t, env.Entries, 1)

	entry := env.Entries[0]
	assert.Equal(t, "111", entry.ID)
	require.Len(t, entry.Changes, 1)
	assert.IsType(t, &NewPost{}, entry.Changes[0].Value)
	assert.Empty(t, entry.Messaging)
}

func TestParseEnvelope_MessagingEntry(t *testing.T) {
	body := `{
		"object": "page",
		"entry": [{
			"id": "111",
			"time": 1700000001,
			"messaging": [{
				"sender": {"id": "555"},
				"recipient": {"id": "111"},
				"timestamp": 1700000002,
				"message": {"mid": "m.1", "text": "hi"}
			}]
		}]
	}`

	env, err := ParseEnvelope([]byte(body))
	require.NoError(t, err)
	require.Len(t, env.Entries, 1)

	entry := env.Entries[0]
	require.Len(t, entry.Messaging, 1)
	msg, ok := entry.Messaging[0].Payload.(*TextMessage)
	require.True(t, ok, "expected *TextMessage, got %T", entry.Messaging[0].Payload)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "555", entry.Messaging[0].Sender.ID)
}

func TestParseEnvelope_NonFeedChangeIsCarried(t *testing.T) {
	// A "name" change is not modeled but must not fail the envelope.
	body := `{
		"object": "page",
		"entry": [{
			"id": "111",
			"changes": [{"field": "name", "value": {"name": "New Page Name"}}]
		}]
	}`

	env, err := ParseEnvelope([]byte(body))
	require.NoError(t, err)
	require.Len(t, env.Entries[0].Changes, 1)

	unsupported, ok := env.Entries[0].Changes[0].Value.(*UnsupportedChange)
	require.True(t, ok)
	assert.Equal(t, "name", unsupported.Field)
}

func TestParseEnvelope_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"object": "page", "entry":`},
		{"missing object", `{"entry": [{"id": "1", "changes": [{"field": "name", "value": {}}]}]}`},
		{"empty entry list", `{"object": "page", "entry": []}`},
		{"missing entry", `{"object": "page"}`},
		{
			"entry with both changes and messaging",
			`{"object": "page", "entry": [{
				"id": "1",
				"changes": [{"field": "name", "value": {}}],
				"messaging": [{"sender": {"id": "5"}, "recipient": {"id": "1"}, "message": {"mid": "m.1"}}]
			}]}`,
		},
		{"entry with neither", `{"object": "page", "entry": [{"id": "1"}]}`},
		{"feed change without value", `{"object": "page", "entry": [{"id": "1", "changes": [{"field": "feed"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(tt.body))
			require.Error(t, err)
			var schemaErr *SchemaError
			assert.ErrorAs(t, err, &schemaErr)
		})
	}
}

func TestParseEnvelope_BadEntryFailsWholeEnvelope(t *testing.T) {
	// The second entry is invalid; the envelope is rejected as a unit.
	body := `{
		"object": "page",
		"entry": [
			{"id": "1", "changes": [{"field": "feed", "value": {"item": "status", "verb": "add", "post_id": "1_2", "message": "ok"}}]},
			{"id": "2", "changes": [{"field": "feed", "value": {"item": "status", "verb": "add", "post_id": "1_3"}}]}
		]
	}`

	_, err := ParseEnvelope([]byte(body))
	require.Error(t, err)
}
