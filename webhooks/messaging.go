package webhooks

// Reaction actions on messages.
const (
	ReactionActionReact   = "react"
	ReactionActionUnreact = "unreact"
)

// MessagingEvent is one element of a messaging entry, a sender/recipient
// pair plus exactly one payload.
type MessagingEvent struct {
	Sender    User
	Recipient User
	Timestamp int64
	Payload   MessagingPayload
}

// MessagingPayload is the single payload carried by a messaging event,
// discriminated by which key was present on the wire.
type MessagingPayload interface {
	messagingPayload()
}

// TextMessage is an inbound message. Echo events share this shape: when
// IsEcho is set the message was sent by the page itself.
type TextMessage struct {
	MID         string              `json:"mid"`
	Text        string              `json:"text"`
	Attachments []MessageAttachment `json:"attachments,omitempty"`
	ReplyTo     *ReplyTo            `json:"reply_to,omitempty"`
	QuickReply  *QuickReply         `json:"quick_reply,omitempty"`
	IsEcho      bool                `json:"is_echo,omitempty"`
}

// MessageAttachment is one attachment on a message.
type MessageAttachment struct {
	Type    string            `json:"type"` // image, audio, video, file, fallback
	Payload AttachmentPayload `json:"payload"`
}

// AttachmentPayload carries the attachment location.
type AttachmentPayload struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// QuickReply is the developer payload behind a tapped quick reply button.
type QuickReply struct {
	Payload string `json:"payload"`
}

// ReplyTo references the message being replied to.
type ReplyTo struct {
	MID string `json:"mid"`
}

// MessageReaction fires when someone reacts or unreacts to a message.
type MessageReaction struct {
	MID      string `json:"mid"`
	Action   string `json:"action"` // react or unreact
	Emoji    string `json:"emoji,omitempty"`
	Reaction string `json:"reaction,omitempty"`
}

// MessageRead reports that everything up to watermark has been read.
type MessageRead struct {
	Watermark int64 `json:"watermark"`
}

// MessageEdit fires when someone edits a previously sent message.
type MessageEdit struct {
	MID     string `json:"mid"`
	Text    string `json:"text"`
	NumEdit int    `json:"num_edit"`
}

// MessageOptin carries a recurring-notification opt-in.
type MessageOptin struct {
	Type                          string `json:"type"`
	Payload                       string `json:"payload"`
	NotificationMessagesToken     string `json:"notification_messages_token"`
	NotificationMessagesFrequency string `json:"notification_messages_frequency"`
	TokenExpirationTimestamp      int64  `json:"token_expiration_timestamp"`
	UserTokenStatus               string `json:"user_token_status"`
}

// MessagePostback fires when someone taps a persistent menu or button.
type MessagePostback struct {
	MID      string            `json:"mid"`
	Title    string            `json:"title"`
	Payload  string            `json:"payload"`
	Referral *PostbackReferral `json:"referral,omitempty"`
}

// PostbackReferral is the referral data attached to a postback.
type PostbackReferral struct {
	Ref    string `json:"ref"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// MessagingReferral fires when someone enters the conversation through a
// referral source such as an ad or an m.me link.
type MessagingReferral struct {
	Ref            string          `json:"ref"`
	Source         string          `json:"source"`
	Type           string          `json:"type"`
	AdsContextData *AdsContextData `json:"ads_context_data,omitempty"`
}

// AdsContextData describes the ad that referred the conversation.
type AdsContextData struct {
	AdTitle   string `json:"ad_title"`
	PhotoURL  string `json:"photo_url"`
	VideoURL  string `json:"video_url"`
	PostID    string `json:"post_id"`
	ProductID string `json:"product_id"`
}

func (*TextMessage) messagingPayload()       {}
func (*MessageReaction) messagingPayload()   {}
func (*MessageRead) messagingPayload()       {}
func (*MessageEdit) messagingPayload()       {}
func (*MessageOptin) messagingPayload()      {}
func (*MessagePostback) messagingPayload()   {}
func (*MessagingReferral) messagingPayload() {}

// rawMessagingEvent captures all mutually exclusive payload keys so the
// resolver can check that exactly one is present.
type rawMessagingEvent struct {
	Sender    User               `json:"sender"`
	Recipient User               `json:"recipient"`
	Timestamp int64              `json:"timestamp"`
	Message   *TextMessage       `json:"message"`
	Edit      *MessageEdit       `json:"message_edit"`
	Optin     *MessageOptin      `json:"optin"`
	Reaction  *MessageReaction   `json:"reaction"`
	Read      *MessageRead       `json:"read"`
	Postback  *MessagePostback   `json:"postback"`
	Referral  *MessagingReferral `json:"referral"`
}

func resolveMessagingPayload(raw *rawMessagingEvent) (MessagingPayload, error) {
	var present []string
	var payload MessagingPayload

	if raw.Message != nil {
		present = append(present, "message")
		payload = raw.Message
	}
	if raw.Edit != nil {
		present = append(present, "message_edit")
		payload = raw.Edit
	}
	if raw.Optin != nil {
		present = append(present, "optin")
		payload = raw.Optin
	}
	if raw.Reaction != nil {
		present = append(present, "reaction")
		payload = raw.Reaction
	}
	if raw.Read != nil {
		present = append(present, "read")
		payload = raw.Read
	}
	if raw.Postback != nil {
		present = append(present, "postback")
		payload = raw.Postback
	}
	if raw.Referral != nil {
		present = append(present, "referral")
		payload = raw.Referral
	}

	if len(present) != 1 {
		return nil, offendingKeys(present)
	}

	switch p := payload.(type) {
	case *TextMessage:
		if p.MID == "" {
			return nil, missingField("TextMessage", "mid")
		}
	case *MessageReaction:
		if p.MID == "" {
			return nil, missingField("MessageReaction", "mid")
		}
		if p.Action != ReactionActionReact && p.Action != ReactionActionUnreact {
			return nil, &SchemaError{Variant: "MessageReaction", Field: "action", Detail: "unknown action " + p.Action}
		}
	case *MessageEdit:
		if p.MID == "" {
			return nil, missingField("MessageEdit", "mid")
		}
	}

	return payload, nil
}
