package webhooks

import (
	"strings"
)

// Feed verbs. Reactions use "edit" where posts and comments use "edited".
const (
	VerbAdd    = "add"
	VerbEdited = "edited"
	VerbRemove = "remove"
	VerbEdit   = "edit"
)

// Feed item tags as they appear on the wire.
const (
	ItemStatus   = "status"
	ItemPhoto    = "photo"
	ItemVideo    = "video"
	ItemComment  = "comment"
	ItemReaction = "reaction"
)

// FeedChange is one element of a page entry's "changes" array.
type FeedChange struct {
	Field string
	Value FeedValue
}

// FeedValue is exactly one of the structural variants a feed change's
// value can take. Resolve with resolveFeedValue; never type-assert the
// raw JSON directly, the variants overlap on the "item" tag.
type FeedValue interface {
	feedValue()
}

// NewPost is a plain text status post.
type NewPost struct {
	From        User
	Message     string
	PostID      string
	CreatedTime int64
	Published   int
	Verb        string
}

// NewPostWithPhoto is a post carrying a single photo attachment.
type NewPostWithPhoto struct {
	From        User
	Link        string
	Message     string
	PostID      string
	CreatedTime int64
	PhotoID     string
	Published   int
	Verb        string
}

// NewPostWithManyPhotos is a post carrying multiple photo attachments.
// Facebook tags it "status" and lists the photo URLs in "photos".
type NewPostWithManyPhotos struct {
	From        User
	Link        string
	Message     string
	Photos      []string
	PostID      string
	CreatedTime int64
	Published   int
	Verb        string
}

// NewPostWithVideo is a post carrying a video or reel.
type NewPostWithVideo struct {
	From        User
	Link        string
	Message     string
	PostID      string
	CreatedTime int64
	Published   int
	Verb        string
	VideoID     string
}

// Comment is a comment or reply on a post. IsReply is derived from the
// post and parent IDs, see computeIsReply.
type Comment struct {
	From        User
	Post        *PostMeta
	Message     string
	PostID      string
	CommentID   string
	ParentID    string
	CreatedTime int64
	Verb        string
	IsReply     bool
}

// CommentWithPhoto is a comment carrying a photo attachment.
type CommentWithPhoto struct {
	From        User
	Post        *PostMeta
	Message     string
	Photo       string
	PostID      string
	CommentID   string
	ParentID    string
	CreatedTime int64
	Verb        string
	IsReply     bool
}

// CommentWithVideo is a comment carrying a video or gif attachment.
// Facebook uses the same "video" field for both.
type CommentWithVideo struct {
	From        User
	Post        *PostMeta
	Message     string
	Video       string
	PostID      string
	CommentID   string
	ParentID    string
	CreatedTime int64
	Verb        string
	IsReply     bool
}

// ReactionOnPost fires when someone reacts to a post.
type ReactionOnPost struct {
	From         User
	PostID       string
	CreatedTime  int64
	ParentID     string
	ReactionType string
	Verb         string
}

// ReactionOnComment fires when someone reacts to a comment.
type ReactionOnComment struct {
	From         User
	PostID       string
	CommentID    string
	CreatedTime  int64
	ParentID     string
	ReactionType string
	Verb         string
}

// UnsupportedChange is a change on a field this library does not model
// (name, picture, bio, mention, ...). It is parsed and carried so the
// classifier can log and skip it instead of the parser rejecting the
// whole envelope.
type UnsupportedChange struct {
	Field string
	Item  string
}

func (*NewPost) feedValue()               {}
func (*NewPostWithPhoto) feedValue()      {}
func (*NewPostWithManyPhotos) feedValue() {}
func (*NewPostWithVideo) feedValue()      {}
func (*Comment) feedValue()               {}
func (*CommentWithPhoto) feedValue()      {}
func (*CommentWithVideo) feedValue()      {}
func (*ReactionOnPost) feedValue()        {}
func (*ReactionOnComment) feedValue()     {}
func (*UnsupportedChange) feedValue()     {}

// Fingerprint returns the canonical fields used to recognize a re-sent
// "edited" notification. The link and from fields are excluded: they are
// the only parts Facebook varies between re-sends that carry no real
// change (CDN links rotate, profile data is volatile).
func (v *NewPostWithPhoto) Fingerprint() map[string]any {
	return map[string]any{
		"message":      v.Message,
		"post_id":      v.PostID,
		"created_time": v.CreatedTime,
		"item":         ItemPhoto,
		"photo_id":     v.PhotoID,
		"published":    v.Published,
		"verb":         v.Verb,
	}
}

// rawFeedValue captures every field any feed variant can carry. Pointer
// fields record physical presence in the JSON object, which the
// resolution order below depends on.
type rawFeedValue struct {
	From         *User     `json:"from"`
	Item         string    `json:"item"`
	Verb         string    `json:"verb"`
	PostID       string    `json:"post_id"`
	CommentID    *string   `json:"comment_id"`
	ParentID     *string   `json:"parent_id"`
	CreatedTime  int64     `json:"created_time"`
	Message      *string   `json:"message"`
	Link         *string   `json:"link"`
	Photo        *string   `json:"photo"`
	Video        *string   `json:"video"`
	PhotoID      *string   `json:"photo_id"`
	VideoID      *string   `json:"video_id"`
	Photos       []string  `json:"photos"`
	Published    *int      `json:"published"`
	ReactionType *string   `json:"reaction_type"`
	Post         *PostMeta `json:"post"`
}

// resolveFeedValue picks the variant for a feed change value.
//
// The wire format does not carry a single discriminator: several variants
// share an "item" tag and differ only in which optional keys are present.
// The checks below run in a fixed precedence order so ambiguous payloads
// resolve deterministically:
//
//  1. item "reaction": comment_id present -> ReactionOnComment, else
//     ReactionOnPost.
//  2. item "comment": video before photo before plain Comment.
//  3. item "photo" -> NewPostWithPhoto; item "status" with >1 photos ->
//     NewPostWithManyPhotos.
//  4. item "video" -> NewPostWithVideo.
//  5. item "status" -> NewPost.
//
// The order is inferred from observed webhook behavior, not published by
// the platform. Keep it here, in one place.
func resolveFeedValue(raw *rawFeedValue) (FeedValue, error) {
	from := User{}
	if raw.From != nil {
		from = *raw.From
	}

	switch {
	case raw.Item == ItemReaction && raw.CommentID != nil:
		if raw.ReactionType == nil {
			return nil, missingField("ReactionOnComment", "reaction_type")
		}
		if raw.ParentID == nil {
			return nil, missingField("ReactionOnComment", "parent_id")
		}
		return &ReactionOnComment{
			From:         from,
			PostID:       raw.PostID,
			CommentID:    *raw.CommentID,
			CreatedTime:  raw.CreatedTime,
			ParentID:     *raw.ParentID,
			ReactionType: *raw.ReactionType,
			Verb:         raw.Verb,
		}, nil

	case raw.Item == ItemReaction:
		if raw.ReactionType == nil {
			return nil, missingField("ReactionOnPost", "reaction_type")
		}
		if raw.ParentID == nil {
			return nil, missingField("ReactionOnPost", "parent_id")
		}
		return &ReactionOnPost{
			From:         from,
			PostID:       raw.PostID,
			CreatedTime:  raw.CreatedTime,
			ParentID:     *raw.ParentID,
			ReactionType: *raw.ReactionType,
			Verb:         raw.Verb,
		}, nil

	case raw.Item == ItemComment:
		if raw.CommentID == nil {
			return nil, missingField("Comment", "comment_id")
		}
		if raw.ParentID == nil {
			return nil, missingField("Comment", "parent_id")
		}
		base := Comment{
			From:        from,
			Post:        raw.Post,
			Message:     stringOrEmpty(raw.Message),
			PostID:      raw.PostID,
			CommentID:   *raw.CommentID,
			ParentID:    *raw.ParentID,
			CreatedTime: raw.CreatedTime,
			Verb:        raw.Verb,
			IsReply:     computeIsReply(raw.PostID, *raw.ParentID),
		}
		// Video takes precedence over photo when both are present.
		if raw.Video != nil {
			return &CommentWithVideo{
				From: base.From, Post: base.Post, Message: base.Message,
				Video: *raw.Video, PostID: base.PostID, CommentID: base.CommentID,
				ParentID: base.ParentID, CreatedTime: base.CreatedTime,
				Verb: base.Verb, IsReply: base.IsReply,
			}, nil
		}
		if raw.Photo != nil {
			return &CommentWithPhoto{
				From: base.From, Post: base.Post, Message: base.Message,
				Photo: *raw.Photo, PostID: base.PostID, CommentID: base.CommentID,
				ParentID: base.ParentID, CreatedTime: base.CreatedTime,
				Verb: base.Verb, IsReply: base.IsReply,
			}, nil
		}
		return &base, nil

	case raw.Item == ItemPhoto:
		if raw.PhotoID == nil {
			return nil, missingField("NewPostWithPhoto", "photo_id")
		}
		if raw.Link == nil {
			return nil, missingField("NewPostWithPhoto", "link")
		}
		return &NewPostWithPhoto{
			From:        from,
			Link:        *raw.Link,
			Message:     stringOrEmpty(raw.Message),
			PostID:      raw.PostID,
			CreatedTime: raw.CreatedTime,
			PhotoID:     *raw.PhotoID,
			Published:   intOrZero(raw.Published),
			Verb:        raw.Verb,
		}, nil

	case raw.Item == ItemStatus && len(raw.Photos) > 1:
		if raw.Link == nil {
			return nil, missingField("NewPostWithManyPhotos", "link")
		}
		return &NewPostWithManyPhotos{
			From:        from,
			Link:        *raw.Link,
			Message:     stringOrEmpty(raw.Message),
			Photos:      raw.Photos,
			PostID:      raw.PostID,
			CreatedTime: raw.CreatedTime,
			Published:   intOrZero(raw.Published),
			Verb:        raw.Verb,
		}, nil

	case raw.Item == ItemVideo:
		if raw.VideoID == nil {
			return nil, missingField("NewPostWithVideo", "video_id")
		}
		if raw.Link == nil {
			return nil, missingField("NewPostWithVideo", "link")
		}
		return &NewPostWithVideo{
			From:        from,
			Link:        *raw.Link,
			Message:     stringOrEmpty(raw.Message),
			PostID:      raw.PostID,
			CreatedTime: raw.CreatedTime,
			Published:   intOrZero(raw.Published),
			Verb:        raw.Verb,
			VideoID:     *raw.VideoID,
		}, nil

	case raw.Item == ItemStatus:
		if raw.Message == nil {
			return nil, missingField("NewPost", "message")
		}
		return &NewPost{
			From:        from,
			Message:     *raw.Message,
			PostID:      raw.PostID,
			CreatedTime: raw.CreatedTime,
			Published:   intOrZero(raw.Published),
			Verb:        raw.Verb,
		}, nil
	}

	return nil, &SchemaError{Field: "item", Detail: "unrecognized feed change shape: item=" + raw.Item}
}

// computeIsReply reports whether a comment is a reply to another comment.
//
// A post id looks like "<page>_<post>" and a reply's parent_id looks like
// "<post>_<comment>": when the parent id's first segment equals the post
// id's second segment, the parent is a comment rather than the post. IDs
// without an underscore yield false, top-level comment.
func computeIsReply(postID, parentID string) bool {
	_, uniquePostID, ok := strings.Cut(postID, "_")
	if !ok {
		return false
	}
	parentFirst, _, _ := strings.Cut(parentID, "_")
	return parentFirst == uniquePostID
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
