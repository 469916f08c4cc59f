package mattermost

import "strings"

// RawPost is one post as returned by the posts endpoints, before enrichment.
type RawPost struct {
	ID        string   `json:"id"`
	CreateAt  int64    `json:"create_at"`
	EditAt    int64    `json:"edit_at"`
	DeleteAt  int64    `json:"delete_at"`
	UserID    string   `json:"user_id"`
	ChannelID string   `json:"channel_id"`
	RootID    string   `json:"root_id"`
	ParentID  string   `json:"parent_id"`
	Message   string   `json:"message"`
	FileIDs   []string `json:"file_ids,omitempty"`
}

// postListing is the wire shape of a posts page or a thread: an ordered list
// of ids plus the posts keyed by id. HasNext is nil when the server does not
// advertise the signal at all.
type postListing struct {
	Order   []string           `json:"order"`
	Posts   map[string]RawPost `json:"posts"`
	HasNext *bool              `json:"has_next"`
}

// flatten returns the posts in the listing's declared order. Posts missing
// from the order slice (older servers omit it for threads) are appended in
// map order after the ordered ones.
func (l postListing) flatten() []RawPost {
	out := make([]RawPost, 0, len(l.Posts))
	seen := make(map[string]bool, len(l.Order))
	for _, id := range l.Order {
		if p, ok := l.Posts[id]; ok {
			out = append(out, p)
			seen[id] = true
		}
	}
	for id, p := range l.Posts {
		if !seen[id] {
			out = append(out, p)
		}
	}
	return out
}

// PostBatch is one page of raw posts. HasNext carries the server's own
// has-more signal when present; callers fall back to short-page detection
// when it is nil.
type PostBatch struct {
	Posts   []RawPost
	HasNext *bool
}

// RawFileInfo describes one uploaded file as reported by /files/{id}/info.
type RawFileInfo struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	PostID   string `json:"post_id"`
	CreateAt int64  `json:"create_at"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`

	// DownloadURL is derived by the client, not part of the wire payload.
	DownloadURL string `json:"-"`
}

// RawReaction is one emoji reaction by one user on one post.
type RawReaction struct {
	UserID    string `json:"user_id"`
	PostID    string `json:"post_id"`
	EmojiName string `json:"emoji_name"`
	CreateAt  int64  `json:"create_at"`
}

// ChannelInfo holds the channel metadata the exporter needs.
type ChannelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// User is one identity record. Roles is the server's space-separated role
// tag string.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Roles    string `json:"roles"`
}

// IsAdmin reports whether the user carries the system administrator role.
func (u User) IsAdmin() bool {
	for _, role := range strings.Fields(u.Roles) {
		if role == "system_admin" {
			return true
		}
	}
	return false
}

// PingResponse is the server's connectivity probe payload.
type PingResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
