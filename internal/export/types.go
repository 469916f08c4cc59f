package export

import (
	"context"
	"sort"
	"time"

	"github.com/matillion/mattermost-export/internal/mattermost"
)

// API is the subset of the Mattermost client the pipeline uses.
type API interface {
	Me(ctx context.Context) (mattermost.User, error)
	User(ctx context.Context, id string) (mattermost.User, error)
	PostsPage(ctx context.Context, channelID string, page, perPage int, includeDeleted bool) (mattermost.PostBatch, error)
	Thread(ctx context.Context, rootID string) ([]mattermost.RawPost, error)
	FileInfo(ctx context.Context, fileID string) (*mattermost.RawFileInfo, error)
	Reactions(ctx context.Context, postID string) ([]mattermost.RawReaction, error)
}

// Post is one fully enriched message. Replies is populated only on thread
// roots; a post with a non-empty RootID never carries replies of its own.
type Post struct {
	ID          string           `json:"id"`
	Message     string           `json:"message"`
	UserID      string           `json:"user_id"`
	Username    string           `json:"username"`
	CreateAt    int64            `json:"create_at"`
	EditAt      int64            `json:"edit_at"`
	DeleteAt    int64            `json:"delete_at"`
	RootID      string           `json:"root_id,omitempty"`
	ParentID    string           `json:"parent_id,omitempty"`
	Attachments []Attachment     `json:"files,omitempty"`
	Reactions   []ReactionRollup `json:"reactions,omitempty"`
	Replies     []*Post          `json:"replies"`
}

// SortedReplies returns the post's replies ordered by creation time
// ascending. Renderers call this rather than relying on fold order.
func (p *Post) SortedReplies() []*Post {
	replies := make([]*Post, len(p.Replies))
	copy(replies, p.Replies)
	sort.SliceStable(replies, func(i, j int) bool {
		return replies[i].CreateAt < replies[j].CreateAt
	})
	return replies
}

// Attachment describes one uploaded file referenced by a post. Resolved once
// at aggregation time and immutable afterward.
type Attachment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	MimeType    string `json:"mime_type"`
	UploadedAt  string `json:"uploaded_at"`
	UploaderID  string `json:"uploader_id"`
	DownloadURL string `json:"download_url"`
}

// UploadedUnavailable is the sentinel for attachments whose upload time the
// server did not report.
const UploadedUnavailable = "unavailable"

// ReactionRollup is one emoji applied to a post, with the users who applied
// it in the order the server returned them.
type ReactionRollup struct {
	EmojiName string   `json:"emoji_name"`
	Users     []string `json:"users"`
	Count     int      `json:"count"`
}

// ThreadTree maps each root post id to its fully populated post. Entries
// whose root is inaccessible (permanently deleted, caller unprivileged) are
// replies-only stubs: zero CreateAt, empty Username.
type ThreadTree map[string]*Post

// Roots returns the tree's entries ordered by creation time ascending, ties
// broken by id so the ordering is deterministic. Replies-only stubs sort by
// their earliest reply.
func (t ThreadTree) Roots() []*Post {
	roots := make([]*Post, 0, len(t))
	for _, p := range t {
		roots = append(roots, p)
	}
	sort.Slice(roots, func(i, j int) bool {
		a, b := effectiveCreateAt(roots[i]), effectiveCreateAt(roots[j])
		if a != b {
			return a < b
		}
		return roots[i].ID < roots[j].ID
	})
	return roots
}

func effectiveCreateAt(p *Post) int64 {
	if p.CreateAt != 0 || len(p.Replies) == 0 {
		return p.CreateAt
	}
	earliest := p.Replies[0].CreateAt
	for _, r := range p.Replies[1:] {
		if r.CreateAt < earliest {
			earliest = r.CreateAt
		}
	}
	return earliest
}

// FormatMillis renders a millisecond epoch as a local date-time string.
// Zero means "not applicable" and renders empty.
func FormatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
