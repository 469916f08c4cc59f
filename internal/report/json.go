package report

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/matillion/mattermost-export/internal/export"
)

// jsonDocument is the JSON artifact's top level: run metadata plus the full
// normalized tree in deterministic root order.
type jsonDocument struct {
	Channel   string      `json:"channel"`
	DateRange string      `json:"date_range"`
	Posts     []*jsonPost `json:"posts"`
}

// jsonPost is the render-time view of a post. DeleteAt is a pointer so the
// deletion-status field can be withheld from unprivileged exports while
// privileged ones always carry it, zero included.
type jsonPost struct {
	ID          string                  `json:"id"`
	Message     string                  `json:"message"`
	UserID      string                  `json:"user_id"`
	Username    string                  `json:"username"`
	CreateAt    int64                   `json:"create_at"`
	EditAt      int64                   `json:"edit_at"`
	DeleteAt    *int64                  `json:"delete_at,omitempty"`
	RootID      string                  `json:"root_id,omitempty"`
	ParentID    string                  `json:"parent_id,omitempty"`
	Attachments []export.Attachment     `json:"files,omitempty"`
	Reactions   []export.ReactionRollup `json:"reactions,omitempty"`
	Replies     []*jsonPost             `json:"replies"`
}

func toJSONPost(p *export.Post, showDeleted bool) *jsonPost {
	view := &jsonPost{
		ID:          p.ID,
		Message:     p.Message,
		UserID:      p.UserID,
		Username:    p.Username,
		CreateAt:    p.CreateAt,
		EditAt:      p.EditAt,
		RootID:      p.RootID,
		ParentID:    p.ParentID,
		Attachments: p.Attachments,
		Reactions:   p.Reactions,
	}
	if showDeleted {
		deleteAt := p.DeleteAt
		view.DeleteAt = &deleteAt
	}
	for _, reply := range p.SortedReplies() {
		view.Replies = append(view.Replies, toJSONPost(reply, showDeleted))
	}
	return view
}

// writeJSON emits the full normalized thread tree, indent-formatted. Replies
// are re-sorted by creation time; the deletion-status field is present only
// for privileged exports.
func writeJSON(w io.Writer, tree export.ThreadTree, opts Options) error {
	showDeleted := opts.Privilege == export.PrivilegeAdmin

	roots := tree.Roots()
	posts := make([]*jsonPost, len(roots))
	for i, root := range roots {
		posts[i] = toJSONPost(root, showDeleted)
	}

	doc := jsonDocument{
		Channel:   opts.ChannelName,
		DateRange: opts.DateRange,
		Posts:     posts,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}
