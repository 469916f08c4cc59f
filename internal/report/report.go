// Package report renders the normalized thread tree into the three export
// artifacts (HTML, CSV, JSON) and publishes them atomically.
package report

import (
	"fmt"
	"strings"

	"github.com/matillion/mattermost-export/internal/export"
)

// Options configure the renderers for one run. Privilege decides whether the
// Deleted column is present; it is threaded here once instead of scattered
// conditionals in each renderer.
type Options struct {
	Privilege   export.Privilege
	ChannelName string
	DateRange   string
}

// FileRef describes one written artifact.
type FileRef struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
}

// tableRow pairs a post with its placement so the tabular renderers share
// one flattening of the tree: each root followed by its replies in creation
// order.
type tableRow struct {
	post   *export.Post
	isRoot bool
}

func flattenTree(tree export.ThreadTree) []tableRow {
	var rows []tableRow
	for _, root := range tree.Roots() {
		rows = append(rows, tableRow{post: root, isRoot: true})
		for _, reply := range root.SortedReplies() {
			rows = append(rows, tableRow{post: reply, isRoot: false})
		}
	}
	return rows
}

func yesNo(ms int64) string {
	if ms > 0 {
		return "Yes"
	}
	return "No"
}

func threadLabel(r tableRow) string {
	if r.isRoot {
		return "Original Post"
	}
	return fmt.Sprintf("Reply to %s", r.post.RootID)
}

func reactionSummary(p *export.Post) string {
	if len(p.Reactions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(p.Reactions))
	for _, r := range p.Reactions {
		parts = append(parts, fmt.Sprintf(":%s: x%d", r.EmojiName, r.Count))
	}
	return strings.Join(parts, ", ")
}

// sanitizeName makes a channel name safe as a directory name.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "channel"
	}
	return name
}
