package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matillion/mattermost-export/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleTree() export.ThreadTree {
	return export.ThreadTree{
		"root1": {
			ID:       "root1",
			Message:  "hello **world** @alice",
			Username: "alice",
			CreateAt: 1700000000000,
			Attachments: []export.Attachment{
				{ID: "f1", Name: "notes.txt", Size: 42, MimeType: "text/plain", DownloadURL: "https://mm.example.com/api/v4/files/f1"},
			},
			Reactions: []export.ReactionRollup{
				{EmojiName: "thumbsup", Users: []string{"bob", "carol"}, Count: 2},
			},
			Replies: []*export.Post{
				{ID: "r2", RootID: "root1", Message: "second", Username: "carol", CreateAt: 1700000002000},
				{ID: "r1", RootID: "root1", Message: "first", Username: "bob", CreateAt: 1700000001000},
			},
		},
	}
}

func adminOpts() Options {
	return Options{Privilege: export.PrivilegeAdmin, ChannelName: "town-square", DateRange: "For all time"}
}

func standardOpts() Options {
	return Options{Privilege: export.PrivilegeStandard, ChannelName: "town-square", DateRange: "For all time"}
}

func TestWriteCSV_AdminIncludesDeletedColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, sampleTree(), adminOpts()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	// Even though nothing in the sample is deleted, the column is present.
	assert.Contains(t, records[0], "Deleted")
	require.Len(t, records, 4, "header + root + two replies")
}

func TestWriteCSV_StandardOmitsDeletedColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, sampleTree(), standardOpts()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	assert.NotContains(t, records[0], "Deleted")
}

func TestWriteCSV_RowOrderAndThreadLabels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, sampleTree(), standardOpts()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "root1", records[1][0])
	assert.Equal(t, "r1", records[2][0], "replies sorted by creation time")
	assert.Equal(t, "r2", records[3][0])

	last := len(records[1]) - 1
	assert.Equal(t, "Original Post", records[1][last])
	assert.Equal(t, "Reply to root1", records[2][last])
}

func TestWriteCSV_Summaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, sampleTree(), standardOpts()))

	out := buf.String()
	assert.Contains(t, out, "notes.txt (42 bytes)")
	assert.Contains(t, out, ":thumbsup: x2")
}

func TestWriteHTML_PrivilegeGatesDeletedColumn(t *testing.T) {
	var admin, standard bytes.Buffer
	require.NoError(t, writeHTML(&admin, sampleTree(), adminOpts()))
	require.NoError(t, writeHTML(&standard, sampleTree(), standardOpts()))

	assert.Contains(t, admin.String(), "<th scope=\"col\">Deleted</th>")
	assert.NotContains(t, standard.String(), "<th scope=\"col\">Deleted</th>")
}

func TestWriteHTML_RendersMarkdownAndMentions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHTML(&buf, sampleTree(), standardOpts()))

	out := buf.String()
	assert.Contains(t, out, "<strong>world</strong>", "markdown body rendered")
	assert.Contains(t, out, ">@alice</span>", "mention highlighted")
	assert.Contains(t, out, "Posts in Channel town-square")
	assert.Contains(t, out, "https://mm.example.com/api/v4/files/f1")
}

func TestWriteHTML_DropsRawHTMLInMessages(t *testing.T) {
	tree := export.ThreadTree{
		"p": {ID: "p", Message: "<script>alert(1)</script>", Username: "eve", CreateAt: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, writeHTML(&buf, tree, standardOpts()))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestWriteJSON_SortedRepliesAndMetadata(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleTree(), adminOpts()))

	var doc struct {
		Channel   string `json:"channel"`
		DateRange string `json:"date_range"`
		Posts     []struct {
			ID      string `json:"id"`
			Replies []struct {
				ID       string `json:"id"`
				CreateAt int64  `json:"create_at"`
			} `json:"replies"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "town-square", doc.Channel)
	assert.Equal(t, "For all time", doc.DateRange)
	require.Len(t, doc.Posts, 1)
	require.Len(t, doc.Posts[0].Replies, 2)
	assert.Equal(t, "r1", doc.Posts[0].Replies[0].ID)
	assert.Equal(t, "r2", doc.Posts[0].Replies[1].ID)
}

func TestWriteJSON_PrivilegeGatesDeletedField(t *testing.T) {
	tree := sampleTree()
	tree["root1"].Replies[0].DeleteAt = 1700000003000

	var admin, standard bytes.Buffer
	require.NoError(t, writeJSON(&admin, tree, adminOpts()))
	require.NoError(t, writeJSON(&standard, tree, standardOpts()))

	assert.NotContains(t, standard.String(), "delete_at")

	// Privileged documents carry the field on every post, zero included.
	var doc struct {
		Posts []struct {
			DeleteAt *int64 `json:"delete_at"`
			Replies []struct {
				ID       string `json:"id"`
				DeleteAt *int64 `json:"delete_at"`
			} `json:"replies"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(admin.Bytes(), &doc))
	require.Len(t, doc.Posts, 1)
	require.NotNil(t, doc.Posts[0].DeleteAt)
	assert.Zero(t, *doc.Posts[0].DeleteAt)
	for _, r := range doc.Posts[0].Replies {
		require.NotNil(t, r.DeleteAt, "reply %s missing deletion status", r.ID)
		if r.ID == "r2" {
			assert.Equal(t, int64(1700000003000), *r.DeleteAt)
		}
	}
}

func TestWriteJSON_DoesNotMutateTree(t *testing.T) {
	tree := sampleTree()
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, tree, adminOpts()))

	// Fold order in the snapshot is untouched by render-time sorting.
	assert.Equal(t, "r2", tree["root1"].Replies[0].ID)
}

func TestPublisher_WritesAllArtifacts(t *testing.T) {
	outDir := t.TempDir()
	p := NewPublisher(outDir, zap.NewNop())

	refs, err := p.Publish(sampleTree(), adminOpts())
	require.NoError(t, err)
	require.Len(t, refs, 3)

	for _, ref := range refs {
		fi, err := os.Stat(ref.Path)
		require.NoError(t, err, "artifact %s must exist at its final path", ref.Name)
		assert.Equal(t, fi.Size(), ref.Bytes)
		assert.Equal(t, filepath.Join(outDir, "town-square"), filepath.Dir(ref.Path))
	}

	// No staging directories left behind.
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "leftover staging dir %s", e.Name())
	}
}

func TestPublisher_ReplacesPreviousExport(t *testing.T) {
	outDir := t.TempDir()
	p := NewPublisher(outDir, zap.NewNop())

	_, err := p.Publish(sampleTree(), adminOpts())
	require.NoError(t, err)

	stale := filepath.Join(outDir, "town-square", "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err = p.Publish(sampleTree(), adminOpts())
	require.NoError(t, err)

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr), "previous export contents must be replaced")
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"town square", "town_square"},
		{"ops/oncall", "ops_oncall"},
		{"", "channel"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in))
	}
}
