package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"regexp"

	"github.com/matillion/mattermost-export/internal/export"
	"github.com/yuin/goldmark"
)

var reMention = regexp.MustCompile(`(^|[\s>])(@[\w.\-]+)`)

// renderMessage converts a post body from Markdown to HTML and highlights
// @mentions. Raw HTML inside the message is dropped by goldmark's default
// renderer, so the output is safe to embed.
func renderMessage(message string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(message), &buf); err != nil {
		return "", fmt.Errorf("failed to render message: %w", err)
	}
	s := reMention.ReplaceAllString(buf.String(), `$1<span class="badge text-bg-info">$2</span>`)
	return template.HTML(s), nil
}

type htmlRow struct {
	ID          string
	Message     template.HTML
	Username    string
	Date        string
	Edited      string
	Deleted     string
	Attachments []export.Attachment
	Reactions   string
	Thread      string
	RowClass    string
}

type htmlPage struct {
	ChannelName string
	DateRange   string
	ShowDeleted bool
	Rows        []htmlRow
}

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><title>Mattermost Channel Posts Export</title>
<link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css" rel="stylesheet">
</head><body>
<div class="container-flex text-center">
<h1>Mattermost Channel Posts Export</h1>
<div class="col-10 offset-1 alert alert-secondary">
<h2>Posts in Channel {{.ChannelName}}</h2>
<h3>{{.DateRange}}</h3>
</div>
<div class="col-10 offset-1 table-responsive">
<table class="table table-bordered table-sm">
<thead><tr class="table-dark">
<th scope="col">ID</th>
<th scope="col">Message</th>
<th scope="col">Posted By</th>
<th scope="col">Date</th>
<th scope="col">Edited</th>
{{if .ShowDeleted}}<th scope="col">Deleted</th>
{{end}}<th scope="col">Attachments</th>
<th scope="col">Reactions</th>
<th scope="col">Thread</th>
</tr></thead>
<tbody class="table-group-divider">
{{range .Rows}}<tr class="{{.RowClass}}">
<th scope="row" class="small">{{.ID}}</th>
<td style="word-wrap:break-word;max-width:375px">{{.Message}}</td>
<td>{{.Username}}</td>
<td>{{.Date}}</td>
<td>{{.Edited}}</td>
{{if $.ShowDeleted}}<td>{{.Deleted}}</td>
{{end}}<td style="word-wrap:break-word;max-width:200px">{{range .Attachments}}<a href="{{.DownloadURL}}">{{.Name}}</a> ({{.Size}} bytes, {{.MimeType}}) {{end}}</td>
<td>{{.Reactions}}</td>
<td><span class="small">{{.Thread}}</span></td>
</tr>
{{end}}</tbody>
</table>
</div>
</div>
</body></html>
`))

// writeHTML renders the tree as a self-contained Bootstrap document, one
// table row per post with replies inline after their root.
func writeHTML(w io.Writer, tree export.ThreadTree, opts Options) error {
	page := htmlPage{
		ChannelName: opts.ChannelName,
		DateRange:   opts.DateRange,
		ShowDeleted: opts.Privilege == export.PrivilegeAdmin,
	}

	for _, row := range flattenTree(tree) {
		msg, err := renderMessage(row.post.Message)
		if err != nil {
			return err
		}

		class := "table-light"
		if row.isRoot {
			class = "table-active"
		}

		thread := ""
		if !row.isRoot {
			thread = row.post.RootID
		}

		page.Rows = append(page.Rows, htmlRow{
			ID:          row.post.ID,
			Message:     msg,
			Username:    row.post.Username,
			Date:        export.FormatMillis(row.post.CreateAt),
			Edited:      yesNo(row.post.EditAt),
			Deleted:     yesNo(row.post.DeleteAt),
			Attachments: row.post.Attachments,
			Reactions:   reactionSummary(row.post),
			Thread:      thread,
			RowClass:    class,
		})
	}

	return htmlReport.Execute(w, page)
}
