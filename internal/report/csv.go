package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/matillion/mattermost-export/internal/export"
)

// writeCSV renders the same tabular data as the HTML report in
// machine-readable form. The Deleted column is present only for privileged
// exports.
func writeCSV(w io.Writer, tree export.ThreadTree, opts Options) error {
	cw := csv.NewWriter(w)

	showDeleted := opts.Privilege == export.PrivilegeAdmin

	header := []string{"ID", "Message", "Posted By", "Date", "Edited"}
	if showDeleted {
		header = append(header, "Deleted")
	}
	header = append(header, "Attachments", "Reactions", "Thread")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range flattenTree(tree) {
		p := row.post

		record := []string{
			p.ID,
			p.Message,
			p.Username,
			export.FormatMillis(p.CreateAt),
			yesNo(p.EditAt),
		}
		if showDeleted {
			record = append(record, yesNo(p.DeleteAt))
		}
		record = append(record, attachmentSummary(p), reactionSummary(p), threadLabel(row))

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func attachmentSummary(p *export.Post) string {
	if len(p.Attachments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(p.Attachments))
	for _, a := range p.Attachments {
		parts = append(parts, fmt.Sprintf("%s (%d bytes)", a.Name, a.Size))
	}
	return strings.Join(parts, ", ")
}
