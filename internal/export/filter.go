package export

import (
	"fmt"
	"time"
)

// Window is an inclusive calendar-date range. Either bound may be zero,
// meaning that side is open; a fully zero window disables filtering.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow interprets YYYY-MM-DD bounds in local time. Empty strings
// leave the corresponding side open.
func ParseWindow(start, end string) (Window, error) {
	var w Window

	if start != "" {
		t, err := time.ParseInLocation("2006-01-02", start, time.Local)
		if err != nil {
			return Window{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		w.Start = t
	}
	if end != "" {
		t, err := time.ParseInLocation("2006-01-02", end, time.Local)
		if err != nil {
			return Window{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		w.End = t
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		return Window{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return w, nil
}

// IsZero reports whether both bounds are absent.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Label describes the window for report headers.
func (w Window) Label() string {
	switch {
	case w.IsZero():
		return "For all time"
	case w.Start.IsZero():
		return fmt.Sprintf("Up to %s", w.End.Format("2006-01-02"))
	case w.End.IsZero():
		return fmt.Sprintf("From %s onward", w.Start.Format("2006-01-02"))
	default:
		return fmt.Sprintf("From %s to %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	}
}

// contains tests a millisecond epoch against the window: the start bound is
// the start of that day, the end bound the last instant of that day.
func (w Window) contains(ms int64) bool {
	if !w.Start.IsZero() && ms < w.Start.UnixMilli() {
		return false
	}
	if !w.End.IsZero() {
		endOfDay := w.End.AddDate(0, 0, 1).UnixMilli() - 1
		if ms > endOfDay {
			return false
		}
	}
	return true
}

// FilterByDate narrows the tree to roots created inside the window. A zero
// window returns the input unchanged. Replies-only stubs are judged by their
// earliest reply. When keepAllReplies is true (the default), replies of a
// retained root are kept regardless of their own timestamps; otherwise they
// are filtered independently.
func FilterByDate(tree ThreadTree, w Window, keepAllReplies bool) ThreadTree {
	if w.IsZero() {
		return tree
	}

	filtered := make(ThreadTree)
	for id, root := range tree {
		if !w.contains(effectiveCreateAt(root)) {
			continue
		}
		if keepAllReplies {
			filtered[id] = root
			continue
		}

		trimmed := *root
		trimmed.Replies = nil
		for _, r := range root.Replies {
			if w.contains(r.CreateAt) {
				trimmed.Replies = append(trimmed.Replies, r)
			}
		}
		filtered[id] = &trimmed
	}
	return filtered
}
