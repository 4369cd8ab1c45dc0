package task

import (
	"fmt"
	"time"
)

// RelativeTime formats a timestamp for display: elapsed time for today,
// "Yesterday", or a short date for anything older.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thatDay := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	if thatDay.Equal(today) {
		elapsed := now.Sub(t)
		switch {
		case elapsed < time.Minute:
			return "Just now"
		case elapsed < time.Hour:
			return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
		default:
			return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
		}
	}
	if thatDay.Equal(today.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	return t.Format("Jan 2")
}
