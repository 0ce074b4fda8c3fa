package notification

import (
	"fmt"
	"time"
)

const absoluteDateLayout = "Jan 2, 2006"

// FormatRelative renders the age of t at the moment now.
func FormatRelative(t, now time.Time, loc *time.Location) string {
	elapsed := now.Sub(t)
	if elapsed < 0 {
		elapsed = 0
	}

	minutes := int(elapsed / time.Minute)
	hours := int(elapsed / time.Hour)
	days := int(elapsed / (24 * time.Hour))

	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	}

	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(absoluteDateLayout)
}
