// Package timefmt renders the Korean relative timestamps and date-divider
// labels the chat and notification lists show next to each entry.
package timefmt

import (
	"fmt"
	"time"
)

// Relative format the elapsed time since t the way the room list shows it:
// "방금 전", "N분 전", "N시간 전", "N일 전".
func Relative(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	days := int(diff.Hours()) / 24
	if days > 0 {
		return fmt.Sprintf("%d일 전", days)
	}
	hours := int(diff.Hours())
	if hours > 0 {
		return fmt.Sprintf("%d시간 전", hours)
	}
	minutes := int(diff.Minutes())
	if minutes > 0 {
		return fmt.Sprintf("%d분 전", minutes)
	}
	return "방금 전"
}

// DividerLabel format a date-divider: "오늘", "어제", or the full date.
// now decides which calendar day counts as today in the viewer's timezone.
func DividerLabel(t, now time.Time) string {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "오늘"
	}

	yesterday := now.AddDate(0, 0, -1)
	y3, m3, d3 := yesterday.Date()
	if y1 == y3 && m1 == m3 && d1 == d3 {
		return "어제"
	}

	return fmt.Sprintf("%d년 %d월 %d일", y1, int(m1), d1)
}
