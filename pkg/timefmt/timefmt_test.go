package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelative(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "방금 전", Relative(now.Add(-30*time.Second), now))
	assert.Equal(t, "5분 전", Relative(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3시간 전", Relative(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2일 전", Relative(now.Add(-49*time.Hour), now))

	// a clock-skewed future timestamp never renders negative
	assert.Equal(t, "방금 전", Relative(now.Add(time.Minute), now))
}

func TestDividerLabel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "오늘", DividerLabel(now.Add(-time.Hour), now))
	assert.Equal(t, "어제", DividerLabel(now.AddDate(0, 0, -1), now))
	assert.Equal(t, "2026년 3월 1일", DividerLabel(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), now))
}
