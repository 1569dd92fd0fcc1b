package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func msgAt(id string, at time.Time) Message {
	return Message{ID: id, RoomID: "room-1", SenderID: "alice", Content: id, Type: MessageTypeText, CreatedAt: at}
}

func TestHistoryOrdering(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m1 := msgAt("m1", base)
	m2 := msgAt("m2", base.Add(time.Second))
	m3 := msgAt("m3", base.Add(2*time.Second))

	t.Run("initial batch is sorted by timestamp", func(t *testing.T) {
		h := NewHistory([]Message{m3, m1, m2})
		got := h.Messages()
		assert.Equal(t, []string{"m1", "m2", "m3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("late arrival lands at its timestamp position", func(t *testing.T) {
		h := NewHistory([]Message{m1, m3})
		h.Append(m2)
		got := h.Messages()
		assert.Equal(t, []string{"m1", "m2", "m3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("equal timestamps break ties by id", func(t *testing.T) {
		a := msgAt("a", base)
		b := msgAt("b", base)
		h := NewHistory([]Message{b, a})
		got := h.Messages()
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
	})

	t.Run("replayed delivery does not duplicate", func(t *testing.T) {
		h := NewHistory([]Message{m1})
		h.Append(m2)
		h.Append(m2)
		assert.Equal(t, 2, h.Len())
	})
}

func TestNeedsDateDivider(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	assert.NoError(t, err)

	t.Run("same local day needs no divider", func(t *testing.T) {
		prev := msgAt("p", time.Date(2026, 3, 1, 1, 0, 0, 0, loc))
		cur := msgAt("c", time.Date(2026, 3, 1, 23, 0, 0, 0, loc))
		assert.False(t, NeedsDateDivider(prev, cur, loc))
	})

	t.Run("crossing local midnight needs a divider", func(t *testing.T) {
		prev := msgAt("p", time.Date(2026, 3, 1, 23, 59, 0, 0, loc))
		cur := msgAt("c", time.Date(2026, 3, 2, 0, 1, 0, 0, loc))
		assert.True(t, NeedsDateDivider(prev, cur, loc))
	})

	t.Run("day boundary follows the viewer's timezone, not UTC", func(t *testing.T) {
		// 14:30 and 15:30 UTC are the same UTC day but straddle midnight KST
		prev := msgAt("p", time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC))
		cur := msgAt("c", time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC))
		assert.True(t, NeedsDateDivider(prev, cur, loc))
		assert.False(t, NeedsDateDivider(prev, cur, time.UTC))
	})
}
