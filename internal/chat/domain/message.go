package domain

import (
	"sort"
	"time"
)

// MessageType definition message kind
type MessageType string

const (
	//MessageTypeText plain text message
	MessageTypeText MessageType = "text"
	//MessageTypeImage image attachment message
	MessageTypeImage MessageType = "image"
	//MessageTypeFile file attachment message
	MessageTypeFile MessageType = "file"
	//MessageTypeSystem system generated message
	MessageTypeSystem MessageType = "system"
)

// Message one chat message. Immutable once written; ordering key is
// CreatedAt as assigned at write time, ties broken by ID.
type Message struct {
	ID         string                 `bson:"_id" json:"id"`
	RoomID     string                 `bson:"room_id" json:"room_id"`
	SenderID   string                 `bson:"sender_id" json:"sender_id"`
	SenderName string                 `bson:"sender_name,omitempty" json:"sender_name,omitempty"`
	Content    string                 `bson:"content" json:"content"`
	Type       MessageType            `bson:"type" json:"type"`
	Metadata   map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
}

// Before report whether m sorts before other in feed order.
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

// RoomUnreadInfo definition unread by room
type RoomUnreadInfo struct {
	RoomID       string    `bson:"_id" json:"room_id"`
	UnreadCount  int       `bson:"unread_count" json:"unread_count"`
	LastUnreadAt time.Time `bson:"last_unread_at" json:"last_unread_at"`
}

// History an ordered message feed. Network delivery may hand inserts to a
// slow subscriber out of wall-clock order, so Append places each message by
// its CreatedAt instead of trusting arrival order.
type History struct {
	messages []Message
}

// NewHistory build a feed from an initial batch, sorting it.
func NewHistory(msgs []Message) *History {
	h := &History{messages: make([]Message, len(msgs))}
	copy(h.messages, msgs)
	sort.SliceStable(h.messages, func(i, j int) bool {
		return h.messages[i].Before(h.messages[j])
	})
	return h
}

// Append insert a live message at its timestamp position. Duplicate IDs are
// dropped, which makes at-least-once bus delivery safe to replay.
func (h *History) Append(m Message) {
	for _, existing := range h.messages {
		if existing.ID == m.ID {
			return
		}
	}
	idx := sort.Search(len(h.messages), func(i int) bool {
		return m.Before(h.messages[i])
	})
	h.messages = append(h.messages, Message{})
	copy(h.messages[idx+1:], h.messages[idx:])
	h.messages[idx] = m
}

// Messages the feed in render order.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len message count
func (h *History) Len() int { return len(h.messages) }

// NeedsDateDivider report whether a date divider belongs between two
// consecutive messages: their calendar dates differ in the viewer's
// timezone.
func NeedsDateDivider(prev, cur Message, loc *time.Location) bool {
	p := prev.CreatedAt.In(loc)
	c := cur.CreatedAt.In(loc)
	py, pm, pd := p.Date()
	cy, cm, cd := c.Date()
	return py != cy || pm != cm || pd != cd
}
