package domain

import (
	"time"
)

// NotificationType what happened, driving the icon and click-through
// destination on the client.
type NotificationType string

// Notification types
const (
	TypeApplicationAccepted NotificationType = "application_accepted"
	TypeApplicationRejected NotificationType = "application_rejected"
	TypeNewApplication      NotificationType = "new_application"
	TypeProposalReceived    NotificationType = "proposal_received"
	TypeProposalAccepted    NotificationType = "proposal_accepted"
	TypeProposalRejected    NotificationType = "proposal_rejected"
	TypeIdeaLiked           NotificationType = "idea_liked"
	TypeIdeaCommented       NotificationType = "idea_commented"
	TypeMemberJoined        NotificationType = "member_joined"
	TypeMemberLeft          NotificationType = "member_left"
	TypeNewMessage          NotificationType = "new_message"
	TypeSystem              NotificationType = "system"
)

// Filter list scope
type Filter string

// Filters
const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
)

// Notification one feed entry. SourceEventID is the producer-side event id
// and is unique, so redelivered events collapse into one row.
type Notification struct {
	ID            string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string           `gorm:"index:idx_notifications_user_created;not null" json:"user_id"`
	Type          NotificationType `gorm:"not null" json:"type"`
	Title         string           `json:"title"`
	Body          string           `json:"body"`
	LinkURL       string           `json:"link_url"`
	SourceEventID string           `gorm:"uniqueIndex" json:"source_event_id,omitempty"`
	Read          bool             `gorm:"default:false" json:"read"`
	CreatedAt     time.Time        `gorm:"index:idx_notifications_user_created,sort:desc" json:"created_at"`
}

// TableName gorm table name
func (Notification) TableName() string { return "notifications" }

// Event one domain event consumed from the broker. EventID makes the
// ingest idempotent across redeliveries.
type Event struct {
	EventID   string                 `json:"event_id"`
	UserID    string                 `json:"user_id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	LinkURL   string                 `json:"link_url"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Valid minimum an event needs to become a feed row.
func (e Event) Valid() bool {
	return e.EventID != "" && e.UserID != "" && e.Type != ""
}
