package domain

import (
	"sort"
	"strings"
	"time"
)

// RoomType definition chat room type
type RoomType string

const (
	//RoomTypeDirect definition chat room 1 on 1
	RoomTypeDirect RoomType = "direct"
	//RoomTypeGroup definition named group chat room
	RoomTypeGroup RoomType = "group"
	//RoomTypeProject definition room bound to a project team
	RoomTypeProject RoomType = "project"
)

// ParticipantRole role inside a room
type ParticipantRole string

const (
	//RoleAdmin room admin
	RoleAdmin ParticipantRole = "admin"
	//RoleMember plain member
	RoleMember ParticipantRole = "member"
)

// ChatRoom definition chat room
type ChatRoom struct {
	ID           string          `json:"id"`
	Type         RoomType        `json:"type"`
	Name         string          `json:"name,omitempty"`
	ProjectID    string          `json:"project_id,omitempty"`
	ProjectTitle string          `json:"project_title,omitempty"`
	DirectKey    string          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Participants []Participant   `json:"participants,omitempty"`
}

// Participant (room, user) membership row. LastReadAt is the read cursor,
// a watermark that only moves forward, and only the owning user's session
// writes it.
type Participant struct {
	RoomID     string          `json:"room_id"`
	UserID     string          `json:"user_id"`
	Role       ParticipantRole `json:"role"`
	JoinedAt   time.Time       `json:"joined_at"`
	LastReadAt time.Time       `json:"last_read_at"`
	Active     bool            `json:"active"`

	// joined from users
	UserName  string `json:"user_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ReadCursor a user's watermark in one room, input to the unread aggregate.
type ReadCursor struct {
	RoomID     string
	UserID     string
	LastReadAt time.Time
}

// RoomSummary one room list entry: the room plus everything the list
// renders without further queries.
type RoomSummary struct {
	Room        ChatRoom `json:"room"`
	DisplayName string   `json:"display_name"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	LastMessage *Message `json:"last_message,omitempty"`
	Preview     string   `json:"preview,omitempty"`
	// LastActivity relative label of the last message, "방금 전" style
	LastActivity string `json:"last_activity,omitempty"`
	UnreadCount  int    `json:"unread_count"`
}

// DirectKey canonical key of an unordered user pair. The UNIQUE index on
// this key is what makes simultaneous direct-room creation collapse to one
// row.
func DirectKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// Participant find the active membership row for userID, nil when absent.
func (r *ChatRoom) Participant(userID string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].UserID == userID && r.Participants[i].Active {
			return &r.Participants[i]
		}
	}
	return nil
}

// OtherParticipant the counterpart in a direct room, nil for other types.
func (r *ChatRoom) OtherParticipant(viewerID string) *Participant {
	if r.Type != RoomTypeDirect {
		return nil
	}
	for i := range r.Participants {
		if r.Participants[i].UserID != viewerID && r.Participants[i].Active {
			return &r.Participants[i]
		}
	}
	return nil
}

// ResolveDisplayName room title as the viewer sees it: the other user's
// name for direct rooms, the project title for project rooms, the room
// name (or a placeholder) for groups. Pure, no I/O.
func ResolveDisplayName(room *ChatRoom, viewerID string) string {
	switch room.Type {
	case RoomTypeDirect:
		if other := room.OtherParticipant(viewerID); other != nil && other.UserName != "" {
			return other.UserName
		}
	case RoomTypeProject:
		if room.ProjectTitle != "" {
			return room.ProjectTitle
		}
	}
	if room.Name != "" {
		return room.Name
	}
	return "이름 없는 채팅방"
}

// ResolveAvatar avatar for the room list; only direct rooms have one.
func ResolveAvatar(room *ChatRoom, viewerID string) string {
	if room.Type != RoomTypeDirect {
		return ""
	}
	if other := room.OtherParticipant(viewerID); other != nil {
		return other.AvatarURL
	}
	return ""
}
