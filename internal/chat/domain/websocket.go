package domain

// Action websocket request action
type Action string

const (
	// ListRooms websocket action list_rooms
	ListRooms Action = "list_rooms"
	// CreateDirect websocket action create_direct
	CreateDirect Action = "create_direct"

	// EnterRoom websocket action enter_room
	EnterRoom Action = "enter_room"
	// LeaveRoom websocket action leave_room
	LeaveRoom Action = "leave_room"

	// LoadHistory websocket action load_history, pages older messages
	LoadHistory Action = "load_history"

	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// ReadRoom websocket action read_room, advances the read cursor
	ReadRoom Action = "read_room"

	// GetUnread websocket action get_unread
	GetUnread Action = "get_unread"

	// NotifyMessage server push of a live message
	NotifyMessage Action = "notify_message"
	// Reconnect server push telling the client its live channel dropped
	Reconnect Action = "reconnect"
)

// WSRequest websocket Request
type WSRequest struct {
	Action      string                 `json:"action"`
	RoomID      string                 `json:"room_id,omitempty"`
	OtherUserID string                 `json:"other_user_id,omitempty"`
	Content     string                 `json:"content,omitempty"`
	MessageType string                 `json:"message_type,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Before      string                 `json:"before,omitempty"`
	Limit       int64                  `json:"limit,omitempty"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
