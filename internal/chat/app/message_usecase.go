package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"team_match_service/internal/chat/domain"
	"team_match_service/internal/chat/repository"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/logger"
)

// MessageUseCase message feed and read-state tracking for one viewer:
// history paging, send with live fan-out, the monotonic read cursor, and
// the unread counts derived from it.
type MessageUseCase struct {
	roomRepo     repository.RoomRepository
	msgRepo      repository.MessageRepository
	pubSub       repository.PubSub
	producer     repository.EventProducer
	historyLimit int64
}

// NewMessageUseCase init message use case. historyLimit caps every history
// page; <= 0 falls back to DefaultHistoryLimit.
func NewMessageUseCase(
	roomRepo repository.RoomRepository,
	msgRepo repository.MessageRepository,
	pubSub repository.PubSub,
	producer repository.EventProducer,
	historyLimit int,
) *MessageUseCase {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &MessageUseCase{
		roomRepo:     roomRepo,
		msgRepo:      msgRepo,
		pubSub:       pubSub,
		producer:     producer,
		historyLimit: int64(historyLimit),
	}
}

// DefaultHistoryLimit page size when the service config does not set one
const DefaultHistoryLimit = 100

func (uc *MessageUseCase) requireParticipant(ctx context.Context, roomID, userID string) (*domain.Participant, error) {
	participant, err := uc.roomRepo.Participant(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if participant == nil || !participant.Active {
		return nil, errprocess.New(errprocess.KindWrite, "not an active participant of this room")
	}
	return participant, nil
}

// History the newest page of a room's messages, ascending by created_at.
func (uc *MessageUseCase) History(ctx context.Context, roomID, viewerID string) ([]domain.Message, error) {
	return uc.HistoryBefore(ctx, roomID, viewerID, time.Now().UTC(), uc.historyLimit)
}

// HistoryBefore keyset page of messages older than before. Scrolling up
// passes the oldest loaded created_at as the next cursor.
func (uc *MessageUseCase) HistoryBefore(ctx context.Context, roomID, viewerID string, before time.Time, limit int64) ([]domain.Message, error) {
	if _, err := uc.requireParticipant(ctx, roomID, viewerID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > uc.historyLimit {
		limit = uc.historyLimit
	}
	msgs, err := uc.msgRepo.HistoryBefore(ctx, roomID, before, limit)
	if err != nil {
		return nil, err
	}
	// storage order is not trusted; the feed container re-sorts
	return domain.NewHistory(msgs).Messages(), nil
}

// Send validate, persist, and fan out one message. There is no optimistic
// local echo: the sender's own view converges through the same bus insert
// every other participant receives. Never retried automatically — the
// client-side uuid is the idempotency key if a caller chooses to retry.
func (uc *MessageUseCase) Send(ctx context.Context, roomID, senderID, content string, msgType domain.MessageType, metadata map[string]interface{}) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && msgType != domain.MessageTypeImage && msgType != domain.MessageTypeFile {
		return nil, errprocess.New(errprocess.KindValidation, "message content is empty")
	}
	if msgType == "" {
		msgType = domain.MessageTypeText
	}

	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, errprocess.New(errprocess.KindNotFound, "room not found")
	}

	sender, err := uc.requireParticipant(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: sender.UserName,
		Content:    content,
		Type:       msgType,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}

	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		return nil, err
	}

	if err := uc.roomRepo.TouchRoom(ctx, roomID, msg.CreatedAt); err != nil {
		logger.Log.Errorf("touch room failed:", err)
	}

	// fan out: the room channel feeds open views, per-user channels feed
	// room-list badges of everyone else
	recipients := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		if !p.Active || p.UserID == senderID {
			continue
		}
		recipients = append(recipients, p.UserID)
	}

	if uc.pubSub != nil {
		if err := uc.pubSub.Publish(repository.RoomChannel(roomID), msg); err != nil {
			logger.Log.Errorf("publish room channel failed:", err)
		}
		for _, userID := range recipients {
			if err := uc.pubSub.Publish(repository.UserChannel(userID), msg); err != nil {
				logger.Log.Errorf("publish user channel failed:", err)
			}
		}
	}

	// notification events ride the broker; the recipient's feed picks them
	// up even with no socket open
	if uc.producer != nil {
		preview := msg.Content
		if msg.Type != domain.MessageTypeText {
			preview = string(msg.Type)
		}
		if err := uc.producer.MessageCreated(ctx, msg, recipients, preview); err != nil {
			logger.Log.Errorf("produce message event failed:", err)
		}
	}

	return msg, nil
}

// MarkRoomRead advance the viewer's read cursor. The watermark only moves
// forward; a call with an older timestamp is a no-op. Only the owning
// user's session may call this for itself.
func (uc *MessageUseCase) MarkRoomRead(ctx context.Context, roomID, userID string, at time.Time) error {
	if _, err := uc.requireParticipant(ctx, roomID, userID); err != nil {
		return err
	}
	return uc.roomRepo.AdvanceReadCursor(ctx, roomID, userID, at)
}

// UnreadCount messages in the room newer than the viewer's watermark and
// not sent by the viewer. Derived on demand, never stored.
func (uc *MessageUseCase) UnreadCount(ctx context.Context, roomID, viewerID string) (int, error) {
	participant, err := uc.requireParticipant(ctx, roomID, viewerID)
	if err != nil {
		return 0, err
	}
	return uc.msgRepo.CountUnread(ctx, roomID, viewerID, participant.LastReadAt)
}

// UnreadByRoom unread counts across every room of the viewer, one
// aggregation.
func (uc *MessageUseCase) UnreadByRoom(ctx context.Context, viewerID string) ([]domain.RoomUnreadInfo, error) {
	cursors, err := uc.roomRepo.ReadCursors(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return uc.msgRepo.CountUnreadByRoom(ctx, cursors)
}

// HasUnread badge signal: any room with unread > 0.
func (uc *MessageUseCase) HasUnread(ctx context.Context, viewerID string) (bool, error) {
	infos, err := uc.UnreadByRoom(ctx, viewerID)
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if info.UnreadCount > 0 {
			return true, nil
		}
	}
	return false, nil
}
