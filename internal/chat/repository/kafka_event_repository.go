package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"team_match_service/internal/chat/domain"
	errprocess "team_match_service/pkg/err"
)

// EventProducer emits domain events for other services to consume. The
// notification service builds its feed from these.
type EventProducer interface {
	MessageCreated(ctx context.Context, msg *domain.Message, recipientIDs []string, preview string) error
}

// messageEvent wire format of one notification event
type messageEvent struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	LinkURL   string    `json:"link_url"`
	CreatedAt time.Time `json:"created_at"`
}

type kafkaEventProducer struct {
	writer *kafka.Writer
}

// NewKafkaEventProducer create an EventProducer over a kafka writer
func NewKafkaEventProducer(writer *kafka.Writer) EventProducer {
	return &kafkaEventProducer{writer: writer}
}

// MessageCreated one event per recipient. The event id is derived from the
// message id and recipient, so a retried write dedupes downstream.
func (p *kafkaEventProducer) MessageCreated(ctx context.Context, msg *domain.Message, recipientIDs []string, preview string) error {
	if len(recipientIDs) == 0 {
		return nil
	}

	records := make([]kafka.Message, 0, len(recipientIDs))
	for _, userID := range recipientIDs {
		event := messageEvent{
			EventID:   msg.ID + ":" + userID,
			UserID:    userID,
			Type:      "new_message",
			Title:     msg.SenderName,
			Body:      preview,
			LinkURL:   "/chat/rooms/" + msg.RoomID,
			CreatedAt: msg.CreatedAt,
		}
		value, err := json.Marshal(event)
		if err != nil {
			return errprocess.Wrap(errprocess.KindWrite, "marshal message event", err)
		}
		records = append(records, kafka.Message{
			Key:   []byte(userID),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, records...); err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "write message events", err)
	}
	return nil
}
