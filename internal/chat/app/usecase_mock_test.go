package app

import (
	"context"
	"time"

	"team_match_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockRoomRepository mock of RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) CreateDirectRoom(ctx context.Context, room *domain.ChatRoom, userA, userB string) error {
	args := m.Called(ctx, room, userA, userB)
	return args.Error(0)
}

func (m *MockRoomRepository) CreateProjectRoom(ctx context.Context, room *domain.ChatRoom, creatorID string, memberIDs []string) error {
	args := m.Called(ctx, room, creatorID, memberIDs)
	return args.Error(0)
}

func (m *MockRoomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	room, _ := args.Get(0).(*domain.ChatRoom)
	return room, args.Error(1)
}

func (m *MockRoomRepository) FindDirectRoom(ctx context.Context, userA, userB string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, userA, userB)
	room, _ := args.Get(0).(*domain.ChatRoom)
	return room, args.Error(1)
}

func (m *MockRoomRepository) ListByUser(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	args := m.Called(ctx, userID)
	rooms, _ := args.Get(0).([]domain.ChatRoom)
	return rooms, args.Error(1)
}

func (m *MockRoomRepository) Participant(ctx context.Context, roomID, userID string) (*domain.Participant, error) {
	args := m.Called(ctx, roomID, userID)
	p, _ := args.Get(0).(*domain.Participant)
	return p, args.Error(1)
}

func (m *MockRoomRepository) AddParticipant(ctx context.Context, p *domain.Participant) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRoomRepository) DeactivateParticipant(ctx context.Context, roomID, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *MockRoomRepository) AdvanceReadCursor(ctx context.Context, roomID, userID string, at time.Time) error {
	args := m.Called(ctx, roomID, userID, at)
	return args.Error(0)
}

func (m *MockRoomRepository) TouchRoom(ctx context.Context, roomID string, at time.Time) error {
	args := m.Called(ctx, roomID, at)
	return args.Error(0)
}

func (m *MockRoomRepository) ReadCursors(ctx context.Context, userID string) ([]domain.ReadCursor, error) {
	args := m.Called(ctx, userID)
	cursors, _ := args.Get(0).([]domain.ReadCursor)
	return cursors, args.Error(1)
}

// MockMessageRepository mock of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) HistoryBefore(ctx context.Context, roomID string, before time.Time, limit int64) ([]domain.Message, error) {
	args := m.Called(ctx, roomID, before, limit)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

func (m *MockMessageRepository) LastMessages(ctx context.Context, roomIDs []string) (map[string]domain.Message, error) {
	args := m.Called(ctx, roomIDs)
	msgs, _ := args.Get(0).(map[string]domain.Message)
	return msgs, args.Error(1)
}

func (m *MockMessageRepository) CountUnread(ctx context.Context, roomID, viewerID string, after time.Time) (int, error) {
	args := m.Called(ctx, roomID, viewerID, after)
	return args.Int(0), args.Error(1)
}

func (m *MockMessageRepository) CountUnreadByRoom(ctx context.Context, cursors []domain.ReadCursor) ([]domain.RoomUnreadInfo, error) {
	args := m.Called(ctx, cursors)
	infos, _ := args.Get(0).([]domain.RoomUnreadInfo)
	return infos, args.Error(1)
}

// MockEventProducer mock of EventProducer
type MockEventProducer struct {
	mock.Mock
}

func (m *MockEventProducer) MessageCreated(ctx context.Context, msg *domain.Message, recipientIDs []string, preview string) error {
	args := m.Called(ctx, msg, recipientIDs, preview)
	return args.Error(0)
}

// MockPubSub mock of PubSub
type MockPubSub struct {
	mock.Mock
}

func (m *MockPubSub) Publish(channel string, message interface{}) error {
	args := m.Called(channel, message)
	return args.Error(0)
}

func (m *MockPubSub) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}
