package bdd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"team_match_service/internal/chat/app"
	"team_match_service/internal/chat/domain"
	"team_match_service/internal/chat/repository"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/logger"
)

// Feature: direct chat
//   In order to coordinate on project ideas
//   As two matched users
//   I want one shared room, live delivery, and unread counts that clear on open

const chatFeature = `Feature: direct chat

  Background:
    Given user "A" named "Alice" exists
    And user "B" named "Bob" exists

  Scenario: opening a chat twice lands in the same room
    When "A" opens a direct chat with "B"
    And "B" opens a direct chat with "A"
    Then both ends share one room

  Scenario: a message raises the unread count until the room is opened
    Given "A" opens a direct chat with "B"
    When "A" sends "hello"
    Then "B" receives "hello" live
    And "B" sees 1 unread in the room list with preview "hello"
    When "B" opens the room
    Then "B" sees 0 unread in the room list

  Scenario: the read cursor never moves backward
    Given "A" opens a direct chat with "B"
    When "A" sends "hello"
    And "B" opens the room
    And "B" marks the room read at an earlier time
    Then "B" sees 0 unread in the room list
`

// ---- in-memory storage fakes ----

type memRoomRepo struct {
	rooms map[string]*domain.ChatRoom
	users map[string]string
}

func newMemRoomRepo() *memRoomRepo {
	return &memRoomRepo{
		rooms: map[string]*domain.ChatRoom{},
		users: map[string]string{},
	}
}

func (r *memRoomRepo) CreateDirectRoom(ctx context.Context, room *domain.ChatRoom, userA, userB string) error {
	for _, existing := range r.rooms {
		if existing.Type == domain.RoomTypeDirect && existing.DirectKey == room.DirectKey {
			return errprocess.New(errprocess.KindConflict, "direct room already exists")
		}
	}
	stored := *room
	for _, userID := range []string{userA, userB} {
		stored.Participants = append(stored.Participants, domain.Participant{
			RoomID:   room.ID,
			UserID:   userID,
			Role:     domain.RoleMember,
			JoinedAt: room.CreatedAt,
			Active:   true,
			UserName: r.users[userID],
		})
	}
	r.rooms[room.ID] = &stored
	return nil
}

func (r *memRoomRepo) CreateProjectRoom(ctx context.Context, room *domain.ChatRoom, creatorID string, memberIDs []string) error {
	stored := *room
	stored.Participants = append(stored.Participants, domain.Participant{
		RoomID: room.ID, UserID: creatorID, Role: domain.RoleAdmin,
		JoinedAt: room.CreatedAt, Active: true, UserName: r.users[creatorID],
	})
	for _, userID := range memberIDs {
		if userID == creatorID {
			continue
		}
		stored.Participants = append(stored.Participants, domain.Participant{
			RoomID: room.ID, UserID: userID, Role: domain.RoleMember,
			JoinedAt: room.CreatedAt, Active: true, UserName: r.users[userID],
		})
	}
	r.rooms[room.ID] = &stored
	return nil
}

func (r *memRoomRepo) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, nil
	}
	cp := *room
	return &cp, nil
}

func (r *memRoomRepo) FindDirectRoom(ctx context.Context, userA, userB string) (*domain.ChatRoom, error) {
	key := domain.DirectKey(userA, userB)
	for _, room := range r.rooms {
		if room.Type == domain.RoomTypeDirect && room.DirectKey == key {
			cp := *room
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRoomRepo) ListByUser(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	var out []domain.ChatRoom
	for _, room := range r.rooms {
		if p := room.Participant(userID); p != nil {
			out = append(out, *room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memRoomRepo) Participant(ctx context.Context, roomID, userID string) (*domain.Participant, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, nil
	}
	for i := range room.Participants {
		if room.Participants[i].UserID == userID {
			cp := room.Participants[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRoomRepo) AddParticipant(ctx context.Context, p *domain.Participant) error {
	room, ok := r.rooms[p.RoomID]
	if !ok {
		return errprocess.New(errprocess.KindNotFound, "room not found")
	}
	for i := range room.Participants {
		if room.Participants[i].UserID == p.UserID {
			room.Participants[i].Active = true
			room.Participants[i].Role = p.Role
			return nil
		}
	}
	np := *p
	np.UserName = r.users[p.UserID]
	room.Participants = append(room.Participants, np)
	return nil
}

func (r *memRoomRepo) DeactivateParticipant(ctx context.Context, roomID, userID string) error {
	room, ok := r.rooms[roomID]
	if !ok {
		return errprocess.New(errprocess.KindNotFound, "room not found")
	}
	for i := range room.Participants {
		if room.Participants[i].UserID == userID {
			room.Participants[i].Active = false
		}
	}
	return nil
}

func (r *memRoomRepo) AdvanceReadCursor(ctx context.Context, roomID, userID string, at time.Time) error {
	room, ok := r.rooms[roomID]
	if !ok {
		return errprocess.New(errprocess.KindNotFound, "room not found")
	}
	for i := range room.Participants {
		if room.Participants[i].UserID == userID && at.After(room.Participants[i].LastReadAt) {
			room.Participants[i].LastReadAt = at
		}
	}
	return nil
}

func (r *memRoomRepo) TouchRoom(ctx context.Context, roomID string, at time.Time) error {
	if room, ok := r.rooms[roomID]; ok && at.After(room.UpdatedAt) {
		room.UpdatedAt = at
	}
	return nil
}

func (r *memRoomRepo) ReadCursors(ctx context.Context, userID string) ([]domain.ReadCursor, error) {
	var out []domain.ReadCursor
	for _, room := range r.rooms {
		if p := room.Participant(userID); p != nil {
			out = append(out, domain.ReadCursor{RoomID: room.ID, UserID: userID, LastReadAt: p.LastReadAt})
		}
	}
	return out, nil
}

type memMessageRepo struct {
	messages []domain.Message
}

func (r *memMessageRepo) Insert(ctx context.Context, msg *domain.Message) error {
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *memMessageRepo) HistoryBefore(ctx context.Context, roomID string, before time.Time, limit int64) ([]domain.Message, error) {
	var page []domain.Message
	for _, m := range r.messages {
		if m.RoomID == roomID && m.CreatedAt.Before(before) {
			page = append(page, m)
		}
	}
	sort.Slice(page, func(i, j int) bool { return page[i].Before(page[j]) })
	if int64(len(page)) > limit {
		page = page[int64(len(page))-limit:]
	}
	return page, nil
}

func (r *memMessageRepo) LastMessages(ctx context.Context, roomIDs []string) (map[string]domain.Message, error) {
	out := map[string]domain.Message{}
	for _, m := range r.messages {
		last, ok := out[m.RoomID]
		if !ok || last.Before(m) {
			out[m.RoomID] = m
		}
	}
	for roomID := range out {
		keep := false
		for _, id := range roomIDs {
			if id == roomID {
				keep = true
			}
		}
		if !keep {
			delete(out, roomID)
		}
	}
	return out, nil
}

func (r *memMessageRepo) CountUnread(ctx context.Context, roomID, viewerID string, after time.Time) (int, error) {
	count := 0
	for _, m := range r.messages {
		if m.RoomID == roomID && m.SenderID != viewerID && m.CreatedAt.After(after) {
			count++
		}
	}
	return count, nil
}

func (r *memMessageRepo) CountUnreadByRoom(ctx context.Context, cursors []domain.ReadCursor) ([]domain.RoomUnreadInfo, error) {
	var out []domain.RoomUnreadInfo
	for _, c := range cursors {
		count, _ := r.CountUnread(ctx, c.RoomID, c.UserID, c.LastReadAt)
		if count > 0 {
			out = append(out, domain.RoomUnreadInfo{RoomID: c.RoomID, UnreadCount: count})
		}
	}
	return out, nil
}

// memBus delivers synchronously, which keeps the scenarios deterministic.
type memBus struct {
	handlers map[string][]func(payload []byte)
}

func newMemBus() *memBus {
	return &memBus{handlers: map[string][]func(payload []byte){}}
}

func (b *memBus) Publish(channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	for _, handler := range b.handlers[channel] {
		handler(data)
	}
	return nil
}

func (b *memBus) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	b.handlers[channel] = append(b.handlers[channel], handler)
	return nil
}

// ---- scenario world ----

type chatWorld struct {
	roomRepo  *memRoomRepo
	msgRepo   *memMessageRepo
	bus       *memBus
	roomUC    *app.RoomUseCase
	messageUC *app.MessageUseCase

	roomsByUser map[string]*domain.ChatRoom
	received    map[string][]domain.Message
}

func newChatWorld() *chatWorld {
	roomRepo := newMemRoomRepo()
	msgRepo := &memMessageRepo{}
	bus := newMemBus()
	return &chatWorld{
		roomRepo:    roomRepo,
		msgRepo:     msgRepo,
		bus:         bus,
		roomUC:      app.NewRoomUseCase(roomRepo, msgRepo, 50),
		messageUC:   app.NewMessageUseCase(roomRepo, msgRepo, bus, nil, 0),
		roomsByUser: map[string]*domain.ChatRoom{},
		received:    map[string][]domain.Message{},
	}
}

func (w *chatWorld) userExists(alias, name string) error {
	userID := "user-" + strings.ToLower(alias)
	w.roomRepo.users[userID] = name
	return w.bus.Subscribe(context.Background(), repository.UserChannel(userID), func(payload []byte) {
		var msg domain.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return
		}
		w.received[alias] = append(w.received[alias], msg)
	})
}

func (w *chatWorld) userID(alias string) string {
	return "user-" + strings.ToLower(alias)
}

func (w *chatWorld) opensDirectChat(alias, other string) error {
	room, err := w.roomUC.FindOrCreateDirectRoom(context.Background(), w.userID(alias), w.userID(other))
	if err != nil {
		return err
	}
	w.roomsByUser[alias] = room
	return nil
}

func (w *chatWorld) bothEndsShareOneRoom() error {
	var ids []string
	for alias, room := range w.roomsByUser {
		ids = append(ids, fmt.Sprintf("%s=%s", alias, room.ID))
		if room.ID != w.roomsByUser["A"].ID {
			return fmt.Errorf("rooms diverged: %v", ids)
		}
	}
	if len(w.roomsByUser) < 2 {
		return fmt.Errorf("expected both ends to hold a room, got %d", len(w.roomsByUser))
	}
	return nil
}

func (w *chatWorld) sends(alias, content string) error {
	room := w.roomsByUser[alias]
	if room == nil {
		return fmt.Errorf("%q has no open room", alias)
	}
	_, err := w.messageUC.Send(context.Background(), room.ID, w.userID(alias), content, domain.MessageTypeText, nil)
	return err
}

func (w *chatWorld) receivesLive(alias, content string) error {
	for _, msg := range w.received[alias] {
		if msg.Content == content {
			return nil
		}
	}
	return fmt.Errorf("%q never received %q, got %v", alias, content, w.received[alias])
}

func (w *chatWorld) seesUnread(alias string, count int, preview string) error {
	summaries, err := w.roomUC.ListRooms(context.Background(), w.userID(alias))
	if err != nil {
		return err
	}
	if len(summaries) != 1 {
		return fmt.Errorf("expected one room in the list, got %d", len(summaries))
	}
	if summaries[0].UnreadCount != count {
		return fmt.Errorf("expected %d unread, got %d", count, summaries[0].UnreadCount)
	}
	if preview != "" && summaries[0].Preview != preview {
		return fmt.Errorf("expected preview %q, got %q", preview, summaries[0].Preview)
	}
	return nil
}

func (w *chatWorld) seesUnreadCount(alias string, count int) error {
	return w.seesUnread(alias, count, "")
}

func (w *chatWorld) opensTheRoom(alias string) error {
	room := w.roomsByUser["A"]
	if r, ok := w.roomsByUser[alias]; ok {
		room = r
	}
	if room == nil {
		return fmt.Errorf("no room to open")
	}
	w.roomsByUser[alias] = room
	return w.messageUC.MarkRoomRead(context.Background(), room.ID, w.userID(alias), time.Now().UTC())
}

// a stale markAsRead must not resurrect already-read messages
func (w *chatWorld) marksRoomReadEarlier(alias string) error {
	room := w.roomsByUser[alias]
	if room == nil {
		return fmt.Errorf("%q has no open room", alias)
	}
	return w.messageUC.MarkRoomRead(context.Background(), room.ID, w.userID(alias), time.Now().UTC().Add(-time.Hour))
}

func initializeChatScenario(ctx *godog.ScenarioContext) {
	var w *chatWorld
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		w = newChatWorld()
		return c, nil
	})

	ctx.Step(`^user "([^"]*)" named "([^"]*)" exists$`, func(alias, name string) error {
		return w.userExists(alias, name)
	})
	ctx.Step(`^"([^"]*)" opens a direct chat with "([^"]*)"$`, func(alias, other string) error {
		return w.opensDirectChat(alias, other)
	})
	ctx.Step(`^both ends share one room$`, func() error {
		return w.bothEndsShareOneRoom()
	})
	ctx.Step(`^"([^"]*)" sends "([^"]*)"$`, func(alias, content string) error {
		return w.sends(alias, content)
	})
	ctx.Step(`^"([^"]*)" receives "([^"]*)" live$`, func(alias, content string) error {
		return w.receivesLive(alias, content)
	})
	ctx.Step(`^"([^"]*)" sees (\d+) unread in the room list with preview "([^"]*)"$`, func(alias string, count int, preview string) error {
		return w.seesUnread(alias, count, preview)
	})
	ctx.Step(`^"([^"]*)" sees (\d+) unread in the room list$`, func(alias string, count int) error {
		return w.seesUnreadCount(alias, count)
	})
	ctx.Step(`^"([^"]*)" opens the room$`, func(alias string) error {
		return w.opensTheRoom(alias)
	})
	ctx.Step(`^"([^"]*)" marks the room read at an earlier time$`, func(alias string) error {
		return w.marksRoomReadEarlier(alias)
	})
}

func TestChatFeatures(t *testing.T) {
	logger.SetNewNop()

	suite := godog.TestSuite{
		ScenarioInitializer: initializeChatScenario,
		Options: &godog.Options{
			Format:   "pretty",
			TestingT: t,
			FeatureContents: []godog.Feature{
				{Name: "chat.feature", Contents: []byte(chatFeature)},
			},
		},
	}

	if suite.Run() != 0 {
		t.Fatal("chat feature suite failed")
	}
}
