package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"team_match_service/internal/chat/domain"
	"team_match_service/internal/chat/repository"
	"team_match_service/pkg"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/timefmt"
)

// RoomUseCase room registry: find-or-create rooms, list them for a viewer,
// keep project rosters in sync.
type RoomUseCase struct {
	roomRepo      repository.RoomRepository
	msgRepo       repository.MessageRepository
	previewLength int
}

// NewRoomUseCase init room use case
func NewRoomUseCase(roomRepo repository.RoomRepository, msgRepo repository.MessageRepository, previewLength int) *RoomUseCase {
	if previewLength <= 0 {
		previewLength = 50
	}
	return &RoomUseCase{
		roomRepo:      roomRepo,
		msgRepo:       msgRepo,
		previewLength: previewLength,
	}
}

// FindOrCreateDirectRoom the canonical direct room for an unordered user
// pair. Two users DM-ing each other for the first time simultaneously both
// race the insert; the loser hits the unique direct_key and recovers by
// re-querying, so both ends converge on one room.
func (uc *RoomUseCase) FindOrCreateDirectRoom(ctx context.Context, viewerID, otherID string) (*domain.ChatRoom, error) {
	if viewerID == "" || otherID == "" {
		return nil, errprocess.New(errprocess.KindValidation, "both user ids are required")
	}
	if viewerID == otherID {
		return nil, errprocess.New(errprocess.KindValidation, "cannot open a direct room with yourself")
	}

	room, err := uc.roomRepo.FindDirectRoom(ctx, viewerID, otherID)
	if err != nil {
		return nil, err
	}
	if room != nil {
		return room, nil
	}

	now := time.Now().UTC()
	newRoom := &domain.ChatRoom{
		ID:        uuid.New().String(),
		Type:      domain.RoomTypeDirect,
		DirectKey: domain.DirectKey(viewerID, otherID),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = uc.roomRepo.CreateDirectRoom(ctx, newRoom, viewerID, otherID)
	if err != nil {
		if errprocess.Is(err, errprocess.KindConflict) {
			// the other side won the race; their row is canonical
			existing, findErr := uc.roomRepo.FindDirectRoom(ctx, viewerID, otherID)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	return uc.roomRepo.FindByID(ctx, newRoom.ID)
}

// CreateProjectRoom one room per project, created alongside the project.
// The creator joins as admin.
func (uc *RoomUseCase) CreateProjectRoom(ctx context.Context, projectID, title, creatorID string, memberIDs []string) (*domain.ChatRoom, error) {
	if projectID == "" {
		return nil, errprocess.New(errprocess.KindValidation, "project id is required")
	}
	if creatorID == "" {
		return nil, errprocess.New(errprocess.KindValidation, "creator id is required")
	}

	now := time.Now().UTC()
	room := &domain.ChatRoom{
		ID:        uuid.New().String(),
		Type:      domain.RoomTypeProject,
		Name:      title,
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.roomRepo.CreateProjectRoom(ctx, room, creatorID, memberIDs); err != nil {
		return nil, err
	}
	return uc.roomRepo.FindByID(ctx, room.ID)
}

// SyncProjectRoomMembers mirror the project's active member set onto the
// room roster: missing members join, departed members deactivate. Eventual,
// not transactional with the project itself. A re-joining member keeps the
// old read cursor.
func (uc *RoomUseCase) SyncProjectRoomMembers(ctx context.Context, roomID string, memberIDs []string) error {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return errprocess.New(errprocess.KindNotFound, "room not found")
	}
	if room.Type != domain.RoomTypeProject {
		return errprocess.New(errprocess.KindValidation, "not a project room")
	}

	now := time.Now().UTC()
	current := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		if !p.Active {
			continue
		}
		current = append(current, p.UserID)
		if !pkg.Contains(memberIDs, p.UserID) && p.Role != domain.RoleAdmin {
			if err := uc.roomRepo.DeactivateParticipant(ctx, roomID, p.UserID); err != nil {
				return err
			}
		}
	}

	for _, userID := range memberIDs {
		if pkg.Contains(current, userID) {
			continue
		}
		p := &domain.Participant{
			RoomID:   roomID,
			UserID:   userID,
			Role:     domain.RoleMember,
			JoinedAt: now,
			Active:   true,
		}
		if err := uc.roomRepo.AddParticipant(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// ListRooms every room the viewer belongs to, most recently active first,
// annotated with display name, last-message preview, and unread count. Last
// messages and unread counts come from two batched queries, not one pair
// per room.
func (uc *RoomUseCase) ListRooms(ctx context.Context, viewerID string) ([]domain.RoomSummary, error) {
	rooms, err := uc.roomRepo.ListByUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return []domain.RoomSummary{}, nil
	}

	roomIDs := make([]string, 0, len(rooms))
	cursors := make([]domain.ReadCursor, 0, len(rooms))
	for _, room := range rooms {
		roomIDs = append(roomIDs, room.ID)
		if p := room.Participant(viewerID); p != nil {
			cursors = append(cursors, domain.ReadCursor{
				RoomID:     room.ID,
				UserID:     viewerID,
				LastReadAt: p.LastReadAt,
			})
		}
	}

	lastMessages, err := uc.msgRepo.LastMessages(ctx, roomIDs)
	if err != nil {
		return nil, err
	}
	unread, err := uc.msgRepo.CountUnreadByRoom(ctx, cursors)
	if err != nil {
		return nil, err
	}
	unreadByRoom := make(map[string]int, len(unread))
	for _, info := range unread {
		unreadByRoom[info.RoomID] = info.UnreadCount
	}

	summaries := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := domain.RoomSummary{
			Room:        room,
			DisplayName: domain.ResolveDisplayName(&room, viewerID),
			AvatarURL:   domain.ResolveAvatar(&room, viewerID),
			UnreadCount: unreadByRoom[room.ID],
		}
		if last, ok := lastMessages[room.ID]; ok {
			msg := last
			summary.LastMessage = &msg
			summary.Preview = pkg.Truncate(msg.Content, uc.previewLength)
			summary.LastActivity = timefmt.Relative(msg.CreatedAt, time.Now().UTC())
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
