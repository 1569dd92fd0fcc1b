package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"team_match_service/internal/chat/domain"
	errprocess "team_match_service/pkg/err"
)

// RoomRepository room and participant storage. Direct-room uniqueness lives
// here: chat_rooms.direct_key carries a UNIQUE index on the sorted user
// pair, so racing creations surface as a Conflict instead of a duplicate.
type RoomRepository interface {
	CreateDirectRoom(ctx context.Context, room *domain.ChatRoom, userA, userB string) error
	CreateProjectRoom(ctx context.Context, room *domain.ChatRoom, creatorID string, memberIDs []string) error
	FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error)
	FindDirectRoom(ctx context.Context, userA, userB string) (*domain.ChatRoom, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ChatRoom, error)
	Participant(ctx context.Context, roomID, userID string) (*domain.Participant, error)
	AddParticipant(ctx context.Context, p *domain.Participant) error
	DeactivateParticipant(ctx context.Context, roomID, userID string) error
	AdvanceReadCursor(ctx context.Context, roomID, userID string, at time.Time) error
	TouchRoom(ctx context.Context, roomID string, at time.Time) error
	ReadCursors(ctx context.Context, userID string) ([]domain.ReadCursor, error)
}

type roomRepository struct {
	db *pgxpool.Pool
}

// NewRoomRepository create a RoomRepository
func NewRoomRepository(db *pgxpool.Pool) RoomRepository {
	return &roomRepository{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *roomRepository) CreateDirectRoom(ctx context.Context, room *domain.ChatRoom, userA, userB string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "begin create direct room", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO chat_rooms(id, type, direct_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)`,
		room.ID, room.Type, room.DirectKey, room.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errprocess.Wrap(errprocess.KindConflict, "direct room already exists", err)
		}
		return errprocess.Wrap(errprocess.KindWrite, "insert direct room", err)
	}

	for _, userID := range []string{userA, userB} {
		_, err = tx.Exec(ctx,
			`INSERT INTO chat_participants(room_id, user_id, role, joined_at, last_read_at, active)
			 VALUES ($1, $2, $3, $4, $4, TRUE)`,
			room.ID, userID, domain.RoleMember, room.CreatedAt)
		if err != nil {
			return errprocess.Wrap(errprocess.KindWrite, "insert direct participant", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return errprocess.Wrap(errprocess.KindConflict, "direct room already exists", err)
		}
		return errprocess.Wrap(errprocess.KindWrite, "commit create direct room", err)
	}
	return nil
}

func (r *roomRepository) CreateProjectRoom(ctx context.Context, room *domain.ChatRoom, creatorID string, memberIDs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "begin create project room", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO chat_rooms(id, type, name, project_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		room.ID, room.Type, room.Name, room.ProjectID, room.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errprocess.Wrap(errprocess.KindConflict, "project room already exists", err)
		}
		return errprocess.Wrap(errprocess.KindWrite, "insert project room", err)
	}

	inserted := map[string]bool{}
	for _, userID := range append([]string{creatorID}, memberIDs...) {
		if inserted[userID] {
			continue
		}
		inserted[userID] = true

		role := domain.RoleMember
		if userID == creatorID {
			role = domain.RoleAdmin
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO chat_participants(room_id, user_id, role, joined_at, last_read_at, active)
			 VALUES ($1, $2, $3, $4, $4, TRUE)`,
			room.ID, userID, role, room.CreatedAt)
		if err != nil {
			return errprocess.Wrap(errprocess.KindWrite, "insert project participant", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "commit create project room", err)
	}
	return nil
}

func (r *roomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	rooms, err := r.queryRooms(ctx, `WHERE r.id = $1`, roomID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}
	return &rooms[0], nil
}

func (r *roomRepository) FindDirectRoom(ctx context.Context, userA, userB string) (*domain.ChatRoom, error) {
	rooms, err := r.queryRooms(ctx, `WHERE r.direct_key = $1`, domain.DirectKey(userA, userB))
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}
	return &rooms[0], nil
}

func (r *roomRepository) ListByUser(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	return r.queryRooms(ctx,
		`WHERE EXISTS (
		    SELECT 1 FROM chat_participants cp
		    WHERE cp.room_id = r.id AND cp.user_id = $1 AND cp.active
		 )
		 ORDER BY r.updated_at DESC`, userID)
}

// queryRooms fetch rooms for a filter, then the full rosters in one batched
// query instead of one round-trip per room.
func (r *roomRepository) queryRooms(ctx context.Context, where string, args ...interface{}) ([]domain.ChatRoom, error) {
	queryStr := `SELECT r.id, r.type, COALESCE(r.name, ''), COALESCE(r.project_id, ''),
	                    COALESCE(p.title, ''), COALESCE(r.direct_key, ''), r.created_at, r.updated_at
	             FROM chat_rooms r
	             LEFT JOIN projects p ON p.id = r.project_id ` + where

	rows, err := r.db.Query(ctx, queryStr, args...)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "query rooms", err)
	}
	defer rows.Close()

	var rooms []domain.ChatRoom
	roomIDs := []string{}
	for rows.Next() {
		var room domain.ChatRoom
		if err := rows.Scan(&room.ID, &room.Type, &room.Name, &room.ProjectID,
			&room.ProjectTitle, &room.DirectKey, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, errprocess.Wrap(errprocess.KindRead, "scan room", err)
		}
		rooms = append(rooms, room)
		roomIDs = append(roomIDs, room.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "iterate rooms", err)
	}
	if len(rooms) == 0 {
		return rooms, nil
	}

	participants, err := r.participantsByRooms(ctx, roomIDs)
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		rooms[i].Participants = participants[rooms[i].ID]
	}
	return rooms, nil
}

func (r *roomRepository) participantsByRooms(ctx context.Context, roomIDs []string) (map[string][]domain.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT cp.room_id, cp.user_id, cp.role, cp.joined_at, cp.last_read_at, cp.active,
		        COALESCE(u.name, ''), COALESCE(u.avatar_url, '')
		 FROM chat_participants cp
		 LEFT JOIN users u ON u.id = cp.user_id
		 WHERE cp.room_id = ANY($1)`, roomIDs)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "query participants", err)
	}
	defer rows.Close()

	result := map[string][]domain.Participant{}
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.RoomID, &p.UserID, &p.Role, &p.JoinedAt, &p.LastReadAt,
			&p.Active, &p.UserName, &p.AvatarURL); err != nil {
			return nil, errprocess.Wrap(errprocess.KindRead, "scan participant", err)
		}
		result[p.RoomID] = append(result[p.RoomID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "iterate participants", err)
	}
	return result, nil
}

func (r *roomRepository) Participant(ctx context.Context, roomID, userID string) (*domain.Participant, error) {
	row := r.db.QueryRow(ctx,
		`SELECT cp.room_id, cp.user_id, cp.role, cp.joined_at, cp.last_read_at, cp.active,
		        COALESCE(u.name, ''), COALESCE(u.avatar_url, '')
		 FROM chat_participants cp
		 LEFT JOIN users u ON u.id = cp.user_id
		 WHERE cp.room_id = $1 AND cp.user_id = $2`, roomID, userID)

	var p domain.Participant
	err := row.Scan(&p.RoomID, &p.UserID, &p.Role, &p.JoinedAt, &p.LastReadAt,
		&p.Active, &p.UserName, &p.AvatarURL)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, errprocess.Wrap(errprocess.KindRead, "query participant", err)
	}
	return &p, nil
}

// AddParticipant insert or re-activate a membership. A returning member
// keeps the old last_read_at so their unread history survives the absence.
func (r *roomRepository) AddParticipant(ctx context.Context, p *domain.Participant) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_participants(room_id, user_id, role, joined_at, last_read_at, active)
		 VALUES ($1, $2, $3, $4, $4, TRUE)
		 ON CONFLICT (room_id, user_id)
		 DO UPDATE SET active = TRUE, role = EXCLUDED.role`,
		p.RoomID, p.UserID, p.Role, p.JoinedAt)
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "add participant", err)
	}
	return nil
}

func (r *roomRepository) DeactivateParticipant(ctx context.Context, roomID, userID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE chat_participants SET active = FALSE WHERE room_id = $1 AND user_id = $2`,
		roomID, userID)
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "deactivate participant", err)
	}
	return nil
}

// AdvanceReadCursor monotonic watermark update: GREATEST keeps a stale
// client from moving the cursor backwards.
func (r *roomRepository) AdvanceReadCursor(ctx context.Context, roomID, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE chat_participants
		 SET last_read_at = GREATEST(last_read_at, $3)
		 WHERE room_id = $1 AND user_id = $2 AND active`,
		roomID, userID, at)
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "advance read cursor", err)
	}
	return nil
}

// TouchRoom bump updated_at so the room rises in the recency-ordered list.
func (r *roomRepository) TouchRoom(ctx context.Context, roomID string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE chat_rooms SET updated_at = GREATEST(updated_at, $2) WHERE id = $1`,
		roomID, at)
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "touch room", err)
	}
	return nil
}

func (r *roomRepository) ReadCursors(ctx context.Context, userID string) ([]domain.ReadCursor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT room_id, user_id, last_read_at FROM chat_participants
		 WHERE user_id = $1 AND active`, userID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "query read cursors", err)
	}
	defer rows.Close()

	var cursors []domain.ReadCursor
	for rows.Next() {
		var c domain.ReadCursor
		if err := rows.Scan(&c.RoomID, &c.UserID, &c.LastReadAt); err != nil {
			return nil, errprocess.Wrap(errprocess.KindRead, "scan read cursor", err)
		}
		cursors = append(cursors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "iterate read cursors", err)
	}
	return cursors, nil
}
