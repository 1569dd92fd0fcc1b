package repository

import (
	"context"
	"time"

	"team_match_service/internal/chat/domain"
	errprocess "team_match_service/pkg/err"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository message document storage. Messages are immutable, so
// the repository exposes insert and reads only.
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) error
	// HistoryBefore keyset page: messages strictly older than before,
	// newest page first in the scan but returned ascending.
	HistoryBefore(ctx context.Context, roomID string, before time.Time, limit int64) ([]domain.Message, error)
	// LastMessages the newest message per room, one aggregation for the
	// whole room list.
	LastMessages(ctx context.Context, roomIDs []string) (map[string]domain.Message, error)
	// CountUnread messages after the watermark not sent by the viewer.
	CountUnread(ctx context.Context, roomID, viewerID string, after time.Time) (int, error)
	// CountUnreadByRoom per-room unread counts for every cursor in one
	// aggregation, replacing a per-room query fan-out.
	CountUnreadByRoom(ctx context.Context, cursors []domain.ReadCursor) ([]domain.RoomUnreadInfo, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository over the messages
// collection.
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

// MessageIndexes the indexes the history and unread queries lean on.
func MessageIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "sender_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "insert message", err)
	}
	return nil
}

func (r *messageRepository) HistoryBefore(ctx context.Context, roomID string, before time.Time, limit int64) ([]domain.Message, error) {
	filter := bson.M{
		"room_id":    roomID,
		"created_at": bson.M{"$lt": before},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "query history", err)
	}
	var page []domain.Message
	if err := cur.All(ctx, &page); err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "decode history", err)
	}

	// scanned newest-first, render oldest-first
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

func (r *messageRepository) LastMessages(ctx context.Context, roomIDs []string) (map[string]domain.Message, error) {
	if len(roomIDs) == 0 {
		return map[string]domain.Message{}, nil
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "room_id", Value: bson.D{{Key: "$in", Value: roomIDs}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$room_id"},
			{Key: "latest", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "aggregate last messages", err)
	}

	var results []struct {
		RoomID string         `bson:"_id"`
		Latest domain.Message `bson:"latest"`
	}
	if err := cur.All(ctx, &results); err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "decode last messages", err)
	}

	latest := make(map[string]domain.Message, len(results))
	for _, res := range results {
		latest[res.RoomID] = res.Latest
	}
	return latest, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, roomID, viewerID string, after time.Time) (int, error) {
	filter := bson.M{
		"room_id":    roomID,
		"sender_id":  bson.M{"$ne": viewerID},
		"created_at": bson.M{"$gt": after},
	}
	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errprocess.Wrap(errprocess.KindRead, "count unread", err)
	}
	return int(count), nil
}

func (r *messageRepository) CountUnreadByRoom(ctx context.Context, cursors []domain.ReadCursor) ([]domain.RoomUnreadInfo, error) {
	if len(cursors) == 0 {
		return nil, nil
	}

	// one $match branch per room watermark
	branches := make(bson.A, 0, len(cursors))
	for _, c := range cursors {
		branches = append(branches, bson.D{
			{Key: "room_id", Value: c.RoomID},
			{Key: "sender_id", Value: bson.D{{Key: "$ne", Value: c.UserID}}},
			{Key: "created_at", Value: bson.D{{Key: "$gt", Value: c.LastReadAt}}},
		})
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "$or", Value: branches}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$room_id"},
			{Key: "unread_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "last_unread_at", Value: bson.D{{Key: "$max", Value: "$created_at"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "last_unread_at", Value: -1},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "aggregate unread", err)
	}

	var results []domain.RoomUnreadInfo
	if err := cur.All(ctx, &results); err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "decode unread", err)
	}
	return results, nil
}
