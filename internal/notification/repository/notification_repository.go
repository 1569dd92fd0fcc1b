package repository

import (
	"context"
	"errors"

	"team_match_service/internal/notification/domain"
	errprocess "team_match_service/pkg/err"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository feed row storage
type NotificationRepository interface {
	AutoMigrate() error
	Insert(ctx context.Context, n *domain.Notification) error
	// ListByUser newest first, capped at limit.
	ListByUser(ctx context.Context, userID string, onlyUnread bool, limit int) ([]domain.Notification, error)
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	// MarkRead flip one row owned by userID. Already-read rows are a no-op.
	MarkRead(ctx context.Context, id, userID string) error
	// MarkAllRead one batched update, not a row-per-call loop.
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository create NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Notification{})
}

func (r *notificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	// a redelivered event carries the same source_event_id; swallow the
	// duplicate instead of surfacing it
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_event_id"}},
			DoNothing: true,
		}).
		Create(n).Error
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "insert notification", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, onlyUnread bool, limit int) ([]domain.Notification, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit)
	if onlyUnread {
		q = q.Where("read = ?", false)
	}

	var rows []domain.Notification
	if err := q.Find(&rows).Error; err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "list notifications", err)
	}
	return rows, nil
}

func (r *notificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindRead, "find notification", err)
	}
	return &n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "mark notification read", err)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "mark all notifications read", err)
	}
	return nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, errprocess.Wrap(errprocess.KindRead, "count unread notifications", err)
	}
	return count, nil
}

func (r *notificationRepository) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("source_event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, errprocess.Wrap(errprocess.KindRead, "check event id", err)
	}
	return count > 0, nil
}
