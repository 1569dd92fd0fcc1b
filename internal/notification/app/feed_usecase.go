package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"team_match_service/internal/notification/domain"
	"team_match_service/internal/notification/repository"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/logger"
)

// DefaultListLimit page size when the caller does not pass one
const DefaultListLimit = 50

// FeedUseCase per-user notification feed: list, read state, live pushes.
type FeedUseCase struct {
	repo      repository.NotificationRepository
	pubSub    repository.PubSub
	listLimit int
}

// NewFeedUseCase init feed use case
func NewFeedUseCase(repo repository.NotificationRepository, pubSub repository.PubSub, listLimit int) *FeedUseCase {
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &FeedUseCase{
		repo:      repo,
		pubSub:    pubSub,
		listLimit: listLimit,
	}
}

// List the viewer's feed, newest first, optionally unread only.
func (uc *FeedUseCase) List(ctx context.Context, userID string, filter domain.Filter, limit int) ([]domain.Notification, error) {
	if userID == "" {
		return nil, errprocess.New(errprocess.KindValidation, "user id is required")
	}
	if limit <= 0 || limit > uc.listLimit {
		limit = uc.listLimit
	}
	return uc.repo.ListByUser(ctx, userID, filter == domain.FilterUnread, limit)
}

// MarkRead mark one entry read and return its click-through link. A second
// call on the same entry succeeds without changing anything.
func (uc *FeedUseCase) MarkRead(ctx context.Context, id, userID string) (string, error) {
	n, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if n == nil || n.UserID != userID {
		return "", errprocess.New(errprocess.KindNotFound, "notification not found")
	}
	if err := uc.repo.MarkRead(ctx, id, userID); err != nil {
		return "", err
	}
	return n.LinkURL, nil
}

// MarkAllRead flip every unread entry of the viewer in one update.
func (uc *FeedUseCase) MarkAllRead(ctx context.Context, userID string) error {
	return uc.repo.MarkAllRead(ctx, userID)
}

// UnreadCount badge count for the viewer.
func (uc *FeedUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.repo.CountUnread(ctx, userID)
}

// Create persist one event as a feed row and push it to the user's
// channel. Redelivered events dedupe on the source event id and produce no
// second push.
func (uc *FeedUseCase) Create(ctx context.Context, event domain.Event) (*domain.Notification, error) {
	if !event.Valid() {
		return nil, errprocess.New(errprocess.KindValidation, "event is missing id, user, or type")
	}

	exists, err := uc.repo.ExistsByEventID(ctx, event.EventID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	n := &domain.Notification{
		ID:            uuid.New().String(),
		UserID:        event.UserID,
		Type:          event.Type,
		Title:         event.Title,
		Body:          event.Body,
		LinkURL:       event.LinkURL,
		SourceEventID: event.EventID,
		CreatedAt:     createdAt,
	}
	if err := uc.repo.Insert(ctx, n); err != nil {
		return nil, err
	}

	if uc.pubSub != nil {
		if err := uc.pubSub.Publish(repository.NotifyChannel(n.UserID), n); err != nil {
			logger.Log.Errorf("publish notification failed:", err)
		}
	}
	return n, nil
}

// Subscribe stream new feed entries for the user until ctx is cancelled.
func (uc *FeedUseCase) Subscribe(ctx context.Context, userID string, handler func(payload []byte)) error {
	return uc.pubSub.Subscribe(ctx, repository.NotifyChannel(userID), handler)
}
