package app

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"team_match_service/internal/notification/domain"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/logger"
)

// EventSource one consumed event stream. *kafka.Reader satisfies it.
type EventSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// IngestWorker drains domain events from the broker into the feed.
// Delivery is at-least-once; the feed use case dedupes on the event id, so
// a crash between insert and commit replays harmlessly.
type IngestWorker struct {
	source EventSource
	feedUC *FeedUseCase
}

// NewIngestWorker create IngestWorker
func NewIngestWorker(source EventSource, feedUC *FeedUseCase) *IngestWorker {
	return &IngestWorker{
		source: source,
		feedUC: feedUC,
	}
}

// Run consume until ctx is cancelled.
func (w *IngestWorker) Run(ctx context.Context) error {
	defer w.source.Close()

	for {
		m, err := w.source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var event domain.Event
		if err := json.Unmarshal(m.Value, &event); err != nil {
			// malformed payloads never become parseable; skip past them
			logger.Log.Errorf("unmarshal event failed, skipping:", err)
			if err := w.source.CommitMessages(ctx, m); err != nil {
				logger.Log.Errorf("commit skipped event failed:", err)
			}
			continue
		}

		if _, err := w.feedUC.Create(ctx, event); err != nil {
			if errprocess.Is(err, errprocess.KindValidation) {
				// an invalid event never becomes valid; skip past it
				logger.Log.Errorf("invalid event, skipping:", err)
				if err := w.source.CommitMessages(ctx, m); err != nil {
					logger.Log.Errorf("commit skipped event failed:", err)
				}
				continue
			}
			// leave the offset uncommitted so the event redelivers
			logger.Log.Errorf("ingest event failed:", err)
			continue
		}

		if err := w.source.CommitMessages(ctx, m); err != nil {
			logger.Log.Errorf("commit event failed:", err)
		}
	}
}
