package repository

import (
	"context"
	"encoding/json"
	"fmt"

	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// PubSub realtime bus boundary: publish a payload to a channel, or hold a
// subscription open until ctx is cancelled.
type PubSub interface {
	Publish(channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error
}

// Channel names. One channel per room carries its live messages; one
// channel per user carries pushes for the room list badge.
const (
	RoomChannelPrefix = "chat:room:"
	UserChannelPrefix = "chat:user:"
)

// RoomChannel bus channel for a room's live messages
func RoomChannel(roomID string) string { return RoomChannelPrefix + roomID }

// UserChannel bus channel for a user's cross-room pushes
func UserChannel(userID string) string { return UserChannelPrefix + userID }

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish marshal message and publish it to channel
func (r *RedisPubSub) Publish(channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "marshal publish payload", err)
	}
	if err := r.client.Publish(r.ctx, channel, data).Err(); err != nil {
		return errprocess.Wrap(errprocess.KindWrite, "publish", err)
	}
	return nil
}

// Subscribe open a subscription on channel and invoke handler per payload.
// The subscription lives exactly as long as ctx: cancellation closes it on
// every exit path.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	sub := r.client.Subscribe(r.ctx, channel)

	// confirm the subscription before reporting success
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return errprocess.Wrap(errprocess.KindSubscription, "subscribe "+channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(m.Payload))
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				return
			}
		}
	}()
	return nil
}
