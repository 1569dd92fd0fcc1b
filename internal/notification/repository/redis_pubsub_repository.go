package repository

import (
	"context"
	"encoding/json"
	"fmt"

	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// PubSub realtime bus boundary for notification pushes.
type PubSub interface {
	Publish(channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error
}

// NotifyChannelPrefix one channel per user for new feed entries
const NotifyChannelPrefix = "notify:user:"

// NotifyChannel bus channel for a user's notification pushes
func NotifyChannel(userID string) string { return NotifyChannelPrefix + userID }

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

// Subscribe open a subscription on channel until ctx is cancelled.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	sub := r.client.Subscribe(r.ctx, channel)

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
