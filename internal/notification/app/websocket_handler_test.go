package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"team_match_service/internal/notification/domain"
	"team_match_service/internal/notification/repository"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fakePushConn struct {
	writes []map[string]interface{}
}

func (c *fakePushConn) WriteJSON(v interface{}) error {
	payload, _ := v.(map[string]interface{})
	c.writes = append(c.writes, payload)
	return nil
}

func TestStream(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	t.Run("pushes feed entries down the socket", func(t *testing.T) {
		mockPub := new(MockPubSub)
		handler := NewNotificationWebsocketHandler(NewFeedUseCase(new(MockNotificationRepository), mockPub, 0))
		conn := &fakePushConn{}

		var deliver func(payload []byte)
		mockPub.On("Subscribe", ctx, repository.NotifyChannel("user-1"), mock.Anything).
			Run(func(args mock.Arguments) {
				deliver = args.Get(2).(func(payload []byte))
			}).Return(nil).Once()

		var mu sync.Mutex
		assert.NoError(t, handler.stream(ctx, conn, &mu, "user-1"))

		payload, _ := json.Marshal(domain.Notification{ID: "n1", UserID: "user-1", Title: "새 메시지"})
		deliver(payload)

		assert.Len(t, conn.writes, 1)
		assert.Equal(t, "notify", conn.writes[0]["action"])
	})

	t.Run("failed subscribe signals reconnect instead of dropping silently", func(t *testing.T) {
		mockPub := new(MockPubSub)
		handler := NewNotificationWebsocketHandler(NewFeedUseCase(new(MockNotificationRepository), mockPub, 0))
		conn := &fakePushConn{}

		subErr := errprocess.New(errprocess.KindSubscription, "bus down")
		mockPub.On("Subscribe", ctx, repository.NotifyChannel("user-1"), mock.Anything).
			Return(subErr).Once()

		var mu sync.Mutex
		err := handler.stream(ctx, conn, &mu, "user-1")
		assert.Error(t, err)

		assert.Len(t, conn.writes, 1)
		assert.Equal(t, "reconnect", conn.writes[0]["action"])
		assert.Contains(t, conn.writes[0]["error"], "bus down")
	})
}
