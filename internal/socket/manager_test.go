package socket

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/supplier-portal/assistant-backend/internal/logger"
	"github.com/supplier-portal/assistant-backend/internal/types"
)

func newTestClient(hub *Hub, role string) *Client {
	return NewClient(nil, hub, uuid.New(), role, func() {}, logger.NewNop())
}

func TestCanSubscribe(t *testing.T) {
	hub := NewHub(logger.NewNop())
	user := newTestClient(hub, types.RoleUser)
	operator := newTestClient(hub, types.RoleOperator)
	admin := newTestClient(hub, types.RoleAdmin)

	require.True(t, user.canSubscribe(UserChannel(user.UserID)))
	require.False(t, user.canSubscribe(UserChannel(operator.UserID)))
	require.False(t, user.canSubscribe(OperatorsChannel))
	require.False(t, user.canSubscribe("random-channel"))

	require.True(t, operator.canSubscribe(OperatorsChannel))
	require.True(t, admin.canSubscribe(OperatorsChannel))
}

func TestBroadcast_ReachesSubscribersOnly(t *testing.T) {
	hub := NewHub(logger.NewNop())
	subscriber := newTestClient(hub, types.RoleOperator)
	bystander := newTestClient(hub, types.RoleUser)
	hub.Subscribe(subscriber, []string{OperatorsChannel})
	hub.Subscribe(bystander, []string{UserChannel(bystander.UserID)})

	hub.BroadcastGlobal(context.Background(), Message{
		Channel: OperatorsChannel,
		Data:    map[string]interface{}{"type": "support_request_created"},
	})

	select {
	case msg := <-subscriber.Outbound:
		require.Equal(t, OperatorsChannel, msg.Channel)
	default:
		t.Fatal("subscriber did not receive the broadcast")
	}
	select {
	case <-bystander.Outbound:
		t.Fatal("bystander received a message for a channel it never joined")
	default:
	}
}

func TestBroadcast_DropsWhenBufferFull(t *testing.T) {
	hub := NewHub(logger.NewNop())
	client := newTestClient(hub, types.RoleUser)
	channel := UserChannel(client.UserID)
	hub.Subscribe(client, []string{channel})

	// A stalled reader must not block the hub.
	for i := 0; i < OutboundChanBuffer+10; i++ {
		hub.BroadcastGlobal(context.Background(), Message{Channel: channel, Data: i})
	}
	require.Len(t, client.Outbound, OutboundChanBuffer)
}

func TestUnsubscribe(t *testing.T) {
	hub := NewHub(logger.NewNop())
	client := newTestClient(hub, types.RoleOperator)
	channel := UserChannel(client.UserID)
	hub.Subscribe(client, []string{channel, OperatorsChannel})

	hub.UnsubscribeFromChannel(client, OperatorsChannel)
	hub.BroadcastGlobal(context.Background(), Message{Channel: OperatorsChannel, Data: "x"})
	require.Empty(t, client.Outbound)

	hub.BroadcastGlobal(context.Background(), Message{Channel: channel, Data: "y"})
	require.Len(t, client.Outbound, 1)

	hub.Unsubscribe(client)
	<-client.Outbound
	hub.BroadcastGlobal(context.Background(), Message{Channel: channel, Data: "z"})
	require.Empty(t, client.Outbound)
}
