package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"kitchen_sync/internal/domain"
	apperrors "kitchen_sync/pkg/errors"
	"kitchen_sync/pkg/logger"
)

type mockPushSender struct {
	mock.Mock
}

func (m *mockPushSender) SendPush(ctx context.Context, subjectID string, envelope domain.NotificationEnvelope) error {
	args := m.Called(ctx, subjectID, envelope)
	return args.Error(0)
}

func validEnvelope() domain.NotificationEnvelope {
	return domain.NewEnvelope("pantry-synced", map[string]interface{}{"type": "pantry-synced"})
}

func newTestDispatcher(push PushSender) (NotificationDispatcher, ConnectionRegistry, RoomRouter) {
	log := logger.New("error")
	rooms := NewRoomRouter(log)
	registry := NewConnectionRegistry(rooms, log)
	return NewNotificationDispatcher(registry, rooms, push, log), registry, rooms
}

func TestDispatcher_SendToOneLiveChannel(t *testing.T) {
	push := &mockPushSender{}
	dispatcher, registry, _ := newTestDispatcher(push)

	conn := newFakeConn("user-1")
	registry.Register("user-1", conn)

	result, err := dispatcher.SendToOne(context.Background(), "user-1", validEnvelope())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.ChannelLive, result.Channel)
	assert.Equal(t, []string{"pantry-synced"}, conn.sentEvents())
	push.AssertNotCalled(t, "SendPush", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_FallbackWhenNotLive(t *testing.T) {
	push := &mockPushSender{}
	push.On("SendPush", mock.Anything, "user-1", mock.Anything).Return(nil).Once()
	dispatcher, _, _ := newTestDispatcher(push)

	result, err := dispatcher.SendToOne(context.Background(), "user-1", validEnvelope())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.ChannelFallback, result.Channel)
	push.AssertExpectations(t)
}

func TestDispatcher_LiveWriteErrorTriggersExactlyOneFallback(t *testing.T) {
	push := &mockPushSender{}
	push.On("SendPush", mock.Anything, "user-1", mock.Anything).Return(nil).Once()
	dispatcher, registry, _ := newTestDispatcher(push)

	conn := newFakeConn("user-1")
	conn.sendErr = apperrors.ErrDeliveryFailed
	registry.Register("user-1", conn)

	result, err := dispatcher.SendToOne(context.Background(), "user-1", validEnvelope())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.ChannelFallback, result.Channel)
	push.AssertNumberOfCalls(t, "SendPush", 1)
}

func TestDispatcher_BothChannelsFailedReportedNotThrown(t *testing.T) {
	push := &mockPushSender{}
	push.On("SendPush", mock.Anything, "user-1", mock.Anything).Return(errors.New("push gateway down"))
	dispatcher, _, _ := newTestDispatcher(push)

	result, err := dispatcher.SendToOne(context.Background(), "user-1", validEnvelope())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Error(t, result.Err)
}

func TestDispatcher_InvalidEnvelopeRejectedBeforeDelivery(t *testing.T) {
	push := &mockPushSender{}
	dispatcher, _, _ := newTestDispatcher(push)

	_, err := dispatcher.SendToOne(context.Background(), "user-1", domain.NotificationEnvelope{Type: ""})
	assert.ErrorIs(t, err, apperrors.ErrInvalidEnvelope)

	_, err = dispatcher.SendToOne(context.Background(), "user-1", domain.NotificationEnvelope{
		Type:    "pantry-synced",
		Payload: map[string]interface{}{},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidEnvelope)

	push.AssertNotCalled(t, "SendPush", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_BroadcastAggregatesPartialFailure(t *testing.T) {
	push := &mockPushSender{}
	push.On("SendPush", mock.Anything, "b", mock.Anything).Return(errors.New("push gateway down"))
	dispatcher, registry, _ := newTestDispatcher(push)

	registry.Register("a", newFakeConn("a"))
	registry.Register("c", newFakeConn("c"))

	report, err := dispatcher.Broadcast(context.Background(), []string{"a", "b", "c"}, validEnvelope())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	for _, result := range report.Results {
		if result.SubjectID == "b" {
			assert.False(t, result.Success)
		} else {
			assert.True(t, result.Success)
		}
	}
}

func TestDispatcher_RouteEventExcludesSender(t *testing.T) {
	push := &mockPushSender{}
	dispatcher, registry, rooms := newTestDispatcher(push)

	sender := newFakeConn("a")
	other := newFakeConn("b")
	registry.Register("a", sender)
	registry.Register("b", other)
	rooms.Join("a", "a:pantry")
	rooms.Join("b", "a:pantry")

	report, err := dispatcher.RouteEvent(context.Background(), "a:pantry", validEnvelope(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	assert.Empty(t, sender.sentEvents())
	assert.Equal(t, []string{"pantry-synced"}, other.sentEvents())
}

func TestDispatcher_PerSubjectOrderingPreserved(t *testing.T) {
	push := &mockPushSender{}
	dispatcher, registry, _ := newTestDispatcher(push)

	conn := newFakeConn("user-1")
	registry.Register("user-1", conn)

	for _, eventType := range []string{"first", "second", "third"} {
		_, err := dispatcher.SendToOne(context.Background(), "user-1",
			domain.NewEnvelope(eventType, map[string]interface{}{"type": eventType}))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"first", "second", "third"}, conn.sentEvents())
}

func TestDispatcher_StatsCountDeliveries(t *testing.T) {
	push := &mockPushSender{}
	push.On("SendPush", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("push gateway down"))
	dispatcher, registry, _ := newTestDispatcher(push)

	registry.Register("a", newFakeConn("a"))

	_, _ = dispatcher.SendToOne(context.Background(), "a", validEnvelope())
	_, _ = dispatcher.SendToOne(context.Background(), "offline", validEnvelope())

	delivered, failed := dispatcher.Stats()
	assert.Equal(t, int64(1), delivered)
	assert.Equal(t, int64(1), failed)
}
