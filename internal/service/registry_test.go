package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"kitchen_sync/internal/domain"
	"kitchen_sync/pkg/logger"
)

type fakeConn struct {
	id        uuid.UUID
	subjectID string
	mu        sync.Mutex
	sent      []domain.ServerMessage
	sendErr   error
	closed    bool
}

func newFakeConn(subjectID string) *fakeConn {
	return &fakeConn{id: uuid.New(), subjectID: subjectID}
}

func (c *fakeConn) ID() uuid.UUID     { return c.id }
func (c *fakeConn) SubjectID() string { return c.subjectID }

func (c *fakeConn) Send(msg domain.ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) sentEvents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]string, len(c.sent))
	for i, msg := range c.sent {
		events[i] = msg.Event
	}
	return events
}

func newTestRegistry() (ConnectionRegistry, RoomRouter) {
	log := logger.New("error")
	rooms := NewRoomRouter(log)
	return NewConnectionRegistry(rooms, log), rooms
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry, _ := newTestRegistry()
	conn := newFakeConn("user-1")

	registry.Register("user-1", conn)

	got, ok := registry.Lookup("user-1")
	assert.True(t, ok)
	assert.Equal(t, conn.ID(), got.ID())
	assert.True(t, registry.IsLive("user-1"))
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_RegisterClosesPriorConnection(t *testing.T) {
	registry, _ := newTestRegistry()
	first := newFakeConn("user-1")
	second := newFakeConn("user-1")

	registry.Register("user-1", first)
	registry.Register("user-1", second)

	assert.True(t, first.isClosed())
	assert.False(t, second.isClosed())

	got, _ := registry.Lookup("user-1")
	assert.Equal(t, second.ID(), got.ID())
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_ConcurrentRegistersLeaveExactlyOneEntry(t *testing.T) {
	registry, _ := newTestRegistry()

	const n = 50
	conns := make([]*fakeConn, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		conns[i] = newFakeConn("user-1")
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			registry.Register("user-1", c)
		}(conns[i])
	}
	wg.Wait()

	assert.Equal(t, 1, registry.Count())

	winner, ok := registry.Lookup("user-1")
	assert.True(t, ok)

	closed := 0
	for _, c := range conns {
		if c.isClosed() {
			assert.NotEqual(t, winner.ID(), c.ID())
			closed++
		}
	}
	assert.Equal(t, n-1, closed)
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	registry, _ := newTestRegistry()
	conn := newFakeConn("user-1")

	registry.Register("user-1", conn)
	registry.Remove("user-1", conn.ID())
	registry.Remove("user-1", conn.ID())

	assert.False(t, registry.IsLive("user-1"))
	assert.Equal(t, 0, registry.Count())
}

func TestRegistry_RemoveOfEvictedConnectionKeepsCurrent(t *testing.T) {
	registry, rooms := newTestRegistry()
	first := newFakeConn("user-1")
	second := newFakeConn("user-1")

	registry.Register("user-1", first)
	registry.Register("user-1", second)
	rooms.Join("user-1", "user-1:pantry")

	// Закрытие вытесненного соединения не должно снести актуальное.
	registry.Remove("user-1", first.ID())

	assert.True(t, registry.IsLive("user-1"))
	assert.Contains(t, rooms.Members("user-1:pantry"), "user-1")
}

func TestRegistry_RemoveTriggersRoomCleanup(t *testing.T) {
	registry, rooms := newTestRegistry()
	conn := newFakeConn("user-1")

	registry.Register("user-1", conn)
	rooms.Join("user-1", "user-1:pantry")
	rooms.Join("user-1", "household")

	registry.Remove("user-1", conn.ID())

	assert.Empty(t, rooms.Members("user-1:pantry"))
	assert.Empty(t, rooms.Members("household"))
}
