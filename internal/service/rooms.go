package service

import (
	"sync"

	"kitchen_sync/pkg/logger"
)

// PrivateRoom строит ключ личной комнаты субъекта для топика.
func PrivateRoom(subjectID, topic string) string {
	return subjectID + ":" + topic
}

// RoomRouter хранит членство соединений в комнатах. Состояние живёт только
// в памяти процесса и строится заново при каждом переподключении клиента.
type RoomRouter interface {
	Join(subjectID, roomName string)
	Leave(subjectID, roomName string)
	LeaveAll(subjectID string)
	Members(roomName string) []string
	Rooms(subjectID string) []string
	RoomCount() int
}

type roomRouter struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]struct{}
	subjects map[string]map[string]struct{}
	log      logger.Logger
}

func NewRoomRouter(log logger.Logger) RoomRouter {
	return &roomRouter{
		rooms:    make(map[string]map[string]struct{}),
		subjects: make(map[string]map[string]struct{}),
		log:      log,
	}
}

// Join идемпотентен: повторное вступление в комнату — no-op.
// Обе стороны членства обновляются под одной блокировкой.
func (r *roomRouter) Join(subjectID, roomName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[roomName] == nil {
		r.rooms[roomName] = make(map[string]struct{})
	}
	r.rooms[roomName][subjectID] = struct{}{}

	if r.subjects[subjectID] == nil {
		r.subjects[subjectID] = make(map[string]struct{})
	}
	r.subjects[subjectID][roomName] = struct{}{}
}

func (r *roomRouter) Leave(subjectID, roomName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(subjectID, roomName)
}

func (r *roomRouter) leaveLocked(subjectID, roomName string) {
	if members, ok := r.rooms[roomName]; ok {
		delete(members, subjectID)
		if len(members) == 0 {
			delete(r.rooms, roomName)
		}
	}
	if rooms, ok := r.subjects[subjectID]; ok {
		delete(rooms, roomName)
		if len(rooms) == 0 {
			delete(r.subjects, subjectID)
		}
	}
}

func (r *roomRouter) LeaveAll(subjectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomName := range r.subjects[subjectID] {
		r.leaveLocked(subjectID, roomName)
	}
	delete(r.subjects, subjectID)
}

func (r *roomRouter) Members(roomName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.rooms[roomName]))
	for subjectID := range r.rooms[roomName] {
		members = append(members, subjectID)
	}
	return members
}

func (r *roomRouter) Rooms(subjectID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.subjects[subjectID]))
	for roomName := range r.subjects[subjectID] {
		rooms = append(rooms, roomName)
	}
	return rooms
}

func (r *roomRouter) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
