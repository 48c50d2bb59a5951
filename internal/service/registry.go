package service

import (
	"sync"

	"github.com/google/uuid"
	"kitchen_sync/internal/domain"
	"kitchen_sync/pkg/logger"
)

// Connection — транспорт одного живого клиента с точки зрения реестра.
// Send обязан сохранять порядок сообщений для этого соединения.
type Connection interface {
	ID() uuid.UUID
	SubjectID() string
	Send(msg domain.ServerMessage) error
	Close()
}

// ConnectionRegistry — единственный источник истины о живых соединениях.
// Инвариант: не больше одной живой записи на subject identifier.
type ConnectionRegistry interface {
	Register(subjectID string, conn Connection)
	Lookup(subjectID string) (Connection, bool)
	Remove(subjectID string, connID uuid.UUID)
	IsLive(subjectID string) bool
	Count() int
}

type connectionRegistry struct {
	mu      sync.RWMutex
	entries map[string]Connection
	rooms   RoomRouter
	log     logger.Logger
}

func NewConnectionRegistry(rooms RoomRouter, log logger.Logger) ConnectionRegistry {
	return &connectionRegistry{
		entries: make(map[string]Connection),
		rooms:   rooms,
		log:     log,
	}
}

// Register вытесняет предыдущее соединение субъекта: политика
// «одно активное соединение на субъект» исключает двойную доставку.
// Закрытие вытесненного транспорта выполняется вне критической секции.
func (r *connectionRegistry) Register(subjectID string, conn Connection) {
	r.mu.Lock()
	prior := r.entries[subjectID]
	r.entries[subjectID] = conn
	r.mu.Unlock()

	if prior != nil {
		r.log.Info("Replacing existing connection for subject", "subject_id", subjectID, "prior_conn_id", prior.ID())
		prior.Close()
	}
}

func (r *connectionRegistry) Lookup(subjectID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.entries[subjectID]
	return conn, ok
}

// Remove идемпотентен и удаляет запись только если она всё ещё принадлежит
// этому соединению: закрытие вытесненного транспорта не должно снести нового.
func (r *connectionRegistry) Remove(subjectID string, connID uuid.UUID) {
	r.mu.Lock()
	conn, ok := r.entries[subjectID]
	if !ok || conn.ID() != connID {
		r.mu.Unlock()
		return
	}
	delete(r.entries, subjectID)
	r.mu.Unlock()

	r.rooms.LeaveAll(subjectID)
	r.log.Debug("Connection removed", "subject_id", subjectID, "conn_id", connID)
}

func (r *connectionRegistry) IsLive(subjectID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[subjectID]
	return ok
}

func (r *connectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
