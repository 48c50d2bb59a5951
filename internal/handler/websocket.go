package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"kitchen_sync/internal/domain"
	"kitchen_sync/internal/middleware"
	"kitchen_sync/internal/service"
	apperrors "kitchen_sync/pkg/errors"
	"kitchen_sync/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

type WebSocketHandler struct {
	auth      service.AuthService
	registry  service.ConnectionRegistry
	rateLimit service.RateLimitService
	events    *EventHandlers
	log       logger.Logger
}

func NewWebSocketHandler(services *service.Services, events *EventHandlers, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		auth:      services.Auth,
		registry:  services.Registry,
		rateLimit: services.RateLimit,
		events:    events,
		log:       log,
	}
}

// HandleSync — точка входа живого соединения. Аутентификация идёт до upgrade:
// отклонённая попытка не оставляет после себя никакого состояния.
func (h *WebSocketHandler) HandleSync(c *gin.Context) {
	token := middleware.BearerToken(c)
	subjectID, err := h.auth.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := newWSClient(conn, subjectID, h.log)
	go client.writePump()

	h.registry.Register(subjectID, client)

	_ = client.Send(domain.ServerMessage{
		Event: domain.EventConnectionEstablished,
		Data:  gin.H{"timestamp": time.Now().UTC()},
	})

	// Снимок кладовой и алерты уходят асинхронно: медленный даунстрим
	// не должен задерживать читающий цикл.
	go h.events.OnConnect(context.Background(), subjectID)

	h.readLoop(c.Request.Context(), client)
}

func (h *WebSocketHandler) readLoop(ctx context.Context, client *wsClient) {
	defer func() {
		client.Close()
		h.registry.Remove(client.SubjectID(), client.ID())
		h.log.Debug("Connection finished", "subject_id", client.SubjectID(), "last_activity", client.LastActivity())
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg domain.ClientMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Connection closed unexpectedly", "subject_id", client.SubjectID(), "error", err)
			}
			return
		}
		client.touch()

		if !h.consumeBudget(ctx, client) {
			continue
		}

		h.events.HandleMessage(ctx, client, msg)
	}
}

// consumeBudget списывает точку лимита за входящее событие. При отказе
// клиент получает метаданные лимита, событие дальше не обрабатывается.
func (h *WebSocketHandler) consumeBudget(ctx context.Context, client *wsClient) bool {
	_, err := h.rateLimit.Consume(ctx, client.SubjectID())
	if err == nil {
		return true
	}

	if exceeded, ok := err.(*domain.LimitExceededError); ok {
		_ = client.Send(domain.ServerMessage{
			Event: domain.EventRateLimited,
			Data: gin.H{
				"limit":       exceeded.Result.Limit,
				"remaining":   exceeded.Result.Remaining,
				"reset":       exceeded.Result.ResetAt.Unix(),
				"retry_after": int64(exceeded.Result.RetryAfter.Seconds()),
			},
		})
		return false
	}

	h.log.Error("Rate limit consume failed", "subject_id", client.SubjectID(), "error", err)
	return false
}

// wsClient — одно живое соединение. Все записи идут через канал send и
// единственную пишущую горутину, что сохраняет порядок сообщений субъекта.
type wsClient struct {
	id           uuid.UUID
	subjectID    string
	conn         *websocket.Conn
	send         chan domain.ServerMessage
	done         chan struct{}
	closeOnce    sync.Once
	mu           sync.Mutex
	lastActivity time.Time
	log          logger.Logger
}

func newWSClient(conn *websocket.Conn, subjectID string, log logger.Logger) *wsClient {
	return &wsClient{
		id:           uuid.New(),
		subjectID:    subjectID,
		conn:         conn,
		send:         make(chan domain.ServerMessage, sendBufferSize),
		done:         make(chan struct{}),
		lastActivity: time.Now(),
		log:          log,
	}
}

func (c *wsClient) ID() uuid.UUID     { return c.id }
func (c *wsClient) SubjectID() string { return c.subjectID }

func (c *wsClient) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

func (c *wsClient) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Send ставит сообщение в очередь записи. Переполненный буфер означает
// безнадёжно отстающий транспорт и трактуется как ошибка доставки.
func (c *wsClient) Send(msg domain.ServerMessage) error {
	select {
	case <-c.done:
		return apperrors.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return apperrors.ErrConnectionClosed
	default:
		return apperrors.ErrDeliveryFailed
	}
}

func (c *wsClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug("Write failed", "subject_id", c.subjectID, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
