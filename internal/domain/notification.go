package domain

import (
	"time"

	apperrors "kitchen_sync/pkg/errors"
)

const (
	ChannelLive     = "live"
	ChannelFallback = "fallback"
)

// NotificationEnvelope — единица доставки для диспетчера.
// Payload должен быть непустым объектом, Type — непустой строкой.
type NotificationEnvelope struct {
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewEnvelope(eventType string, payload map[string]interface{}) NotificationEnvelope {
	return NotificationEnvelope{
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

func (e NotificationEnvelope) Validate() error {
	if e.Type == "" {
		return apperrors.ErrInvalidEnvelope
	}
	if len(e.Payload) == 0 {
		return apperrors.ErrInvalidEnvelope
	}
	return nil
}

// DeliveryResult — итог доставки одному получателю.
// Ошибка доставки всегда фиксируется здесь и никогда не пробрасывается наверх.
type DeliveryResult struct {
	SubjectID string `json:"subject_id"`
	Channel   string `json:"channel"`
	Success   bool   `json:"success"`
	Err       error  `json:"-"`
}

type DeliveryReport struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []DeliveryResult `json:"results"`
}
