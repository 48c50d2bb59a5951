package service

import (
	"context"
	"sync"
	"sync/atomic"

	"kitchen_sync/internal/domain"
	"kitchen_sync/pkg/logger"
)

// NotificationDispatcher доставляет конверты: сперва по живому соединению,
// при его отсутствии или ошибке записи — ровно одна попытка через push-канал.
// Ошибки доставки фиксируются в результате и никогда не пробрасываются:
// один недоставленный получатель не должен срывать рассылку остальным.
type NotificationDispatcher interface {
	SendToOne(ctx context.Context, subjectID string, envelope domain.NotificationEnvelope) (domain.DeliveryResult, error)
	Broadcast(ctx context.Context, subjectIDs []string, envelope domain.NotificationEnvelope) (domain.DeliveryReport, error)
	RouteEvent(ctx context.Context, roomName string, envelope domain.NotificationEnvelope, excludeSubjectID string) (domain.DeliveryReport, error)
	Stats() (delivered, failed int64)
}

type notificationDispatcher struct {
	registry  ConnectionRegistry
	rooms     RoomRouter
	push      PushSender
	log       logger.Logger
	delivered atomic.Int64
	failed    atomic.Int64
}

func NewNotificationDispatcher(registry ConnectionRegistry, rooms RoomRouter, push PushSender, log logger.Logger) NotificationDispatcher {
	return &notificationDispatcher{
		registry: registry,
		rooms:    rooms,
		push:     push,
		log:      log,
	}
}

func (d *notificationDispatcher) SendToOne(ctx context.Context, subjectID string, envelope domain.NotificationEnvelope) (domain.DeliveryResult, error) {
	if err := envelope.Validate(); err != nil {
		return domain.DeliveryResult{}, err
	}

	result := d.deliver(ctx, subjectID, envelope)
	if result.Success {
		d.delivered.Add(1)
	} else {
		d.failed.Add(1)
	}
	return result, nil
}

func (d *notificationDispatcher) deliver(ctx context.Context, subjectID string, envelope domain.NotificationEnvelope) domain.DeliveryResult {
	if conn, ok := d.registry.Lookup(subjectID); ok {
		err := conn.Send(domain.ServerMessage{Event: envelope.Type, Data: envelope.Payload})
		if err == nil {
			return domain.DeliveryResult{SubjectID: subjectID, Channel: domain.ChannelLive, Success: true}
		}
		d.log.Debug("Live delivery failed, trying fallback", "subject_id", subjectID, "error", err)
	}

	// Одна попытка через push, без повторов живой доставки.
	if err := d.push.SendPush(ctx, subjectID, envelope); err != nil {
		return domain.DeliveryResult{SubjectID: subjectID, Channel: domain.ChannelFallback, Success: false, Err: err}
	}
	return domain.DeliveryResult{SubjectID: subjectID, Channel: domain.ChannelFallback, Success: true}
}

// Broadcast доставляет конверт каждому адресату конкурентно и независимо:
// отказ одного не отменяет и не задерживает остальных.
func (d *notificationDispatcher) Broadcast(ctx context.Context, subjectIDs []string, envelope domain.NotificationEnvelope) (domain.DeliveryReport, error) {
	if err := envelope.Validate(); err != nil {
		return domain.DeliveryReport{}, err
	}

	results := make([]domain.DeliveryResult, len(subjectIDs))
	var wg sync.WaitGroup
	for i, subjectID := range subjectIDs {
		wg.Add(1)
		go func(i int, subjectID string) {
			defer wg.Done()
			results[i] = d.deliver(ctx, subjectID, envelope)
		}(i, subjectID)
	}
	wg.Wait()

	report := domain.DeliveryReport{Total: len(subjectIDs), Results: results}
	for _, res := range results {
		if res.Success {
			report.Succeeded++
			d.delivered.Add(1)
		} else {
			report.Failed++
			d.failed.Add(1)
		}
	}

	return report, nil
}

func (d *notificationDispatcher) RouteEvent(ctx context.Context, roomName string, envelope domain.NotificationEnvelope, excludeSubjectID string) (domain.DeliveryReport, error) {
	members := d.rooms.Members(roomName)

	targets := members[:0]
	for _, subjectID := range members {
		if subjectID != excludeSubjectID {
			targets = append(targets, subjectID)
		}
	}

	return d.Broadcast(ctx, targets, envelope)
}

func (d *notificationDispatcher) Stats() (delivered, failed int64) {
	return d.delivered.Load(), d.failed.Load()
}
