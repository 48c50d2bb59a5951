package handler

import (
	"context"
	"encoding/json"
	"time"

	"kitchen_sync/internal/domain"
	"kitchen_sync/internal/service"
	"kitchen_sync/pkg/logger"
)

const pantryTopic = "pantry"

// EventHandlers — тонкий слой трансляции: входящие события клиента
// превращаются в вызовы доменных сервисов, исходящие — в конверты
// для диспетчера.
type EventHandlers struct {
	rooms      service.RoomRouter
	dispatcher service.NotificationDispatcher
	pantry     service.PantryService
	recipe     service.RecipeService
	log        logger.Logger
}

func NewEventHandlers(services *service.Services, log logger.Logger) *EventHandlers {
	return &EventHandlers{
		rooms:      services.Rooms,
		dispatcher: services.Dispatcher,
		pantry:     services.Pantry,
		recipe:     services.Recipe,
		log:        log,
	}
}

// OnConnect подключает субъекта к его личной комнате и сразу шлёт снимок
// кладовой. Алерты об истекающих сроках уходят вторым сообщением и только
// когда список непуст — пустой массив не пушим.
func (h *EventHandlers) OnConnect(ctx context.Context, subjectID string) {
	h.rooms.Join(subjectID, service.PrivateRoom(subjectID, pantryTopic))

	snapshot, err := h.pantry.GetSnapshot(ctx, subjectID)
	if err != nil {
		h.log.Error("Failed to fetch pantry snapshot", "subject_id", subjectID, "error", err)
		h.sendError(ctx, subjectID, domain.EventPantryError, "failed to load pantry snapshot")
		return
	}

	h.sendToOne(ctx, subjectID, domain.EventPantrySynced, map[string]interface{}{
		"type":     domain.EventPantrySynced,
		"snapshot": snapshot,
	})

	alerts, err := h.pantry.ListExpiringAlerts(ctx, subjectID)
	if err != nil {
		h.log.Warn("Failed to fetch expiration alerts", "subject_id", subjectID, "error", err)
		return
	}
	if len(alerts) > 0 {
		h.sendToOne(ctx, subjectID, domain.EventPantryAlerts, map[string]interface{}{
			"type":   domain.EventPantryAlerts,
			"alerts": alerts,
		})
	}
}

// HandleMessage маршрутизирует одно входящее событие клиента.
func (h *EventHandlers) HandleMessage(ctx context.Context, client service.Connection, msg domain.ClientMessage) {
	subjectID := client.SubjectID()

	switch msg.Event {
	case domain.EventSubscribe:
		h.handleSubscribe(subjectID, msg.Data, true)
	case domain.EventUnsubscribe:
		h.handleSubscribe(subjectID, msg.Data, false)
	case domain.EventItemUpdate:
		h.handleItemUpdate(ctx, client, msg.Data)
	case domain.EventQuantityUpdate:
		h.handleQuantityUpdate(ctx, client, msg.Data)
	case domain.EventRecipeMatch:
		h.handleRecipeMatch(ctx, client, msg.Data)
	case domain.EventRecipeRecommend:
		h.handleRecipeRecommend(ctx, client, msg.Data)
	case domain.EventPing:
		_ = client.Send(domain.ServerMessage{
			Event: domain.EventPong,
			Data:  map[string]interface{}{"timestamp": time.Now().UTC()},
		})
	default:
		h.log.Debug("Unknown client event", "subject_id", subjectID, "event", msg.Event)
	}
}

func (h *EventHandlers) handleSubscribe(subjectID string, data json.RawMessage, join bool) {
	var payload domain.SubscribePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.log.Debug("Malformed subscribe payload", "subject_id", subjectID, "error", err)
		return
	}

	for _, channel := range payload.Channels {
		if channel == "" {
			continue
		}
		if join {
			h.rooms.Join(subjectID, channel)
		} else {
			h.rooms.Leave(subjectID, channel)
		}
	}
}

// handleItemUpdate применяет мутацию и рассылает её по комнате субъекта.
// Инициатор получает явное подтверждение отдельным сообщением, минуя
// broadcast: так он отличает «моя запись прошла» от чужих изменений.
func (h *EventHandlers) handleItemUpdate(ctx context.Context, client service.Connection, data json.RawMessage) {
	subjectID := client.SubjectID()

	var payload domain.ItemUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendErrorTo(client, domain.EventPantryError, "malformed item-update payload")
		return
	}

	item, err := h.pantry.ApplyItemUpdate(ctx, subjectID, payload)
	if err != nil {
		h.sendErrorTo(client, domain.EventPantryError, err.Error())
		return
	}

	_ = client.Send(domain.ServerMessage{
		Event: domain.EventPantryItemUpdated,
		Data: map[string]interface{}{
			"action": payload.Action,
			"item":   item,
			"ack":    true,
		},
	})

	h.routeToRoom(ctx, subjectID, domain.EventPantryItemUpdated, map[string]interface{}{
		"type":   domain.EventPantryItemUpdated,
		"action": payload.Action,
		"item":   item,
	})
}

func (h *EventHandlers) handleQuantityUpdate(ctx context.Context, client service.Connection, data json.RawMessage) {
	subjectID := client.SubjectID()

	var payload domain.QuantityUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendErrorTo(client, domain.EventPantryError, "malformed quantity-update payload")
		return
	}

	item, err := h.pantry.UpdateQuantity(ctx, subjectID, payload)
	if err != nil {
		h.sendErrorTo(client, domain.EventPantryError, err.Error())
		return
	}

	_ = client.Send(domain.ServerMessage{
		Event: domain.EventPantryItemUpdated,
		Data: map[string]interface{}{
			"action": "quantity",
			"item":   item,
			"ack":    true,
		},
	})

	h.routeToRoom(ctx, subjectID, domain.EventPantryItemUpdated, map[string]interface{}{
		"type":   domain.EventPantryItemUpdated,
		"action": "quantity",
		"item":   item,
	})
}

func (h *EventHandlers) handleRecipeMatch(ctx context.Context, client service.Connection, data json.RawMessage) {
	var payload domain.RecipeMatchPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendErrorTo(client, domain.EventRecipeError, "malformed recipe-match payload")
		return
	}

	matches, err := h.recipe.MatchByIngredients(ctx, payload.IngredientIDs)
	if err != nil {
		h.sendErrorTo(client, domain.EventRecipeError, err.Error())
		return
	}

	_ = client.Send(domain.ServerMessage{
		Event: domain.EventRecipeMatched,
		Data:  map[string]interface{}{"matches": matches},
	})
}

func (h *EventHandlers) handleRecipeRecommend(ctx context.Context, client service.Connection, data json.RawMessage) {
	var payload domain.RecipeRecommendPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			h.sendErrorTo(client, domain.EventRecipeError, "malformed recipe-recommendations payload")
			return
		}
	}

	recipes, err := h.recipe.Search(ctx, payload.Query, payload.Filters)
	if err != nil {
		h.sendErrorTo(client, domain.EventRecipeError, err.Error())
		return
	}

	_ = client.Send(domain.ServerMessage{
		Event: domain.EventRecipeResults,
		Data:  map[string]interface{}{"recipes": recipes},
	})
}

func (h *EventHandlers) sendToOne(ctx context.Context, subjectID, eventType string, payload map[string]interface{}) {
	result, err := h.dispatcher.SendToOne(ctx, subjectID, domain.NewEnvelope(eventType, payload))
	if err != nil {
		h.log.Error("Invalid envelope", "event", eventType, "error", err)
		return
	}
	if !result.Success {
		h.log.Warn("Delivery failed", "subject_id", subjectID, "event", eventType, "channel", result.Channel, "error", result.Err)
	}
}

func (h *EventHandlers) routeToRoom(ctx context.Context, subjectID, eventType string, payload map[string]interface{}) {
	room := service.PrivateRoom(subjectID, pantryTopic)
	report, err := h.dispatcher.RouteEvent(ctx, room, domain.NewEnvelope(eventType, payload), subjectID)
	if err != nil {
		h.log.Error("Invalid envelope", "event", eventType, "error", err)
		return
	}
	if report.Failed > 0 {
		h.log.Warn("Partial room delivery", "room", room, "succeeded", report.Succeeded, "failed", report.Failed)
	}
}

func (h *EventHandlers) sendError(ctx context.Context, subjectID, eventType, message string) {
	h.sendToOne(ctx, subjectID, eventType, map[string]interface{}{
		"type":    eventType,
		"message": message,
	})
}

func (h *EventHandlers) sendErrorTo(client service.Connection, eventType, message string) {
	_ = client.Send(domain.ServerMessage{
		Event: eventType,
		Data:  map[string]interface{}{"message": message},
	})
}
