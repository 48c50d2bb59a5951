package domain

import "encoding/json"

// Входящие события клиента.
const (
	EventSubscribe       = "subscribe"
	EventUnsubscribe     = "unsubscribe"
	EventItemUpdate      = "item-update"
	EventQuantityUpdate  = "quantity-update"
	EventRecipeMatch     = "recipe-match"
	EventRecipeRecommend = "recipe-recommendations"
	EventPing            = "ping"
)

// Исходящие события сервера.
const (
	EventConnectionEstablished = "connection_established"
	EventPantrySynced          = "pantry-synced"
	EventPantryItemUpdated     = "pantry-item-updated"
	EventPantryAlerts          = "pantry-alerts"
	EventPantryError           = "pantry-error"
	EventRecipeMatched         = "recipe-matched"
	EventRecipeResults         = "recipe-results"
	EventRecipeError           = "recipe-error"
	EventPong                  = "pong"
	EventRateLimited           = "rate-limit-exceeded"
)

// ClientMessage — сырое сообщение из сокета до маршрутизации по обработчикам.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type SubscribePayload struct {
	Channels []string `json:"channels"`
}

type ItemUpdatePayload struct {
	Item   json.RawMessage `json:"item"`
	Action string          `json:"action"`
}

type QuantityUpdatePayload struct {
	ItemID   string  `json:"itemId"`
	Quantity float64 `json:"quantity"`
}

type RecipeMatchPayload struct {
	IngredientIDs []string `json:"ingredientIds"`
}

type RecipeRecommendPayload struct {
	Query   string            `json:"query,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

const (
	ItemActionAdd    = "add"
	ItemActionRemove = "remove"
)
