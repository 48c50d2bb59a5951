package domain

// HubStats — агрегированные показатели живого слоя для health-эндпоинта.
type HubStats struct {
	ConnectedClients int   `json:"connected_clients"`
	ActiveRooms      int   `json:"active_rooms"`
	Delivered        int64 `json:"delivered"`
	Failed           int64 `json:"failed"`
}
