package domain

import (
	"time"
)

type PantryItem struct {
	ID        string     `json:"id"`
	SubjectID string     `json:"-"`
	Name      string     `json:"name"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit,omitempty"`
	Category  string     `json:"category,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type PantrySnapshot struct {
	SubjectID string       `json:"subject_id"`
	Items     []PantryItem `json:"items"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// ExpirationAlert — позиция, срок годности которой истекает в ближайшее время.
type ExpirationAlert struct {
	Item      PantryItem `json:"item"`
	ExpiresAt time.Time  `json:"expires_at"`
	DaysLeft  int        `json:"days_left"`
}
