package domain

import "time"

// StatusEvent records a single game status transition for observers.
type StatusEvent struct {
	ID     string     `json:"id"`
	GameID string     `json:"gameId"`
	Status GameStatus `json:"status"`
	Time   time.Time  `json:"time"`
}
