package domain

import (
	"encoding/json"
	"time"
)

// ActionRecord is one accepted action in a session's append-only log.
// Replaying the log against the initial state reproduces the final state.
type ActionRecord struct {
	Seq      int             `json:"seq"`
	RoomID   string          `json:"room_id"`
	PlayerID string          `json:"player_id"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	At       time.Time       `json:"at"`
}

// Match is the stored result of a finished session.
type Match struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	GameType  string    `json:"game_type"`
	PlayerIDs []string  `json:"player_ids"`
	WinnerID  *string   `json:"winner_id"`
	Result    string    `json:"result"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
}
