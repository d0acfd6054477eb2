package domain

import "time"

// RoomStatus - жизненный цикл комнаты
type RoomStatus string

const (
	RoomPending    RoomStatus = "pending"
	RoomInProgress RoomStatus = "in_progress"
	RoomFinished   RoomStatus = "finished"
)

// Room is the session container binding a game type to a set of players.
// The authoritative copy lives inside the room actor; everything outside
// (repositories, handlers) only ever sees snapshots.
type Room struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatorID string     `json:"creator_id"`
	GameType  string     `json:"game_type"`
	Status    RoomStatus `json:"status"`
	PlayerIDs []string   `json:"player_ids"`
	CreatedAt time.Time  `json:"created_at"`
}
