package ws

import (
	"encoding/json"

	"game_lounge/internal/game"
)

// Message is the generic server → client frame.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Envelope is the generic client → server frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// client → server
type GameActionPayload struct {
	RoomID   string      `json:"room_id"`
	GameType string      `json:"game_type"`
	Action   game.Action `json:"action"`
}

type ChatMessagePayload struct {
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

// server → client
type GameUpdatePayload struct {
	RoomID    string      `json:"room_id"`
	GameState *game.State `json:"game_state"`
}

type MoveMadePayload struct {
	RoomID   string      `json:"room_id"`
	PlayerID string      `json:"player_id"`
	Action   game.Action `json:"action"`
}

type GameOverPayload struct {
	RoomID    string      `json:"room_id"`
	WinnerID  *string     `json:"winner_id"`
	Result    string      `json:"result"`
	GameState *game.State `json:"game_state"`
}

type PlayerJoinedPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

type PlayerLeftPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type ChatBroadcastPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}
