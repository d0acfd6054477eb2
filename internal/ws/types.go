package ws

const (
	// client - server
	MsgGameAction  = "game_action"
	MsgChatMessage = "chat_message"

	// server - client
	MsgGameUpdate   = "game_update"
	MsgMoveMade     = "move_made"
	MsgGameOver     = "game_over"
	MsgPlayerJoined = "player_joined"
	MsgPlayerLeft   = "player_left"
	MsgError        = "error"
)
