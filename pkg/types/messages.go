package types

import "encoding/json"

// Wire format shared by both directions:
//
//	{ "type": string, "payload": object }
//
// Client -> Server
//   register:  username (1-30 chars)
//   game_move: column (0-6)
//   rejoin:    gameId
//
// Server -> Client
//   game_start:  gameId, player1, player2, isBot, yourTurn
//   game_move:   board (6x7 of 0/1/2), player (mover), currentPlayer (optional), gameId, column, row
//   game_result: winner (username | "draw" | bot label), winRow?, winCol?
//   error:       message

type MessageType string

const (
	MsgRegister MessageType = "register"
	MsgRejoin   MessageType = "rejoin"

	MsgGameStart  MessageType = "game_start"
	MsgGameMove   MessageType = "game_move" // both directions
	MsgGameResult MessageType = "game_result"
	MsgError      MessageType = "error"
)

type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outgoing is what the client marshals; Payload is encoded as-is.
type Outgoing struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

type RegisterPayload struct {
	Username string `json:"username"`
}

type MovePayload struct {
	Column int `json:"column"`
}

type RejoinPayload struct {
	GameID string `json:"gameId"`
}

type GameStartPayload struct {
	GameID   string `json:"gameId"`
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	IsBot    bool   `json:"isBot"`
	YourTurn bool   `json:"yourTurn"`
}

// GameMovePayload mirrors the server broadcast after every accepted drop.
// Pointers distinguish "absent" from zero.
type GameMovePayload struct {
	GameID        string  `json:"gameId,omitempty"`
	Board         [][]int `json:"board"`
	Player        *int    `json:"player,omitempty"`
	CurrentPlayer *int    `json:"currentPlayer,omitempty"`
	Column        *int    `json:"column,omitempty"`
	Row           *int    `json:"row,omitempty"`
}

type GameResultPayload struct {
	GameID string `json:"gameId,omitempty"`
	Winner string `json:"winner"`
	WinRow *int   `json:"winRow,omitempty"`
	WinCol *int   `json:"winCol,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
