package engine

import (
	"errors"
)

var ErrIllegalTransition = errors.New("illegal transition")
var ErrNotPlaying = errors.New("not playing")
var ErrNotYourTurn = errors.New("not your turn")
var ErrInvalidColumn = errors.New("invalid column")
var ErrInvalidUsername = errors.New("invalid username")
var ErrUnknownFrame = errors.New("unknown frame type")
var ErrUnsupportedEvent = errors.New("unsupported event")

const (
	Rows = 6
	Cols = 7

	// NoCell marks an absent win coordinate (draws, forfeits).
	NoCell = -1

	MaxUsernameLen = 30
	DrawWinner     = "draw"
	BotLabel       = "Bot"
)

type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhaseWaiting Phase = "waiting"
	PhasePlaying Phase = "playing"
	PhaseResult  Phase = "result"
)

type Cell int

const (
	Empty     Cell = 0
	PlayerOne Cell = 1
	PlayerTwo Cell = 2
)

// Board is row-major, row 0 at the top, as the server sends it.
type Board [Rows][Cols]Cell

type Outcome struct {
	Winner string
	WinRow int
	WinCol int
}

type Session struct {
	Phase    Phase
	Username string
	GameID   string
	Player1  string
	Player2  string
	IsBot    bool
	Turn     int // 1 or 2; only meaningful while Playing
	Board    Board
	Outcome  *Outcome
}

// Event is the closed set of things that can move a Session.
type Event interface{ isEvent() }

// Inbound (server) events

type GameStarted struct {
	GameID   string
	Player1  string
	Player2  string
	IsBot    bool
	YourTurn bool
}

// MoveMade carries the full board after a drop. Next is the server's explicit
// next-to-move seat when it sent one (0 otherwise); Mover is the seat that dropped.
type MoveMade struct {
	Board  Board
	Mover  int
	Next   int
	Column int
	Row    int
}

type GameEnded struct {
	Winner string
	WinRow int
	WinCol int
}

type ServerError struct {
	Message string
}

type UnknownFrame struct {
	Type string
}

// Local events

type Registered struct {
	Username string
}

type PlayAgain struct{}

func (GameStarted) isEvent()  {}
func (MoveMade) isEvent()     {}
func (GameEnded) isEvent()    {}
func (ServerError) isEvent()  {}
func (UnknownFrame) isEvent() {}
func (Registered) isEvent()   {}
func (PlayAgain) isEvent()    {}

/*
	Lobby   -- Registered  --> Waiting
	Waiting -- GameStarted --> Playing
	Playing -- GameStarted --> Playing   (fresh game, fields overwritten)
	Playing -- MoveMade    --> Playing
	Playing -- GameEnded   --> Result
	Result  -- GameEnded   --> Result    (duplicate result overwrites the outcome)
	Result  -- PlayAgain   --> Lobby

	ServerError and UnknownFrame never change the session.
*/

// Apply returns the session after ev. On error the input session is returned untouched.
func Apply(s Session, ev Event) (Session, error) {
	switch e := ev.(type) {
	case Registered:
		if s.Phase != PhaseLobby {
			return s, ErrIllegalTransition
		}
		if e.Username == "" {
			return s, ErrInvalidUsername
		}
		next := s
		next.Username = e.Username
		next.Phase = PhaseWaiting
		return next, nil

	case GameStarted:
		if s.Phase != PhaseWaiting && s.Phase != PhasePlaying {
			return s, ErrIllegalTransition
		}
		next := s
		next.GameID = e.GameID
		next.Player1 = e.Player1
		next.Player2 = e.Player2
		next.IsBot = e.IsBot
		next.Board = Board{}
		next.Turn = OpeningTurn(s.Username, e)
		next.Outcome = nil
		next.Phase = PhasePlaying
		return next, nil

	case MoveMade:
		if s.Phase != PhasePlaying {
			return s, ErrNotPlaying
		}
		turn, ok := NextTurn(e)
		if !ok {
			return s, ErrIllegalTransition
		}
		next := s
		next.Board = e.Board
		next.Turn = turn
		return next, nil

	case GameEnded:
		if s.Phase != PhasePlaying && s.Phase != PhaseResult {
			return s, ErrIllegalTransition
		}
		next := s
		next.Outcome = &Outcome{Winner: e.Winner, WinRow: e.WinRow, WinCol: e.WinCol}
		next.Phase = PhaseResult
		return next, nil

	case PlayAgain:
		if s.Phase != PhaseResult {
			return s, ErrIllegalTransition
		}
		return NewSession(), nil

	case ServerError:
		return s, nil

	case UnknownFrame:
		return s, ErrUnknownFrame

	default:
		return s, ErrUnsupportedEvent
	}
}
