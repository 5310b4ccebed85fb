package httpapi

import (
	"github.com/DoyleJ11/fourinarow-client/internal/engine"
	"github.com/DoyleJ11/fourinarow-client/internal/hub"
	"github.com/DoyleJ11/fourinarow-client/internal/ws"
)

type OutcomeView struct {
	Winner string        `json:"winner"`
	WinRow *int          `json:"winRow,omitempty"`
	WinCol *int          `json:"winCol,omitempty"`
	Result engine.Result `json:"result"`
}

type SessionView struct {
	Version      int          `json:"version"`
	Phase        engine.Phase `json:"phase"`
	Username     string       `json:"username,omitempty"`
	GameID       string       `json:"gameId,omitempty"`
	Player1      string       `json:"player1,omitempty"`
	Player2      string       `json:"player2,omitempty"`
	IsBot        bool         `json:"isBot"`
	Turn         int          `json:"currentPlayer,omitempty"`
	Board        [][]int      `json:"board,omitempty"`
	YourTurn     bool         `json:"yourTurn"`
	InputEnabled bool         `json:"inputEnabled"`
	Outcome      *OutcomeView `json:"outcome,omitempty"`
	Banner       string       `json:"banner,omitempty"`
	Connection   ws.Readiness `json:"connection"`
}

// ViewOf renders a snapshot. Board and turn are only shown while playing or
// on the result screen.
func ViewOf(s hub.Snapshot) SessionView {
	ss := s.Session
	v := SessionView{
		Version:      s.Version,
		Phase:        ss.Phase,
		Username:     ss.Username,
		GameID:       ss.GameID,
		Player1:      ss.Player1,
		Player2:      ss.Player2,
		IsBot:        ss.IsBot,
		YourTurn:     s.YourTurn,
		InputEnabled: s.InputEnabled,
		Banner:       s.Banner,
		Connection:   s.Conn,
	}
	switch ss.Phase {
	case engine.PhasePlaying:
		v.Turn = ss.Turn
		v.Board = ss.Board.Grid()
	case engine.PhaseResult:
		v.Board = ss.Board.Grid()
	}
	if o := ss.Outcome; o != nil {
		ov := &OutcomeView{Winner: o.Winner, Result: o.ResultFor(ss.Username)}
		if o.HasWinCell() {
			row, col := o.WinRow, o.WinCol
			ov.WinRow, ov.WinCol = &row, &col
		}
		v.Outcome = ov
	}
	return v
}
