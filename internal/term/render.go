// Package term draws session snapshots as text and turns typed lines into
// session actions.
package term

import (
	"fmt"
	"strings"

	"github.com/DoyleJ11/fourinarow-client/internal/engine"
	"github.com/DoyleJ11/fourinarow-client/internal/hub"
	"github.com/DoyleJ11/fourinarow-client/internal/ws"
)

// Render returns one full frame for snap.
func Render(snap hub.Snapshot) string {
	var sb strings.Builder
	s := snap.Session

	if snap.Banner != "" {
		fmt.Fprintf(&sb, "! %s  (dismiss to clear)\n", snap.Banner)
	}
	if snap.Conn != ws.Open {
		fmt.Fprintf(&sb, "[connection %s]\n", snap.Conn)
	}

	switch s.Phase {
	case engine.PhaseLobby:
		sb.WriteString("Connect Four\n")
		sb.WriteString("Type: register <name>\n")

	case engine.PhaseWaiting:
		fmt.Fprintf(&sb, "Hi %s. Waiting for opponent...\n", s.Username)

	case engine.PhasePlaying:
		writePlayers(&sb, s)
		writeBoard(&sb, s.Board, nil)
		if snap.YourTurn {
			sb.WriteString("Your turn! drop <0-6>\n")
		} else {
			sb.WriteString("Waiting for opponent...\n")
		}

	case engine.PhaseResult:
		writePlayers(&sb, s)
		writeBoard(&sb, s.Board, s.Outcome)
		if s.Outcome != nil {
			sb.WriteString(resultText(s))
		}
		sb.WriteString("Type: again\n")
	}
	return sb.String()
}

func writePlayers(sb *strings.Builder, s engine.Session) {
	label := "Player 2"
	if s.IsBot {
		label = engine.BotLabel
	}
	fmt.Fprintf(sb, "1: %s (Player 1)  vs  2: %s (%s)\n", s.Player1, s.Player2, label)
}

// writeBoard draws row 0 at the top. The winning cell is bracketed.
func writeBoard(sb *strings.Builder, b engine.Board, o *engine.Outcome) {
	for c := 0; c < engine.Cols; c++ {
		fmt.Fprintf(sb, " %d ", c)
	}
	sb.WriteByte('\n')
	for r := 0; r < engine.Rows; r++ {
		for c := 0; c < engine.Cols; c++ {
			ch := byte('.')
			if b[r][c] != engine.Empty {
				ch = byte('0' + b[r][c])
			}
			if o != nil && o.IsWinCell(r, c) {
				fmt.Fprintf(sb, "[%c]", ch)
			} else {
				fmt.Fprintf(sb, " %c ", ch)
			}
		}
		sb.WriteByte('\n')
	}
}

func resultText(s engine.Session) string {
	o := *s.Outcome
	switch o.ResultFor(s.Username) {
	case engine.ResultDraw:
		return "It's a Draw!\nBoth players played well!\n"
	case engine.ResultVictory:
		opp := s.Opponent(s.Username)
		if s.IsBot || opp == engine.BotLabel {
			opp = "the Bot"
		}
		return fmt.Sprintf("You Won!\nYou defeated %s!\n", opp)
	default:
		if o.Winner == engine.BotLabel {
			return "You Lost!\nThe Bot won this round\n"
		}
		return fmt.Sprintf("You Lost!\n%s won this round\n", o.Winner)
	}
}
