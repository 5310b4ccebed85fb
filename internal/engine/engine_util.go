package engine

import (
	"fmt"
	"strings"
)

func NewSession() Session {
	return Session{
		Phase: PhaseLobby,
		Turn:  1,
	}
}

// BoardFromGrid validates a wire grid (exactly 6x7, values 0..2).
func BoardFromGrid(grid [][]int) (Board, error) {
	var b Board
	if len(grid) != Rows {
		return b, fmt.Errorf("board has %d rows, want %d", len(grid), Rows)
	}
	for r, row := range grid {
		if len(row) != Cols {
			return b, fmt.Errorf("board row %d has %d columns, want %d", r, len(row), Cols)
		}
		for c, v := range row {
			if v < int(Empty) || v > int(PlayerTwo) {
				return b, fmt.Errorf("board cell (%d,%d) = %d out of range", r, c, v)
			}
			b[r][c] = Cell(v)
		}
	}
	return b, nil
}

func (b Board) Grid() [][]int {
	out := make([][]int, Rows)
	for r := range b {
		out[r] = make([]int, Cols)
		for c := range b[r] {
			out[r][c] = int(b[r][c])
		}
	}
	return out
}

func (b Board) Discs() int {
	n := 0
	for r := range b {
		for c := range b[r] {
			if b[r][c] != Empty {
				n++
			}
		}
	}
	return n
}

// String renders rows top to bottom, '.' for empty, '1'/'2' for discs.
func (b Board) String() string {
	var sb strings.Builder
	for r := range b {
		for c := range b[r] {
			if b[r][c] == Empty {
				sb.WriteByte('.')
			} else {
				sb.WriteByte(byte('0' + b[r][c]))
			}
		}
		if r < Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

type Result string

const (
	ResultVictory Result = "victory"
	ResultDefeat  Result = "defeat"
	ResultDraw    Result = "draw"
)

func (o Outcome) IsDraw() bool { return o.Winner == DrawWinner }

func (o Outcome) HasWinCell() bool {
	return o.WinRow >= 0 && o.WinRow < Rows && o.WinCol >= 0 && o.WinCol < Cols
}

func (o Outcome) IsWinCell(row, col int) bool {
	return o.HasWinCell() && o.WinRow == row && o.WinCol == col
}

func (o Outcome) ResultFor(username string) Result {
	switch {
	case o.IsDraw():
		return ResultDraw
	case username != "" && o.Winner == username:
		return ResultVictory
	default:
		return ResultDefeat
	}
}

// Opponent is the other seated name, or "" when username is not seated.
func (s Session) Opponent(username string) string {
	switch SeatOf(s, username) {
	case 1:
		return s.Player2
	case 2:
		return s.Player1
	default:
		return ""
	}
}
