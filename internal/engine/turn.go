package engine

// IsYourTurn reports whether username holds the seat whose turn it is.
// Always false outside Playing.
func IsYourTurn(s Session, username string) bool {
	if s.Phase != PhasePlaying || username == "" {
		return false
	}
	return (s.Turn == 1 && username == s.Player1) || (s.Turn == 2 && username == s.Player2)
}

// InputEnabled gates the column-drop affordance.
func InputEnabled(s Session, username string) bool {
	return s.Phase == PhasePlaying && IsYourTurn(s, username)
}

// SeatOf returns 1 or 2 for a seated username, 0 otherwise.
func SeatOf(s Session, username string) int {
	switch {
	case username == "":
		return 0
	case username == s.Player1:
		return 1
	case username == s.Player2:
		return 2
	default:
		return 0
	}
}

func otherSeat(seat int) int {
	if seat == 1 {
		return 2
	}
	return 1
}

func validSeat(seat int) bool { return seat == 1 || seat == 2 }

// OpeningTurn maps the server's yourTurn flag onto a seat number, relative to
// the local player's seat. A username that holds neither seat falls back to
// "yourTurn means seat 1".
func OpeningTurn(username string, e GameStarted) int {
	local := 0
	switch {
	case username != "" && username == e.Player1:
		local = 1
	case username != "" && username == e.Player2:
		local = 2
	}
	if local == 0 {
		if e.YourTurn {
			return 1
		}
		return 2
	}
	if e.YourTurn {
		return local
	}
	return otherSeat(local)
}

// NextTurn is the single turn rule for board updates: an explicit next seat from
// the server wins, otherwise the turn passes to the seat that did not move.
func NextTurn(e MoveMade) (int, bool) {
	if validSeat(e.Next) {
		return e.Next, true
	}
	if validSeat(e.Mover) {
		return otherSeat(e.Mover), true
	}
	return 0, false
}
