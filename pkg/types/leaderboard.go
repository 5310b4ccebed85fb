package types

import "time"

// GET /api/leaderboard
//   { leaderboard: [ {username, wins, losses, draws, winRate}, ... ] }
//
// GET /api/player/{username}
//   { username, wins, losses, draws, winRate, createdAt? }
//
// winRate is preformatted by the server, e.g. "66.67%".

type LeaderboardEntry struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
	WinRate  string `json:"winRate"`
}

type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type PlayerStats struct {
	Username  string     `json:"username"`
	Wins      int        `json:"wins"`
	Losses    int        `json:"losses"`
	Draws     int        `json:"draws"`
	WinRate   string     `json:"winRate"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Games is wins+losses+draws.
func (p PlayerStats) Games() int { return p.Wins + p.Losses + p.Draws }
