package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/fourinarow-client/internal/engine"
	"github.com/DoyleJ11/fourinarow-client/internal/metrics"
)

func emptyGrid() [][]int {
	g := make([][]int, engine.Rows)
	for r := range g {
		g[r] = make([]int, engine.Cols)
	}
	return g
}

func frame(t *testing.T, typ string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"type": typ, "payload": payload})
	require.NoError(t, err)
	return data
}

func waiting(name string) engine.Session {
	s := engine.NewSession()
	s, _ = engine.Apply(s, engine.Registered{Username: name})
	return s
}

func TestDecode(t *testing.T) {
	grid := emptyGrid()
	grid[5][3] = 1

	tests := []struct {
		name    string
		raw     []byte
		want    engine.Event
		wantErr error
	}{
		{
			name: "game_start",
			raw:  frame(t, "game_start", map[string]any{"gameId": "g1", "player1": "alice", "player2": "Bot", "isBot": true, "yourTurn": true}),
			want: engine.GameStarted{GameID: "g1", Player1: "alice", Player2: "Bot", IsBot: true, YourTurn: true},
		},
		{
			name: "game_move with mover",
			raw:  frame(t, "game_move", map[string]any{"board": grid, "player": 1, "column": 3, "row": 5}),
			want: engine.MoveMade{Board: engine.Board{5: {3: engine.PlayerOne}}, Mover: 1, Column: 3, Row: 5},
		},
		{
			name: "game_move with explicit current player",
			raw:  frame(t, "game_move", map[string]any{"board": grid, "currentPlayer": 2}),
			want: engine.MoveMade{Board: engine.Board{5: {3: engine.PlayerOne}}, Next: 2, Column: engine.NoCell, Row: engine.NoCell},
		},
		{
			name: "game_result win",
			raw:  frame(t, "game_result", map[string]any{"winner": "alice", "winRow": 3, "winCol": 2}),
			want: engine.GameEnded{Winner: "alice", WinRow: 3, WinCol: 2},
		},
		{
			name: "game_result win at row zero",
			raw:  frame(t, "game_result", map[string]any{"winner": "Bot", "winRow": 0, "winCol": 0}),
			want: engine.GameEnded{Winner: "Bot", WinRow: 0, WinCol: 0},
		},
		{
			name: "game_result draw",
			raw:  frame(t, "game_result", map[string]any{"winner": "draw"}),
			want: engine.GameEnded{Winner: "draw", WinRow: engine.NoCell, WinCol: engine.NoCell},
		},
		{
			name: "error",
			raw:  frame(t, "error", map[string]any{"message": "Not your turn"}),
			want: engine.ServerError{Message: "Not your turn"},
		},
		{
			name: "unknown type",
			raw:  frame(t, "chat", map[string]any{"text": "hi"}),
			want: engine.UnknownFrame{Type: "chat"},
		},
		{name: "not json", raw: []byte("{nope"), wantErr: ErrMalformedFrame},
		{name: "missing type", raw: []byte(`{"payload":{}}`), wantErr: ErrMalformedFrame},
		{name: "missing payload", raw: []byte(`{"type":"game_start"}`), wantErr: ErrMalformedFrame},
		{name: "short board", raw: frame(t, "game_move", map[string]any{"board": grid[:4], "player": 1}), wantErr: ErrMalformedFrame},
		{name: "move without mover", raw: frame(t, "game_move", map[string]any{"board": grid}), wantErr: ErrMalformedFrame},
		{name: "wrong payload shape", raw: frame(t, "game_start", []int{1, 2}), wantErr: ErrMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandle_ScenarioFromWaiting(t *testing.T) {
	m := metrics.New()
	d := New(nil, m)
	s := waiting("alice")

	res := d.Handle(s, frame(t, "game_start", map[string]any{"gameId": "g1", "player1": "alice", "player2": "Bot", "isBot": true, "yourTurn": true}))
	require.NoError(t, res.Err)
	assert.True(t, res.Changed())
	assert.Equal(t, engine.PhasePlaying, res.Session.Phase)
	assert.Equal(t, 1, res.Session.Turn)
	assert.True(t, engine.IsYourTurn(res.Session, "alice"))

	grid := emptyGrid()
	grid[5][3] = 1
	res = d.Handle(res.Session, frame(t, "game_move", map[string]any{"board": grid, "player": 1}))
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Session.Turn)
	assert.False(t, engine.IsYourTurn(res.Session, "alice"))

	res = d.Handle(res.Session, frame(t, "game_result", map[string]any{"winner": "alice", "winRow": 3, "winCol": 2}))
	require.NoError(t, res.Err)
	assert.Equal(t, engine.PhaseResult, res.Session.Phase)
	assert.True(t, res.Session.Outcome.IsWinCell(3, 2))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.FramesIn)
	assert.Equal(t, int64(1), snap.GamesStarted)
	assert.Equal(t, int64(1), snap.GamesFinished)
}

func TestHandle_ErrorFramePublishesBannerOnly(t *testing.T) {
	d := New(nil, nil)
	s := waiting("alice")

	res := d.Handle(s, frame(t, "error", map[string]any{"message": "column 3 is full"}))
	require.NoError(t, res.Err)
	assert.Equal(t, "column 3 is full", res.Banner)
	assert.Equal(t, s, res.Session)
}

func TestHandle_ViolationsLeaveSessionUnchanged(t *testing.T) {
	m := metrics.New()
	d := New(nil, m)
	s := waiting("alice")
	s, _ = engine.Apply(s, engine.GameStarted{GameID: "g1", Player1: "alice", Player2: "bob", YourTurn: true})

	for _, raw := range [][]byte{
		[]byte("garbage"),
		frame(t, "spectate", map[string]any{"gameId": "g1"}),
		frame(t, "game_move", map[string]any{"board": [][]int{{9}}, "player": 1}),
	} {
		res := d.Handle(s, raw)
		assert.Error(t, res.Err)
		assert.Empty(t, res.Banner)
		assert.Equal(t, s, res.Session)
	}
	assert.Equal(t, int64(3), m.Snapshot().ProtocolViolations)
}

func TestHandle_OutOfSequenceFrameIsIgnored(t *testing.T) {
	d := New(nil, nil)
	s := engine.NewSession()

	res := d.Handle(s, frame(t, "game_start", map[string]any{"gameId": "g1", "player1": "a", "player2": "b"}))
	require.ErrorIs(t, res.Err, engine.ErrIllegalTransition)
	assert.False(t, res.Changed())
	assert.Equal(t, s, res.Session)
}
