package term

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/fourinarow-client/internal/engine"
	"github.com/DoyleJ11/fourinarow-client/internal/hub"
	"github.com/DoyleJ11/fourinarow-client/internal/ws"
	"github.com/DoyleJ11/fourinarow-client/pkg/types"
)

type mockActions struct {
	mu      sync.Mutex
	calls   []string
	dropErr error
}

func (m *mockActions) record(s string) {
	m.mu.Lock()
	m.calls = append(m.calls, s)
	m.mu.Unlock()
}

func (m *mockActions) Register(_ context.Context, name string) error {
	m.record("register " + name)
	return nil
}

func (m *mockActions) Drop(_ context.Context, column int) error {
	m.record("drop " + string(rune('0'+column)))
	return m.dropErr
}

func (m *mockActions) PlayAgain(context.Context) error {
	m.record("again")
	return nil
}

func (m *mockActions) DismissBanner() { m.record("dismiss") }

func (m *mockActions) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixedStandings []types.LeaderboardEntry

func (f fixedStandings) Leaderboard(context.Context) ([]types.LeaderboardEntry, error) {
	return f, nil
}

func playing(t *testing.T) engine.Session {
	t.Helper()
	s := engine.NewSession()
	s, err := engine.Apply(s, engine.Registered{Username: "alice"})
	require.NoError(t, err)
	s, err = engine.Apply(s, engine.GameStarted{GameID: "g1", Player1: "alice", Player2: "Bot", IsBot: true, YourTurn: true})
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
		err  bool
	}{
		{"", Command{}, false},
		{"   ", Command{}, false},
		{"3", Command{Kind: CmdDrop, Column: 3}, false},
		{"drop 6", Command{Kind: CmdDrop, Column: 6}, false},
		{"d 0", Command{Kind: CmdDrop, Column: 0}, false},
		{"drop x", Command{}, true},
		{"drop", Command{}, true},
		{"register  Mary Ann ", Command{Kind: CmdRegister, Name: "Mary Ann"}, false},
		{"register", Command{}, true},
		{"AGAIN", Command{Kind: CmdAgain}, false},
		{"dismiss", Command{Kind: CmdDismiss}, false},
		{"lb", Command{Kind: CmdLeaderboard}, false},
		{"quit", Command{Kind: CmdQuit}, false},
		{"dance", Command{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Parse("dance")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRender_Phases(t *testing.T) {
	lobby := Render(hub.Snapshot{Session: engine.NewSession(), Conn: ws.Connecting})
	assert.Contains(t, lobby, "register <name>")
	assert.Contains(t, lobby, "[connection connecting]")

	waiting, _ := engine.Apply(engine.NewSession(), engine.Registered{Username: "alice"})
	assert.Contains(t, Render(hub.Snapshot{Session: waiting, Conn: ws.Open}), "Waiting for opponent")

	s := playing(t)
	out := Render(hub.Snapshot{Session: s, Conn: ws.Open, YourTurn: true, InputEnabled: true})
	assert.Contains(t, out, "Your turn!")
	assert.Contains(t, out, "(Bot)")
	assert.NotContains(t, out, "[connection")
	assert.Equal(t, 1+engine.Rows, strings.Count(out, "\n")-2)
}

func TestRender_ResultHighlightsWinCell(t *testing.T) {
	s := playing(t)
	s.Board[5][3] = engine.PlayerOne
	s, err := engine.Apply(s, engine.GameEnded{Winner: "alice", WinRow: 5, WinCol: 3})
	require.NoError(t, err)

	out := Render(hub.Snapshot{Session: s, Conn: ws.Open})
	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, "You Won!")
	assert.Contains(t, out, "You defeated the Bot!")
}

func TestRender_ResultTexts(t *testing.T) {
	s := playing(t)

	lost, _ := engine.Apply(s, engine.GameEnded{Winner: "Bot", WinRow: engine.NoCell, WinCol: engine.NoCell})
	assert.Contains(t, Render(hub.Snapshot{Session: lost}), "The Bot won this round")

	draw, _ := engine.Apply(s, engine.GameEnded{Winner: engine.DrawWinner, WinRow: engine.NoCell, WinCol: engine.NoCell})
	out := Render(hub.Snapshot{Session: draw, Conn: ws.Open})
	assert.Contains(t, out, "It's a Draw!")
	assert.NotContains(t, out, "[")
}

func TestRender_Banner(t *testing.T) {
	out := Render(hub.Snapshot{Session: engine.NewSession(), Banner: "Game not found", Conn: ws.Open})
	assert.True(t, strings.HasPrefix(out, "! Game not found"))
}

func TestPresenter_Exec(t *testing.T) {
	acts := &mockActions{}
	out := &syncBuffer{}
	p := New(Options{Out: out, Actions: acts, Standings: fixedStandings{
		{Username: "alice", Wins: 3, Losses: 1, WinRate: "75.00%"},
	}})
	ctx := context.Background()

	require.NoError(t, p.Exec(ctx, "register alice"))
	require.NoError(t, p.Exec(ctx, "4"))
	require.NoError(t, p.Exec(ctx, "again"))
	require.NoError(t, p.Exec(ctx, "dismiss"))
	require.NoError(t, p.Exec(ctx, "leaderboard"))
	assert.ErrorIs(t, p.Exec(ctx, "quit"), ErrQuit)

	assert.Equal(t, []string{"register alice", "drop 4", "again", "dismiss"}, acts.Calls())
	assert.Contains(t, out.String(), "75.00%")
}

func TestPresenter_RunReportsErrorsAndQuits(t *testing.T) {
	acts := &mockActions{dropErr: engine.ErrNotYourTurn}
	out := &syncBuffer{}
	p := New(Options{In: strings.NewReader("2\nbogus\nquit\nregister late\n"), Out: out, Actions: acts})

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrQuit)
	assert.Equal(t, []string{"drop 2"}, acts.Calls())
	assert.Contains(t, out.String(), "error: not your turn")
	assert.Contains(t, out.String(), "unknown command")
}

func TestPresenter_RunEndOfInput(t *testing.T) {
	p := New(Options{In: strings.NewReader("dismiss\n"), Out: &syncBuffer{}, Actions: &mockActions{}})
	assert.NoError(t, p.Run(context.Background()))
}

func TestPresenter_Watch(t *testing.T) {
	out := &syncBuffer{}
	p := New(Options{Out: out, Clear: true})
	snaps := make(chan hub.Snapshot, 2)
	snaps <- hub.Snapshot{Version: 1, Session: engine.NewSession(), Conn: ws.Open}
	snaps <- hub.Snapshot{Version: 2, Session: playing(t), Conn: ws.Open, YourTurn: true}
	close(snaps)

	done := make(chan error, 1)
	go func() { done <- p.Watch(context.Background(), snaps) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after channel close")
	}
	assert.Equal(t, 2, strings.Count(out.String(), clearScreen))
	assert.Contains(t, out.String(), "Your turn!")
}

func TestPresenter_LeaderboardUnavailable(t *testing.T) {
	p := New(Options{Out: &syncBuffer{}, Actions: &mockActions{}})
	err := p.Exec(context.Background(), "lb")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrQuit))
}
