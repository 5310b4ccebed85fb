package leaderboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"leaderboard":[
			{"username":"alice","wins":2,"losses":1,"draws":0,"winRate":"66.67%"},
			{"username":"bob","wins":0,"losses":0,"draws":1,"winRate":"0.00%"}]}`))
	})
	mux.HandleFunc("/api/player/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/player/alice smith":
			_, _ = w.Write([]byte(`{"username":"alice smith","wins":3,"losses":1,"draws":1,"winRate":"60.00%","createdAt":"2026-01-02T03:04:05Z"}`))
		case "/api/player/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Leaderboard(t *testing.T) {
	c := NewClient(server(t).URL+"/", nil, nil)

	rows, err := c.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].Username)
	assert.Equal(t, 2, rows[0].Wins)
	assert.Equal(t, "66.67%", rows[0].WinRate)
}

func TestClient_Player(t *testing.T) {
	c := NewClient(server(t).URL, nil, nil)

	stats, err := c.Player(context.Background(), "alice smith")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Games())
	require.NotNil(t, stats.CreatedAt)
	assert.Equal(t, 2026, stats.CreatedAt.Year())

	_, err = c.Player(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = c.Player(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	_, err = c.Player(context.Background(), " ")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestClient_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewClient(srv.URL, nil, nil).Leaderboard(context.Background())
	assert.Error(t, err)
}
