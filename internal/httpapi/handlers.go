package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/fourinarow-client/internal/action"
	"github.com/DoyleJ11/fourinarow-client/internal/engine"
	"github.com/DoyleJ11/fourinarow-client/internal/history"
	"github.com/DoyleJ11/fourinarow-client/internal/hub"
	"github.com/DoyleJ11/fourinarow-client/internal/leaderboard"
	"github.com/DoyleJ11/fourinarow-client/internal/metrics"
	"github.com/DoyleJ11/fourinarow-client/internal/session"
	"github.com/DoyleJ11/fourinarow-client/pkg/types"
)

// Actions is the part of the session controller the API drives.
type Actions interface {
	Register(ctx context.Context, name string) error
	Drop(ctx context.Context, column int) error
	PlayAgain(ctx context.Context) error
	DismissBanner()
}

type Snapshots interface {
	Current(ctx context.Context) (hub.Snapshot, error)
}

type Standings interface {
	Leaderboard(ctx context.Context) ([]types.LeaderboardEntry, error)
	Player(ctx context.Context, username string) (types.PlayerStats, error)
}

type Journal interface {
	Recent(ctx context.Context, limit int) ([]history.Match, error)
}

type Deps struct {
	Actions   Actions
	Snapshots Snapshots
	Standings Standings
	Journal   Journal
	Metrics   *metrics.Collector
	Log       *zap.Logger
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps engine and transport errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidUsername), errors.Is(err, engine.ErrInvalidColumn):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotYourTurn), errors.Is(err, engine.ErrNotPlaying), errors.Is(err, engine.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, action.ErrNotSent), errors.Is(err, session.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, leaderboard.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func GetSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := d.Snapshots.Current(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, http.StatusOK, ViewOf(snap))
	}
}

func PostRegister(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body types.RegisterPayload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("bad json"))
			return
		}
		if err := d.Actions.Register(r.Context(), body.Username); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func PostMove(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Column *int `json:"column"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Column == nil {
			writeError(w, http.StatusBadRequest, errors.New("column required"))
			return
		}
		if err := d.Actions.Drop(r.Context(), *body.Column); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		// accepted only: the board changes when the server says so
		w.WriteHeader(http.StatusAccepted)
	}
}

func PostPlayAgain(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Actions.PlayAgain(r.Context()); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteBanner(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Actions.DismissBanner()
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetLeaderboard(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := d.Standings.Leaderboard(r.Context())
		if err != nil {
			d.Log.Warn("leaderboard fetch failed", zap.Error(err))
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, types.LeaderboardResponse{Leaderboard: rows})
	}
}

func GetPlayer(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := d.Standings.Player(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func GetHistory(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
				return
			}
			limit = n
		}
		matches, err := d.Journal.Recent(r.Context(), limit)
		if err != nil {
			d.Log.Warn("history read failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Matches []history.Match `json:"matches"`
		}{Matches: matches})
	}
}

func GetMetrics(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Metrics.Snapshot())
	}
}
