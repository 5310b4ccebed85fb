package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/fourinarow-client/internal/history"
)

// SetupRoutes builds the local control API. It only reads snapshots and
// submits actions; it never touches the session directly.
func SetupRoutes(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	d.Log = d.Log.Named("httpapi")
	if d.Journal == nil {
		d.Journal = history.Nop{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", Healthz)
	r.Get("/session", GetSession(d))
	r.Post("/register", PostRegister(d))
	r.Post("/moves", PostMove(d))
	r.Post("/again", PostPlayAgain(d))
	r.Delete("/banner", DeleteBanner(d))

	r.Get("/leaderboard", GetLeaderboard(d))
	r.Get("/players/{username}", GetPlayer(d))
	r.Get("/history", GetHistory(d))
	r.Get("/metrics", GetMetrics(d))
	return r
}
