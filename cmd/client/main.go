package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/fourinarow-client/internal/config"
	"github.com/DoyleJ11/fourinarow-client/internal/history"
	"github.com/DoyleJ11/fourinarow-client/internal/httpapi"
	"github.com/DoyleJ11/fourinarow-client/internal/hub"
	"github.com/DoyleJ11/fourinarow-client/internal/leaderboard"
	"github.com/DoyleJ11/fourinarow-client/internal/logging"
	"github.com/DoyleJ11/fourinarow-client/internal/metrics"
	"github.com/DoyleJ11/fourinarow-client/internal/session"
	"github.com/DoyleJ11/fourinarow-client/internal/term"
	"github.com/DoyleJ11/fourinarow-client/internal/ws"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("client stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint, err := ws.EndpointFor(cfg.ServerURL)
	if err != nil {
		return err
	}

	m := metrics.New()
	journal, err := history.Open(cfg.HistoryDSN, logging.Component(log, "history"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, journal.Close()) }()

	h := hub.NewHub(ctx)
	ctrl := session.New(ctx, session.Options{
		Hub:          h,
		Journal:      journal,
		Log:          log,
		Metrics:      m,
		AutoRegister: cfg.Username,
	})
	mgr := ws.NewManager(ws.Options{
		URL:               endpoint,
		DialTimeout:       cfg.DialTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
	}, ctrl, log, m)
	ctrl.Start(mgr)

	standings := leaderboard.NewClient(cfg.APIBase(), nil, log)
	presenter := term.New(term.Options{
		In:        os.Stdin,
		Out:       os.Stdout,
		Actions:   ctrl,
		Standings: standings,
		Log:       log,
		Clear:     !cfg.NoTTY && term.IsInteractive(os.Stdout),
	})

	snaps := make(chan hub.Snapshot, 16)
	h.Post(hub.Subscribe{ID: "term", Outbox: snaps})

	log.Info("connecting", zap.String("url", endpoint))
	if err := mgr.Open(ctx); err != nil {
		// the banner already says so; stay up so it can be read
		log.Warn("initial connection failed", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return presenter.Watch(gctx, snaps) })
	g.Go(func() error { return presenter.Run(gctx) })

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: httpapi.SetupRoutes(httpapi.Deps{
				Actions:   ctrl,
				Snapshots: h,
				Standings: standings,
				Journal:   journal,
				Metrics:   m,
				Log:       log,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("control api listening", zap.String("addr", cfg.HTTPAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		ctrl.Stop()
		h.Post(hub.ShutdownHub{})
		return mgr.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, term.ErrQuit) {
		return err
	}
	log.Info("bye")
	return nil
}
