// Package session runs the single goroutine that owns the game session.
// Inbound frames, connection lifecycle and local actions all pass through its
// inbox and are handled one at a time.
package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/fourinarow-client/internal/action"
	"github.com/DoyleJ11/fourinarow-client/internal/dispatch"
	"github.com/DoyleJ11/fourinarow-client/internal/engine"
	"github.com/DoyleJ11/fourinarow-client/internal/history"
	"github.com/DoyleJ11/fourinarow-client/internal/hub"
	"github.com/DoyleJ11/fourinarow-client/internal/metrics"
	"github.com/DoyleJ11/fourinarow-client/internal/ws"
)

var ErrStopped = errors.New("session stopped")

type Msg interface{ isSessionMsg() }

type Inbound struct{ Raw []byte }

type Connected struct{}

type TransportFailed struct{ Err error }

type Disconnected struct{ Err error }

type Register struct {
	Name  string
	Reply chan error
}

type Drop struct {
	Column int
	Reply  chan error
}

type PlayAgain struct {
	Reply chan error
}

type DismissBanner struct{}

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

func (Inbound) isSessionMsg()         {}
func (Connected) isSessionMsg()       {}
func (TransportFailed) isSessionMsg() {}
func (Disconnected) isSessionMsg()    {}
func (Register) isSessionMsg()        {}
func (Drop) isSessionMsg()            {}
func (PlayAgain) isSessionMsg()       {}
func (DismissBanner) isSessionMsg()   {}
func (GetState) isSessionMsg()        {}
func (Shutdown) isSessionMsg()        {}

type View struct {
	Version int
	Session engine.Session
	Banner  string
	Conn    ws.Readiness
}

// Conn is the connection as the controller sees it.
type Conn interface {
	action.Transport
	State() ws.Readiness
}

type Publisher interface {
	Post(msg hub.HubMsg) bool
}

type Options struct {
	Hub     Publisher
	Journal history.Recorder
	Log     *zap.Logger
	Metrics *metrics.Collector
	// AutoRegister is sent as soon as the connection opens, if set.
	AutoRegister string
	// Now is the clock for journal timestamps.
	Now func() time.Time
}

type Controller struct {
	inbox chan Msg

	session engine.Session
	banner  string
	version int

	conn       Conn
	dispatcher *dispatch.Dispatcher
	actions    *action.Encoder
	opts       Options
	log        *zap.Logger

	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, opts Options) *Controller {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Journal == nil {
		opts.Journal = history.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(parent)
	return &Controller{
		inbox:      make(chan Msg, 64), // Small buffer
		session:    engine.NewSession(),
		dispatcher: dispatch.New(opts.Log, opts.Metrics),
		opts:       opts,
		log:        opts.Log.Named("session"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start binds the connection and runs the loop. Listener notifications that
// arrived earlier are already queued in the inbox.
func (c *Controller) Start(conn Conn) {
	if c.started {
		return
	}
	c.started = true
	c.conn = conn
	c.actions = action.NewEncoder(conn, c.opts.Log, c.opts.Metrics)
	go c.loop()
}

func (c *Controller) Inbox() chan<- Msg { return c.inbox }

// Done is closed once the loop has stopped.
func (c *Controller) Done() <-chan struct{} { return c.ctx.Done() }

func (c *Controller) loop() {
	c.publish()
	for {
		select {
		case <-c.ctx.Done():
			return

		case m := <-c.inbox:
			switch msg := m.(type) {
			case Inbound:
				c.handleFrame(msg.Raw)

			case Connected:
				c.handleConnected()

			case TransportFailed:
				c.log.Warn("transport error", zap.Error(msg.Err))
				c.banner = ws.Banner
				c.publish()

			case Disconnected:
				if msg.Err != nil {
					c.log.Warn("disconnected", zap.Error(msg.Err))
				} else {
					c.log.Info("disconnected")
				}
				c.banner = ws.Banner
				c.publish()

			case Register:
				msg.Reply <- c.handleRegister(msg.Name)

			case Drop:
				msg.Reply <- c.actions.Drop(c.session, msg.Column)

			case PlayAgain:
				next, err := engine.Apply(c.session, engine.PlayAgain{})
				if err != nil {
					msg.Reply <- err
					break
				}
				c.session = next
				c.banner = ""
				c.publish()
				msg.Reply <- nil

			case DismissBanner:
				if c.banner != "" {
					c.banner = ""
					c.publish()
				}

			case GetState:
				msg.Reply <- c.view()

			case Shutdown:
				c.cancel()
				return
			}
		}
	}
}

func (c *Controller) handleFrame(raw []byte) {
	before := c.session.Phase
	res := c.dispatcher.Handle(c.session, raw)
	if res.Err != nil {
		return
	}
	c.session = res.Session
	if res.Banner != "" {
		c.banner = res.Banner
	}
	if _, ok := res.Event.(engine.GameEnded); ok && res.Changed() {
		c.record(before)
	}
	c.publish()
}

func (c *Controller) handleConnected() {
	if c.banner == ws.Banner {
		c.banner = ""
	}
	switch c.session.Phase {
	case engine.PhaseWaiting, engine.PhasePlaying:
		if err := c.actions.Resume(c.session); err != nil {
			c.log.Warn("resume after reconnect failed", zap.Error(err))
		} else {
			c.log.Info("session resumed", zap.String("phase", string(c.session.Phase)), zap.String("game_id", c.session.GameID))
		}
	case engine.PhaseLobby:
		if c.opts.AutoRegister != "" {
			if err := c.handleRegister(c.opts.AutoRegister); err != nil {
				c.log.Warn("auto register failed", zap.Error(err))
				c.banner = err.Error()
			}
		}
	}
	c.publish()
}

func (c *Controller) handleRegister(name string) error {
	ev, err := c.actions.Register(c.session, name)
	if err != nil {
		return err
	}
	next, err := engine.Apply(c.session, ev)
	if err != nil {
		return err
	}
	c.session = next
	c.publish()
	return nil
}

func (c *Controller) record(from engine.Phase) {
	m, err := history.MatchFrom(c.session, c.opts.Now())
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, 2*time.Second)
	defer cancel()
	if err := c.opts.Journal.Record(ctx, m); err != nil {
		c.log.Warn("journal write failed", zap.String("game_id", m.GameID), zap.Error(err))
		return
	}
	c.log.Debug("match recorded", zap.String("game_id", m.GameID), zap.String("result", string(m.Result)), zap.Bool("replaced", from == engine.PhaseResult))
}

func (c *Controller) view() View {
	return View{
		Version: c.version,
		Session: c.session,
		Banner:  c.banner,
		Conn:    c.connState(),
	}
}

func (c *Controller) connState() ws.Readiness {
	if c.conn == nil {
		return ws.Connecting
	}
	return c.conn.State()
}

func (c *Controller) publish() {
	c.version++
	if c.opts.Hub == nil {
		return
	}
	c.opts.Hub.Post(hub.Publish{Snap: hub.Snapshot{
		Version:      c.version,
		Session:      c.session,
		Banner:       c.banner,
		Conn:         c.connState(),
		YourTurn:     engine.IsYourTurn(c.session, c.session.Username),
		InputEnabled: engine.InputEnabled(c.session, c.session.Username),
	}})
}
