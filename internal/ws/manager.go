// Package ws owns the single websocket connection to the game server.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/fourinarow-client/internal/metrics"
	"github.com/DoyleJ11/fourinarow-client/internal/retry"
)

var ErrTransport = errors.New("transport failure")
var ErrAlreadyOpened = errors.New("connection already opened")
var ErrClosed = errors.New("connection manager closed")

// Banner is what the user sees for any transport failure.
const Banner = "Connection error. Please refresh and try again."

const (
	readLimit         = 64 << 10
	defaultQueueSize  = 16
	closeGraceTimeout = 2 * time.Second
)

type Options struct {
	// URL is the websocket endpoint, see EndpointFor.
	URL          string
	DialTimeout  time.Duration
	WriteTimeout time.Duration

	// ReconnectAttempts of zero makes the first drop terminal.
	ReconnectAttempts int
	ReconnectDelay    time.Duration

	QueueSize int
}

// EndpointFor maps a server base URL onto its websocket endpoint:
// http becomes ws, https becomes wss, and /ws is appended to the path.
func EndpointFor(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("server url scheme %q not supported", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

type link struct {
	conn *websocket.Conn
	out  chan []byte
	id   string
}

type Manager struct {
	opts    Options
	l       Listener
	log     *zap.Logger
	metrics *metrics.Collector

	state   atomic.Int32
	opened  atomic.Bool
	closing atomic.Bool

	mu  sync.Mutex
	cur *link

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func NewManager(opts Options, l Listener, log *zap.Logger, m *metrics.Collector) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	mgr := &Manager{
		opts:    opts,
		l:       l,
		log:     log.Named("ws"),
		metrics: m,
		done:    make(chan struct{}),
	}
	mgr.state.Store(int32(Connecting))
	return mgr
}

func (m *Manager) State() Readiness { return Readiness(m.state.Load()) }

// Done is closed once the manager will deliver no more notifications.
func (m *Manager) Done() <-chan struct{} { return m.done }

// Open dials the endpoint once. On failure the listener sees TransportError then
// Disconnected and the manager is finished. On success frames are read in the
// background until the connection ends or Close is called.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	if m.closing.Load() {
		m.mu.Unlock()
		return ErrClosed
	}
	if !m.opened.CompareAndSwap(false, true) {
		m.mu.Unlock()
		return ErrAlreadyOpened
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	lk, err := m.dial(ctx)
	if err != nil {
		m.finish(err)
		return err
	}
	if !m.attach(ctx, lk) {
		m.finish(nil)
		return ErrClosed
	}
	go m.run(ctx, lk)
	return nil
}

// Send hands frame to the writer. It never blocks: the frame is dropped and
// false returned unless the connection is Open and the queue has room.
func (m *Manager) Send(frame []byte) bool {
	if m.State() != Open {
		m.metrics.SendDropped()
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		m.metrics.SendDropped()
		return false
	}
	select {
	case m.cur.out <- frame:
		return true
	default:
		m.metrics.SendDropped()
		m.log.Warn("send queue full, dropping frame", zap.String("conn_id", m.cur.id))
		return false
	}
}

// Close tears the connection down. Safe to call more than once and before Open.
// No notifications are delivered after Close returns.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closing.Store(true)
		m.state.Store(int32(Closed))
		lk := m.cur
		m.cur = nil
		cancel := m.cancel
		opened := m.opened.Load()
		m.mu.Unlock()

		var errs error
		if lk != nil {
			close(lk.out)
			if err := lk.conn.Close(websocket.StatusNormalClosure, "bye"); err != nil && !isClosedErr(err) {
				errs = multierr.Append(errs, fmt.Errorf("close %s: %w", lk.id, err))
			}
		}
		if cancel != nil {
			cancel()
		}
		if opened {
			select {
			case <-m.done:
			case <-time.After(closeGraceTimeout):
				errs = multierr.Append(errs, errors.New("reader did not stop"))
			}
		} else {
			close(m.done)
		}
		m.closeErr = errs
	})
	return m.closeErr
}

func (m *Manager) dial(ctx context.Context) (*link, error) {
	dctx, cancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dctx, m.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, m.opts.URL, err)
	}
	conn.SetReadLimit(readLimit)
	return &link{conn: conn, out: make(chan []byte, m.opts.QueueSize), id: uuid.NewString()}, nil
}

func (m *Manager) attach(ctx context.Context, lk *link) bool {
	m.mu.Lock()
	if m.closing.Load() {
		m.mu.Unlock()
		lk.conn.CloseNow()
		return false
	}
	m.cur = lk
	m.state.Store(int32(Open))
	m.mu.Unlock()

	go m.writer(ctx, lk)
	m.log.Info("connected", zap.String("conn_id", lk.id), zap.String("url", m.opts.URL))
	m.notify(func() { m.l.Connected() })
	return true
}

func (m *Manager) detach(lk *link) {
	m.mu.Lock()
	if m.cur == lk {
		m.cur = nil
		close(lk.out)
	}
	m.mu.Unlock()
}

// writer owns all writes for one connection.
func (m *Manager) writer(ctx context.Context, lk *link) {
	for frame := range lk.out {
		wctx, cancel := context.WithTimeout(ctx, m.opts.WriteTimeout)
		err := lk.conn.Write(wctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			m.log.Warn("write failed", zap.String("conn_id", lk.id), zap.Error(err))
			// unblocks the reader, which reports the failure
			lk.conn.CloseNow()
			return
		}
	}
}

func (m *Manager) run(ctx context.Context, lk *link) {
	for {
		err := m.readLoop(ctx, lk)
		m.detach(lk)
		if m.closing.Load() || ctx.Err() != nil {
			m.finish(nil)
			return
		}
		if err == nil {
			m.log.Info("server closed connection", zap.String("conn_id", lk.id))
			m.finish(nil)
			return
		}
		m.log.Warn("connection lost", zap.String("conn_id", lk.id), zap.Error(err))

		if m.opts.ReconnectAttempts <= 0 {
			m.finish(err)
			return
		}

		m.metrics.TransportError(err.Error())
		m.notify(func() { m.l.TransportError(err) })
		m.state.Store(int32(Connecting))

		next, rerr := m.reconnect(ctx)
		if rerr != nil {
			m.finish(rerr)
			return
		}
		m.metrics.Reconnect()
		lk = next
		if !m.attach(ctx, lk) {
			m.finish(nil)
			return
		}
	}
}

// readLoop returns nil on a clean close from the server.
func (m *Manager) readLoop(ctx context.Context, lk *link) error {
	for {
		_, data, err := lk.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return fmt.Errorf("%w: read: %w", ErrTransport, err)
		}
		m.notify(func() { m.l.MessageReceived(data) })
	}
}

func (m *Manager) reconnect(ctx context.Context) (*link, error) {
	b := retry.Reconnect(m.opts.ReconnectAttempts, m.opts.ReconnectDelay)
	b.OnRetry = func(attempt int, wait time.Duration, err error) {
		m.log.Info("reconnect failed, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	var lk *link
	err := b.Do(ctx, func(ctx context.Context, attempt int) error {
		if m.closing.Load() {
			return retry.Permanent(context.Canceled)
		}
		var err error
		lk, err = m.dial(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lk, nil
}

// finish moves to Closed and sends the final notifications. err nil means a
// clean close or a local teardown.
func (m *Manager) finish(err error) {
	m.mu.Lock()
	m.state.Store(int32(Closed))
	m.mu.Unlock()
	if err != nil {
		m.metrics.TransportError(err.Error())
		m.notify(func() { m.l.TransportError(err) })
	}
	m.notify(func() { m.l.Disconnected(err) })
	close(m.done)
}

func (m *Manager) notify(fn func()) {
	if m.closing.Load() || m.l == nil {
		return
	}
	fn()
}

func isClosedErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return true
	}
	s := websocket.CloseStatus(err)
	return s == websocket.StatusNormalClosure || s == websocket.StatusGoingAway
}
