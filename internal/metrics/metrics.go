// Package metrics keeps lock-free counters for one client process.
//
// A nil *Collector is a valid no-op receiver.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	framesIn           atomic.Int64
	framesOut          atomic.Int64
	sendsDropped       atomic.Int64
	dropsGated         atomic.Int64
	protocolViolations atomic.Int64
	serverErrors       atomic.Int64
	transportErrors    atomic.Int64
	reconnects         atomic.Int64
	gamesStarted       atomic.Int64
	gamesFinished      atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

func New() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) FrameIn() {
	if c == nil {
		return
	}
	c.framesIn.Add(1)
}

func (c *Collector) FrameOut() {
	if c == nil {
		return
	}
	c.framesOut.Add(1)
}

// SendDropped counts frames discarded because the connection was not open.
func (c *Collector) SendDropped() {
	if c == nil {
		return
	}
	c.sendsDropped.Add(1)
}

// DropGated counts column drops stopped before the wire.
func (c *Collector) DropGated() {
	if c == nil {
		return
	}
	c.dropsGated.Add(1)
}

func (c *Collector) ProtocolViolation(msg string) {
	if c == nil {
		return
	}
	c.protocolViolations.Add(1)
	c.recordError(msg)
}

func (c *Collector) ServerError(msg string) {
	if c == nil {
		return
	}
	c.serverErrors.Add(1)
	c.recordError(msg)
}

func (c *Collector) TransportError(msg string) {
	if c == nil {
		return
	}
	c.transportErrors.Add(1)
	c.recordError(msg)
}

func (c *Collector) Reconnect() {
	if c == nil {
		return
	}
	c.reconnects.Add(1)
}

func (c *Collector) GameStarted() {
	if c == nil {
		return
	}
	c.gamesStarted.Add(1)
}

func (c *Collector) GameFinished() {
	if c == nil {
		return
	}
	c.gamesFinished.Add(1)
}

func (c *Collector) recordError(msg string) {
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

type Snapshot struct {
	Uptime             string `json:"uptime"`
	FramesIn           int64  `json:"frames_in"`
	FramesOut          int64  `json:"frames_out"`
	SendsDropped       int64  `json:"sends_dropped"`
	DropsGated         int64  `json:"drops_gated"`
	ProtocolViolations int64  `json:"protocol_violations"`
	ServerErrors       int64  `json:"server_errors"`
	TransportErrors    int64  `json:"transport_errors"`
	Reconnects         int64  `json:"reconnects"`
	GamesStarted       int64  `json:"games_started"`
	GamesFinished      int64  `json:"games_finished"`
	LastError          string `json:"last_error,omitempty"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}

func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:             time.Since(c.startTime).Truncate(time.Second).String(),
		FramesIn:           c.framesIn.Load(),
		FramesOut:          c.framesOut.Load(),
		SendsDropped:       c.sendsDropped.Load(),
		DropsGated:         c.dropsGated.Load(),
		ProtocolViolations: c.protocolViolations.Load(),
		ServerErrors:       c.serverErrors.Load(),
		TransportErrors:    c.transportErrors.Load(),
		Reconnects:         c.reconnects.Load(),
		GamesStarted:       c.gamesStarted.Load(),
		GamesFinished:      c.gamesFinished.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}
