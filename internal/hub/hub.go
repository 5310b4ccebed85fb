// Package hub fans session snapshots out to presentation subscribers.
package hub

import (
	"context"

	"github.com/DoyleJ11/fourinarow-client/internal/engine"
	"github.com/DoyleJ11/fourinarow-client/internal/ws"
)

// Snapshot is everything a presenter needs to draw one frame.
type Snapshot struct {
	Version      int
	Session      engine.Session
	Banner       string
	Conn         ws.Readiness
	YourTurn     bool
	InputEnabled bool
}

type HubMsg interface{ isHubMsg() }

// Subscribe registers Outbox. The latest snapshot is delivered right away.
type Subscribe struct {
	ID     string
	Outbox chan Snapshot
}

type Unsubscribe struct{ ID string }

type Publish struct{ Snap Snapshot }

type Latest struct {
	Reply chan Snapshot
}

type ShutdownHub struct{}

func (Subscribe) isHubMsg()   {}
func (Unsubscribe) isHubMsg() {}
func (Publish) isHubMsg()     {}
func (Latest) isHubMsg()      {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	subs   map[string]chan Snapshot
	latest Snapshot
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		subs:   make(map[string]chan Snapshot),
		latest: Snapshot{Session: engine.NewSession(), Conn: ws.Connecting},
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed after the hub stops.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

// Post delivers msg unless the hub has stopped.
func (h *Hub) Post(msg HubMsg) bool {
	select {
	case h.inbox <- msg:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Current asks the hub for the newest snapshot.
func (h *Hub) Current(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case h.inbox <- Latest{Reply: reply}:
	case <-h.ctx.Done():
		return Snapshot{}, context.Canceled
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-h.ctx.Done():
		return Snapshot{}, context.Canceled
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				if old, ok := h.subs[msg.ID]; ok && old != msg.Outbox {
					close(old)
				}
				h.subs[msg.ID] = msg.Outbox
				select {
				case msg.Outbox <- h.latest:
				default:
				}

			case Unsubscribe:
				if ch, ok := h.subs[msg.ID]; ok {
					close(ch)
					delete(h.subs, msg.ID)
				}

			case Publish:
				// versions only move forward
				if msg.Snap.Version < h.latest.Version {
					break
				}
				h.latest = msg.Snap
				h.broadcast(msg.Snap)

			case Latest:
				msg.Reply <- h.latest

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	h.cancel()
}

func (h *Hub) broadcast(snap Snapshot) {
	for id, ch := range h.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber is slow/full - drop them.
			close(ch)
			delete(h.subs, id)
		}
	}
}
