package session

import (
	"context"
)

// The Controller is the connection's listener. Each notification is queued in
// wire order; the read goroutine waits while the inbox is full.

func (c *Controller) Connected()                 { c.post(Connected{}) }
func (c *Controller) MessageReceived(raw []byte) { c.post(Inbound{Raw: raw}) }
func (c *Controller) TransportError(err error)   { c.post(TransportFailed{Err: err}) }
func (c *Controller) Disconnected(err error)     { c.post(Disconnected{Err: err}) }

func (c *Controller) post(m Msg) bool {
	select {
	case c.inbox <- m:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// Stop ends the loop. Queued messages are discarded.
func (c *Controller) Stop() {
	if !c.post(Shutdown{}) {
		return
	}
	if !c.started {
		c.cancel()
	}
}

func (c *Controller) Register(ctx context.Context, name string) error {
	reply := make(chan error, 1)
	return c.ask(ctx, Register{Name: name, Reply: reply}, reply)
}

func (c *Controller) Drop(ctx context.Context, column int) error {
	reply := make(chan error, 1)
	return c.ask(ctx, Drop{Column: column, Reply: reply}, reply)
}

func (c *Controller) PlayAgain(ctx context.Context) error {
	reply := make(chan error, 1)
	return c.ask(ctx, PlayAgain{Reply: reply}, reply)
}

func (c *Controller) DismissBanner() { c.post(DismissBanner{}) }

func (c *Controller) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := c.send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-c.ctx.Done():
		return View{}, ErrStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (c *Controller) ask(ctx context.Context, m Msg, reply chan error) error {
	if err := c.send(ctx, m); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-c.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) send(ctx context.Context, m Msg) error {
	select {
	case c.inbox <- m:
		return nil
	case <-c.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
