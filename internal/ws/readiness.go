package ws

type Readiness int32

const (
	Connecting Readiness = iota
	Open
	Closed
)

func (r Readiness) String() string {
	switch r {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

func (r Readiness) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Listener receives lifecycle notifications from one read goroutine, in wire order.
// Implementations must not block for long; they hold up the next frame.
type Listener interface {
	Connected()
	MessageReceived(raw []byte)
	TransportError(err error)
	// Disconnected is the last notification for a Manager. err is nil after a
	// clean close by the server.
	Disconnected(err error)
}
