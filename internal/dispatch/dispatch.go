package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/fourinarow-client/internal/engine"
	"github.com/DoyleJ11/fourinarow-client/internal/metrics"
	"github.com/DoyleJ11/fourinarow-client/pkg/types"
)

var ErrMalformedFrame = errors.New("malformed frame")

// Decode turns one raw frame into an engine event. The whole frame is decoded
// before anything is returned, so a failure never yields a partial event.
func Decode(data []byte) (engine.Event, error) {
	var env types.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	switch env.Type {
	case types.MsgGameStart:
		var p types.GameStartPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return engine.GameStarted{
			GameID:   p.GameID,
			Player1:  p.Player1,
			Player2:  p.Player2,
			IsBot:    p.IsBot,
			YourTurn: p.YourTurn,
		}, nil

	case types.MsgGameMove:
		var p types.GameMovePayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		board, err := engine.BoardFromGrid(p.Board)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		ev := engine.MoveMade{
			Board:  board,
			Mover:  intOr(p.Player, 0),
			Next:   intOr(p.CurrentPlayer, 0),
			Column: intOr(p.Column, engine.NoCell),
			Row:    intOr(p.Row, engine.NoCell),
		}
		if _, ok := engine.NextTurn(ev); !ok {
			return nil, fmt.Errorf("%w: game_move without mover", ErrMalformedFrame)
		}
		return ev, nil

	case types.MsgGameResult:
		var p types.GameResultPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return engine.GameEnded{
			Winner: p.Winner,
			WinRow: intOr(p.WinRow, engine.NoCell),
			WinCol: intOr(p.WinCol, engine.NoCell),
		}, nil

	case types.MsgError:
		var p types.ErrorPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return engine.ServerError{Message: p.Message}, nil

	default:
		return engine.UnknownFrame{Type: string(env.Type)}, nil
	}
}

func unmarshalPayload(env types.Envelope, v any) error {
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return fmt.Errorf("%w: %s without payload", ErrMalformedFrame, env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, env.Type, err)
	}
	return nil
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Result is what one frame did to the session.
type Result struct {
	Session engine.Session
	Event   engine.Event // nil when the frame could not be decoded
	Banner  string       // non-empty when the user should see a message
	Err     error
}

// Changed reports whether the frame moved the session.
func (r Result) Changed() bool { return r.Err == nil && r.Event != nil }

type Dispatcher struct {
	log     *zap.Logger
	metrics *metrics.Collector
}

func New(log *zap.Logger, m *metrics.Collector) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{log: log.Named("dispatch"), metrics: m}
}

// Handle decodes raw and routes it to the state machine. Protocol violations and
// out-of-sequence frames are logged and leave s untouched.
func (d *Dispatcher) Handle(s engine.Session, raw []byte) Result {
	d.metrics.FrameIn()

	ev, err := Decode(raw)
	if err != nil {
		d.metrics.ProtocolViolation(err.Error())
		d.log.Warn("dropping frame", zap.Error(err), zap.Int("bytes", len(raw)))
		return Result{Session: s, Err: err}
	}

	next, err := engine.Apply(s, ev)
	switch {
	case errors.Is(err, engine.ErrUnknownFrame):
		d.metrics.ProtocolViolation(err.Error())
		d.log.Warn("unknown message type", zap.String("type", ev.(engine.UnknownFrame).Type))
		return Result{Session: s, Event: ev, Err: err}
	case err != nil:
		d.log.Warn("frame out of sequence",
			zap.String("event", fmt.Sprintf("%T", ev)),
			zap.String("phase", string(s.Phase)),
			zap.Error(err))
		return Result{Session: s, Event: ev, Err: err}
	}

	res := Result{Session: next, Event: ev}
	switch e := ev.(type) {
	case engine.ServerError:
		d.metrics.ServerError(e.Message)
		d.log.Info("server error", zap.String("message", e.Message))
		res.Banner = e.Message
	case engine.GameStarted:
		d.metrics.GameStarted()
		d.log.Info("game started",
			zap.String("game_id", e.GameID),
			zap.String("player1", e.Player1),
			zap.String("player2", e.Player2),
			zap.Bool("bot", e.IsBot),
			zap.Int("turn", next.Turn))
	case engine.MoveMade:
		d.log.Debug("board updated", zap.Int("mover", e.Mover), zap.Int("turn", next.Turn), zap.Int("discs", next.Board.Discs()))
	case engine.GameEnded:
		if s.Phase == engine.PhasePlaying {
			d.metrics.GameFinished()
		}
		d.log.Info("game finished", zap.String("game_id", next.GameID), zap.String("winner", e.Winner))
	}
	return res
}
