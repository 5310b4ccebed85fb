// Package action turns local intents into outbound frames. Nothing reaches the
// wire unless the current session allows it.
package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/DoyleJ11/fourinarow-client/internal/engine"
	"github.com/DoyleJ11/fourinarow-client/internal/metrics"
	"github.com/DoyleJ11/fourinarow-client/pkg/types"
)

// ErrNotSent means the transport refused the frame (connection not open).
var ErrNotSent = errors.New("frame not sent")

var ErrNoGame = errors.New("no game to rejoin")

// Transport accepts a frame for delivery without waiting on the network.
type Transport interface {
	Send(frame []byte) bool
}

type Encoder struct {
	tr      Transport
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewEncoder(tr Transport, log *zap.Logger, m *metrics.Collector) *Encoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Encoder{tr: tr, log: log.Named("action"), metrics: m}
}

// NormalizeUsername trims and NFC-normalizes name and checks its length.
func NormalizeUsername(name string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(name))
	if n == "" {
		return "", fmt.Errorf("%w: empty", engine.ErrInvalidUsername)
	}
	if utf8.RuneCountInString(n) > engine.MaxUsernameLen {
		return "", fmt.Errorf("%w: longer than %d characters", engine.ErrInvalidUsername, engine.MaxUsernameLen)
	}
	return n, nil
}

// Register sends register{username}. The returned event should be applied only
// when err is nil: that is the point the frame was handed to the transport.
func (e *Encoder) Register(s engine.Session, name string) (engine.Registered, error) {
	if s.Phase != engine.PhaseLobby {
		return engine.Registered{}, fmt.Errorf("register in %s: %w", s.Phase, engine.ErrIllegalTransition)
	}
	username, err := NormalizeUsername(name)
	if err != nil {
		return engine.Registered{}, err
	}
	if err := e.send(types.MsgRegister, types.RegisterPayload{Username: username}); err != nil {
		return engine.Registered{}, err
	}
	e.log.Info("registered", zap.String("username", username))
	return engine.Registered{Username: username}, nil
}

// Drop sends game_move{column}. Out-of-turn or out-of-range drops are stopped here.
func (e *Encoder) Drop(s engine.Session, column int) error {
	if err := CheckDrop(s, column); err != nil {
		e.metrics.DropGated()
		e.log.Debug("drop gated", zap.Int("column", column), zap.Error(err))
		return err
	}
	return e.send(types.MsgGameMove, types.MovePayload{Column: column})
}

// CheckDrop applies the local gate for a column drop without sending anything.
func CheckDrop(s engine.Session, column int) error {
	if s.Phase != engine.PhasePlaying {
		return engine.ErrNotPlaying
	}
	if column < 0 || column >= engine.Cols {
		return fmt.Errorf("%w: %d", engine.ErrInvalidColumn, column)
	}
	if !engine.InputEnabled(s, s.Username) {
		return engine.ErrNotYourTurn
	}
	return nil
}

// Rejoin sends rejoin{gameId} for the game in progress.
func (e *Encoder) Rejoin(s engine.Session) error {
	if s.Phase != engine.PhasePlaying || s.GameID == "" {
		return ErrNoGame
	}
	return e.send(types.MsgRejoin, types.RejoinPayload{GameID: s.GameID})
}

// Resume restates the session to a fresh connection: rejoin while playing,
// register again while waiting for an opponent. Other phases need nothing.
func (e *Encoder) Resume(s engine.Session) error {
	switch s.Phase {
	case engine.PhasePlaying:
		return e.Rejoin(s)
	case engine.PhaseWaiting:
		return e.send(types.MsgRegister, types.RegisterPayload{Username: s.Username})
	default:
		return nil
	}
}

func (e *Encoder) send(t types.MessageType, payload any) error {
	data, err := json.Marshal(types.Outgoing{Type: t, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", t, err)
	}
	if !e.tr.Send(data) {
		e.log.Warn("frame dropped", zap.String("type", string(t)))
		return fmt.Errorf("%s: %w", t, ErrNotSent)
	}
	e.metrics.FrameOut()
	return nil
}
