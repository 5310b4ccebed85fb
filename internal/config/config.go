// Package config holds the client's runtime settings.
//
// Precedence (highest wins): flags, C4_* environment (including .env), defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	// ServerURL is the game server base, e.g. http://localhost:8080.
	ServerURL string
	// Username, when set, is registered as soon as the connection opens.
	Username string
	// HTTPAddr is the local control API listen address. Empty disables it.
	HTTPAddr string
	// HistoryDSN selects the match journal: postgres://..., sqlite://path or a .db file.
	HistoryDSN string

	LogLevel  string
	LogFormat string

	DialTimeout  time.Duration
	WriteTimeout time.Duration

	// ReconnectAttempts of zero keeps the single-connection behavior.
	ReconnectAttempts int
	ReconnectDelay    time.Duration

	NoTTY bool
}

func Default() Config {
	return Config{
		ServerURL:      "http://localhost:8080",
		HTTPAddr:       "127.0.0.1:7070",
		LogLevel:       "info",
		LogFormat:      "console",
		DialTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		ReconnectDelay: time.Second,
	}
}

var ErrInvalid = errors.New("invalid configuration")

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: server url %q (hint: use http://host:port or https://host)", ErrInvalid, c.ServerURL)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("%w: server url scheme %q not supported", ErrInvalid, u.Scheme)
	}
	if len([]rune(strings.TrimSpace(c.Username))) > 30 {
		return fmt.Errorf("%w: username longer than 30 characters", ErrInvalid)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format %q (hint: json or console)", ErrInvalid, c.LogFormat)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("%w: dial timeout must be positive", ErrInvalid)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("%w: write timeout must be positive", ErrInvalid)
	}
	if c.ReconnectAttempts < 0 {
		return fmt.Errorf("%w: reconnect attempts cannot be negative", ErrInvalid)
	}
	if c.ReconnectAttempts > 0 && c.ReconnectDelay <= 0 {
		return fmt.Errorf("%w: reconnect delay must be positive when reconnecting", ErrInvalid)
	}
	return nil
}

// APIBase is the server base URL for REST calls, always http or https.
func (c Config) APIBase() string {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return c.ServerURL
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}
