package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// LoadDotEnv reads .env style files into the process environment. Missing
// files are ignored; existing variables are never overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFromEnv overlays C4_* variables onto cfg. Empty values are skipped.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("C4_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("C4_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v, ok := os.LookupEnv("C4_HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("C4_HISTORY_DSN"); v != "" {
		cfg.HistoryDSN = v
	}
	if v := os.Getenv("C4_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("C4_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if err := envDuration("C4_DIAL_TIMEOUT", &cfg.DialTimeout); err != nil {
		return err
	}
	if err := envDuration("C4_WRITE_TIMEOUT", &cfg.WriteTimeout); err != nil {
		return err
	}
	if v := os.Getenv("C4_RECONNECT_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("C4_RECONNECT_ATTEMPTS: %w", err)
		}
		cfg.ReconnectAttempts = n
	}
	if err := envDuration("C4_RECONNECT_DELAY", &cfg.ReconnectDelay); err != nil {
		return err
	}
	if envBool("C4_NO_TTY") {
		cfg.NoTTY = true
	}
	return nil
}

// BindFlags registers every setting on fs with cfg's current values as defaults,
// so flags parsed afterwards take precedence over the environment.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.ServerURL, "server", "s", cfg.ServerURL, "game server base URL")
	fs.StringVarP(&cfg.Username, "username", "u", cfg.Username, "register this name once connected")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "local control API address (empty disables)")
	fs.StringVar(&cfg.HistoryDSN, "history", cfg.HistoryDSN, "match journal DSN (postgres://..., sqlite://file)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "json or console")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "websocket handshake timeout")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "per-frame write timeout")
	fs.IntVar(&cfg.ReconnectAttempts, "reconnect-attempts", cfg.ReconnectAttempts, "reconnect tries after a drop (0 disables)")
	fs.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", cfg.ReconnectDelay, "initial reconnect backoff")
	fs.BoolVar(&cfg.NoTTY, "no-tty", cfg.NoTTY, "plain line output even on a terminal")
}

// Load resolves the full configuration for args (without the program name).
func Load(args []string) (Config, error) {
	cfg := Default()
	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}
	if err := LoadFromEnv(&cfg); err != nil {
		return cfg, err
	}

	fs := pflag.NewFlagSet("fourinarow", pflag.ContinueOnError)
	BindFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// bare numbers are seconds
		n, nerr := strconv.Atoi(v)
		if nerr != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		d = time.Duration(n) * time.Second
	}
	*dst = d
	return nil
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
