// Package leaderboard reads standings from the game server's REST API.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/fourinarow-client/pkg/types"
)

var ErrPlayerNotFound = errors.New("player not found")
var ErrUnexpectedStatus = errors.New("unexpected status")

const maxBody = 1 << 20

type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

func NewClient(base string, hc *http.Client, log *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{base: strings.TrimRight(base, "/"), http: hc, log: log.Named("leaderboard")}
}

// Leaderboard fetches the current standings. No caching; every call hits the server.
func (c *Client) Leaderboard(ctx context.Context) ([]types.LeaderboardEntry, error) {
	var resp types.LeaderboardResponse
	if err := c.get(ctx, "/api/leaderboard", &resp); err != nil {
		return nil, err
	}
	if resp.Leaderboard == nil {
		resp.Leaderboard = []types.LeaderboardEntry{}
	}
	return resp.Leaderboard, nil
}

func (c *Client) Player(ctx context.Context, username string) (types.PlayerStats, error) {
	var stats types.PlayerStats
	if strings.TrimSpace(username) == "" {
		return stats, fmt.Errorf("%w: empty username", ErrPlayerNotFound)
	}
	err := c.get(ctx, "/api/player/"+url.PathEscape(username), &stats)
	return stats, err
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, ErrPlayerNotFound)
	case res.StatusCode != http.StatusOK:
		c.log.Warn("leaderboard request failed", zap.String("path", path), zap.Int("status", res.StatusCode))
		return fmt.Errorf("GET %s: %w %d", path, ErrUnexpectedStatus, res.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(res.Body, maxBody)).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
