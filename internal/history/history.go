// Package history keeps a journal of finished matches. It stores outcomes only;
// the live session is never persisted.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DoyleJ11/fourinarow-client/internal/engine"
)

var ErrUnsupportedDSN = errors.New("unsupported history dsn")

// Match is one finished game as seen by the local player.
type Match struct {
	ID         uint          `gorm:"primaryKey" json:"-"`
	GameID     string        `gorm:"size:64;index" json:"gameId"`
	Username   string        `gorm:"size:30" json:"username"`
	Opponent   string        `gorm:"size:30" json:"opponent"`
	Winner     string        `gorm:"size:30" json:"winner"`
	Result     engine.Result `gorm:"size:8" json:"result"`
	IsBot      bool          `json:"isBot"`
	WinRow     int           `json:"winRow"`
	WinCol     int           `json:"winCol"`
	Discs      int           `json:"discs"`
	FinishedAt time.Time     `gorm:"index" json:"finishedAt"`
}

// MatchFrom builds the journal row for a session that just reached Result.
func MatchFrom(s engine.Session, at time.Time) (Match, error) {
	if s.Phase != engine.PhaseResult || s.Outcome == nil {
		return Match{}, fmt.Errorf("session in %s has no outcome", s.Phase)
	}
	return Match{
		GameID:     s.GameID,
		Username:   s.Username,
		Opponent:   s.Opponent(s.Username),
		Winner:     s.Outcome.Winner,
		Result:     s.Outcome.ResultFor(s.Username),
		IsBot:      s.IsBot,
		WinRow:     s.Outcome.WinRow,
		WinCol:     s.Outcome.WinCol,
		Discs:      s.Board.Discs(),
		FinishedAt: at.UTC(),
	}, nil
}

type Recorder interface {
	Record(ctx context.Context, m Match) error
	Recent(ctx context.Context, limit int) ([]Match, error)
	Close() error
}

// Nop is used when no journal is configured.
type Nop struct{}

func (Nop) Record(context.Context, Match) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Match, error) { return []Match{}, nil }
func (Nop) Close() error                                 { return nil }

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open picks a backend from dsn: empty gives Nop, postgres:// or postgresql://
// uses pgx, sqlite://path, file: or a *.db path uses sqlite.
func Open(dsn string, log *zap.Logger) (Recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return Nop{}, nil
	}

	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if err := db.AutoMigrate(&Match{}); err != nil {
		return nil, multierr.Append(fmt.Errorf("migrate history: %w", err), closeDB(db))
	}
	log.Named("history").Info("match journal ready", zap.String("dialect", dialector.Name()))
	return &Store{db: db, log: log.Named("history")}, nil
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*cfg)}), nil

	case strings.HasPrefix(dsn, "sqlite://"):
		return sqliteAt(strings.TrimPrefix(dsn, "sqlite://"))

	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return sqlite.Open(dsn), nil

	case strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return sqliteAt(dsn)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}
}

func sqliteAt(path string) (gorm.Dialector, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty sqlite path", ErrUnsupportedDSN)
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}
	return sqlite.Open(path + "?_busy_timeout=5000&_journal_mode=WAL"), nil
}

// Record stores m. A second result for the same game replaces the first.
func (s *Store) Record(ctx context.Context, m Match) error {
	db := s.db.WithContext(ctx)
	if m.GameID == "" {
		if err := db.Create(&m).Error; err != nil {
			return fmt.Errorf("record match: %w", err)
		}
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var existing Match
		err := tx.Where("game_id = ? AND username = ?", m.GameID, m.Username).
			Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("record match: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("lookup match: %w", err)
		}
		m.ID = existing.ID
		if err := tx.Save(&m).Error; err != nil {
			return fmt.Errorf("update match: %w", err)
		}
		s.log.Debug("match result replaced", zap.String("game_id", m.GameID))
		return nil
	})
}

// Recent returns up to limit matches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	out := make([]Match, 0, limit)
	err := s.db.WithContext(ctx).
		Order("finished_at DESC").Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent matches: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error { return closeDB(s.db) }

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
