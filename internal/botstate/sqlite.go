package botstate

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"quotexbot/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the configuration in a single-row table so it survives restarts.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and seeds the row
// from initial if it does not exist yet.
func NewSQLiteStore(ctx context.Context, path string, initial model.BotConfig) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS bot_config (
		id              INTEGER PRIMARY KEY CHECK (id = 1),
		total_capital   REAL    NOT NULL,
		risk_low        REAL    NOT NULL,
		risk_high       REAL    NOT NULL,
		max_operations  INTEGER NOT NULL,
		active          INTEGER NOT NULL DEFAULT 0,
		updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT OR IGNORE INTO bot_config (id, total_capital, risk_low, risk_high, max_operations, active)
		 VALUES (1, ?, ?, ?, ?, ?)`,
		initial.TotalCapital, initial.RiskLow, initial.RiskHigh, initial.MaxOperations, initial.Active)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite seed: %w", err)
	}

	log.Printf("[botstate] sqlite store opened at %s", path)
	return &SQLiteStore{db: db}, nil
}

const selectConfig = `SELECT total_capital, risk_low, risk_high, max_operations, active FROM bot_config WHERE id = 1`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (model.BotConfig, error) {
	var c model.BotConfig
	if err := row.Scan(&c.TotalCapital, &c.RiskLow, &c.RiskHigh, &c.MaxOperations, &c.Active); err != nil {
		return model.BotConfig{}, err
	}
	return c, nil
}

func (s *SQLiteStore) Get(ctx context.Context) (model.BotConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := scanConfig(s.db.QueryRowContext(ctx, selectConfig))
	if err != nil {
		return model.BotConfig{}, fmt.Errorf("sqlite get: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) SetActive(ctx context.Context, active bool) (model.BotConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.BotConfig{}, fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE bot_config SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1`, active); err != nil {
		return model.BotConfig{}, fmt.Errorf("sqlite update: %w", err)
	}
	c, err := scanConfig(tx.QueryRowContext(ctx, selectConfig))
	if err != nil {
		return model.BotConfig{}, fmt.Errorf("sqlite reread: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.BotConfig{}, fmt.Errorf("sqlite commit: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Backend() string { return BackendSQLite }


func (s *SQLiteStore) Close() error { return s.db.Close() }
