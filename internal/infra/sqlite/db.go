// Package sqlite provides SQLite-based persistent storage for fitquest.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/fitquest/fitquest/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
// It implements domain.Store.
type DB struct {
	db *sql.DB
}

var _ domain.Store = (*DB)(nil)

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// One summary row per user. level/rank/perks are a cached snapshot.
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id              TEXT PRIMARY KEY,
			xp                   INTEGER NOT NULL DEFAULT 0,
			level                INTEGER NOT NULL DEFAULT 1,
			rank                 TEXT NOT NULL DEFAULT '',
			perks                TEXT NOT NULL DEFAULT '[]',
			level_ups            INTEGER NOT NULL DEFAULT 0,
			challenges_completed INTEGER NOT NULL DEFAULT 0,
			updated_at           INTEGER NOT NULL DEFAULT 0
		)`,

		// Append-only XP ledger
		`CREATE TABLE IF NOT EXISTS xp_ledger (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			reason     TEXT NOT NULL,
			source     TEXT NOT NULL,
			multiplier REAL NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user ON xp_ledger(user_id, seq)`,

		// Per-category streaks
		`CREATE TABLE IF NOT EXISTS streaks (
			user_id       TEXT NOT NULL,
			category      TEXT NOT NULL,
			current       INTEGER NOT NULL,
			longest       INTEGER NOT NULL,
			last_log_date TEXT NOT NULL,
			updated_at    INTEGER NOT NULL,
			PRIMARY KEY (user_id, category)
		)`,

		// Earned badges
		`CREATE TABLE IF NOT EXISTS earned_badges (
			user_id         TEXT NOT NULL,
			badge_id        TEXT NOT NULL,
			tier            TEXT NOT NULL,
			tier_index      INTEGER NOT NULL,
			value           REAL NOT NULL,
			progress_pct    INTEGER NOT NULL,
			earned_at       INTEGER NOT NULL,
			tier_changed_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, badge_id)
		)`,

		// Loot inventory (never deleted by the engine)
		`CREATE TABLE IF NOT EXISTS loot_inventory (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			item_id     TEXT NOT NULL,
			name        TEXT NOT NULL,
			rarity      TEXT NOT NULL,
			type        TEXT NOT NULL,
			description TEXT NOT NULL,
			chest       TEXT NOT NULL,
			unlocked_at INTEGER NOT NULL,
			used        BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loot_user ON loot_inventory(user_id, unlocked_at)`,

		// Weekly challenges with progress tracking
		`CREATE TABLE IF NOT EXISTS challenges (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			metric      TEXT NOT NULL,
			description TEXT NOT NULL,
			target      INTEGER NOT NULL,
			progress    INTEGER DEFAULT 0,
			reward_xp   INTEGER NOT NULL,
			expires_at  INTEGER NOT NULL,
			completed   BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_user ON challenges(user_id, expires_at)`,

		// Badge and challenge rewards owed; granted rows are kept so an id
		// can never be paid twice
		`CREATE TABLE IF NOT EXISTS pending_rewards (
			user_id    TEXT NOT NULL,
			id         TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			reason     TEXT NOT NULL,
			source     TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			granted    BOOLEAN NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, id)
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ensureProfile creates an empty profile row if none exists.
func ensureProfile(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING`,
		userID,
	)
	return err
}
