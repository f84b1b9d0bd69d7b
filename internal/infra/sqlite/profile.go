package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitquest/fitquest/internal/domain"
)

// ─── Profiles ───────────────────────────────────────────────────────────────

// LoadProfile returns the user's profile, or a zero profile if none exists.
func (d *DB) LoadProfile(ctx context.Context, userID string) (domain.Profile, error) {
	p := domain.Profile{UserID: userID}
	var perks string
	var updatedAt int64
	err := d.db.QueryRowContext(ctx,
		`SELECT xp, level, rank, perks, level_ups, challenges_completed, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.XP, &p.Level, &p.Rank, &perks, &p.LevelUps, &p.ChallengesCompleted, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if perks != "" {
		if err := json.Unmarshal([]byte(perks), &p.Perks); err != nil {
			return p, fmt.Errorf("decode perks: %w", err)
		}
	}
	if updatedAt > 0 {
		p.UpdatedAt = time.Unix(updatedAt, 0)
	}
	return p, nil
}

// CommitXP writes the new total, level snapshot, ledger entry, any chest
// loot and the settled reward flag in one transaction, guarded by a
// compare-and-swap on the stored XP.
func (d *DB) CommitXP(ctx context.Context, c domain.XPCommit) (bool, error) {
	if c.NewXP < c.ExpectedXP {
		return false, fmt.Errorf("xp may not decrease (%d -> %d)", c.ExpectedXP, c.NewXP)
	}
	perks, err := json.Marshal(nonNil(c.Perks))
	if err != nil {
		return false, fmt.Errorf("encode perks: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if err := ensureProfile(ctx, tx, c.UserID); err != nil {
		return false, fmt.Errorf("ensure profile: %w", err)
	}

	now := c.Entry.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE profiles
		 SET xp = ?, level = ?, rank = ?, perks = ?, level_ups = level_ups + ?, updated_at = ?
		 WHERE user_id = ? AND xp = ?`,
		c.NewXP, c.Level, c.Rank, string(perks), c.LevelUps, now.Unix(),
		c.UserID, c.ExpectedXP,
	)
	if err != nil {
		return false, fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil // Lost the race; caller re-reads
	}

	if c.RewardID != "" {
		if err := settleReward(ctx, tx, c.UserID, c.RewardID); err != nil {
			return false, err
		}
	}

	e := c.Entry
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO xp_ledger (id, user_id, amount, reason, source, multiplier, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, c.UserID, e.Amount, e.Reason, string(e.Source), e.Multiplier, now.Unix(),
	); err != nil {
		return false, fmt.Errorf("insert ledger: %w", err)
	}

	if l := c.Loot; l != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO loot_inventory (id, user_id, item_id, name, rarity, type, description, chest, unlocked_at, used)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, c.UserID, l.Item.ID, l.Item.Name, string(l.Item.Rarity), string(l.Item.Type),
			l.Item.Description, string(l.Chest), l.UnlockedAt.Unix(), l.Used,
		); err != nil {
			return false, fmt.Errorf("insert loot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// LedgerEntries returns the user's most recent grants, newest first.
func (d *DB) LedgerEntries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, amount, reason, source, multiplier, created_at
		 FROM xp_ledger WHERE user_id = ? ORDER BY seq DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var ts int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Reason, &e.Source, &e.Multiplier, &ts); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ─── Loot Inventory ─────────────────────────────────────────────────────────

// ListLoot returns the user's inventory, oldest first.
func (d *DB) ListLoot(ctx context.Context, userID string) ([]domain.UnlockedLoot, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, item_id, name, rarity, type, description, chest, unlocked_at, used
		 FROM loot_inventory WHERE user_id = ? ORDER BY unlocked_at ASC, rowid ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UnlockedLoot
	for rows.Next() {
		l, err := scanLoot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MarkLootUsed flips the used flag. The row is kept.
func (d *DB) MarkLootUsed(ctx context.Context, userID, lootID string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE loot_inventory SET used = 1 WHERE id = ? AND user_id = ? AND used = 0`,
		lootID, userID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var used bool
	err = d.db.QueryRowContext(ctx,
		`SELECT used FROM loot_inventory WHERE id = ? AND user_id = ?`, lootID, userID,
	).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrLootNotFound
	}
	if err != nil {
		return err
	}
	return domain.ErrLootUsed
}

func scanLoot(s scanner) (domain.UnlockedLoot, error) {
	var l domain.UnlockedLoot
	var unlockedAt int64
	err := s.Scan(&l.ID, &l.UserID, &l.Item.ID, &l.Item.Name, &l.Item.Rarity, &l.Item.Type,
		&l.Item.Description, &l.Chest, &unlockedAt, &l.Used)
	if err != nil {
		return l, err
	}
	l.UnlockedAt = time.Unix(unlockedAt, 0)
	return l, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
