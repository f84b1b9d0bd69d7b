package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fitquest/fitquest/internal/domain"
)

// ─── Challenges ─────────────────────────────────────────────────────────────

// InsertChallenges creates challenges in one transaction. Ids already
// present are left untouched, so regenerating a week is harmless.
func (d *DB) InsertChallenges(ctx context.Context, cs []domain.Challenge) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range cs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO challenges (id, user_id, metric, description, target, progress, reward_xp, expires_at, completed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			c.ID, c.UserID, string(c.Metric), c.Description, c.Target, c.Progress,
			c.RewardXP, c.ExpiresAt.Unix(), c.Completed,
		); err != nil {
			return fmt.Errorf("insert challenge %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// GetChallenge retrieves a challenge by ID. Returns nil if not found.
func (d *DB) GetChallenge(ctx context.Context, userID, id string) (*domain.Challenge, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, user_id, metric, description, target, progress, reward_xp, expires_at, completed
		 FROM challenges WHERE id = ? AND user_id = ?`, id, userID,
	)
	return scanChallenge(row)
}

// ListActiveChallenges returns non-expired, non-completed challenges.
func (d *DB) ListActiveChallenges(ctx context.Context, userID string, now time.Time) ([]domain.Challenge, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, metric, description, target, progress, reward_xp, expires_at, completed
		 FROM challenges WHERE user_id = ? AND completed = 0 AND expires_at > ?
		 ORDER BY expires_at ASC, id ASC`, userID, now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// AddChallengeProgress increments progress, capped at the target.
// Returns the updated challenge.
func (d *DB) AddChallengeProgress(ctx context.Context, userID, id string, delta int) (*domain.Challenge, error) {
	_, err := d.db.ExecContext(ctx,
		`UPDATE challenges SET progress = MIN(progress + ?, target)
		 WHERE id = ? AND user_id = ? AND completed = 0`,
		delta, id, userID,
	)
	if err != nil {
		return nil, err
	}
	c, err := d.GetChallenge(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrChallengeNotFound
	}
	return c, nil
}

// CompleteChallenge marks a challenge completed, bumps the profile counter
// and records the reward as pending. Returns false if it was already
// completed.
func (d *DB) CompleteChallenge(ctx context.Context, userID, id string, reward domain.PendingReward) (bool, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE challenges SET completed = 1 WHERE id = ? AND user_id = ? AND completed = 0`,
		id, userID,
	)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if err := ensureProfile(ctx, tx, userID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE profiles SET challenges_completed = challenges_completed + 1 WHERE user_id = ?`,
		userID,
	); err != nil {
		return false, err
	}
	if err := insertRewards(ctx, tx, userID, []domain.PendingReward{reward}); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// DeleteExpiredChallenges removes uncompleted challenges that expired
// before the given time.
func (d *DB) DeleteExpiredChallenges(ctx context.Context, before time.Time) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM challenges WHERE expires_at < ? AND completed = 0`, before.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanChallenge(s scanner) (*domain.Challenge, error) {
	var c domain.Challenge
	var expiresAt int64
	err := s.Scan(&c.ID, &c.UserID, &c.Metric, &c.Description, &c.Target, &c.Progress,
		&c.RewardXP, &expiresAt, &c.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.ExpiresAt = time.Unix(expiresAt, 0)
	return &c, nil
}
