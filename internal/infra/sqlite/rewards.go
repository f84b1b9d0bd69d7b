package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fitquest/fitquest/internal/domain"
)

// ─── Pending Rewards ────────────────────────────────────────────────────────

// ListPendingRewards returns the user's ungranted rewards, oldest first.
func (d *DB) ListPendingRewards(ctx context.Context, userID string) ([]domain.PendingReward, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, amount, reason, source, created_at
		 FROM pending_rewards WHERE user_id = ? AND granted = 0
		 ORDER BY created_at ASC, rowid ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PendingReward
	for rows.Next() {
		var r domain.PendingReward
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Amount, &r.Reason, &r.Source, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// insertRewards records rewards inside the caller's transaction. An id
// already present, granted or not, is left untouched.
func insertRewards(ctx context.Context, tx *sql.Tx, userID string, rewards []domain.PendingReward) error {
	for _, r := range rewards {
		if r.Amount <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pending_rewards (user_id, id, amount, reason, source, created_at, granted)
			 VALUES (?, ?, ?, ?, ?, ?, 0)
			 ON CONFLICT(user_id, id) DO NOTHING`,
			userID, r.ID, r.Amount, r.Reason, string(r.Source), r.CreatedAt.Unix(),
		); err != nil {
			return fmt.Errorf("insert reward %s: %w", r.ID, err)
		}
	}
	return nil
}

// settleReward flips the granted flag inside the XP commit's transaction.
func settleReward(ctx context.Context, tx *sql.Tx, userID, id string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE pending_rewards SET granted = 1 WHERE user_id = ? AND id = ? AND granted = 0`,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("settle reward: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRewardGranted
	}
	return nil
}
