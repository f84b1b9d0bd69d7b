package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/fitquest/fitquest/internal/domain"
)

// ─── Earned Badges ──────────────────────────────────────────────────────────

// ListEarnedBadges returns the user's badge records keyed by badge id.
func (d *DB) ListEarnedBadges(ctx context.Context, userID string) (map[string]domain.EarnedBadge, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT badge_id, tier, tier_index, value, progress_pct, earned_at, tier_changed_at
		 FROM earned_badges WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.EarnedBadge)
	for rows.Next() {
		var b domain.EarnedBadge
		var earnedAt, changedAt int64
		if err := rows.Scan(&b.BadgeID, &b.Tier, &b.TierIndex, &b.Value, &b.ProgressPct, &earnedAt, &changedAt); err != nil {
			return nil, err
		}
		b.EarnedAt = time.Unix(earnedAt, 0)
		b.TierChangedAt = time.Unix(changedAt, 0)
		out[b.BadgeID] = b
	}
	return out, rows.Err()
}

// SaveEarnedBadges upserts the records and their pending tier rewards in
// one transaction. A stored tier is never lowered: an update carrying a
// smaller tier index is ignored.
func (d *DB) SaveEarnedBadges(ctx context.Context, userID string, badges []domain.EarnedBadge, rewards []domain.PendingReward) error {
	if len(badges) == 0 && len(rewards) == 0 {
		return nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, b := range badges {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO earned_badges (user_id, badge_id, tier, tier_index, value, progress_pct, earned_at, tier_changed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(user_id, badge_id) DO UPDATE SET
				tier=excluded.tier,
				tier_index=excluded.tier_index,
				value=excluded.value,
				progress_pct=excluded.progress_pct,
				tier_changed_at=excluded.tier_changed_at
			 WHERE excluded.tier_index >= earned_badges.tier_index`,
			userID, b.BadgeID, string(b.Tier), b.TierIndex, b.Value, b.ProgressPct,
			b.EarnedAt.Unix(), b.TierChangedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("upsert badge %s: %w", b.BadgeID, err)
		}
	}
	if err := insertRewards(ctx, tx, userID, rewards); err != nil {
		return err
	}
	return tx.Commit()
}
