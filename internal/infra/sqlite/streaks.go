package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitquest/fitquest/internal/domain"
)

// ─── Streaks ────────────────────────────────────────────────────────────────

// GetStreak returns the stored streak, or a zero streak for the category.
func (d *DB) GetStreak(ctx context.Context, userID string, c domain.StreakCategory) (domain.Streak, error) {
	s := domain.Streak{Category: c}
	err := d.db.QueryRowContext(ctx,
		`SELECT current, longest, last_log_date FROM streaks WHERE user_id = ? AND category = ?`,
		userID, string(c),
	).Scan(&s.Current, &s.Longest, &s.LastLogDate)
	if errors.Is(err, sql.ErrNoRows) {
		return s, nil
	}
	return s, err
}

// ListStreaks returns every stored streak for the user, keyed by category.
func (d *DB) ListStreaks(ctx context.Context, userID string) (map[domain.StreakCategory]domain.Streak, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT category, current, longest, last_log_date FROM streaks WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.StreakCategory]domain.Streak)
	for rows.Next() {
		var s domain.Streak
		if err := rows.Scan(&s.Category, &s.Current, &s.Longest, &s.LastLogDate); err != nil {
			return nil, err
		}
		out[s.Category] = s
	}
	return out, rows.Err()
}

// SwapStreak writes s only if the stored last_log_date still equals
// prevLastDate. Longest never decreases, even if s says otherwise.
func (d *DB) SwapStreak(ctx context.Context, userID string, prevLastDate string, s domain.Streak) (bool, error) {
	now := time.Now().Unix()

	var res sql.Result
	var err error
	if prevLastDate == "" {
		res, err = d.db.ExecContext(ctx,
			`INSERT INTO streaks (user_id, category, current, longest, last_log_date, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(user_id, category) DO NOTHING`,
			userID, string(s.Category), s.Current, s.Longest, s.LastLogDate, now,
		)
	} else {
		res, err = d.db.ExecContext(ctx,
			`UPDATE streaks
			 SET current = ?, longest = MAX(longest, ?), last_log_date = ?, updated_at = ?
			 WHERE user_id = ? AND category = ? AND last_log_date = ?`,
			s.Current, s.Longest, s.LastLogDate, now,
			userID, string(s.Category), prevLastDate,
		)
	}
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
