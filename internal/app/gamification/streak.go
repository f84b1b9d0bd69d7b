package gamification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fitquest/fitquest/internal/domain"
	"github.com/fitquest/fitquest/internal/infra/metrics"
)

// Awarder grants XP. *Engine implements it.
type Awarder interface {
	AwardXP(ctx context.Context, a domain.Award) (AwardResult, error)
}

// StreakOutcome describes what an update did to the streak.
type StreakOutcome string

const (
	StreakSameDay  StreakOutcome = "same_day" // already logged today; no-op
	StreakStarted  StreakOutcome = "started"  // first log in this category
	StreakExtended StreakOutcome = "extended" // logged yesterday
	StreakReset    StreakOutcome = "reset"    // gap of 2+ days
)

// StreakUpdate is the result of one Update call.
type StreakUpdate struct {
	Streak   domain.Streak `json:"streak"`
	Previous domain.Streak `json:"previous"`
	Outcome  StreakOutcome `json:"outcome"`
	BonusXP  int64         `json:"bonus_xp"` // pre-multiplier bonus requested
	Award    *AwardResult  `json:"award,omitempty"`
}

// StreakTracker keeps per-category consecutive-day streaks for one user.
// Streaks break silently on a gap; there is no "at risk" state.
type StreakTracker struct {
	userID     string
	store      domain.StreakStore
	awarder    Awarder
	milestones []domain.StreakMilestone
	maxRetries int

	mu sync.Mutex // separate from the engine's award lock
}

// NewStreakTracker creates a tracker that grants milestone bonuses through
// the awarder.
func NewStreakTracker(userID string, store domain.StreakStore, awarder Awarder, milestones []domain.StreakMilestone, maxRetries int) *StreakTracker {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &StreakTracker{
		userID:     userID,
		store:      store,
		awarder:    awarder,
		milestones: milestones,
		maxRetries: maxRetries,
	}
}

// Update records activity in category c on the calendar day of today
// (in today's location).
//
// Same day: no-op. Yesterday: current+1. Anything else: current=1.
// Longest only grows. The streak is persisted before any bonus is awarded;
// if the write fails no XP is granted.
func (t *StreakTracker) Update(ctx context.Context, c domain.StreakCategory, today time.Time) (StreakUpdate, error) {
	if !c.Valid() {
		return StreakUpdate{}, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, c)
	}
	day := today.Format(domain.DateLayout)
	yesterday := today.AddDate(0, 0, -1).Format(domain.DateLayout)

	t.mu.Lock()
	upd, err := t.swap(ctx, c, day, yesterday)
	t.mu.Unlock()
	if err != nil {
		return upd, err
	}
	metrics.StreakUpdates.WithLabelValues(string(c), string(upd.Outcome)).Inc()

	if upd.Outcome == StreakSameDay {
		return upd, nil
	}

	upd.BonusXP = MilestoneBonus(t.milestones, upd.Streak.Current)
	if upd.BonusXP <= 0 {
		return upd, nil
	}
	res, err := t.awarder.AwardXP(ctx, domain.Award{
		Amount: upd.BonusXP,
		Reason: fmt.Sprintf("%s streak bonus (%d days)", c, upd.Streak.Current),
		Source: domain.XPStreakBonus,
	})
	if err != nil {
		return upd, fmt.Errorf("streak bonus: %w", err)
	}
	upd.Award = &res
	return upd, nil
}

func (t *StreakTracker) swap(ctx context.Context, c domain.StreakCategory, day, yesterday string) (StreakUpdate, error) {
	for attempt := 1; ; attempt++ {
		prev, err := t.store.GetStreak(ctx, t.userID, c)
		if err != nil {
			return StreakUpdate{}, storeErr("read streak", err)
		}
		prev.Category = c

		// ISO dates compare lexically. A last log after today means the
		// caller's clock is behind; treat it like a same-day repeat.
		if prev.LastLogDate >= day {
			return StreakUpdate{Streak: prev, Previous: prev, Outcome: StreakSameDay}, nil
		}

		next := prev
		var outcome StreakOutcome
		switch {
		case prev.LastLogDate == "":
			next.Current, outcome = 1, StreakStarted
		case prev.LastLogDate == yesterday:
			next.Current, outcome = prev.Current+1, StreakExtended
		default:
			next.Current, outcome = 1, StreakReset
		}
		next.Longest = max(prev.Longest, next.Current)
		next.LastLogDate = day

		ok, err := t.store.SwapStreak(ctx, t.userID, prev.LastLogDate, next)
		if err != nil {
			return StreakUpdate{}, storeErr("save streak", err)
		}
		if ok {
			return StreakUpdate{Streak: next, Previous: prev, Outcome: outcome}, nil
		}

		metrics.CASRetries.WithLabelValues("streak").Inc()
		if attempt >= t.maxRetries {
			return StreakUpdate{}, fmt.Errorf("save streak: %w", domain.ErrConflict)
		}
	}
}

// MilestoneBonus sums every milestone bonus whose day count the streak has
// reached: with 3→50, 7→100, 30→500 a 30-day streak earns 650.
func MilestoneBonus(milestones []domain.StreakMilestone, current int) int64 {
	var total int64
	for _, m := range milestones {
		if current >= m.Days {
			total += m.Bonus
		}
	}
	return total
}
