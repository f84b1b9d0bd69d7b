package gamification

import (
	"fmt"
	"math"
	"time"

	"github.com/fitquest/fitquest/internal/domain"
)

// TierChange is an existing badge moving up to a higher tier.
type TierChange struct {
	Badge  domain.BadgeDef    `json:"badge"`
	From   domain.Tier        `json:"from"`
	Earned domain.EarnedBadge `json:"earned"`
}

// BadgeChanges is the outcome of one evaluation pass.
type BadgeChanges struct {
	New      []domain.UnlockedBadge `json:"new,omitempty"`      // first time earned
	Upgrades []TierChange           `json:"upgrades,omitempty"` // tier went up
	Progress []domain.EarnedBadge   `json:"-"`                  // same tier, new metric value; no feedback
}

// Empty reports whether nothing needs to be written.
func (c BadgeChanges) Empty() bool {
	return len(c.New) == 0 && len(c.Upgrades) == 0 && len(c.Progress) == 0
}

// Records returns every badge record that must be persisted.
func (c BadgeChanges) Records() []domain.EarnedBadge {
	out := make([]domain.EarnedBadge, 0, len(c.New)+len(c.Upgrades)+len(c.Progress))
	for _, n := range c.New {
		out = append(out, n.Earned)
	}
	for _, u := range c.Upgrades {
		out = append(out, u.Earned)
	}
	return append(out, c.Progress...)
}

// Rewards returns a pending reward for every tier reached in this pass.
// Ids are stable per badge and tier, so a tier is only ever paid once.
func (c BadgeChanges) Rewards(userID string, now time.Time) []domain.PendingReward {
	var out []domain.PendingReward
	add := func(def domain.BadgeDef, idx int) {
		t := def.Tiers[idx]
		if t.RewardXP <= 0 {
			return
		}
		out = append(out, domain.PendingReward{
			ID:        fmt.Sprintf("badge-%s-%d", def.ID, idx),
			UserID:    userID,
			Amount:    t.RewardXP,
			Reason:    fmt.Sprintf("%s badge (%s)", def.Name, t.Tier),
			Source:    domain.XPBadgeReward,
			CreatedAt: now,
		})
	}
	for _, n := range c.New {
		add(n.Badge, n.Earned.TierIndex)
	}
	for _, u := range c.Upgrades {
		add(u.Badge, u.Earned.TierIndex)
	}
	return out
}

// EvaluateBadges compares a metrics snapshot with the user's existing
// badge records and returns what changed. It is pure and never fails:
// missing metrics read as zero, and a metric that went backwards never
// lowers a stored tier.
func EvaluateBadges(ctx domain.BadgeContext, existing map[string]domain.EarnedBadge, defs []domain.BadgeDef, now time.Time) BadgeChanges {
	var out BadgeChanges

	for _, def := range defs {
		if !def.Metric.Known() || len(def.Tiers) == 0 {
			continue
		}
		value := metricValue(def, ctx)
		prev, has := existing[def.ID]

		if value == 0 && !has {
			continue
		}

		idx := qualifyingTier(def.Tiers, value)

		if !has {
			if idx < 0 {
				continue
			}
			earned := domain.EarnedBadge{
				BadgeID:       def.ID,
				Tier:          def.Tiers[idx].Tier,
				TierIndex:     idx,
				Value:         value,
				ProgressPct:   tierProgress(def.Tiers, idx, value),
				EarnedAt:      now,
				TierChangedAt: now,
			}
			out.New = append(out.New, domain.UnlockedBadge{Badge: def, Earned: earned})
			continue
		}

		switch {
		case idx > prev.TierIndex:
			next := prev
			next.Tier = def.Tiers[idx].Tier
			next.TierIndex = idx
			next.Value = value
			next.ProgressPct = tierProgress(def.Tiers, idx, value)
			next.TierChangedAt = now
			out.Upgrades = append(out.Upgrades, TierChange{Badge: def, From: prev.Tier, Earned: next})

		case idx == prev.TierIndex && value != prev.Value:
			next := prev
			next.Value = value
			next.ProgressPct = tierProgress(def.Tiers, idx, value)
			out.Progress = append(out.Progress, next)
		}
		// idx < prev.TierIndex: the metric regressed below the stored tier.
		// Recording it would break tier == highest tier reached by value.
	}
	return out
}

// metricValue extracts the badge's scalar from the context. Gated badges
// coerce the metric to 0/1.
func metricValue(def domain.BadgeDef, ctx domain.BadgeContext) float64 {
	v := ctx.Value(def.Metric)
	if def.AtLeast > 0 {
		if v >= def.AtLeast {
			return 1
		}
		return 0
	}
	return v
}

// qualifyingTier scans from the highest tier down and returns the first
// whose threshold the value reaches, or -1.
func qualifyingTier(tiers []domain.BadgeTier, value float64) int {
	for i := len(tiers) - 1; i >= 0; i-- {
		if value >= tiers[i].Threshold {
			return i
		}
	}
	return -1
}

// tierProgress is the percentage from the current tier's threshold to the
// next one's. It is 100 exactly at the final tier and capped at 99 below it.
func tierProgress(tiers []domain.BadgeTier, idx int, value float64) int {
	if idx >= len(tiers)-1 {
		return 100
	}
	lo, hi := tiers[idx].Threshold, tiers[idx+1].Threshold
	pct := math.Floor((value - lo) / (hi - lo) * 100)
	return int(math.Max(0, math.Min(pct, 99)))
}
