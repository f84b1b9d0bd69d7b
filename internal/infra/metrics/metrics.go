// Package metrics provides Prometheus metrics for fitquest.
// Counters cover XP grants, level-ups, badges, loot, streaks and failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── XP ─────────────────────────────────────────────────────────────────────

// XPAwarded tracks post-multiplier XP granted, by source.
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fitquest",
	Name:      "xp_awarded_total",
	Help:      "Total XP granted after multipliers.",
}, []string{"source"})

// LevelUps tracks level-up events (one per grant, however many levels).
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fitquest",
	Name:      "level_ups_total",
	Help:      "Total level-up events.",
})

// AwardFailures tracks failed XP awards by reason.
var AwardFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fitquest",
	Name:      "award_failures_total",
	Help:      "Total failed XP awards.",
}, []string{"reason"})

// CASRetries tracks compare-and-swap retries after a lost race.
var CASRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fitquest",
	Name:      "cas_retries_total",
	Help:      "Compare-and-swap retries by record kind.",
}, []string{"kind"})

// ─── Badges & Loot ──────────────────────────────────────────────────────────

// BadgesEarned tracks badge changes ("new" or "upgrade").
var BadgesEarned = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fitquest",
	Name:      "badges_earned_total",
	Help:      "Badge unlocks and tier upgrades.",
}, []string{"kind"})

// LootUnlocked tracks loot rolled from chests, by chest rarity.
var LootUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fitquest",
	Name:      "loot_unlocked_total",
	Help:      "Loot items unlocked from level-up chests.",
}, []string{"rarity"})

// ─── Streaks ────────────────────────────────────────────────────────────────

// StreakUpdates tracks streak updates by category and outcome
// (same_day, extended, reset).
var StreakUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fitquest",
	Name:      "streak_updates_total",
	Help:      "Streak updates by category and outcome.",
}, []string{"category", "outcome"})

// ─── Feedback ───────────────────────────────────────────────────────────────

// FeedbackPending tracks events waiting to be shown, across all users.
var FeedbackPending = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "fitquest",
	Name:      "feedback_pending",
	Help:      "Feedback events queued and not yet dismissed.",
})
