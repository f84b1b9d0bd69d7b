// Package domain holds the gamification types shared by every layer.
// XP drives levels, levels unlock perks and loot chests, activity metrics
// drive tiered badges, and every reward surfaces as a queued feedback event.
package domain

import (
	"strconv"
	"time"
)

// ─── XP ─────────────────────────────────────────────────────────────────────

// XPSource categorizes where a grant came from.
type XPSource string

const (
	XPMealLogged       XPSource = "meal_logged"
	XPWorkoutSet       XPSource = "workout_set"
	XPWorkoutCompleted XPSource = "workout_completed"
	XPWaterLogged      XPSource = "water_logged"
	XPWeightLogged     XPSource = "weight_logged"
	XPPlanGenerated    XPSource = "ai_plan"
	XPStreakBonus      XPSource = "streak_bonus"
	XPBadgeReward      XPSource = "badge_reward"
	XPChallenge        XPSource = "challenge"
	XPGeneral          XPSource = "general"
)

// LedgerEntry is one append-only XP grant. Amount is post-multiplier.
type LedgerEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	Reason     string    `json:"reason"`
	Source     XPSource  `json:"source"`
	Multiplier float64   `json:"multiplier"`
	CreatedAt  time.Time `json:"created_at"`
}

// Award is a request to grant XP. Badges is optional; when set, badge
// evaluation runs after the XP commit.
type Award struct {
	Amount int64
	Reason string
	Source XPSource
	Badges BadgeContext
}

// PendingReward is XP owed for a badge tier or a completed challenge. It is
// written in the same transaction as the record that earned it and marked
// granted by the XP commit that pays it, so a failed grant is retried on a
// later award instead of being lost. ID is unique per user.
type PendingReward struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	Source    XPSource  `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the per-user summary row. Level, Rank and Perks are a cached
// snapshot for other readers; the engine always recomputes from XP.
type Profile struct {
	UserID              string    `json:"user_id"`
	XP                  int64     `json:"xp"`
	Level               int       `json:"level"`
	Rank                string    `json:"rank"`
	Perks               []string  `json:"perks"`
	LevelUps            int       `json:"level_ups"`
	ChallengesCompleted int       `json:"challenges_completed"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// XPCommit is everything one grant writes, applied atomically by the store.
// The write only lands if the stored XP still equals ExpectedXP.
type XPCommit struct {
	UserID     string
	ExpectedXP int64
	NewXP      int64
	Level      int
	Rank       string
	Perks      []string
	LevelUps   int // delta
	Entry      LedgerEntry
	Loot       *UnlockedLoot
	RewardID   string // pending reward settled by this commit, if any
}

// ─── Levels ─────────────────────────────────────────────────────────────────

// LevelBand is one row of a level table. A band covers [MinXP, next.MinXP).
type LevelBand struct {
	Level      int      `json:"level" toml:"level"`
	Rank       string   `json:"rank" toml:"rank"`
	MinXP      int64    `json:"min_xp" toml:"min_xp"`
	Multiplier float64  `json:"multiplier" toml:"multiplier"`
	Perks      []string `json:"perks,omitempty" toml:"perks"`
}

// LevelInfo is derived from cumulative XP and never stored as truth.
type LevelInfo struct {
	XP          int64    `json:"xp"`
	Level       int      `json:"level"`
	Rank        string   `json:"rank"`
	Perks       []string `json:"perks"`
	LevelMinXP  int64    `json:"level_min_xp"`
	NextLevelXP int64    `json:"next_level_xp"` // 0 when Max
	XPToNext    int64    `json:"xp_to_next"`    // 0 when Max
	ProgressPct float64  `json:"progress_pct"`
	Multiplier  float64  `json:"multiplier"`
	Max         bool     `json:"max"`
}

// XPToNextLabel renders XPToNext for display ("MAX" in the terminal band).
func (l LevelInfo) XPToNextLabel() string {
	if l.Max {
		return "MAX"
	}
	return strconv.FormatInt(l.XPToNext, 10)
}

// ─── Streaks ────────────────────────────────────────────────────────────────

// StreakCategory is a logging category that keeps its own streak.
type StreakCategory string

const (
	StreakWorkout StreakCategory = "workout"
	StreakMeal    StreakCategory = "meal"
	StreakWater   StreakCategory = "water"
)

// StreakCategories lists every tracked category.
var StreakCategories = []StreakCategory{StreakWorkout, StreakMeal, StreakWater}

// Valid reports whether c is a tracked category.
func (c StreakCategory) Valid() bool {
	switch c {
	case StreakWorkout, StreakMeal, StreakWater:
		return true
	}
	return false
}

// DateLayout is the ISO date format used for streak days.
const DateLayout = "2006-01-02"

// Streak is the per-category consecutive-day counter.
// LastLogDate is an ISO date ("" when never logged).
type Streak struct {
	Category    StreakCategory `json:"category"`
	Current     int            `json:"current"`
	Longest     int            `json:"longest"`
	LastLogDate string         `json:"last_log_date"`
}

// StreakMilestone grants Bonus XP on every update where the streak is at
// least Days long. Milestones stack.
type StreakMilestone struct {
	Days  int   `json:"days" toml:"days"`
	Bonus int64 `json:"bonus" toml:"bonus"`
}

// ─── Badges ─────────────────────────────────────────────────────────────────

// Tier is a badge tier name. Order is bronze < silver < gold < diamond.
type Tier string

const (
	TierBronze  Tier = "bronze"
	TierSilver  Tier = "silver"
	TierGold    Tier = "gold"
	TierDiamond Tier = "diamond"
)

// Rank returns the tier's position in the global order, -1 if unknown.
func (t Tier) Rank() int {
	switch t {
	case TierBronze:
		return 0
	case TierSilver:
		return 1
	case TierGold:
		return 2
	case TierDiamond:
		return 3
	}
	return -1
}

// BadgeCategory groups badges for display.
type BadgeCategory string

const (
	BadgeCatWorkout     BadgeCategory = "workout"
	BadgeCatNutrition   BadgeCategory = "nutrition"
	BadgeCatHydration   BadgeCategory = "hydration"
	BadgeCatConsistency BadgeCategory = "consistency"
	BadgeCatProgress    BadgeCategory = "progress"
	BadgeCatSpecial     BadgeCategory = "special"
)

// BadgeTier is one step of a badge.
type BadgeTier struct {
	Tier      Tier    `json:"tier" toml:"tier"`
	Threshold float64 `json:"threshold" toml:"threshold"`
	RewardXP  int64   `json:"reward_xp" toml:"reward_xp"`
}

// BadgeDef is a static badge definition. Tiers are ordered by threshold.
// When AtLeast > 0 the metric is coerced to 1 if it reaches AtLeast, else 0.
type BadgeDef struct {
	ID          string        `json:"id" toml:"id"`
	Name        string        `json:"name" toml:"name"`
	Description string        `json:"description" toml:"description"`
	Category    BadgeCategory `json:"category" toml:"category"`
	Icon        string        `json:"icon" toml:"icon"`
	Metric      Metric        `json:"metric" toml:"metric"`
	AtLeast     float64       `json:"at_least,omitempty" toml:"at_least"`
	Tiers       []BadgeTier   `json:"tiers" toml:"tiers"`
}

// EarnedBadge is the per-user record for one badge.
type EarnedBadge struct {
	BadgeID       string    `json:"badge_id"`
	Tier          Tier      `json:"tier"`
	TierIndex     int       `json:"tier_index"`
	Value         float64   `json:"value"`
	ProgressPct   int       `json:"progress_pct"`
	EarnedAt      time.Time `json:"earned_at"`
	TierChangedAt time.Time `json:"tier_changed_at"`
}

// ─── Loot ───────────────────────────────────────────────────────────────────

// Rarity orders loot and chest tiers.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rank returns the rarity's position (common=0), -1 if unknown.
func (r Rarity) Rank() int {
	switch r {
	case RarityCommon:
		return 0
	case RarityRare:
		return 1
	case RarityEpic:
		return 2
	case RarityLegendary:
		return 3
	}
	return -1
}

// LootType is what a loot item does.
type LootType string

const (
	LootXPBoost  LootType = "xp_boost"
	LootCosmetic LootType = "cosmetic"
	LootFreeze   LootType = "streak_freeze"
	LootTitle    LootType = "title"
)

// LootItem is a static loot definition.
type LootItem struct {
	ID          string   `json:"id" toml:"id"`
	Name        string   `json:"name" toml:"name"`
	Rarity      Rarity   `json:"rarity" toml:"rarity"`
	Type        LootType `json:"type" toml:"type"`
	Description string   `json:"description" toml:"description"`
}

// ChestRule unlocks a chest of the given rarity when a level-up crosses Level.
type ChestRule struct {
	Level  int    `json:"level" toml:"level"`
	Rarity Rarity `json:"rarity" toml:"rarity"`
}

// UnlockedLoot is an inventory entry. The engine never removes entries.
type UnlockedLoot struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Item       LootItem  `json:"item"`
	Chest      Rarity    `json:"chest"`
	UnlockedAt time.Time `json:"unlocked_at"`
	Used       bool      `json:"used"`
}

// ─── Challenges ─────────────────────────────────────────────────────────────

// Challenge is a weekly goal on one metric.
type Challenge struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Metric      Metric    `json:"metric"`
	Description string    `json:"description"`
	Target      int       `json:"target"`
	Progress    int       `json:"progress"`
	RewardXP    int64     `json:"reward_xp"`
	ExpiresAt   time.Time `json:"expires_at"`
	Completed   bool      `json:"completed"`
}

// ProgressPct returns completion percentage (0-100).
func (c Challenge) ProgressPct() float64 {
	if c.Target <= 0 {
		return 100.0
	}
	pct := float64(c.Progress) / float64(c.Target) * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// ChallengeTemplate is one entry of the weekly challenge pool.
type ChallengeTemplate struct {
	Metric      Metric `json:"metric" toml:"metric"`
	Target      int    `json:"target" toml:"target"`
	Description string `json:"description" toml:"description"`
	RewardXP    int64  `json:"reward_xp" toml:"reward_xp"`
}
