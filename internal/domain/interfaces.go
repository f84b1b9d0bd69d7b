package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// ProfileStore holds the XP summary row and the append-only ledger.
type ProfileStore interface {
	// LoadProfile returns the profile, or a zero profile for a new user.
	LoadProfile(ctx context.Context, userID string) (Profile, error)

	// CommitXP applies the commit in one transaction. It returns false,
	// writing nothing, when the stored XP no longer equals c.ExpectedXP.
	// When c.RewardID is set the reward is marked granted in the same
	// transaction; ErrRewardGranted means it already was.
	CommitXP(ctx context.Context, c XPCommit) (bool, error)

	// LedgerEntries returns the newest entries first.
	LedgerEntries(ctx context.Context, userID string, limit int) ([]LedgerEntry, error)
}

// StreakStore persists per-category streaks.
type StreakStore interface {
	GetStreak(ctx context.Context, userID string, c StreakCategory) (Streak, error)
	ListStreaks(ctx context.Context, userID string) (map[StreakCategory]Streak, error)

	// SwapStreak upserts s only if the stored last log date still equals
	// prevLastDate ("" meaning no row). Returns false on a lost race.
	SwapStreak(ctx context.Context, userID string, prevLastDate string, s Streak) (bool, error)
}

// BadgeStore persists earned badges keyed by (user, badge id).
type BadgeStore interface {
	ListEarnedBadges(ctx context.Context, userID string) (map[string]EarnedBadge, error)

	// SaveEarnedBadges upserts the records and records their tier rewards
	// as pending in one transaction. A reward id already present is kept.
	SaveEarnedBadges(ctx context.Context, userID string, badges []EarnedBadge, rewards []PendingReward) error
}

// RewardStore lists rewards not yet paid.
type RewardStore interface {
	// ListPendingRewards returns ungranted rewards, oldest first.
	ListPendingRewards(ctx context.Context, userID string) ([]PendingReward, error)
}

// LootStore persists the loot inventory. Entries are never deleted.
type LootStore interface {
	ListLoot(ctx context.Context, userID string) ([]UnlockedLoot, error)
	MarkLootUsed(ctx context.Context, userID, lootID string) error
}

// ChallengeStore persists weekly challenges.
type ChallengeStore interface {
	InsertChallenges(ctx context.Context, cs []Challenge) error
	ListActiveChallenges(ctx context.Context, userID string, now time.Time) ([]Challenge, error)
	AddChallengeProgress(ctx context.Context, userID, id string, delta int) (*Challenge, error)

	// CompleteChallenge marks the challenge completed, bumps the profile's
	// challenges_completed counter and records the pending reward, all in
	// one transaction. Returns false if it was already completed.
	CompleteChallenge(ctx context.Context, userID, id string, reward PendingReward) (bool, error)
	DeleteExpiredChallenges(ctx context.Context, before time.Time) (int64, error)
}

// Store is the full persistence collaborator the engine needs.
type Store interface {
	ProfileStore
	StreakStore
	BadgeStore
	RewardStore
	LootStore
	ChallengeStore
}
