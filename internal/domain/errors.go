package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Award errors
	ErrInvalidAmount = errors.New("xp amount must be positive")
	ErrEmptyUserID   = errors.New("user id is required")

	// ErrPersistence wraps any store failure. The in-memory state is left
	// untouched when it is returned, so the whole call may be retried.
	ErrPersistence = errors.New("gamification store unavailable")

	// ErrConflict means a compare-and-swap kept losing to concurrent writers.
	ErrConflict = errors.New("concurrent update conflict: retries exhausted")

	// ErrRewardPending means the earning write landed but paying its XP
	// failed; the reward stays pending and is paid on a later award.
	ErrRewardPending = errors.New("reward pending")

	// ErrRewardGranted means a pending reward was already paid, usually by
	// another process.
	ErrRewardGranted = errors.New("reward already granted")

	// Streak errors
	ErrUnknownCategory = errors.New("unknown streak category")

	// Loot errors
	ErrLootNotFound = errors.New("loot item not found")
	ErrLootUsed     = errors.New("loot item already used")

	// Challenge errors
	ErrChallengeNotFound = errors.New("challenge not found")

	// Catalog (configuration) defects fail at startup
	ErrInvalidCatalog = errors.New("invalid gamification catalog")
	ErrUnknownMetric  = errors.New("badge refers to an unknown metric")
)
