package gamification

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"time"

	"github.com/fitquest/fitquest/internal/domain"
)

// ChallengesPerWeek is how many challenges a user gets each Monday.
const ChallengesPerWeek = 3

// ChallengeService manages a user's weekly challenges.
// Three challenges are picked every Monday and expire the following Monday
// at 00:00 UTC. The pick is seeded by user and week, so regenerating the
// same week yields the same challenges.
type ChallengeService struct {
	userID  string
	store   domain.ChallengeStore
	settler RewardSettler
	pool    []domain.ChallengeTemplate
	now     func() time.Time
}

// RewardSettler pays pending rewards. *Engine implements it.
type RewardSettler interface {
	SettleRewards(ctx context.Context) (int64, error)
}

// NewChallengeService creates a challenge service. Completion rewards are
// recorded as pending with the completion and paid through the settler.
func NewChallengeService(userID string, store domain.ChallengeStore, settler RewardSettler, pool []domain.ChallengeTemplate, now func() time.Time) *ChallengeService {
	if now == nil {
		now = time.Now
	}
	return &ChallengeService{userID: userID, store: store, settler: settler, pool: pool, now: now}
}

// GenerateWeekly returns this week's active challenges, creating them if
// none are active.
func (s *ChallengeService) GenerateWeekly(ctx context.Context) ([]domain.Challenge, error) {
	now := s.now()
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return active, nil
	}
	if _, err := s.GenerateWeeklyAt(ctx, now); err != nil {
		return nil, err
	}
	return s.Active(ctx)
}

// GenerateWeeklyAt creates the challenges of the week containing now.
// Challenges of that week that already exist, completed or not, are kept.
func (s *ChallengeService) GenerateWeeklyAt(ctx context.Context, now time.Time) ([]domain.Challenge, error) {
	expiry := nextMonday(now)
	selected := pickUniqueChallenges(s.pool, ChallengesPerWeek, weekSeed(s.userID, expiry))

	challenges := make([]domain.Challenge, 0, len(selected))
	for i, tmpl := range selected {
		challenges = append(challenges, domain.Challenge{
			ID:          fmt.Sprintf("challenge-%s-%d-%d", s.userID, expiry.Unix(), i),
			UserID:      s.userID,
			Metric:      tmpl.Metric,
			Description: tmpl.Description,
			Target:      tmpl.Target,
			RewardXP:    tmpl.RewardXP,
			ExpiresAt:   expiry,
		})
	}
	if err := s.store.InsertChallenges(ctx, challenges); err != nil {
		return nil, storeErr("insert challenges", err)
	}
	return challenges, nil
}

// Active returns current non-expired, non-completed challenges.
func (s *ChallengeService) Active(ctx context.Context) ([]domain.Challenge, error) {
	cs, err := s.store.ListActiveChallenges(ctx, s.userID, s.now())
	if err != nil {
		return nil, storeErr("list challenges", err)
	}
	return cs, nil
}

// RecordProgress adds delta to every active challenge on the metric.
// A challenge that reaches its target is completed in the same transaction
// that records its XP reward as pending; the reward is then paid, and if
// that fails it stays pending until the next award or progress call.
// Paying a challenge reward re-evaluates badges so the count is seen.
func (s *ChallengeService) RecordProgress(ctx context.Context, m domain.Metric, delta int) ([]domain.Challenge, error) {
	if delta <= 0 {
		return nil, nil
	}
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}

	var completed []domain.Challenge
	for _, c := range active {
		if c.Metric != m {
			continue
		}
		updated, err := s.store.AddChallengeProgress(ctx, s.userID, c.ID, delta)
		if err != nil {
			return completed, storeErr("challenge progress", err)
		}
		if updated.Progress < updated.Target {
			continue
		}

		ok, err := s.store.CompleteChallenge(ctx, s.userID, c.ID, domain.PendingReward{
			ID:        "reward-" + c.ID,
			UserID:    s.userID,
			Amount:    updated.RewardXP,
			Reason:    "Challenge complete: " + updated.Description,
			Source:    domain.XPChallenge,
			CreatedAt: s.now(),
		})
		if err != nil {
			return completed, storeErr("complete challenge", err)
		}
		if !ok {
			continue // completed by a concurrent call
		}
		updated.Completed = true
		completed = append(completed, *updated)
	}

	if _, err := s.settler.SettleRewards(ctx); err != nil {
		return completed, fmt.Errorf("challenge reward: %w: %w", domain.ErrRewardPending, err)
	}
	return completed, nil
}

// CleanupExpired removes uncompleted challenges that expired before now.
func (s *ChallengeService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredChallenges(ctx, s.now())
	if err != nil {
		return 0, storeErr("delete expired challenges", err)
	}
	if n > 0 {
		log.Printf("[gamification] removed %d expired challenges", n)
	}
	return n, nil
}

// nextMonday returns the next Monday at 00:00 UTC after the given time.
func nextMonday(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	daysUntilMonday := (8 - int(t.Weekday())) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7 // Monday rolls to the following Monday
	}
	return t.AddDate(0, 0, daysUntilMonday)
}

func weekSeed(userID string, expiry time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(userID))
	return int64(h.Sum64()) ^ expiry.Unix()
}

// pickUniqueChallenges selects n random templates, preferring unique metrics.
func pickUniqueChallenges(pool []domain.ChallengeTemplate, n int, seed int64) []domain.ChallengeTemplate {
	r := rand.New(rand.NewSource(seed))

	shuffled := make([]domain.ChallengeTemplate, len(pool))
	copy(shuffled, pool)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	seen := make(map[domain.Metric]bool)
	picked := make(map[int]bool)
	var result []domain.ChallengeTemplate
	for i, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		if !seen[tmpl.Metric] {
			seen[tmpl.Metric] = true
			picked[i] = true
			result = append(result, tmpl)
		}
	}

	// Not enough distinct metrics: fill with the rest.
	for i, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		if !picked[i] {
			result = append(result, tmpl)
		}
	}
	return result
}
