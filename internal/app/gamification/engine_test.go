package gamification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitquest/fitquest/internal/app/gamification"
	"github.com/fitquest/fitquest/internal/domain"
	"github.com/fitquest/fitquest/internal/infra/catalog"
	"github.com/fitquest/fitquest/internal/infra/sqlite"
)

// fixedNow is a Wednesday.
var fixedNow = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

const testUser = "user-1"

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() gamification.Config {
	return gamification.Config{
		Catalog:  catalog.Default(),
		LootSeed: 42,
		Now:      func() time.Time { return fixedNow },
	}
}

func testEngine(t *testing.T, store domain.Store) *gamification.Engine {
	t.Helper()
	e, err := gamification.NewEngine(testUser, store, testConfig())
	require.NoError(t, err)
	return e
}

func award(amount int64) domain.Award {
	return domain.Award{Amount: amount, Reason: "test grant", Source: domain.XPWorkoutSet}
}

func drain(e *gamification.Engine) []domain.Feedback {
	var out []domain.Feedback
	for {
		ev, ok := e.PeekFeedback()
		if !ok {
			return out
		}
		out = append(out, ev)
		e.DismissFeedback()
	}
}

func kinds(events []domain.Feedback) []domain.FeedbackKind {
	out := make([]domain.FeedbackKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind()
	}
	return out
}

// failingStore wraps a real store and fails selected operations.
type failingStore struct {
	*sqlite.DB
	failLoad, failCommit, failBadges bool
	failRewards                      bool // fail commits that pay a pending reward
	loseRace                         bool
}

var errStoreDown = errors.New("database is locked")

func (f *failingStore) LoadProfile(ctx context.Context, userID string) (domain.Profile, error) {
	if f.failLoad {
		return domain.Profile{}, errStoreDown
	}
	return f.DB.LoadProfile(ctx, userID)
}

func (f *failingStore) CommitXP(ctx context.Context, c domain.XPCommit) (bool, error) {
	if f.failCommit || (f.failRewards && c.RewardID != "") {
		return false, errStoreDown
	}
	if f.loseRace {
		return false, nil
	}
	return f.DB.CommitXP(ctx, c)
}

func (f *failingStore) SaveEarnedBadges(ctx context.Context, userID string, b []domain.EarnedBadge, r []domain.PendingReward) error {
	if f.failBadges {
		return errStoreDown
	}
	return f.DB.SaveEarnedBadges(ctx, userID, b, r)
}

// staleRewardStore serves an out-of-date pending list once.
type staleRewardStore struct {
	*sqlite.DB
	stale  []domain.PendingReward
	served bool
}

func (s *staleRewardStore) ListPendingRewards(ctx context.Context, userID string) ([]domain.PendingReward, error) {
	if !s.served {
		s.served = true
		return s.stale, nil
	}
	return s.DB.ListPendingRewards(ctx, userID)
}

// racingStore lets another writer move the XP total once before the
// engine's first commit lands.
type racingStore struct {
	*sqlite.DB
	raced bool
}

func (r *racingStore) CommitXP(ctx context.Context, c domain.XPCommit) (bool, error) {
	if !r.raced {
		r.raced = true
		ok, err := r.DB.CommitXP(ctx, domain.XPCommit{
			UserID:     c.UserID,
			ExpectedXP: c.ExpectedXP,
			NewXP:      c.ExpectedXP + 50,
			Level:      1,
			Rank:       "Beginner",
			Entry: domain.LedgerEntry{
				ID: "other-device", Amount: 50, Reason: "other device",
				Source: domain.XPGeneral, Multiplier: 1, CreatedAt: fixedNow,
			},
		})
		if err != nil || !ok {
			return false, errors.New("could not simulate concurrent writer")
		}
	}
	return r.DB.CommitXP(ctx, c)
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Orchestrator Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestAwardXP_BeginnerToIntermediate(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))

	res, err := e.AwardXP(ctx, award(600))
	require.NoError(t, err)

	assert.Equal(t, int64(600), res.After.XP)
	assert.Equal(t, "Beginner", res.Before.Rank)
	assert.Equal(t, "Intermediate", res.After.Rank)
	assert.True(t, res.LeveledUp())

	events := drain(e)
	require.Len(t, events, 1)
	up, ok := events[0].(domain.LevelUp)
	require.True(t, ok, "want LevelUp, got %s", events[0].Kind())
	assert.Equal(t, 1, up.From.Level)
	assert.Equal(t, 4, up.To.Level)
	assert.Equal(t, int64(600), up.Amount)

	// Level 3 chest is inside (1, 4].
	require.NotNil(t, up.Chest)
	assert.Equal(t, domain.RarityCommon, up.Chest.Chest)

	inv, err := e.Inventory(ctx)
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, up.Chest.ID, inv[0].ID)

	prof, err := e.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(600), prof.XP)
	assert.Equal(t, 4, prof.Level)
	assert.Equal(t, 1, prof.LevelUps)
}

func TestAwardXP_ToastThenLevelUp(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))

	_, err := e.AwardXP(ctx, award(100))
	require.NoError(t, err)
	first := drain(e)
	require.Equal(t, []domain.FeedbackKind{domain.FeedbackXPToast}, kinds(first))
	assert.Equal(t, int64(100), first[0].(domain.XPToast).Amount)

	res, err := e.AwardXP(ctx, award(100))
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.After.XP)

	pending := e.Feedback().Pending()
	require.Len(t, pending, 1)
	up, ok := pending[0].(domain.LevelUp)
	require.True(t, ok)
	assert.Equal(t, 2, up.To.Level)
	assert.Nil(t, up.Chest, "no chest between levels 1 and 2")
}

func TestAwardXP_MultiLevelJumpOneEvent(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))

	res, err := e.AwardXP(ctx, award(8000))
	require.NoError(t, err)
	assert.Equal(t, 12, res.After.Level)

	events := drain(e)
	require.Equal(t, []domain.FeedbackKind{domain.FeedbackLevelUp}, kinds(events))
	up := events[0].(domain.LevelUp)
	require.NotNil(t, up.Chest)
	assert.Equal(t, domain.RarityLegendary, up.Chest.Chest, "rarest crossed chest wins")

	inv, err := e.Inventory(ctx)
	require.NoError(t, err)
	assert.Len(t, inv, 1)

	prof, err := e.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, prof.LevelUps, "one level-up event per grant")
}

func TestAwardXP_MultiplierFloored(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))

	_, err := e.AwardXP(ctx, award(500)) // level 4, multiplier 1.05
	require.NoError(t, err)
	drain(e)

	res, err := e.AwardXP(ctx, award(20))
	require.NoError(t, err)
	assert.Equal(t, int64(21), res.Entry.Amount)
	assert.Equal(t, int64(521), res.After.XP)

	res, err = e.AwardXP(ctx, award(15))
	require.NoError(t, err)
	assert.Equal(t, int64(15), res.Entry.Amount, "15 * 1.05 floors to 15")

	hist, err := e.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, int64(15), hist[0].Amount)
	assert.Equal(t, int64(21), hist[1].Amount)
	assert.InDelta(t, 1.05, hist[1].Multiplier, 1e-9)

	events := drain(e)
	require.Len(t, events, 2)
	assert.Equal(t, int64(21), events[0].(domain.XPToast).Amount)

	lvl, err := e.Level(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(536), lvl.XP)
}

func TestAwardXP_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))

	for _, amt := range []int64{0, -5} {
		_, err := e.AwardXP(ctx, award(amt))
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
	assert.Equal(t, 0, e.Feedback().Len())

	hist, err := e.History(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestAwardXP_PersistenceFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	store := &failingStore{DB: db}
	e := testEngine(t, store)

	_, err := e.AwardXP(ctx, award(100))
	require.NoError(t, err)
	drain(e)

	store.failCommit = true
	_, err = e.AwardXP(ctx, award(600))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 0, e.Feedback().Len(), "no feedback for a failed grant")

	prof, err := db.LoadProfile(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(100), prof.XP)
	assert.Equal(t, 1, prof.Level)

	store.failCommit = false
	store.failLoad = true
	_, err = e.AwardXP(ctx, award(10))
	assert.ErrorIs(t, err, domain.ErrPersistence)

	loot, err := db.ListLoot(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, loot)
}

func TestAwardXP_ConflictAfterRetries(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, &failingStore{DB: testDB(t), loseRace: true})

	_, err := e.AwardXP(ctx, award(10))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, e.Feedback().Len())
}

func TestAwardXP_RetriesAfterLostRace(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	e := testEngine(t, &racingStore{DB: db})

	res, err := e.AwardXP(ctx, award(100))
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Before.XP, "retry must re-read the moved total")
	assert.Equal(t, int64(150), res.After.XP)

	hist, err := db.LedgerEntries(ctx, testUser, 10)
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}

func TestAwardXP_ConcurrentGrantsSerialized(t *testing.T) {
	ctx := context.Background()
	reg := gamification.NewRegistry(testDB(t), testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := reg.For(testUser)
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := e.AwardXP(ctx, award(10)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	e, err := reg.For(testUser)
	require.NoError(t, err)
	lvl, err := e.Level(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(200), lvl.XP)

	counts := map[domain.FeedbackKind]int{}
	for _, ev := range drain(e) {
		counts[ev.Kind()]++
	}
	assert.Equal(t, 1, counts[domain.FeedbackLevelUp], "crossing 150 once yields one level-up")
	assert.Equal(t, 19, counts[domain.FeedbackXPToast])
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Orchestration Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestAwardXP_BadgesBatchedAndRewarded(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))

	a := award(10)
	a.Badges = domain.BadgeContext{}.
		Set(domain.MetricWorkoutCount, 1).
		Flag(domain.MetricEarlyAdopter, true)
	res, err := e.AwardXP(ctx, a)
	require.NoError(t, err)
	assert.Len(t, res.Badges.New, 2)
	assert.Equal(t, int64(125), res.RewardXP)

	events := drain(e)
	require.Equal(t, []domain.FeedbackKind{
		domain.FeedbackXPToast,
		domain.FeedbackBadgeUnlock,
		domain.FeedbackXPToast, // Iron Will bronze reward
		domain.FeedbackXPToast, // Early Adopter reward
	}, kinds(events))
	unlock := events[1].(domain.BadgeUnlock)
	assert.Equal(t, "iron_will", unlock.Badges[0].Badge.ID)
	assert.Equal(t, "early_adopter", unlock.Badges[1].Badge.ID)

	hist, err := e.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, domain.XPBadgeReward, hist[0].Source)

	// Upgrade: one event per badge, shown after the grant's own event.
	a = award(10)
	a.Badges = domain.BadgeContext{domain.MetricWorkoutCount: 12}
	res, err = e.AwardXP(ctx, a)
	require.NoError(t, err)
	require.Len(t, res.Badges.Upgrades, 1)
	assert.Equal(t, int64(100), res.RewardXP)

	events = drain(e)
	require.Equal(t, []domain.FeedbackKind{
		domain.FeedbackXPToast,
		domain.FeedbackTierUpgrade,
		domain.FeedbackLevelUp, // 145 + 100 crosses 150
	}, kinds(events))
	up := events[1].(domain.BadgeTierUpgrade)
	assert.Equal(t, domain.TierBronze, up.From)
	assert.Equal(t, domain.TierSilver, up.To)

	badges, err := e.Badges(ctx)
	require.NoError(t, err)
	for _, b := range badges {
		if b.Badge.ID == "early_adopter" {
			require.NotNil(t, b.Earned, "absent metric must not drop an earned badge")
			assert.Equal(t, domain.TierDiamond, b.Earned.Tier)
		}
	}
}

func TestAwardXP_BadgesUseFreshStreaks(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	e := testEngine(t, db)

	ok, err := db.SwapStreak(ctx, testUser, "", domain.Streak{
		Category: domain.StreakWorkout, Current: 3, Longest: 3, LastLogDate: "2026-03-04",
	})
	require.NoError(t, err)
	require.True(t, ok)

	a := award(5)
	a.Badges = domain.BadgeContext{}
	res, err := e.AwardXP(ctx, a)
	require.NoError(t, err)
	require.Len(t, res.Badges.New, 1)
	assert.Equal(t, "streak_machine", res.Badges.New[0].Badge.ID)
}

func TestAwardXP_BadgeTierNeverRegresses(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))

	a := award(5)
	a.Badges = domain.BadgeContext{domain.MetricWorkoutCount: 60}
	_, err := e.AwardXP(ctx, a)
	require.NoError(t, err)

	a.Badges = domain.BadgeContext{domain.MetricWorkoutCount: 2}
	res, err := e.AwardXP(ctx, a)
	require.NoError(t, err)
	assert.True(t, res.Badges.Empty())

	badges, err := e.Badges(ctx)
	require.NoError(t, err)
	var iron *domain.EarnedBadge
	for _, b := range badges {
		if b.Badge.ID == "iron_will" {
			iron = b.Earned
		}
	}
	require.NotNil(t, iron)
	assert.Equal(t, domain.TierGold, iron.Tier)
	assert.Equal(t, float64(60), iron.Value)
}

func TestAwardXP_BadgeSaveFailureKeepsXP(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	e := testEngine(t, &failingStore{DB: db, failBadges: true})

	a := award(10)
	a.Badges = domain.BadgeContext{domain.MetricWorkoutCount: 1}
	res, err := e.AwardXP(ctx, a)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.True(t, res.Committed())
	assert.Equal(t, []domain.FeedbackKind{domain.FeedbackXPToast}, kinds(drain(e)))

	prof, err := db.LoadProfile(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(10), prof.XP)
}

func TestAwardXP_BadgeRewardPaidAfterFailedCommit(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	store := &failingStore{DB: db, failRewards: true}
	e := testEngine(t, store)

	a := award(10)
	a.Badges = domain.BadgeContext{domain.MetricWorkoutCount: 1}
	res, err := e.AwardXP(ctx, a)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.True(t, res.Committed(), "the grant itself landed")
	require.Len(t, res.Badges.New, 1)
	assert.Zero(t, res.RewardXP)

	pending, err := db.ListPendingRewards(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, pending, 1, "the Iron Will reward must survive the failed payment")
	assert.Equal(t, "badge-iron_will-0", pending[0].ID)

	// Store recovers: the next award, with no new tier, pays the reward.
	store.failRewards = false
	res, err = e.AwardXP(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, res.Badges.New)
	assert.Empty(t, res.Badges.Upgrades)
	assert.Equal(t, int64(25), res.RewardXP)

	prof, err := db.LoadProfile(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(45), prof.XP)

	// Paid exactly once.
	res, err = e.AwardXP(ctx, a)
	require.NoError(t, err)
	assert.Zero(t, res.RewardXP)
	pending, err = db.ListPendingRewards(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSettleRewards_SkipsRewardPaidElsewhere(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	reward := domain.PendingReward{
		ID: "badge-iron_will-0", UserID: testUser, Amount: 25,
		Reason: "Iron Will badge (bronze)", Source: domain.XPBadgeReward, CreatedAt: fixedNow,
	}
	require.NoError(t, db.SaveEarnedBadges(ctx, testUser, nil, []domain.PendingReward{reward}))

	// b read the pending list before a paid it.
	a := testEngine(t, db)
	b := testEngine(t, &staleRewardStore{DB: db, stale: []domain.PendingReward{reward}})

	paid, err := a.SettleRewards(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(25), paid)

	paid, err = b.SettleRewards(ctx)
	require.NoError(t, err)
	assert.Zero(t, paid)

	hist, err := db.LedgerEntries(ctx, testUser, 10)
	require.NoError(t, err)
	assert.Len(t, hist, 1, "the reward is paid once")
	prof, err := db.LoadProfile(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(25), prof.XP)
}

func TestAwardXP_LevelUpListsNewPerksOnly(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))
	startPerks := catalog.Default().Levels[0].Perks

	res, err := e.AwardXP(ctx, award(320))
	require.NoError(t, err)
	require.Equal(t, 3, res.After.Level)

	events := drain(e)
	require.Len(t, events, 1)
	up := events[0].(domain.LevelUp)
	assert.Contains(t, up.Unlocked, "Custom workout templates")
	for _, p := range startPerks {
		assert.NotContains(t, up.Unlocked, p, "perks held before the grant are not new")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Reads & Registry
// ═══════════════════════════════════════════════════════════════════════════

func TestUseLoot(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))

	res, err := e.AwardXP(ctx, award(600))
	require.NoError(t, err)
	require.NotNil(t, res.Chest)

	require.NoError(t, e.UseLoot(ctx, res.Chest.ID))
	assert.ErrorIs(t, e.UseLoot(ctx, res.Chest.ID), domain.ErrLootUsed)
	assert.ErrorIs(t, e.UseLoot(ctx, "missing"), domain.ErrLootNotFound)

	inv, err := e.Inventory(ctx)
	require.NoError(t, err)
	require.Len(t, inv, 1, "used loot stays in the inventory")
	assert.True(t, inv[0].Used)
}

func TestStreaks_ListsEveryCategory(t *testing.T) {
	e := testEngine(t, testDB(t))
	streaks, err := e.Streaks(context.Background())
	require.NoError(t, err)
	require.Len(t, streaks, len(domain.StreakCategories))
	for i, s := range streaks {
		assert.Equal(t, domain.StreakCategories[i], s.Category)
		assert.Zero(t, s.Current)
	}
}

func TestBasicLevel(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))
	_, err := e.AwardXP(ctx, award(1600))
	require.NoError(t, err)

	basic, err := e.BasicLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Advanced", basic.Rank)
}

func TestRegistry(t *testing.T) {
	reg := gamification.NewRegistry(testDB(t), testConfig())

	a1, err := reg.For("alice")
	require.NoError(t, err)
	a2, err := reg.For("alice")
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	b, err := reg.For("bob")
	require.NoError(t, err)
	assert.NotSame(t, a1, b)

	_, err = a1.AwardXP(context.Background(), award(10))
	require.NoError(t, err)
	assert.Equal(t, 1, a1.Feedback().Len())
	assert.Equal(t, 0, b.Feedback().Len(), "feedback queues are per user")

	_, err = reg.For("")
	assert.ErrorIs(t, err, domain.ErrEmptyUserID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, reg.Users())
}

func TestRegistry_CleanupExpiredChallenges(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	now := fixedNow
	cfg := testConfig()
	cfg.Now = func() time.Time { return now }
	reg := gamification.NewRegistry(db, cfg)

	for _, id := range []string{"alice", "bob"} {
		e, err := reg.For(id)
		require.NoError(t, err)
		_, err = e.Challenges().GenerateWeekly(ctx)
		require.NoError(t, err)
	}

	n, err := reg.CleanupExpiredChallenges(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	now = fixedNow.AddDate(0, 0, 8)
	n, err = reg.CleanupExpiredChallenges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2*gamification.ChallengesPerWeek), n)
}

func TestRegistry_EvictIdle(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	cfg := testConfig()
	cfg.Now = func() time.Time { return now }
	cfg.IdleTimeout = 30 * time.Minute
	reg := gamification.NewRegistry(testDB(t), cfg)

	alice, err := reg.For("alice")
	require.NoError(t, err)
	bob, err := reg.For("bob")
	require.NoError(t, err)
	_, err = bob.AwardXP(ctx, award(10))
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	assert.Zero(t, reg.EvictIdle(), "nothing idle yet")

	now = now.Add(25 * time.Minute)
	assert.Equal(t, 1, reg.EvictIdle(), "only alice: bob has unread feedback")
	assert.ElementsMatch(t, []string{"bob"}, reg.Users())

	again, err := reg.For("alice")
	require.NoError(t, err)
	assert.NotSame(t, alice, again, "an evicted user gets a fresh engine")

	drain(bob)
	now = now.Add(time.Hour)
	assert.Equal(t, 2, reg.EvictIdle())
	assert.Empty(t, reg.Users())
}
