// Package gamification turns fitness activity into XP, levels, streaks,
// badges and loot, and reports every reward through a per-user feedback
// queue.
//
// An Engine serves exactly one user. Build engines through a Registry so
// that every caller for the same user shares one engine, one award lock
// and one feedback queue.
package gamification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitquest/fitquest/internal/domain"
	"github.com/fitquest/fitquest/internal/infra/catalog"
	"github.com/fitquest/fitquest/internal/infra/metrics"
)

// DefaultMaxRetries bounds compare-and-swap attempts per write.
const DefaultMaxRetries = 5

// Config configures engines. Catalog must already be validated.
type Config struct {
	Catalog     *catalog.Catalog
	MaxRetries  int
	LootSeed    int64            // 0 seeds from the clock
	Now         func() time.Time // nil means time.Now
	IdleTimeout time.Duration    // registry eviction; 0 means DefaultIdleTimeout
}

// shared is the read-only state every engine of one registry uses.
type shared struct {
	cat        *catalog.Catalog
	levels     *LevelTable
	basic      *LevelTable
	loot       *LootRoller
	now        func() time.Time
	maxRetries int
}

func newShared(cfg Config) *shared {
	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	return &shared{
		cat:        cat,
		levels:     NewLevelTable(cat.Levels),
		basic:      NewLevelTable(cat.BasicLevels),
		loot:       NewLootRoller(cat.Chests, cat.Loot, cfg.LootSeed),
		now:        now,
		maxRetries: retries,
	}
}

// Engine is the XP orchestrator for one user.
type Engine struct {
	*shared
	userID     string
	store      domain.Store
	queue      *FeedbackQueue
	streaks    *StreakTracker
	challenges *ChallengeService

	mu sync.Mutex // serializes AwardXP
}

// NewEngine builds a standalone engine. Prefer Registry.For in servers.
func NewEngine(userID string, store domain.Store, cfg Config) (*Engine, error) {
	return newEngine(userID, store, newShared(cfg))
}

func newEngine(userID string, store domain.Store, sh *shared) (*Engine, error) {
	if userID == "" {
		return nil, domain.ErrEmptyUserID
	}
	e := &Engine{
		shared: sh,
		userID: userID,
		store:  store,
		queue:  NewFeedbackQueue(),
	}
	e.streaks = NewStreakTracker(userID, store, e, sh.cat.StreakMilestones, sh.maxRetries)
	e.challenges = NewChallengeService(userID, store, e, sh.cat.Challenges, sh.now)
	return e, nil
}

// UserID returns the user this engine serves.
func (e *Engine) UserID() string { return e.userID }

// ═══════════════════════════════════════════════════════════════════════════
// XP Orchestration
// ═══════════════════════════════════════════════════════════════════════════

// AwardResult describes one committed grant.
type AwardResult struct {
	Entry    domain.LedgerEntry   `json:"entry"`
	Before   domain.LevelInfo     `json:"before"`
	After    domain.LevelInfo     `json:"after"`
	Chest    *domain.UnlockedLoot `json:"chest,omitempty"`
	Badges   BadgeChanges         `json:"badges"`
	RewardXP int64                `json:"reward_xp"` // pending badge and challenge rewards paid after the grant
}

// LeveledUp reports whether the grant crossed at least one level boundary.
func (r AwardResult) LeveledUp() bool { return r.After.Level > r.Before.Level }

// Committed reports whether the XP write landed.
func (r AwardResult) Committed() bool { return r.Entry.ID != "" }

// AwardXP grants XP to the user. The amount is multiplied by the user's
// current level multiplier and floored. The ledger entry, new total, level
// snapshot, level-up counter and any chest loot are written atomically;
// if that write fails nothing is changed and nothing is enqueued.
//
// When a.Badges is non-nil, badges are evaluated after the commit against
// freshly read streak and badge state. New tiers and their rewards are
// saved together, the rewards as pending. A failure there is returned with
// a committed result; retrying the whole call would grant the XP twice.
//
// After the grant every pending reward is paid, including ones left over
// from an earlier failed call.
func (e *Engine) AwardXP(ctx context.Context, a domain.Award) (AwardResult, error) {
	res, err := e.grant(ctx, a, "")
	if err != nil {
		return res, err
	}
	paid, err := e.SettleRewards(ctx)
	res.RewardXP = paid
	return res, err
}

// SettleRewards pays every pending badge and challenge reward and returns
// the XP granted. Each payment marks its reward granted in the same commit,
// so a reward that fails here stays pending for the next call.
func (e *Engine) SettleRewards(ctx context.Context) (int64, error) {
	var total int64
	for {
		pending, err := e.store.ListPendingRewards(ctx, e.userID)
		if err != nil {
			return total, storeErr("read pending rewards", err)
		}
		if len(pending) == 0 {
			return total, nil
		}
		for _, p := range pending {
			a := domain.Award{Amount: p.Amount, Reason: p.Reason, Source: p.Source}
			if p.Source == domain.XPChallenge {
				// Completed challenges count toward badges.
				a.Badges = domain.BadgeContext{}
			}
			res, err := e.grant(ctx, a, p.ID)
			if errors.Is(err, domain.ErrRewardGranted) {
				continue
			}
			total += res.Entry.Amount
			if err != nil {
				return total, fmt.Errorf("reward %s: %w", p.ID, err)
			}
		}
	}
}

// grant validates, serializes and logs one award. rewardID names the
// pending reward the commit settles, if any.
func (e *Engine) grant(ctx context.Context, a domain.Award, rewardID string) (AwardResult, error) {
	if a.Amount <= 0 {
		e.logFailure(a, "invalid", domain.ErrInvalidAmount)
		return AwardResult{}, domain.ErrInvalidAmount
	}
	if a.Source == "" {
		a.Source = domain.XPGeneral
	}

	e.mu.Lock()
	res, err := e.award(ctx, a, rewardID)
	e.mu.Unlock()

	if err != nil {
		switch {
		case res.Committed():
			log.Printf("[gamification] badge evaluation failed user=%s reason=%q: %v", e.userID, a.Reason, err)
		case errors.Is(err, domain.ErrRewardGranted):
			// Paid by another writer; nothing failed.
		case errors.Is(err, domain.ErrConflict):
			e.logFailure(a, "conflict", err)
		default:
			e.logFailure(a, "persistence", err)
		}
	}
	return res, err
}

func (e *Engine) logFailure(a domain.Award, reason string, err error) {
	metrics.AwardFailures.WithLabelValues(reason).Inc()
	log.Printf("[gamification] award failed user=%s amount=%d reason=%q: %v", e.userID, a.Amount, a.Reason, err)
}

// award runs under e.mu.
func (e *Engine) award(ctx context.Context, a domain.Award, rewardID string) (AwardResult, error) {
	var (
		res  AwardResult
		prof domain.Profile
	)

	for attempt := 1; ; attempt++ {
		p, err := e.store.LoadProfile(ctx, e.userID)
		if err != nil {
			return AwardResult{}, storeErr("load profile", err)
		}
		now := e.now()

		before := e.levels.Info(p.XP)
		granted := ApplyMultiplier(a.Amount, before.Multiplier)
		after := e.levels.Info(p.XP + granted)

		levelUps := 0
		var chest *domain.UnlockedLoot
		if after.Level > before.Level {
			levelUps = 1
			chest = e.loot.Open(e.userID, before.Level, after.Level, now)
		}

		entry := domain.LedgerEntry{
			ID:         uuid.NewString(),
			UserID:     e.userID,
			Amount:     granted,
			Reason:     a.Reason,
			Source:     a.Source,
			Multiplier: before.Multiplier,
			CreatedAt:  now,
		}
		ok, err := e.store.CommitXP(ctx, domain.XPCommit{
			UserID:     e.userID,
			ExpectedXP: p.XP,
			NewXP:      after.XP,
			Level:      after.Level,
			Rank:       after.Rank,
			Perks:      after.Perks,
			LevelUps:   levelUps,
			Entry:      entry,
			Loot:       chest,
			RewardID:   rewardID,
		})
		if errors.Is(err, domain.ErrRewardGranted) {
			return AwardResult{}, err
		}
		if err != nil {
			return AwardResult{}, storeErr("commit xp", err)
		}
		if ok {
			prof = p
			res = AwardResult{Entry: entry, Before: before, After: after, Chest: chest}
			break
		}

		// Another writer (e.g. a second process) moved the total.
		metrics.CASRetries.WithLabelValues("xp").Inc()
		if attempt >= e.maxRetries {
			return AwardResult{}, fmt.Errorf("commit xp: %w", domain.ErrConflict)
		}
	}

	metrics.XPAwarded.WithLabelValues(string(a.Source)).Add(float64(res.Entry.Amount))
	now := res.Entry.CreatedAt

	var events []domain.Feedback
	if res.LeveledUp() {
		metrics.LevelUps.Inc()
		if res.Chest != nil {
			metrics.LootUnlocked.WithLabelValues(string(res.Chest.Chest)).Inc()
		}
		events = append(events, domain.LevelUp{
			FeedbackMeta: e.meta(now),
			From:         res.Before,
			To:           res.After,
			Amount:       res.Entry.Amount,
			Reason:       a.Reason,
			Chest:        res.Chest,
			Unlocked:     e.unlocked(res.Before.Level, res.After.Level),
		})
	} else {
		events = append(events, domain.XPToast{
			FeedbackMeta: e.meta(now),
			Amount:       res.Entry.Amount,
			Reason:       a.Reason,
		})
	}

	if a.Badges == nil {
		e.queue.Push(events...)
		return res, nil
	}

	changes, err := e.evaluateBadges(ctx, a.Badges, res.After, prof, now)
	if err != nil {
		e.queue.Push(events...)
		return res, err
	}
	res.Badges = changes
	e.queue.Push(append(events, e.badgeEvents(changes, now)...)...)
	return res, nil
}

// unlocked lists the perks first reached above level from, up to to.
func (e *Engine) unlocked(from, to int) []string {
	var out []string
	for l := from + 1; l <= to; l++ {
		out = append(out, e.levels.UnlocksForLevel(l)...)
	}
	return out
}

// evaluateBadges fills the caller's context with stored truth (streaks,
// level, total XP, completed challenges), evaluates every badge against the
// freshly read records, and persists the changes with their pending rewards.
func (e *Engine) evaluateBadges(ctx context.Context, supplied domain.BadgeContext, level domain.LevelInfo, prof domain.Profile, now time.Time) (BadgeChanges, error) {
	streaks, err := e.store.ListStreaks(ctx, e.userID)
	if err != nil {
		return BadgeChanges{}, storeErr("read streaks", err)
	}
	earned, err := e.store.ListEarnedBadges(ctx, e.userID)
	if err != nil {
		return BadgeChanges{}, storeErr("read badges", err)
	}

	bctx := supplied.Clone()
	for _, c := range domain.StreakCategories {
		if s, ok := streaks[c]; ok {
			bctx.Set(domain.StreakMetric(c), float64(s.Current))
		}
	}
	bctx.Set(domain.MetricLevel, float64(level.Level))
	bctx.Set(domain.MetricTotalXP, float64(level.XP))
	bctx.Set(domain.MetricChallengesCompleted,
		math.Max(bctx.Value(domain.MetricChallengesCompleted), float64(prof.ChallengesCompleted)))

	changes := EvaluateBadges(bctx, earned, e.cat.Badges, now)
	if changes.Empty() {
		return changes, nil
	}
	if err := e.store.SaveEarnedBadges(ctx, e.userID, changes.Records(), changes.Rewards(e.userID, now)); err != nil {
		return BadgeChanges{}, storeErr("save badges", err)
	}
	metrics.BadgesEarned.WithLabelValues("new").Add(float64(len(changes.New)))
	metrics.BadgesEarned.WithLabelValues("upgrade").Add(float64(len(changes.Upgrades)))
	return changes, nil
}

// badgeEvents batches new badges into one event and shows each upgrade
// on its own.
func (e *Engine) badgeEvents(c BadgeChanges, now time.Time) []domain.Feedback {
	var events []domain.Feedback
	if len(c.New) > 0 {
		events = append(events, domain.BadgeUnlock{FeedbackMeta: e.meta(now), Badges: c.New})
	}
	for _, u := range c.Upgrades {
		events = append(events, domain.BadgeTierUpgrade{
			FeedbackMeta: e.meta(now),
			Badge:        u.Badge,
			From:         u.From,
			To:           u.Earned.Tier,
			Earned:       u.Earned,
		})
	}
	return events
}

func (e *Engine) meta(now time.Time) domain.FeedbackMeta {
	return domain.FeedbackMeta{ID: uuid.NewString(), UserID: e.userID, CreatedAt: now}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}

// ═══════════════════════════════════════════════════════════════════════════
// Streaks, Challenges & Feedback
// ═══════════════════════════════════════════════════════════════════════════

// UpdateStreak records activity in a category for the given day.
func (e *Engine) UpdateStreak(ctx context.Context, c domain.StreakCategory, today time.Time) (StreakUpdate, error) {
	return e.streaks.Update(ctx, c, today)
}

// Challenges returns the user's weekly challenge service.
func (e *Engine) Challenges() *ChallengeService { return e.challenges }

// Feedback returns the user's feedback queue.
func (e *Engine) Feedback() *FeedbackQueue { return e.queue }

// PeekFeedback returns the next event to display.
func (e *Engine) PeekFeedback() (domain.Feedback, bool) { return e.queue.Peek() }

// DismissFeedback pops the displayed event.
func (e *Engine) DismissFeedback() bool { return e.queue.Dismiss() }

// ═══════════════════════════════════════════════════════════════════════════
// Reads
// ═══════════════════════════════════════════════════════════════════════════

// Level recomputes level info from the stored XP total.
func (e *Engine) Level(ctx context.Context) (domain.LevelInfo, error) {
	p, err := e.store.LoadProfile(ctx, e.userID)
	if err != nil {
		return domain.LevelInfo{}, storeErr("load profile", err)
	}
	return e.levels.Info(p.XP), nil
}

// BasicLevel reports the coarse rank (Beginner..Elite) for the stored XP.
func (e *Engine) BasicLevel(ctx context.Context) (domain.LevelInfo, error) {
	p, err := e.store.LoadProfile(ctx, e.userID)
	if err != nil {
		return domain.LevelInfo{}, storeErr("load profile", err)
	}
	return e.basic.Info(p.XP), nil
}

// Profile returns the stored summary row.
func (e *Engine) Profile(ctx context.Context) (domain.Profile, error) {
	p, err := e.store.LoadProfile(ctx, e.userID)
	if err != nil {
		return domain.Profile{}, storeErr("load profile", err)
	}
	return p, nil
}

// History returns ledger entries, newest first.
func (e *Engine) History(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	entries, err := e.store.LedgerEntries(ctx, e.userID, limit)
	if err != nil {
		return nil, storeErr("read ledger", err)
	}
	return entries, nil
}

// Streaks returns every category, including ones never logged.
func (e *Engine) Streaks(ctx context.Context) ([]domain.Streak, error) {
	stored, err := e.store.ListStreaks(ctx, e.userID)
	if err != nil {
		return nil, storeErr("read streaks", err)
	}
	out := make([]domain.Streak, 0, len(domain.StreakCategories))
	for _, c := range domain.StreakCategories {
		s, ok := stored[c]
		if !ok {
			s = domain.Streak{Category: c}
		}
		out = append(out, s)
	}
	return out, nil
}

// BadgeStatus is one catalog badge with the user's record, if any.
type BadgeStatus struct {
	Badge  domain.BadgeDef     `json:"badge"`
	Earned *domain.EarnedBadge `json:"earned,omitempty"`
}

// Badges lists every catalog badge in catalog order.
func (e *Engine) Badges(ctx context.Context) ([]BadgeStatus, error) {
	earned, err := e.store.ListEarnedBadges(ctx, e.userID)
	if err != nil {
		return nil, storeErr("read badges", err)
	}
	out := make([]BadgeStatus, 0, len(e.cat.Badges))
	for _, def := range e.cat.Badges {
		st := BadgeStatus{Badge: def}
		if b, ok := earned[def.ID]; ok {
			st.Earned = &b
		}
		out = append(out, st)
	}
	return out, nil
}

// Inventory returns all loot the user has unlocked, used or not.
func (e *Engine) Inventory(ctx context.Context) ([]domain.UnlockedLoot, error) {
	items, err := e.store.ListLoot(ctx, e.userID)
	if err != nil {
		return nil, storeErr("read loot", err)
	}
	return items, nil
}

// UseLoot marks an inventory entry used. Entries are never removed.
func (e *Engine) UseLoot(ctx context.Context, lootID string) error {
	err := e.store.MarkLootUsed(ctx, e.userID, lootID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrLootNotFound), errors.Is(err, domain.ErrLootUsed):
		return err
	default:
		return storeErr("use loot", err)
	}
}
