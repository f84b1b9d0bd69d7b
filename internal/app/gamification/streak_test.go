package gamification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fitquest/fitquest/internal/app/gamification"
	"github.com/fitquest/fitquest/internal/domain"
	"github.com/fitquest/fitquest/internal/infra/catalog"
)

// spyAwarder records grants instead of applying them.
type spyAwarder struct {
	awards []domain.Award
}

func (s *spyAwarder) AwardXP(_ context.Context, a domain.Award) (gamification.AwardResult, error) {
	s.awards = append(s.awards, a)
	return gamification.AwardResult{}, nil
}

// brokenStreakStore fails or loses every swap.
type brokenStreakStore struct {
	domain.StreakStore
	err error
}

func (b *brokenStreakStore) SwapStreak(context.Context, string, string, domain.Streak) (bool, error) {
	return false, b.err
}

func seedStreak(t *testing.T, store domain.StreakStore, s domain.Streak) {
	t.Helper()
	ok, err := store.SwapStreak(context.Background(), testUser, "", s)
	if err != nil || !ok {
		t.Fatalf("seed streak: ok=%v err=%v", ok, err)
	}
}

func day(offset int) string {
	return fixedNow.AddDate(0, 0, offset).Format(domain.DateLayout)
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Tracker Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestStreak_FirstLog(t *testing.T) {
	e := testEngine(t, testDB(t))

	upd, err := e.UpdateStreak(context.Background(), domain.StreakMeal, fixedNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Outcome != gamification.StreakStarted {
		t.Errorf("outcome = %s, want started", upd.Outcome)
	}
	if upd.Streak.Current != 1 || upd.Streak.Longest != 1 {
		t.Errorf("streak = %+v, want 1/1", upd.Streak)
	}
	if upd.Streak.LastLogDate != "2026-03-04" {
		t.Errorf("last log = %s", upd.Streak.LastLogDate)
	}
	if upd.BonusXP != 0 || upd.Award != nil {
		t.Error("first day must not grant a bonus")
	}
}

func TestStreak_SeventhDayBonus(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	e := testEngine(t, db)
	seedStreak(t, db, domain.Streak{Category: domain.StreakWorkout, Current: 6, Longest: 10, LastLogDate: day(-1)})

	upd, err := e.UpdateStreak(ctx, domain.StreakWorkout, fixedNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Streak.Current != 7 || upd.Streak.Longest != 10 {
		t.Errorf("streak = %d/%d, want 7/10", upd.Streak.Current, upd.Streak.Longest)
	}
	if upd.Outcome != gamification.StreakExtended {
		t.Errorf("outcome = %s, want extended", upd.Outcome)
	}
	if upd.BonusXP != 150 {
		t.Errorf("bonus = %d, want 150", upd.BonusXP)
	}
	if upd.Award == nil {
		t.Fatal("bonus was not awarded")
	}

	hist, err := e.History(ctx, 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist))
	}
	if hist[0].Reason != "workout streak bonus (7 days)" {
		t.Errorf("reason = %q", hist[0].Reason)
	}
	if hist[0].Source != domain.XPStreakBonus || hist[0].Amount != 150 {
		t.Errorf("ledger = %+v", hist[0])
	}
}

func TestStreak_ThirtiethDayStacks(t *testing.T) {
	db := testDB(t)
	e := testEngine(t, db)
	seedStreak(t, db, domain.Streak{Category: domain.StreakWater, Current: 29, Longest: 29, LastLogDate: day(-1)})

	upd, err := e.UpdateStreak(context.Background(), domain.StreakWater, fixedNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.BonusXP != 650 {
		t.Errorf("bonus = %d, want 650", upd.BonusXP)
	}
	if upd.Streak.Longest != 30 {
		t.Errorf("longest = %d, want 30", upd.Streak.Longest)
	}
}

func TestStreak_SameDayIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	e := testEngine(t, db)
	seedStreak(t, db, domain.Streak{Category: domain.StreakWorkout, Current: 6, Longest: 10, LastLogDate: day(-1)})

	first, err := e.UpdateStreak(ctx, domain.StreakWorkout, fixedNow)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	xpAfterFirst, _ := e.Level(ctx)

	second, err := e.UpdateStreak(ctx, domain.StreakWorkout, fixedNow.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Outcome != gamification.StreakSameDay {
		t.Errorf("outcome = %s, want same_day", second.Outcome)
	}
	if second.Streak != first.Streak {
		t.Errorf("state changed: %+v -> %+v", first.Streak, second.Streak)
	}
	if second.BonusXP != 0 || second.Award != nil {
		t.Error("same-day repeat granted a bonus")
	}

	xpAfterSecond, _ := e.Level(ctx)
	if xpAfterSecond.XP != xpAfterFirst.XP {
		t.Errorf("xp changed on repeat: %d -> %d", xpAfterFirst.XP, xpAfterSecond.XP)
	}
}

func TestStreak_GapResets(t *testing.T) {
	db := testDB(t)
	e := testEngine(t, db)
	seedStreak(t, db, domain.Streak{Category: domain.StreakMeal, Current: 5, Longest: 5, LastLogDate: day(-3)})

	upd, err := e.UpdateStreak(context.Background(), domain.StreakMeal, fixedNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Outcome != gamification.StreakReset {
		t.Errorf("outcome = %s, want reset", upd.Outcome)
	}
	if upd.Streak.Current != 1 || upd.Streak.Longest != 5 {
		t.Errorf("streak = %d/%d, want 1/5", upd.Streak.Current, upd.Streak.Longest)
	}
	if upd.BonusXP != 0 {
		t.Errorf("bonus = %d after reset", upd.BonusXP)
	}
}

func TestStreak_CategoriesIndependent(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, testDB(t))

	for i := 0; i < 3; i++ {
		if _, err := e.UpdateStreak(ctx, domain.StreakWater, fixedNow.AddDate(0, 0, i)); err != nil {
			t.Fatalf("water day %d: %v", i, err)
		}
	}
	if _, err := e.UpdateStreak(ctx, domain.StreakMeal, fixedNow.AddDate(0, 0, 2)); err != nil {
		t.Fatalf("meal: %v", err)
	}

	streaks, err := e.Streaks(ctx)
	if err != nil {
		t.Fatalf("streaks: %v", err)
	}
	got := map[domain.StreakCategory]int{}
	for _, s := range streaks {
		got[s.Category] = s.Current
	}
	if got[domain.StreakWater] != 3 || got[domain.StreakMeal] != 1 || got[domain.StreakWorkout] != 0 {
		t.Errorf("currents = %v", got)
	}
}

func TestStreak_UsesCallersCalendarDay(t *testing.T) {
	db := testDB(t)
	e := testEngine(t, db)
	seedStreak(t, db, domain.Streak{Category: domain.StreakWater, Current: 2, Longest: 2, LastLogDate: "2026-03-03"})

	// 02:00 UTC on the 4th is still the evening of the 3rd at UTC-5.
	local := time.Date(2026, 3, 4, 2, 0, 0, 0, time.UTC).In(time.FixedZone("UTC-5", -5*3600))
	upd, err := e.UpdateStreak(context.Background(), domain.StreakWater, local)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Outcome != gamification.StreakSameDay {
		t.Errorf("outcome = %s, want same_day", upd.Outcome)
	}
}

func TestStreak_UnknownCategory(t *testing.T) {
	e := testEngine(t, testDB(t))
	_, err := e.UpdateStreak(context.Background(), "sleep", fixedNow)
	if !errors.Is(err, domain.ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestStreak_PersistFailureGrantsNothing(t *testing.T) {
	spy := &spyAwarder{}
	store := &brokenStreakStore{StreakStore: testDB(t), err: errors.New("disk I/O error")}
	tracker := gamification.NewStreakTracker(testUser, store, spy, catalog.Default().StreakMilestones, 3)

	_, err := tracker.Update(context.Background(), domain.StreakWorkout, fixedNow)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("err = %v, want ErrPersistence", err)
	}
	if len(spy.awards) != 0 {
		t.Errorf("awarded %d grants after a failed write", len(spy.awards))
	}
}

func TestStreak_LostRaceExhaustsRetries(t *testing.T) {
	spy := &spyAwarder{}
	store := &brokenStreakStore{StreakStore: testDB(t)}
	tracker := gamification.NewStreakTracker(testUser, store, spy, catalog.Default().StreakMilestones, 3)

	_, err := tracker.Update(context.Background(), domain.StreakWorkout, fixedNow)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if len(spy.awards) != 0 {
		t.Error("bonus granted without a persisted streak")
	}
}

func TestStreak_BonusRequestedThroughAwarder(t *testing.T) {
	db := testDB(t)
	seedStreak(t, db, domain.Streak{Category: domain.StreakMeal, Current: 2, Longest: 2, LastLogDate: day(-1)})
	spy := &spyAwarder{}
	tracker := gamification.NewStreakTracker(testUser, db, spy, catalog.Default().StreakMilestones, 3)

	upd, err := tracker.Update(context.Background(), domain.StreakMeal, fixedNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(spy.awards) != 1 {
		t.Fatalf("awards = %d, want 1", len(spy.awards))
	}
	got := spy.awards[0]
	if got.Amount != 50 || got.Source != domain.XPStreakBonus || got.Reason != "meal streak bonus (3 days)" {
		t.Errorf("award = %+v", got)
	}
	if got.Badges != nil {
		t.Error("streak bonus must not carry a badge context")
	}
	if upd.Streak.Current != 3 {
		t.Errorf("current = %d, want 3", upd.Streak.Current)
	}
}

func TestMilestoneBonus(t *testing.T) {
	ms := catalog.Default().StreakMilestones
	tests := []struct {
		current int
		want    int64
	}{
		{0, 0}, {1, 0}, {2, 0}, {3, 50}, {6, 50}, {7, 150}, {29, 150}, {30, 650}, {365, 650},
	}
	for _, tt := range tests {
		if got := gamification.MilestoneBonus(ms, tt.current); got != tt.want {
			t.Errorf("MilestoneBonus(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}
