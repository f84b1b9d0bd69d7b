package gamification_test

import (
	"reflect"
	"testing"

	"github.com/fitquest/fitquest/internal/app/gamification"
	"github.com/fitquest/fitquest/internal/infra/catalog"
)

func extendedTable() *gamification.LevelTable {
	return gamification.NewLevelTable(catalog.Default().Levels)
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Calculator Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestLevelInfo_Bands(t *testing.T) {
	table := extendedTable()
	tests := []struct {
		xp       int64
		level    int
		rank     string
		toNext   int64
		progress float64
	}{
		{0, 1, "Beginner", 150, 0},
		{149, 1, "Beginner", 1, 149.0 / 150 * 100},
		{150, 2, "Beginner", 150, 0},
		{225, 2, "Beginner", 75, 50},
		{500, 4, "Intermediate", 300, 0},
		{600, 4, "Intermediate", 200, 100.0 / 300 * 100},
		{1500, 7, "Advanced", 600, 0},
		{3500, 10, "Elite", 1500, 0},
		{7499, 11, "Elite", 1, 2499.0 / 2500 * 100},
	}

	for _, tt := range tests {
		info := table.Info(tt.xp)
		if info.Level != tt.level {
			t.Errorf("Info(%d).Level = %d, want %d", tt.xp, info.Level, tt.level)
		}
		if info.Rank != tt.rank {
			t.Errorf("Info(%d).Rank = %q, want %q", tt.xp, info.Rank, tt.rank)
		}
		if info.XPToNext != tt.toNext {
			t.Errorf("Info(%d).XPToNext = %d, want %d", tt.xp, info.XPToNext, tt.toNext)
		}
		if diff := info.ProgressPct - tt.progress; diff > 0.001 || diff < -0.001 {
			t.Errorf("Info(%d).ProgressPct = %f, want %f", tt.xp, info.ProgressPct, tt.progress)
		}
		if info.Max {
			t.Errorf("Info(%d) reported Max below the terminal band", tt.xp)
		}
	}
}

func TestLevelInfo_TerminalBand(t *testing.T) {
	table := extendedTable()
	for _, xp := range []int64{7500, 10_000, 1 << 50} {
		info := table.Info(xp)
		if info.Level != 12 || info.Rank != "Legend" {
			t.Errorf("Info(%d) = L%d %s, want L12 Legend", xp, info.Level, info.Rank)
		}
		if !info.Max {
			t.Errorf("Info(%d).Max = false", xp)
		}
		if info.ProgressPct != 100 {
			t.Errorf("Info(%d).ProgressPct = %f, want 100", xp, info.ProgressPct)
		}
		if info.XPToNextLabel() != "MAX" {
			t.Errorf("Info(%d).XPToNextLabel() = %q, want MAX", xp, info.XPToNextLabel())
		}
	}
}

func TestLevelInfo_BasicVariant(t *testing.T) {
	table := gamification.NewLevelTable(catalog.Default().BasicLevels)
	tests := []struct {
		xp   int64
		rank string
	}{
		{0, "Beginner"},
		{499, "Beginner"},
		{500, "Intermediate"},
		{1499, "Intermediate"},
		{1500, "Advanced"},
		{3499, "Advanced"},
		{3500, "Elite"},
		{1_000_000, "Elite"},
	}
	for _, tt := range tests {
		if got := table.Info(tt.xp).Rank; got != tt.rank {
			t.Errorf("basic Info(%d).Rank = %q, want %q", tt.xp, got, tt.rank)
		}
	}
	if !table.Info(3500).Max {
		t.Error("Elite should be the terminal basic band")
	}
}

func TestLevelInfo_NegativeClamped(t *testing.T) {
	info := extendedTable().Info(-50)
	if info.XP != 0 || info.Level != 1 {
		t.Errorf("Info(-50) = xp %d level %d, want 0/1", info.XP, info.Level)
	}
}

func TestLevelInfo_Monotonic(t *testing.T) {
	table := extendedTable()
	prev := table.Info(0)
	for xp := int64(1); xp <= 12_000; xp += 7 {
		cur := table.Info(xp)
		if cur.Level < prev.Level {
			t.Fatalf("level dropped from %d to %d at xp %d", prev.Level, cur.Level, xp)
		}
		if len(cur.Perks) < len(prev.Perks) {
			t.Fatalf("perks shrank at xp %d", xp)
		}
		for i, p := range prev.Perks {
			if cur.Perks[i] != p {
				t.Fatalf("perk %q lost at xp %d", p, xp)
			}
		}
		prev = cur
	}
}

func TestLevelInfo_Deterministic(t *testing.T) {
	table := extendedTable()
	for _, xp := range []int64{0, 333, 2750, 9000} {
		if a, b := table.Info(xp), table.Info(xp); !reflect.DeepEqual(a, b) {
			t.Errorf("Info(%d) not deterministic: %+v vs %+v", xp, a, b)
		}
	}
}

func TestLevelInfo_PerksCumulative(t *testing.T) {
	table := extendedTable()
	if got := len(table.Info(0).Perks); got != 2 {
		t.Errorf("level 1 perks = %d, want 2", got)
	}
	if got := len(table.Info(300).Perks); got != 3 {
		t.Errorf("level 3 perks = %d, want 3", got)
	}
	unlocks := table.UnlocksForLevel(3)
	if len(unlocks) != 1 || unlocks[0] != "Custom workout templates" {
		t.Errorf("UnlocksForLevel(3) = %v", unlocks)
	}
	if table.UnlocksForLevel(99) != nil {
		t.Error("unknown level should unlock nothing")
	}
}

func TestApplyMultiplier(t *testing.T) {
	tests := []struct {
		amount int64
		mult   float64
		want   int64
	}{
		{100, 1.0, 100},
		{20, 1.05, 21},
		{15, 1.05, 15}, // 15.75 floors
		{10, 1.1, 11},
		{3, 1.1, 3},
		{20, 1.15, 23},
		{7, 1.5, 10},
		{1, 1.25, 1},
	}
	for _, tt := range tests {
		if got := gamification.ApplyMultiplier(tt.amount, tt.mult); got != tt.want {
			t.Errorf("ApplyMultiplier(%d, %v) = %d, want %d", tt.amount, tt.mult, got, tt.want)
		}
	}
}
