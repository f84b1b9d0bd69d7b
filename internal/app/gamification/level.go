package gamification

import (
	"math"

	"github.com/fitquest/fitquest/internal/domain"
)

// LevelTable maps cumulative XP to level info. The zero value is not
// usable; build one from a validated band list with NewLevelTable.
//
// Info is a pure function of XP: the same table and XP always produce the
// same LevelInfo, and no stored level is ever trusted over it.
type LevelTable struct {
	bands []domain.LevelBand
	perks [][]string // perks[i] = all perks unlocked at bands[0..i]
}

// NewLevelTable copies the bands. The bands must already be validated
// (first band at 0 XP, strictly ascending).
func NewLevelTable(bands []domain.LevelBand) *LevelTable {
	t := &LevelTable{
		bands: make([]domain.LevelBand, len(bands)),
		perks: make([][]string, len(bands)),
	}
	copy(t.bands, bands)

	var acc []string
	for i, b := range t.bands {
		acc = append(acc, b.Perks...)
		t.perks[i] = append([]string(nil), acc...)
	}
	return t
}

// Bands returns a copy of the table's bands.
func (t *LevelTable) Bands() []domain.LevelBand {
	out := make([]domain.LevelBand, len(t.bands))
	copy(out, t.bands)
	return out
}

// bandIndex walks the bands in ascending order and returns the last one
// whose minimum is at or below xp. Negative XP is treated as 0.
func (t *LevelTable) bandIndex(xp int64) int {
	idx := 0
	for i, b := range t.bands {
		if b.MinXP > xp {
			break
		}
		idx = i
	}
	return idx
}

// Info returns the level info for a cumulative XP total. It never fails;
// the last band is open-ended and reports 100% progress.
func (t *LevelTable) Info(xp int64) domain.LevelInfo {
	if xp < 0 {
		xp = 0
	}
	i := t.bandIndex(xp)
	b := t.bands[i]

	info := domain.LevelInfo{
		XP:         xp,
		Level:      b.Level,
		Rank:       b.Rank,
		Perks:      append([]string{}, t.perks[i]...),
		LevelMinXP: b.MinXP,
		Multiplier: b.Multiplier,
	}

	if i == len(t.bands)-1 {
		info.Max = true
		info.ProgressPct = 100.0
		return info
	}

	next := t.bands[i+1].MinXP
	info.NextLevelXP = next
	info.XPToNext = next - xp

	span := next - b.MinXP
	progress := float64(xp-b.MinXP) / float64(span) * 100.0
	info.ProgressPct = math.Max(0, math.Min(progress, 100))
	return info
}

// ApplyMultiplier returns floor(amount * m). The epsilon keeps products
// such as 20 * 1.15 from flooring to 22 on binary rounding error.
func ApplyMultiplier(amount int64, m float64) int64 {
	return int64(math.Floor(float64(amount)*m + 1e-9))
}

// UnlocksForLevel returns the perks first unlocked at exactly this level.
func (t *LevelTable) UnlocksForLevel(level int) []string {
	for _, b := range t.bands {
		if b.Level == level {
			return b.Perks
		}
	}
	return nil
}
