package catalog

import (
	"fmt"

	"github.com/fitquest/fitquest/internal/domain"
)

// Validate rejects configuration defects. It is meant to run once at
// startup so a bad catalog never reaches a live session.
func (c *Catalog) Validate() error {
	if err := validateLevels("levels", c.Levels); err != nil {
		return err
	}
	if err := validateLevels("basic_levels", c.BasicLevels); err != nil {
		return err
	}
	if err := validateMilestones(c.StreakMilestones); err != nil {
		return err
	}
	if err := validateBadges(c.Badges); err != nil {
		return err
	}
	if err := c.validateLoot(); err != nil {
		return err
	}
	return validateChallenges(c.Challenges)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidCatalog, fmt.Sprintf(format, args...))
}

func validateLevels(name string, bands []domain.LevelBand) error {
	if len(bands) == 0 {
		return invalid("%s: no level bands", name)
	}
	if bands[0].MinXP != 0 {
		return invalid("%s: first band must start at 0 XP, starts at %d", name, bands[0].MinXP)
	}
	for i, b := range bands {
		if b.Rank == "" {
			return invalid("%s: level %d has no rank title", name, b.Level)
		}
		if b.Multiplier <= 0 {
			return invalid("%s: level %d multiplier %.2f must be positive", name, b.Level, b.Multiplier)
		}
		if i == 0 {
			continue
		}
		prev := bands[i-1]
		if b.MinXP <= prev.MinXP {
			return invalid("%s: level %d min_xp %d not above level %d (%d)", name, b.Level, b.MinXP, prev.Level, prev.MinXP)
		}
		if b.Level <= prev.Level {
			return invalid("%s: level numbers must ascend (%d after %d)", name, b.Level, prev.Level)
		}
	}
	return nil
}

func validateMilestones(ms []domain.StreakMilestone) error {
	for i, m := range ms {
		if m.Days <= 0 || m.Bonus < 0 {
			return invalid("streak milestone %d: days must be positive and bonus non-negative", i)
		}
		if i > 0 && m.Days <= ms[i-1].Days {
			return invalid("streak milestones must ascend (%d after %d)", m.Days, ms[i-1].Days)
		}
	}
	return nil
}

func validateBadges(defs []domain.BadgeDef) error {
	seen := make(map[string]bool, len(defs))
	for _, b := range defs {
		if b.ID == "" {
			return invalid("badge %q has no id", b.Name)
		}
		if seen[b.ID] {
			return invalid("duplicate badge id %q", b.ID)
		}
		seen[b.ID] = true

		if !b.Metric.Known() {
			return fmt.Errorf("%w: badge %q metric %q: %w", domain.ErrInvalidCatalog, b.ID, b.Metric, domain.ErrUnknownMetric)
		}
		if b.AtLeast < 0 {
			return invalid("badge %q: at_least must not be negative", b.ID)
		}
		if len(b.Tiers) == 0 {
			return invalid("badge %q has no tiers", b.ID)
		}
		for i, t := range b.Tiers {
			if t.Tier.Rank() < 0 {
				return invalid("badge %q: unknown tier %q", b.ID, t.Tier)
			}
			if t.Threshold <= 0 {
				return invalid("badge %q: tier %s threshold must be positive", b.ID, t.Tier)
			}
			if t.RewardXP < 0 {
				return invalid("badge %q: tier %s reward must not be negative", b.ID, t.Tier)
			}
			if i == 0 {
				continue
			}
			prev := b.Tiers[i-1]
			if t.Tier.Rank() <= prev.Tier.Rank() {
				return invalid("badge %q: tier %s must come after %s", b.ID, t.Tier, prev.Tier)
			}
			if t.Threshold <= prev.Threshold {
				return invalid("badge %q: tier %s threshold %.0f not above %.0f", b.ID, t.Tier, t.Threshold, prev.Threshold)
			}
		}
	}
	return nil
}

func (c *Catalog) validateLoot() error {
	ids := make(map[string]bool, len(c.Loot))
	for _, it := range c.Loot {
		if it.ID == "" || ids[it.ID] {
			return invalid("loot item %q: missing or duplicate id", it.ID)
		}
		ids[it.ID] = true
		if it.Rarity.Rank() < 0 {
			return invalid("loot item %q: unknown rarity %q", it.ID, it.Rarity)
		}
	}
	levels := make(map[int]bool, len(c.Chests))
	for _, r := range c.Chests {
		if r.Level <= 1 {
			return invalid("chest at level %d: chests unlock on level-ups only", r.Level)
		}
		if levels[r.Level] {
			return invalid("duplicate chest at level %d", r.Level)
		}
		levels[r.Level] = true
		if len(c.LootByRarity(r.Rarity)) == 0 {
			return invalid("chest at level %d: no %s loot to roll", r.Level, r.Rarity)
		}
	}
	return nil
}

func validateChallenges(pool []domain.ChallengeTemplate) error {
	for _, t := range pool {
		if !t.Metric.Known() {
			return fmt.Errorf("%w: challenge %q metric %q: %w", domain.ErrInvalidCatalog, t.Description, t.Metric, domain.ErrUnknownMetric)
		}
		if t.Target <= 0 || t.RewardXP < 0 {
			return invalid("challenge %q: target must be positive", t.Description)
		}
	}
	return nil
}
