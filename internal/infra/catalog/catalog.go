// Package catalog holds the static gamification definitions: level tables,
// streak milestones, badges, loot and chest rules, and the weekly challenge
// pool. Defaults are built in; a TOML file may replace any section.
package catalog

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/fitquest/fitquest/internal/domain"
)

// Catalog is read-only once validated.
type Catalog struct {
	Levels           []domain.LevelBand         `json:"levels" toml:"levels"`
	BasicLevels      []domain.LevelBand         `json:"basic_levels" toml:"basic_levels"`
	StreakMilestones []domain.StreakMilestone   `json:"streak_milestones" toml:"streak_milestones"`
	Badges           []domain.BadgeDef          `json:"badges" toml:"badges"`
	Loot             []domain.LootItem          `json:"loot" toml:"loot"`
	Chests           []domain.ChestRule         `json:"chests" toml:"chests"`
	Challenges       []domain.ChallengeTemplate `json:"challenges" toml:"challenges"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Levels:           defaultLevels(),
		BasicLevels:      defaultBasicLevels(),
		StreakMilestones: defaultStreakMilestones(),
		Badges:           defaultBadges(),
		Loot:             defaultLoot(),
		Chests:           defaultChests(),
		Challenges:       defaultChallenges(),
	}
}

// Load reads a TOML override file on top of the defaults and validates the
// result. Sections present in the file replace the default section whole.
// An empty path returns the validated defaults.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("catalog file: %w", err)
		}
		var override Catalog
		if _, err := toml.DecodeFile(path, &override); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		c.merge(override)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) merge(o Catalog) {
	if len(o.Levels) > 0 {
		c.Levels = o.Levels
	}
	if len(o.BasicLevels) > 0 {
		c.BasicLevels = o.BasicLevels
	}
	if len(o.StreakMilestones) > 0 {
		c.StreakMilestones = o.StreakMilestones
	}
	if len(o.Badges) > 0 {
		c.Badges = o.Badges
	}
	if len(o.Loot) > 0 {
		c.Loot = o.Loot
	}
	if len(o.Chests) > 0 {
		c.Chests = o.Chests
	}
	if len(o.Challenges) > 0 {
		c.Challenges = o.Challenges
	}
}

// Badge looks up a badge definition by id.
func (c *Catalog) Badge(id string) (domain.BadgeDef, bool) {
	for _, b := range c.Badges {
		if b.ID == id {
			return b, true
		}
	}
	return domain.BadgeDef{}, false
}

// LootByRarity returns the items that can drop from a chest of rarity r.
func (c *Catalog) LootByRarity(r domain.Rarity) []domain.LootItem {
	var out []domain.LootItem
	for _, it := range c.Loot {
		if it.Rarity == r {
			out = append(out, it)
		}
	}
	return out
}

// ─── Built-in definitions ───────────────────────────────────────────────────

// defaultLevels is the extended table: numeric levels with rank titles laid
// over the basic Beginner/Intermediate/Advanced/Elite bands.
func defaultLevels() []domain.LevelBand {
	return []domain.LevelBand{
		{Level: 1, Rank: "Beginner", MinXP: 0, Multiplier: 1.0, Perks: []string{"Meal and workout logging", "Daily XP toasts"}},
		{Level: 2, Rank: "Beginner", MinXP: 150, Multiplier: 1.0},
		{Level: 3, Rank: "Beginner", MinXP: 300, Multiplier: 1.0, Perks: []string{"Custom workout templates"}},
		{Level: 4, Rank: "Intermediate", MinXP: 500, Multiplier: 1.05, Perks: []string{"Weekly progress charts"}},
		{Level: 5, Rank: "Intermediate", MinXP: 800, Multiplier: 1.05, Perks: []string{"Macro breakdown insights"}},
		{Level: 6, Rank: "Intermediate", MinXP: 1150, Multiplier: 1.05},
		{Level: 7, Rank: "Advanced", MinXP: 1500, Multiplier: 1.1, Perks: []string{"AI plan regeneration"}},
		{Level: 8, Rank: "Advanced", MinXP: 2100, Multiplier: 1.1},
		{Level: 9, Rank: "Advanced", MinXP: 2750, Multiplier: 1.1, Perks: []string{"Extra streak freeze slot"}},
		{Level: 10, Rank: "Elite", MinXP: 3500, Multiplier: 1.25, Perks: []string{"Elite profile frame"}},
		{Level: 11, Rank: "Elite", MinXP: 5000, Multiplier: 1.25},
		{Level: 12, Rank: "Legend", MinXP: 7500, Multiplier: 1.5, Perks: []string{"Legend title", "Double chest rolls"}},
	}
}

func defaultBasicLevels() []domain.LevelBand {
	return []domain.LevelBand{
		{Level: 1, Rank: "Beginner", MinXP: 0, Multiplier: 1.0},
		{Level: 2, Rank: "Intermediate", MinXP: 500, Multiplier: 1.0},
		{Level: 3, Rank: "Advanced", MinXP: 1500, Multiplier: 1.0},
		{Level: 4, Rank: "Elite", MinXP: 3500, Multiplier: 1.0},
	}
}

func defaultStreakMilestones() []domain.StreakMilestone {
	return []domain.StreakMilestone{
		{Days: 3, Bonus: 50},
		{Days: 7, Bonus: 100},
		{Days: 30, Bonus: 500},
	}
}

func tiers(thresholds []float64, rewards []int64) []domain.BadgeTier {
	names := []domain.Tier{domain.TierBronze, domain.TierSilver, domain.TierGold, domain.TierDiamond}
	out := make([]domain.BadgeTier, len(thresholds))
	for i := range thresholds {
		out[i] = domain.BadgeTier{Tier: names[i], Threshold: thresholds[i], RewardXP: rewards[i]}
	}
	return out
}

func defaultBadges() []domain.BadgeDef {
	return []domain.BadgeDef{
		// ── Workout ────────────────────────────────────────────────────
		{
			ID: "iron_will", Name: "Iron Will", Category: domain.BadgeCatWorkout, Icon: "🏋️",
			Description: "Complete workouts",
			Metric:      domain.MetricWorkoutCount,
			Tiers:       tiers([]float64{1, 10, 50, 200}, []int64{25, 100, 250, 1000}),
		},
		{
			ID: "streak_machine", Name: "Streak Machine", Category: domain.BadgeCatConsistency, Icon: "🔥",
			Description: "Work out on consecutive days",
			Metric:      domain.MetricWorkoutStreak,
			Tiers:       tiers([]float64{3, 7, 30, 100}, []int64{30, 100, 400, 1500}),
		},

		// ── Nutrition ──────────────────────────────────────────────────
		{
			ID: "meal_master", Name: "Meal Master", Category: domain.BadgeCatNutrition, Icon: "🥗",
			Description: "Log meals",
			Metric:      domain.MetricMealCount,
			Tiers:       tiers([]float64{1, 25, 100, 500}, []int64{20, 75, 250, 800}),
		},
		{
			ID: "consistent_eater", Name: "Consistent Eater", Category: domain.BadgeCatConsistency, Icon: "🍽️",
			Description: "Log meals on consecutive days",
			Metric:      domain.MetricMealStreak,
			Tiers:       tiers([]float64{3, 7, 30}, []int64{25, 100, 400}),
		},
		{
			ID: "protein_pro", Name: "Protein Pro", Category: domain.BadgeCatNutrition, Icon: "🥩",
			Description: "Hit the protein goal on consecutive days",
			Metric:      domain.MetricProteinGoalStreak,
			Tiers:       tiers([]float64{3, 7, 30}, []int64{30, 120, 500}),
		},
		{
			ID: "calorie_captain", Name: "Calorie Captain", Category: domain.BadgeCatNutrition, Icon: "🎯",
			Description: "Stay within the calorie goal on consecutive days",
			Metric:      domain.MetricCalorieGoalStreak,
			Tiers:       tiers([]float64{3, 7, 30}, []int64{30, 120, 500}),
		},

		// ── Hydration ──────────────────────────────────────────────────
		{
			ID: "hydration_hero", Name: "Hydration Hero", Category: domain.BadgeCatHydration, Icon: "💧",
			Description: "Reach the daily water goal",
			Metric:      domain.MetricWaterGoalDays,
			Tiers:       tiers([]float64{1, 7, 30}, []int64{20, 80, 300}),
		},
		{
			ID: "well_watered", Name: "Well Watered", Category: domain.BadgeCatConsistency, Icon: "🌊",
			Description: "Log water on consecutive days",
			Metric:      domain.MetricWaterStreak,
			Tiers:       tiers([]float64{3, 7, 30}, []int64{20, 80, 300}),
		},

		// ── Progress ───────────────────────────────────────────────────
		{
			ID: "scale_tracker", Name: "Scale Tracker", Category: domain.BadgeCatProgress, Icon: "⚖️",
			Description: "Log body weight",
			Metric:      domain.MetricWeightLogCount,
			Tiers:       tiers([]float64{1, 10, 50}, []int64{15, 60, 200}),
		},
		{
			ID: "challenger", Name: "Challenger", Category: domain.BadgeCatProgress, Icon: "🏆",
			Description: "Complete weekly challenges",
			Metric:      domain.MetricChallengesCompleted,
			Tiers:       tiers([]float64{1, 5, 20}, []int64{50, 200, 750}),
		},
		{
			ID: "xp_collector", Name: "XP Collector", Category: domain.BadgeCatProgress, Icon: "✨",
			Description: "Accumulate experience",
			Metric:      domain.MetricTotalXP,
			Tiers:       tiers([]float64{1000, 5000, 20000, 50000}, []int64{50, 150, 500, 1500}),
		},
		{
			ID: "rising_star", Name: "Rising Star", Category: domain.BadgeCatProgress, Icon: "🌅",
			Description: "Reach level 4",
			Metric:      domain.MetricLevel, AtLeast: 4,
			Tiers: []domain.BadgeTier{{Tier: domain.TierBronze, Threshold: 1, RewardXP: 50}},
		},
		{
			ID: "elite_athlete", Name: "Elite Athlete", Category: domain.BadgeCatProgress, Icon: "🎖️",
			Description: "Reach level 10",
			Metric:      domain.MetricLevel, AtLeast: 10,
			Tiers: []domain.BadgeTier{{Tier: domain.TierGold, Threshold: 1, RewardXP: 300}},
		},

		// ── Special ────────────────────────────────────────────────────
		{
			ID: "ai_explorer", Name: "AI Explorer", Category: domain.BadgeCatSpecial, Icon: "🤖",
			Description: "Generate plans with the AI coach",
			Metric:      domain.MetricAIUsageCount,
			Tiers:       tiers([]float64{1, 10, 50}, []int64{20, 80, 250}),
		},
		{
			ID: "early_adopter", Name: "Early Adopter", Category: domain.BadgeCatSpecial, Icon: "🚀",
			Description: "Joined during the first season",
			Metric:      domain.MetricEarlyAdopter,
			Tiers:       []domain.BadgeTier{{Tier: domain.TierDiamond, Threshold: 1, RewardXP: 100}},
		},
		{
			ID: "all_set", Name: "All Set", Category: domain.BadgeCatSpecial, Icon: "✅",
			Description: "Complete the onboarding profile",
			Metric:      domain.MetricProfileComplete,
			Tiers:       []domain.BadgeTier{{Tier: domain.TierBronze, Threshold: 1, RewardXP: 25}},
		},
	}
}

func defaultLoot() []domain.LootItem {
	return []domain.LootItem{
		{ID: "xp_boost_small", Name: "Small XP Boost", Rarity: domain.RarityCommon, Type: domain.LootXPBoost, Description: "+10% XP for one day"},
		{ID: "sweatband", Name: "Sweatband", Rarity: domain.RarityCommon, Type: domain.LootCosmetic, Description: "Avatar accessory"},
		{ID: "water_bottle_skin", Name: "Chrome Bottle", Rarity: domain.RarityCommon, Type: domain.LootCosmetic, Description: "Water tracker skin"},
		{ID: "streak_freeze", Name: "Streak Freeze", Rarity: domain.RarityRare, Type: domain.LootFreeze, Description: "Protects one missed day"},
		{ID: "xp_boost_medium", Name: "XP Boost", Rarity: domain.RarityRare, Type: domain.LootXPBoost, Description: "+25% XP for one day"},
		{ID: "neon_frame", Name: "Neon Frame", Rarity: domain.RarityEpic, Type: domain.LootCosmetic, Description: "Animated profile frame"},
		{ID: "double_freeze", Name: "Double Freeze", Rarity: domain.RarityEpic, Type: domain.LootFreeze, Description: "Protects two missed days"},
		{ID: "title_unbreakable", Name: "The Unbreakable", Rarity: domain.RarityLegendary, Type: domain.LootTitle, Description: "Profile title"},
		{ID: "xp_boost_large", Name: "Mega XP Boost", Rarity: domain.RarityLegendary, Type: domain.LootXPBoost, Description: "+50% XP for three days"},
	}
}

func defaultChests() []domain.ChestRule {
	return []domain.ChestRule{
		{Level: 3, Rarity: domain.RarityCommon},
		{Level: 5, Rarity: domain.RarityCommon},
		{Level: 7, Rarity: domain.RarityRare},
		{Level: 10, Rarity: domain.RarityEpic},
		{Level: 12, Rarity: domain.RarityLegendary},
	}
}

func defaultChallenges() []domain.ChallengeTemplate {
	return []domain.ChallengeTemplate{
		{Metric: domain.MetricWorkoutCount, Target: 3, Description: "Complete 3 workouts", RewardXP: 150},
		{Metric: domain.MetricWorkoutCount, Target: 5, Description: "Complete 5 workouts", RewardXP: 250},
		{Metric: domain.MetricMealCount, Target: 14, Description: "Log 14 meals", RewardXP: 150},
		{Metric: domain.MetricMealCount, Target: 21, Description: "Log 21 meals", RewardXP: 220},
		{Metric: domain.MetricWaterGoalDays, Target: 5, Description: "Hit the water goal 5 days", RewardXP: 120},
		{Metric: domain.MetricWeightLogCount, Target: 3, Description: "Weigh in 3 times", RewardXP: 80},
		{Metric: domain.MetricAIUsageCount, Target: 2, Description: "Ask the AI coach for 2 plans", RewardXP: 100},
	}
}
