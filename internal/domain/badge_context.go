package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Metric names one scalar in a badge context.
type Metric string

const (
	MetricWorkoutCount        Metric = "workout_count"
	MetricMealCount           Metric = "meal_count"
	MetricWaterGoalDays       Metric = "water_goal_days"
	MetricWeightLogCount      Metric = "weight_log_count"
	MetricChallengesCompleted Metric = "challenges_completed"
	MetricAIUsageCount        Metric = "ai_usage_count"
	MetricLevel               Metric = "level"
	MetricTotalXP             Metric = "total_xp"
	MetricWorkoutStreak       Metric = "workout_streak"
	MetricMealStreak          Metric = "meal_streak"
	MetricWaterStreak         Metric = "water_streak"
	MetricProteinGoalStreak   Metric = "protein_goal_streak"
	MetricCalorieGoalStreak   Metric = "calorie_goal_streak"
	MetricEarlyAdopter        Metric = "early_adopter"
	MetricProfileComplete     Metric = "profile_complete"
)

var knownMetrics = map[Metric]bool{
	MetricWorkoutCount:        true,
	MetricMealCount:           true,
	MetricWaterGoalDays:       true,
	MetricWeightLogCount:      true,
	MetricChallengesCompleted: true,
	MetricAIUsageCount:        true,
	MetricLevel:               true,
	MetricTotalXP:             true,
	MetricWorkoutStreak:       true,
	MetricMealStreak:          true,
	MetricWaterStreak:         true,
	MetricProteinGoalStreak:   true,
	MetricCalorieGoalStreak:   true,
	MetricEarlyAdopter:        true,
	MetricProfileComplete:     true,
}

// Known reports whether m is a metric the engine can extract.
func (m Metric) Known() bool { return knownMetrics[m] }

// StreakMetric maps a streak category to its badge metric.
func StreakMetric(c StreakCategory) Metric {
	switch c {
	case StreakWorkout:
		return MetricWorkoutStreak
	case StreakMeal:
		return MetricMealStreak
	case StreakWater:
		return MetricWaterStreak
	}
	return ""
}

// BadgeContext is a loose bag of activity metrics. Missing metrics read as 0.
// A nil context is valid and empty.
type BadgeContext map[Metric]float64

// Value returns the metric, 0 when absent or not a finite non-negative number.
func (c BadgeContext) Value(m Metric) float64 {
	v, ok := c[m]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Has reports whether the metric was supplied.
func (c BadgeContext) Has(m Metric) bool {
	_, ok := c[m]
	return ok
}

// Set stores a numeric metric and returns the context for chaining.
func (c BadgeContext) Set(m Metric, v float64) BadgeContext {
	c[m] = v
	return c
}

// Flag stores a boolean metric as 0/1.
func (c BadgeContext) Flag(m Metric, on bool) BadgeContext {
	if on {
		c[m] = 1
	} else {
		c[m] = 0
	}
	return c
}

// Clone returns an independent copy (never nil).
func (c BadgeContext) Clone() BadgeContext {
	out := make(BadgeContext, len(c)+4)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ParseBadgeContext coerces a decoded JSON object into a BadgeContext.
// Numbers, numeric strings and booleans are accepted; anything else, and
// unknown metric names, are dropped rather than rejected.
func ParseBadgeContext(raw map[string]any) BadgeContext {
	if raw == nil {
		return nil
	}
	ctx := make(BadgeContext, len(raw))
	for k, v := range raw {
		m := Metric(strings.TrimSpace(strings.ToLower(k)))
		if !m.Known() {
			continue
		}
		if f, ok := coerce(v); ok {
			ctx[m] = f
		}
	}
	return ctx
}

func coerce(v any) (float64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		if b, err := strconv.ParseBool(x); err == nil {
			return coerce(b)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
