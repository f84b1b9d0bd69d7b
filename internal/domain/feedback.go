package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FeedbackKind tags a feedback event variant.
type FeedbackKind string

const (
	FeedbackXPToast     FeedbackKind = "xp_toast"
	FeedbackLevelUp     FeedbackKind = "level_up"
	FeedbackBadgeUnlock FeedbackKind = "badge_unlock"
	FeedbackTierUpgrade FeedbackKind = "badge_tier_upgrade"
)

// Feedback is one queued UI notification. The set of implementations is
// closed: XPToast, LevelUp, BadgeUnlock, BadgeTierUpgrade.
type Feedback interface {
	Kind() FeedbackKind
	Meta() FeedbackMeta
	feedback()
}

// FeedbackMeta is carried by every variant.
type FeedbackMeta struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// XPToast reports a plain XP grant. Never emitted together with a LevelUp
// for the same grant.
type XPToast struct {
	FeedbackMeta
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// LevelUp reports one or more levels gained by a single grant.
type LevelUp struct {
	FeedbackMeta
	From     LevelInfo     `json:"from"`
	To       LevelInfo     `json:"to"`
	Amount   int64         `json:"amount"`
	Reason   string        `json:"reason"`
	Chest    *UnlockedLoot `json:"chest,omitempty"`
	Unlocked []string      `json:"unlocked,omitempty"` // perks first reached by this grant
}

// UnlockedBadge pairs a definition with the tier reached.
type UnlockedBadge struct {
	Badge  BadgeDef    `json:"badge"`
	Earned EarnedBadge `json:"earned"`
}

// BadgeUnlock batches every badge newly earned by one grant.
type BadgeUnlock struct {
	FeedbackMeta
	Badges []UnlockedBadge `json:"badges"`
}

// BadgeTierUpgrade reports a single badge moving to a higher tier.
type BadgeTierUpgrade struct {
	FeedbackMeta
	Badge  BadgeDef    `json:"badge"`
	From   Tier        `json:"from"`
	To     Tier        `json:"to"`
	Earned EarnedBadge `json:"earned"`
}

func (XPToast) Kind() FeedbackKind          { return FeedbackXPToast }
func (LevelUp) Kind() FeedbackKind          { return FeedbackLevelUp }
func (BadgeUnlock) Kind() FeedbackKind      { return FeedbackBadgeUnlock }
func (BadgeTierUpgrade) Kind() FeedbackKind { return FeedbackTierUpgrade }

func (e XPToast) Meta() FeedbackMeta          { return e.FeedbackMeta }
func (e LevelUp) Meta() FeedbackMeta          { return e.FeedbackMeta }
func (e BadgeUnlock) Meta() FeedbackMeta      { return e.FeedbackMeta }
func (e BadgeTierUpgrade) Meta() FeedbackMeta { return e.FeedbackMeta }

func (XPToast) feedback()          {}
func (LevelUp) feedback()          {}
func (BadgeUnlock) feedback()      {}
func (BadgeTierUpgrade) feedback() {}

// FeedbackEnvelope is the wire form: {"kind": ..., "event": {...}}.
type FeedbackEnvelope struct {
	Kind  FeedbackKind `json:"kind"`
	Event Feedback     `json:"event"`
}

// MarshalFeedback encodes an event with its kind tag.
func MarshalFeedback(f Feedback) ([]byte, error) {
	return json.Marshal(FeedbackEnvelope{Kind: f.Kind(), Event: f})
}

// UnmarshalFeedback decodes an envelope written by MarshalFeedback.
func UnmarshalFeedback(data []byte) (Feedback, error) {
	var env struct {
		Kind  FeedbackKind    `json:"kind"`
		Event json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	var f Feedback
	var err error
	switch env.Kind {
	case FeedbackXPToast:
		var ev XPToast
		err = json.Unmarshal(env.Event, &ev)
		f = ev
	case FeedbackLevelUp:
		var ev LevelUp
		err = json.Unmarshal(env.Event, &ev)
		f = ev
	case FeedbackBadgeUnlock:
		var ev BadgeUnlock
		err = json.Unmarshal(env.Event, &ev)
		f = ev
	case FeedbackTierUpgrade:
		var ev BadgeTierUpgrade
		err = json.Unmarshal(env.Event, &ev)
		f = ev
	default:
		return nil, fmt.Errorf("unknown feedback kind %q", env.Kind)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
