package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fitquest/fitquest/internal/app/gamification"
	"github.com/fitquest/fitquest/internal/daemon"
	"github.com/fitquest/fitquest/internal/domain"
)

// openEngine loads config, opens the store and returns the --user engine.
// The caller must Close the daemon.
func openEngine() (*daemon.Daemon, *gamification.Engine, error) {
	d, err := daemon.New()
	if err != nil {
		return nil, nil, err
	}
	e, err := d.Registry.For(userID)
	if err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, e, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// drainFeedback prints and dismisses every queued event.
func drainFeedback(w io.Writer, e *gamification.Engine) {
	for {
		ev, ok := e.PeekFeedback()
		if !ok {
			return
		}
		fmt.Fprintln(w, describeFeedback(ev))
		e.DismissFeedback()
	}
}

// describeFeedback renders one event as a line of text.
func describeFeedback(ev domain.Feedback) string {
	switch f := ev.(type) {
	case domain.XPToast:
		return fmt.Sprintf("+%d XP  %s", f.Amount, f.Reason)
	case domain.LevelUp:
		s := fmt.Sprintf("LEVEL UP! %d -> %d (%s)  +%d XP  %s", f.From.Level, f.To.Level, f.To.Rank, f.Amount, f.Reason)
		if len(f.Unlocked) > 0 {
			s += "\n  unlocked: " + strings.Join(f.Unlocked, ", ")
		}
		if f.Chest != nil {
			s += fmt.Sprintf("\n  %s chest: %s (%s)", f.Chest.Chest, f.Chest.Item.Name, f.Chest.Item.Description)
		}
		return s
	case domain.BadgeUnlock:
		names := make([]string, len(f.Badges))
		for i, b := range f.Badges {
			names[i] = fmt.Sprintf("%s %s (%s)", b.Badge.Icon, b.Badge.Name, b.Earned.Tier)
		}
		return "Badge unlocked: " + strings.Join(names, ", ")
	case domain.BadgeTierUpgrade:
		return fmt.Sprintf("Badge upgraded: %s %s %s -> %s", f.Badge.Icon, f.Badge.Name, f.From, f.To)
	}
	return string(ev.Kind())
}
