package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/fitquest/fitquest/internal/daemon"
	"github.com/fitquest/fitquest/internal/domain"
)

func init() {
	feedbackCmd.Flags().BoolVar(&feedbackDismiss, "dismiss", false, "Dismiss the event at the head of the queue")
	rootCmd.AddCommand(feedbackCmd)
}

var feedbackDismiss bool

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Show pending feedback from a running 'fitquest serve'",
	Long: `Feedback queues live in the server's memory. This command asks the
running server for the user's pending events.`,
	RunE: runFeedback,
}

var feedbackClient = &http.Client{Timeout: 5 * time.Second}

func runFeedback(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	base := fmt.Sprintf("http://%s:%d/api/users/%s/feedback", cfg.API.Host, cfg.API.Port, url.PathEscape(userID))

	if feedbackDismiss {
		resp, err := feedbackClient.Post(base+"/dismiss", "application/json", bytes.NewReader(nil))
		if err != nil {
			return fmt.Errorf("is 'fitquest serve' running? %w", err)
		}
		defer resp.Body.Close()
		var out struct {
			Dismissed bool `json:"dismissed"`
			Remaining int  `json:"remaining"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return err
		}
		fmt.Printf("dismissed=%t remaining=%d\n", out.Dismissed, out.Remaining)
		return nil
	}

	resp, err := feedbackClient.Get(base + "/pending")
	if err != nil {
		return fmt.Errorf("is 'fitquest serve' running? %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var out struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out)
	}
	if len(out.Events) == 0 {
		fmt.Println("No pending feedback.")
		return nil
	}
	for _, raw := range out.Events {
		ev, err := domain.UnmarshalFeedback(raw)
		if err != nil {
			return err
		}
		fmt.Println(describeFeedback(ev))
	}
	return nil
}
