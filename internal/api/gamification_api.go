package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fitquest/fitquest/internal/app/gamification"
	"github.com/fitquest/fitquest/internal/domain"
)

// ─── Gamification API (/api/users/{userID}/*) ────────────────────────────────
// Store failures are never echoed to clients; they get a generic retry
// message and the cause goes to the log.

const (
	msgAwardFailed = "xp award failed, please retry"
	msgReadFailed  = "progress unavailable, please retry"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// engineFor resolves the user's engine or writes a 400.
func (s *Server) engineFor(w http.ResponseWriter, r *http.Request) (*gamification.Engine, bool) {
	e, err := s.registry.For(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return e, true
}

// writeEngineError maps domain errors to status codes. Anything
// unrecognized is a 500 with the fallback message.
func writeEngineError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrEmptyUserID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrLootNotFound), errors.Is(err, domain.ErrChallengeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrLootUsed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("[api] %v", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeOptional decodes a JSON body; an empty body leaves v untouched.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// --- XP ---

type xpRequest struct {
	Amount int64           `json:"amount"`
	Reason string          `json:"reason"`
	Source domain.XPSource `json:"source"`
	Badges map[string]any  `json:"badges,omitempty"` // omitted = no badge evaluation
}

type xpResponse struct {
	gamification.AwardResult
	LeveledUp bool   `json:"leveled_up"`
	Warning   string `json:"warning,omitempty"`
}

func (s *Server) handleAwardXP(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	var req xpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := e.AwardXP(r.Context(), domain.Award{
		Amount: req.Amount,
		Reason: req.Reason,
		Source: req.Source,
		Badges: domain.ParseBadgeContext(req.Badges),
	})
	if err != nil && !res.Committed() {
		writeEngineError(w, err, msgAwardFailed)
		return
	}

	out := xpResponse{AwardResult: res, LeveledUp: res.LeveledUp()}
	if err != nil {
		// XP landed. Badges or rewards are missing; owed rewards stay
		// pending and are paid on the next award.
		out.Warning = "xp saved, some badges or rewards are delayed until your next award"
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := e.History(r.Context(), limit)
	if err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	p, err := e.Profile(r.Context())
	if err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	info, err := e.Level(r.Context())
	if err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	basic, err := e.BasicLevel(r.Context())
	if err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"level":      info,
		"basic":      basic,
		"xp_to_next": info.XPToNextLabel(),
	})
}

// --- Streaks ---

type streakRequest struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD; defaults to today
}

func (s *Server) handleStreaks(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	streaks, err := e.Streaks(r.Context())
	if err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"streaks": streaks,
	})
}

func (s *Server) handleUpdateStreak(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	var req streakRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	today := s.now()
	if req.Date != "" {
		d, err := time.Parse(domain.DateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		today = d
	}

	upd, err := e.UpdateStreak(r.Context(), domain.StreakCategory(chi.URLParam(r, "category")), today)
	if err != nil {
		if upd.Outcome != "" {
			// Streak saved; the milestone bonus was not granted.
			log.Printf("[api] streak bonus failed: %v", err)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"streak":  upd,
				"warning": msgAwardFailed,
			})
			return
		}
		writeEngineError(w, err, msgAwardFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"streak": upd,
	})
}

// --- Badges & Loot ---

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	badges, err := e.Badges(r.Context())
	if err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"badges": badges,
	})
}

func (s *Server) handleLoot(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	items, err := e.Inventory(r.Context())
	if err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"loot": items,
	})
}

func (s *Server) handleUseLoot(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	if err := e.UseLoot(r.Context(), chi.URLParam(r, "lootID")); err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "used"})
}

// --- Feedback ---

func (s *Server) handlePeekFeedback(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	ev, ok := e.PeekFeedback()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	body, err := domain.MarshalFeedback(ev)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handlePendingFeedback(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	pending := e.Feedback().Pending()
	out := make([]domain.FeedbackEnvelope, len(pending))
	for i, ev := range pending {
		out[i] = domain.FeedbackEnvelope{Kind: ev.Kind(), Event: ev}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": out,
	})
}

type dismissRequest struct {
	ID string `json:"id,omitempty"` // when set, only dismiss if it is the head
}

func (s *Server) handleDismissFeedback(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	var req dismissRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var dismissed bool
	if req.ID != "" {
		dismissed = e.Feedback().DismissID(req.ID)
	} else {
		dismissed = e.DismissFeedback()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dismissed": dismissed,
		"remaining": e.Feedback().Len(),
	})
}

// --- Challenges ---

func (s *Server) handleChallenges(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	cs, err := e.Challenges().Active(r.Context())
	if err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"challenges": cs,
	})
}

func (s *Server) handleGenerateChallenges(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	cs, err := e.Challenges().GenerateWeekly(r.Context())
	if err != nil {
		writeEngineError(w, err, msgReadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"challenges": cs,
	})
}

type progressRequest struct {
	Metric domain.Metric `json:"metric"`
	Delta  int           `json:"delta"`
}

func (s *Server) handleChallengeProgress(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engineFor(w, r)
	if !ok {
		return
	}
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Metric.Known() {
		writeError(w, http.StatusBadRequest, "unknown metric")
		return
	}

	done, err := e.Challenges().RecordProgress(r.Context(), req.Metric, req.Delta)
	if errors.Is(err, domain.ErrRewardPending) {
		log.Printf("[api] challenge reward delayed: %v", err)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"completed": done,
			"warning":   "progress saved, challenge xp is delayed until your next award",
		})
		return
	}
	if err != nil {
		writeEngineError(w, err, msgAwardFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"completed": done,
	})
}

// --- Catalog ---

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Catalog())
}
