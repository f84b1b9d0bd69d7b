package gamification

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fitquest/fitquest/internal/domain"
	"github.com/fitquest/fitquest/internal/infra/catalog"
)

// DefaultIdleTimeout is how long an engine with an empty feedback queue
// stays cached after its last lookup.
const DefaultIdleTimeout = 30 * time.Minute

// Registry hands out one Engine per user. Engines share the store and the
// catalog-derived tables; each keeps its own award lock and feedback queue.
//
// Engines that sit idle with nothing queued are dropped by EvictIdle, so a
// long-running server holds at most the users active in the last idle
// window plus those with unread feedback. The idle window must exceed the
// longest request, or an in-flight request could still hold an evicted
// engine.
type Registry struct {
	store domain.Store
	sh    *shared
	idle  time.Duration

	mu       sync.Mutex
	engines  map[string]*Engine
	lastUsed map[string]time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(store domain.Store, cfg Config) *Registry {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Registry{
		store:    store,
		sh:       newShared(cfg),
		idle:     idle,
		engines:  make(map[string]*Engine),
		lastUsed: make(map[string]time.Time),
	}
}

// For returns the user's engine, creating it on first use.
func (r *Registry) For(userID string) (*Engine, error) {
	if userID == "" {
		return nil, domain.ErrEmptyUserID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[userID]; ok {
		r.lastUsed[userID] = r.sh.now()
		return e, nil
	}
	e, err := newEngine(userID, r.store, r.sh)
	if err != nil {
		return nil, err
	}
	r.engines[userID] = e
	r.lastUsed[userID] = r.sh.now()
	return e, nil
}

// EvictIdle drops engines not looked up for the idle timeout whose
// feedback queue is empty. Their state lives in the store, so the next
// lookup rebuilds them. Returns how many were dropped.
func (r *Registry) EvictIdle() int {
	cutoff := r.sh.now().Add(-r.idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.engines {
		if r.lastUsed[id].After(cutoff) || e.queue.Len() > 0 {
			continue
		}
		delete(r.engines, id)
		delete(r.lastUsed, id)
		n++
	}
	return n
}

// Users returns the ids of every engine created so far.
func (r *Registry) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.engines))
	for id := range r.engines {
		out = append(out, id)
	}
	return out
}

// Catalog returns the catalog the engines were built from.
func (r *Registry) Catalog() *catalog.Catalog { return r.sh.cat }

// CleanupExpiredChallenges removes every user's uncompleted challenges that
// have expired. The daemon calls it periodically.
func (r *Registry) CleanupExpiredChallenges(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteExpiredChallenges(ctx, r.sh.now())
	if err != nil {
		return 0, storeErr("delete expired challenges", err)
	}
	if n > 0 {
		log.Printf("[gamification] removed %d expired challenges", n)
	}
	return n, nil
}

// Sweep runs CleanupExpiredChallenges and EvictIdle every interval until
// ctx is cancelled.
func (r *Registry) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.CleanupExpiredChallenges(ctx); err != nil {
				log.Printf("[gamification] challenge sweep failed: %v", err)
			}
			if n := r.EvictIdle(); n > 0 {
				log.Printf("[gamification] evicted %d idle engines", n)
			}
		}
	}
}
