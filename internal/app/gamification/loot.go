package gamification

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitquest/fitquest/internal/domain"
)

// LootRoller picks chest contents. It is shared by every engine built from
// one catalog, so the random source is guarded.
type LootRoller struct {
	mu     sync.Mutex
	rng    *rand.Rand
	chests []domain.ChestRule
	items  map[domain.Rarity][]domain.LootItem
}

// NewLootRoller indexes the loot table by rarity. seed 0 seeds from the clock.
func NewLootRoller(chests []domain.ChestRule, loot []domain.LootItem, seed int64) *LootRoller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &LootRoller{
		rng:    rand.New(rand.NewSource(seed)),
		chests: append([]domain.ChestRule(nil), chests...),
		items:  make(map[domain.Rarity][]domain.LootItem),
	}
	for _, it := range loot {
		r.items[it.Rarity] = append(r.items[it.Rarity], it)
	}
	return r
}

// ChestFor returns the chest unlocked by a level-up from level `from` to
// level `to`. When a multi-level jump crosses several chest levels, the
// rarest chest wins; one grant never yields more than one chest.
func (r *LootRoller) ChestFor(from, to int) (domain.Rarity, bool) {
	var best domain.Rarity
	found := false
	for _, c := range r.chests {
		if c.Level <= from || c.Level > to {
			continue
		}
		if !found || c.Rarity.Rank() > best.Rank() {
			best = c.Rarity
			found = true
		}
	}
	return best, found
}

// Roll picks a uniformly random item of the given rarity.
func (r *LootRoller) Roll(rarity domain.Rarity) (domain.LootItem, bool) {
	pool := r.items[rarity]
	if len(pool) == 0 {
		return domain.LootItem{}, false
	}
	r.mu.Lock()
	i := r.rng.Intn(len(pool))
	r.mu.Unlock()
	return pool[i], true
}

// Open rolls the chest for a level-up, if any, into an inventory entry.
func (r *LootRoller) Open(userID string, from, to int, now time.Time) *domain.UnlockedLoot {
	rarity, ok := r.ChestFor(from, to)
	if !ok {
		return nil
	}
	item, ok := r.Roll(rarity)
	if !ok {
		return nil
	}
	return &domain.UnlockedLoot{
		ID:         uuid.NewString(),
		UserID:     userID,
		Item:       item,
		Chest:      rarity,
		UnlockedAt: now,
	}
}
