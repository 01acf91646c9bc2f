package engine

import (
	"fmt"

	"github.com/calmloop/glowcore/internal/domain/catalog"
	"github.com/calmloop/glowcore/internal/domain/rules"
	"github.com/calmloop/glowcore/internal/events"
	"github.com/calmloop/glowcore/internal/platform/logger"
	"github.com/calmloop/glowcore/internal/platform/metrics"
)

// RandSource supplies the randomness for loot rolls. *math/rand.Rand
// satisfies it; tests inject fixed draws.
type RandSource interface {
	// Float64 returns a uniform value in [0,1).
	Float64() float64
	// Intn returns a uniform value in [0,n).
	Intn(n int) int
}

// Granter is the slice of the store the loot engine mutates.
type Granter interface {
	GrantCosmetic(id string) bool
	UnlockAchievement(id string) bool
}

// Drop is the outcome of a successful loot roll. The drop is reported
// even when the item was already owned; the ownership set just does not
// change.
type Drop struct {
	Item         catalog.Item
	Tier         catalog.Rarity
	AlreadyOwned bool
}

// LootEngine resolves probabilistic cosmetic drops against an odds table
// and the vaulted exclusion set.
type LootEngine struct {
	catalog *catalog.Catalog
	rand    RandSource
	log     *logger.Logger
	stats   *metrics.Collector
}

// NewLootEngine creates a loot engine. stats may be nil.
func NewLootEngine(cat *catalog.Catalog, rand RandSource, log *logger.Logger, stats *metrics.Collector) *LootEngine {
	return &LootEngine{catalog: cat, rand: rand, log: log, stats: stats}
}

// Roll resolves one drop: draw a tier by cumulative thresholds, build
// the eligible pool of that tier minus vaulted items, then pick one item
// uniformly and grant it through g. An empty pool yields (nil, tier):
// an explicit no-drop, never a failure. A legendary tier always
// attempts the first_legendary achievement, drop or not.
func (e *LootEngine) Roll(odds rules.OddsTable, vaulted map[string]bool, g Granter) (*Drop, catalog.Rarity) {
	if e.stats != nil {
		e.stats.LootRolls.Inc()
	}

	tier := rules.ResolveTier(odds, e.rand.Float64())
	if tier == catalog.RarityLegendary {
		g.UnlockAchievement(rules.FirstLegendaryAchievementID)
	}

	pool := rules.EligiblePool(e.catalog.ByTier(tier), vaulted)
	if len(pool) == 0 {
		if e.stats != nil {
			e.stats.LootNoDrops.Inc()
		}
		e.log.Event(string(events.EventTypeLootNoDrop), "", "tier="+string(tier))
		return nil, tier
	}

	item := pool[e.rand.Intn(len(pool))]
	alreadyOwned := !g.GrantCosmetic(item.ID)

	e.log.Event(string(events.EventTypeLootDropped), "",
		fmt.Sprintf("tier=%s item=%s owned=%t", tier, item.ID, alreadyOwned))

	return &Drop{Item: item, Tier: tier, AlreadyOwned: alreadyOwned}, tier
}
