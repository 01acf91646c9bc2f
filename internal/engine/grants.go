package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/calmloop/glowcore/internal/domain/catalog"
	"github.com/calmloop/glowcore/internal/domain/player"
	"github.com/calmloop/glowcore/internal/domain/rules"
	"github.com/calmloop/glowcore/internal/infra/remote"
	"github.com/calmloop/glowcore/internal/platform/logger"
)

// ConfigSource supplies the remotely configured odds table.
type ConfigSource interface {
	OddsConfig(ctx context.Context, forceRefresh bool) (remote.OddsConfig, error)
}

// GrantService orchestrates cosmetic ownership: catalog lookups,
// idempotent grants into the store, purchases, and glowbag rolls
// through the loot engine.
type GrantService struct {
	store   *Store
	catalog *catalog.Catalog
	loot    *LootEngine
	config  ConfigSource
	log     *logger.Logger
}

// NewGrantService wires the grant orchestration layer.
func NewGrantService(store *Store, cat *catalog.Catalog, loot *LootEngine, config ConfigSource, log *logger.Logger) *GrantService {
	return &GrantService{store: store, catalog: cat, loot: loot, config: config, log: log}
}

// Grant gives the player ownership of a catalog item. Returns the item
// and whether it was newly granted. Unknown ids are rejected.
func (g *GrantService) Grant(id string) (catalog.Item, bool, error) {
	item, ok := g.catalog.ByID(id)
	if !ok {
		return catalog.Item{}, false, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	newly := g.store.GrantCosmetic(id)
	return item, newly, nil
}

// Equip validates the item against the catalog before delegating to the
// store: it must exist and belong to the requested slot. An empty id
// clears the slot without a lookup.
func (g *GrantService) Equip(category player.Category, id string) error {
	if id == "" {
		return g.store.Equip(category, "")
	}
	item, ok := g.catalog.ByID(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	if item.Category != category {
		return fmt.Errorf("%w: %q belongs to %s", ErrCategoryMismatch, id, item.Category)
	}
	return g.store.Equip(category, id)
}

// Purchase buys a catalog item with tokens at its listed price.
func (g *GrantService) Purchase(id string) error {
	item, ok := g.catalog.ByID(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	return g.store.Purchase(item.ID, item.Price)
}

// OpenGlowbag resolves one loot drop under the current remote odds
// config. When the config is unavailable the hardcoded default table is
// substituted, so the reward flow never blocks on the network.
func (g *GrantService) OpenGlowbag(ctx context.Context) (*Drop, error) {
	odds, vaulted := g.currentOdds(ctx)
	drop, _ := g.loot.Roll(odds, vaulted, g.store)
	return drop, nil
}

func (g *GrantService) currentOdds(ctx context.Context) (rules.OddsTable, map[string]bool) {
	config, err := g.config.OddsConfig(ctx, false)
	if err != nil {
		if !errors.Is(err, remote.ErrConfigUnavailable) {
			g.log.Warn("odds config lookup failed: " + err.Error())
		}
		g.log.Info("using default odds table")
		return rules.DefaultOdds, map[string]bool{}
	}
	return config.Odds, config.VaultedSet()
}
