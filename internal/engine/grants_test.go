package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/calmloop/glowcore/internal/domain/catalog"
	"github.com/calmloop/glowcore/internal/domain/player"
	"github.com/calmloop/glowcore/internal/infra/remote"
)

// stubConfig returns a fixed odds config or error.
type stubConfig struct {
	config remote.OddsConfig
	err    error
}

func (s stubConfig) OddsConfig(context.Context, bool) (remote.OddsConfig, error) {
	return s.config, s.err
}

func TestOpenGlowbagFallsBackToDefaultOdds(t *testing.T) {
	store, _, _ := newTestStore(t)
	cat := loadCatalog(t)
	loot := NewLootEngine(cat, &fixedRand{floats: []float64{0.99}}, quietLogger(), nil)

	service := NewGrantService(store, cat, loot, stubConfig{err: remote.ErrConfigUnavailable}, quietLogger())

	drop, err := service.OpenGlowbag(context.Background())
	if err != nil {
		t.Fatalf("OpenGlowbag with unavailable config: %v", err)
	}
	if drop == nil {
		t.Fatal("expected a drop under default odds")
	}
	if drop.Tier != catalog.RarityCommon {
		t.Errorf("draw 0.99 under default odds resolved %s, want common", drop.Tier)
	}
}

func TestOpenGlowbagHonorsRemoteVault(t *testing.T) {
	store, _, _ := newTestStore(t)
	cat := loadCatalog(t)

	// Vault every epic item remotely; an epic draw must yield no drop.
	var vaulted []string
	for _, item := range cat.ByTier(catalog.RarityEpic) {
		vaulted = append(vaulted, item.ID)
	}
	config := stubConfig{config: remote.OddsConfig{Odds: testOdds, Vaulted: vaulted}}

	loot := NewLootEngine(cat, &fixedRand{floats: []float64{0.10}}, quietLogger(), nil)
	service := NewGrantService(store, cat, loot, config, quietLogger())

	drop, err := service.OpenGlowbag(context.Background())
	if err != nil {
		t.Fatalf("OpenGlowbag: %v", err)
	}
	if drop != nil {
		t.Errorf("vaulted tier still dropped %q", drop.Item.ID)
	}
}

func TestGrantValidatesCatalog(t *testing.T) {
	store, _, _ := newTestStore(t)
	cat := loadCatalog(t)
	service := NewGrantService(store, cat, nil, stubConfig{}, quietLogger())

	if _, _, err := service.Grant("nonexistent_item"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}

	item, newly, err := service.Grant("koi_spirit")
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if !newly || item.ID != "koi_spirit" {
		t.Errorf("grant result = (%v, %v)", item.ID, newly)
	}

	// Second grant is idempotent.
	_, newly, err = service.Grant("koi_spirit")
	if err != nil {
		t.Fatalf("repeat Grant: %v", err)
	}
	if newly {
		t.Error("repeat grant reported as new")
	}
}

func TestEquipChecksCategoryAgainstCatalog(t *testing.T) {
	store, _, _ := newTestStore(t)
	cat := loadCatalog(t)
	service := NewGrantService(store, cat, nil, stubConfig{}, quietLogger())

	if _, _, err := service.Grant("koi_spirit"); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	// koi_spirit is a companion; the headgear slot must reject it.
	if err := service.Equip(player.CategoryHeadgear, "koi_spirit"); !errors.Is(err, ErrCategoryMismatch) {
		t.Fatalf("expected ErrCategoryMismatch, got %v", err)
	}
	if err := service.Equip(player.CategoryCompanion, "nonexistent_item"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}

	if err := service.Equip(player.CategoryCompanion, "koi_spirit"); err != nil {
		t.Fatalf("Equip: %v", err)
	}
	if got := store.State().Cosmetics.Equipped[player.CategoryCompanion]; got != "koi_spirit" {
		t.Errorf("companion slot = %q, want koi_spirit", got)
	}

	// Empty id clears the slot without a catalog lookup.
	if err := service.Equip(player.CategoryCompanion, ""); err != nil {
		t.Fatalf("unequip: %v", err)
	}
	if got := store.State().Cosmetics.Equipped[player.CategoryCompanion]; got != "" {
		t.Errorf("companion slot = %q after unequip", got)
	}
}

func TestPurchaseUsesCatalogPrice(t *testing.T) {
	store, _, _ := newTestStore(t)
	cat := loadCatalog(t)
	service := NewGrantService(store, cat, nil, stubConfig{}, quietLogger())

	if err := service.Purchase("nonexistent_item"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}

	store.AddTokens(500)
	if err := service.Purchase("singing_bowl"); err != nil {
		t.Fatalf("Purchase: %v", err)
	}

	state := store.State()
	item, _ := cat.ByID("singing_bowl")
	if state.Progress.Tokens != 500-item.Price {
		t.Errorf("tokens = %d, want %d", state.Progress.Tokens, 500-item.Price)
	}
}
