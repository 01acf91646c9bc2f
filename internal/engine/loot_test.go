package engine

import (
	"testing"

	"github.com/calmloop/glowcore/internal/domain/catalog"
	"github.com/calmloop/glowcore/internal/domain/rules"
)

// fixedRand replays queued draws.
type fixedRand struct {
	floats []float64
	ints   []int
}

func (r *fixedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *fixedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

var testOdds = rules.OddsTable{Legendary: 0.03, Epic: 0.12, Rare: 0.25, Common: 0.60}

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return cat
}

func TestRollTierResolution(t *testing.T) {
	cases := []struct {
		draw float64
		want catalog.Rarity
	}{
		{0.02, catalog.RarityLegendary},
		{0.10, catalog.RarityEpic},
		{0.50, catalog.RarityRare},
		{0.99, catalog.RarityCommon},
	}

	for _, tc := range cases {
		store, _, _ := newTestStore(t)
		loot := NewLootEngine(loadCatalog(t), &fixedRand{floats: []float64{tc.draw}}, quietLogger(), nil)

		drop, tier := loot.Roll(testOdds, nil, store)
		if tier != tc.want {
			t.Errorf("draw %v resolved tier %s, want %s", tc.draw, tier, tc.want)
		}
		if drop == nil {
			t.Fatalf("draw %v produced no drop with an unvaulted catalog", tc.draw)
		}
		if drop.Item.Rarity != tc.want {
			t.Errorf("draw %v dropped %s-tier item %q, want %s", tc.draw, drop.Item.Rarity, drop.Item.ID, tc.want)
		}
		if !store.State().Cosmetics.Owns(drop.Item.ID) {
			t.Errorf("dropped item %q not granted", drop.Item.ID)
		}
	}
}

func TestRollEmptyPoolYieldsNoDrop(t *testing.T) {
	store, _, _ := newTestStore(t)
	cat := loadCatalog(t)
	loot := NewLootEngine(cat, &fixedRand{floats: []float64{0.02}}, quietLogger(), nil)

	// Vault every legendary item.
	vaulted := make(map[string]bool)
	for _, item := range cat.ByTier(catalog.RarityLegendary) {
		vaulted[item.ID] = true
	}

	drop, tier := loot.Roll(testOdds, vaulted, store)
	if drop != nil {
		t.Errorf("expected no drop, got %q", drop.Item.ID)
	}
	if tier != catalog.RarityLegendary {
		t.Errorf("tier = %s, want legendary", tier)
	}
	if len(store.State().Cosmetics.Owned) != 0 {
		t.Error("no-drop roll still granted an item")
	}
}

func TestRollLegendaryUnlocksAchievement(t *testing.T) {
	store, _, _ := newTestStore(t)
	loot := NewLootEngine(loadCatalog(t), &fixedRand{floats: []float64{0.01}}, quietLogger(), nil)

	loot.Roll(testOdds, nil, store)

	if !store.State().Achievements.Has(rules.FirstLegendaryAchievementID) {
		t.Error("legendary drop did not unlock first_legendary")
	}

	// A second legendary is idempotent on the unlocked set.
	loot2 := NewLootEngine(loadCatalog(t), &fixedRand{floats: []float64{0.01}}, quietLogger(), nil)
	loot2.Roll(testOdds, nil, store)
	if got := len(store.State().Achievements.Unlocked); got != 1 {
		t.Errorf("unlocked set has %d entries, want 1", got)
	}
}

func TestRollDuplicateDropReported(t *testing.T) {
	store, _, _ := newTestStore(t)
	cat := loadCatalog(t)

	// Same draw twice: same item both times.
	first, _ := NewLootEngine(cat, &fixedRand{floats: []float64{0.50}, ints: []int{0}}, quietLogger(), nil).Roll(testOdds, nil, store)
	second, _ := NewLootEngine(cat, &fixedRand{floats: []float64{0.50}, ints: []int{0}}, quietLogger(), nil).Roll(testOdds, nil, store)

	if first == nil || second == nil {
		t.Fatal("expected drops on both rolls")
	}
	if first.AlreadyOwned {
		t.Error("first drop reported as already owned")
	}
	if !second.AlreadyOwned {
		t.Error("duplicate drop not reported as already owned")
	}

	// Ownership is a set: no duplicates.
	count := 0
	for _, id := range store.State().Cosmetics.Owned {
		if id == first.Item.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("item owned %d times, want 1", count)
	}
}
