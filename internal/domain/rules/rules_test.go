package rules

import (
	"testing"
	"time"

	"github.com/calmloop/glowcore/internal/domain/catalog"
	"github.com/calmloop/glowcore/internal/domain/player"
)

func TestResolveTierThresholds(t *testing.T) {
	odds := OddsTable{Legendary: 0.03, Epic: 0.12, Rare: 0.25, Common: 0.60}

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
		if got := ResolveTier(odds, tc.draw); got != tc.want {
			t.Errorf("ResolveTier(%v) = %s, want %s", tc.draw, got, tc.want)
		}
	}
}

func TestResolveTierBoundaries(t *testing.T) {
	odds := OddsTable{Legendary: 0.03, Epic: 0.12, Rare: 0.25, Common: 0.60}

	// Thresholds are half-open: a draw equal to a boundary falls into
	// the next tier down.
	if got := ResolveTier(odds, 0.03); got != catalog.RarityEpic {
		t.Errorf("draw at legendary boundary resolved to %s, want epic", got)
	}
	if got := ResolveTier(odds, 0.0); got != catalog.RarityLegendary {
		t.Errorf("draw 0 resolved to %s, want legendary", got)
	}
}

func TestEligiblePoolExcludesVaulted(t *testing.T) {
	items := []catalog.Item{
		{ID: "a", Rarity: catalog.RarityEpic},
		{ID: "b", Rarity: catalog.RarityEpic},
		{ID: "c", Rarity: catalog.RarityEpic},
	}
	vaulted := map[string]bool{"b": true}

	pool := EligiblePool(items, vaulted)
	if len(pool) != 2 {
		t.Fatalf("expected pool of 2, got %d", len(pool))
	}
	for _, item := range pool {
		if item.ID == "b" {
			t.Errorf("vaulted item %q leaked into pool", item.ID)
		}
	}
}

func TestMergeSnapshotsStreakPolicy(t *testing.T) {
	local := player.NewState()
	local.Progress = player.Progress{Streak: 5, XP: 100, Tokens: 10}

	remote := player.NewState()
	remote.Progress = player.Progress{Streak: 3, XP: 900, Tokens: 40}
	remote.User.Name = "Remote Name"

	merged := MergeSnapshots(local, remote)
	if merged.Progress.Streak != 5 {
		t.Errorf("local streak 5 vs remote 3: merged %d, want 5", merged.Progress.Streak)
	}
	if merged.Progress.XP != 900 || merged.Progress.Tokens != 40 {
		t.Errorf("non-streak progress should follow remote: got %+v", merged.Progress)
	}
	if merged.User.Name != "Remote Name" {
		t.Errorf("profile should follow remote, got %q", merged.User.Name)
	}

	// Reversed: remote ahead.
	local.Progress.Streak = 2
	remote.Progress.Streak = 9
	merged = MergeSnapshots(local, remote)
	if merged.Progress.Streak != 9 {
		t.Errorf("local streak 2 vs remote 9: merged %d, want 9", merged.Progress.Streak)
	}
}

func TestSameUTCDay(t *testing.T) {
	morning := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	night := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	nextDay := time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC)

	if !SameUTCDay(morning, night) {
		t.Error("same UTC date should match")
	}
	if SameUTCDay(night, nextDay) {
		t.Error("different UTC dates should not match")
	}
}
