// Package rules contains the pure calculation logic for progression and
// rewards. This package is PURE and must NOT import any infrastructure
// packages.
package rules

import (
	"time"

	"github.com/calmloop/glowcore/internal/domain/catalog"
	"github.com/calmloop/glowcore/internal/domain/player"
)

const (
	// AllQuestsBonusXP is the one-time XP bonus granted when every quest
	// on the daily board is completed.
	AllQuestsBonusXP = 50

	// LongSessionXPThreshold is the XP amount at or above which a session
	// also satisfies the meditate_5 quest.
	LongSessionXPThreshold = 300

	// LongSessionQuestID is the quest satisfied by a long session.
	LongSessionQuestID = "meditate_5"

	// FirstLegendaryAchievementID is unlocked on any legendary drop.
	FirstLegendaryAchievementID = "first_legendary"
)

// OddsTable holds the drop probability of each rarity tier. The values
// are treated as cumulative thresholds and need not sum to exactly 1.
type OddsTable struct {
	Common    float64 `json:"common"`
	Rare      float64 `json:"rare"`
	Epic      float64 `json:"epic"`
	Legendary float64 `json:"legendary"`
}

// DefaultOdds is the hardcoded fallback table used when the remote odds
// config cannot be fetched and no cache exists.
var DefaultOdds = OddsTable{
	Common:    0.60,
	Rare:      0.25,
	Epic:      0.12,
	Legendary: 0.03,
}

// ResolveTier maps a uniform draw r in [0,1) to a rarity tier using
// cumulative thresholds checked in descending rarity order.
func ResolveTier(odds OddsTable, r float64) catalog.Rarity {
	switch {
	case r < odds.Legendary:
		return catalog.RarityLegendary
	case r < odds.Legendary+odds.Epic:
		return catalog.RarityEpic
	case r < odds.Legendary+odds.Epic+odds.Rare:
		return catalog.RarityRare
	default:
		return catalog.RarityCommon
	}
}

// EligiblePool filters the tier's items down to those not vaulted.
func EligiblePool(items []catalog.Item, vaulted map[string]bool) []catalog.Item {
	var pool []catalog.Item
	for _, item := range items {
		if !vaulted[item.ID] {
			pool = append(pool, item)
		}
	}
	return pool
}

// SameUTCDay reports whether two instants fall on the same UTC calendar
// day. The quest board resets when this is false for now vs last reset.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// MergeSnapshots applies the remote reconciliation policy: remote
// replaces local, but the streak takes max(local, remote) so a cloud
// restore never regresses an in-progress local streak. Callers build
// remote by decoding the fetched document over a copy of local state,
// which is what keeps fields the document lacks at their local values.
func MergeSnapshots(local, remote *player.State) *player.State {
	merged := remote.Clone()
	if local.Progress.Streak > merged.Progress.Streak {
		merged.Progress.Streak = local.Progress.Streak
	}
	return merged
}
