// Package catalog loads the static cosmetic item catalog and the daily
// quest definitions bundled with the app. Nothing here is fetched at
// runtime.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/calmloop/glowcore/internal/domain/player"
)

// Rarity is the drop tier of a cosmetic item.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Item is one cosmetic catalog record.
type Item struct {
	ID        string          `json:"id"`
	Category  player.Category `json:"category"`
	Rarity    Rarity          `json:"rarity"`
	Price     int             `json:"price"`
	Image     string          `json:"image"`
	IsNew     bool            `json:"isNew,omitempty"`
	Vaultable bool            `json:"vaultable,omitempty"` // eligible for remote vaulting
}

//go:embed data/cosmetics.json
var cosmeticsJSON []byte

// Catalog is an indexed view over the static item records.
type Catalog struct {
	items  []Item
	byID   map[string]Item
	byTier map[Rarity][]Item
}

// Load parses the embedded cosmetics data into an indexed catalog.
func Load() (*Catalog, error) {
	var items []Item
	if err := json.Unmarshal(cosmeticsJSON, &items); err != nil {
		return nil, fmt.Errorf("parse embedded cosmetics catalog: %w", err)
	}

	c := &Catalog{
		items:  items,
		byID:   make(map[string]Item, len(items)),
		byTier: make(map[Rarity][]Item),
	}
	for _, item := range items {
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog item id %q", item.ID)
		}
		if !player.ValidCategory(item.Category) {
			return nil, fmt.Errorf("catalog item %q has unknown category %q", item.ID, item.Category)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("catalog item %q has negative price", item.ID)
		}
		c.byID[item.ID] = item
		c.byTier[item.Rarity] = append(c.byTier[item.Rarity], item)
	}
	return c, nil
}

// Items returns all catalog records in bundle order.
func (c *Catalog) Items() []Item {
	return c.items
}

// ByID looks up one item. The second return is false for unknown ids.
func (c *Catalog) ByID(id string) (Item, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// ByTier returns all items of the given rarity in bundle order.
func (c *Catalog) ByTier(tier Rarity) []Item {
	return c.byTier[tier]
}

// QuestBonusItemID is the fixed cosmetic granted once when all daily
// quests are completed.
const QuestBonusItemID = "lotus_crown"

// DailyQuests returns the full quest board used by every daily reset.
func DailyQuests() []player.QuestDefinition {
	return []player.QuestDefinition{
		{ID: "meditate_5", Title: "Meditate for 5 minutes", Icon: "timer"},
		{ID: "try_breathwork", Title: "Complete a breathwork exercise", Icon: "wind"},
		{ID: "visit_friend", Title: "Visit a friend's garden", Icon: "users"},
	}
}
