// Package player defines the core domain entities for player progression.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package player

import "time"

// Category identifies a cosmetic slot on the avatar. The set is closed.
type Category string

const (
	CategoryOutfit    Category = "outfit"
	CategoryHeadgear  Category = "headgear"
	CategoryAura      Category = "aura"
	CategoryFace      Category = "face"
	CategoryAccessory Category = "accessory"
	CategoryCompanion Category = "companion"
)

// Categories lists every cosmetic slot in display order.
var Categories = []Category{
	CategoryOutfit,
	CategoryHeadgear,
	CategoryAura,
	CategoryFace,
	CategoryAccessory,
	CategoryCompanion,
}

// ValidCategory reports whether c belongs to the closed category set.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Profile holds the onboarding identity of the player. Created empty at
// store init, mutated by onboarding collaborators, reset on sign-out.
//
// JSON tags across this package mirror the mobile client's document schema
// so the remote user document stays byte-compatible.
type Profile struct {
	Name       string `json:"name"`
	Element    string `json:"element"`
	Trait      string `json:"trait"`
	Email      string `json:"email"`
	Motivation string `json:"motivation"`
}

// Progress tracks the meditation progression counters.
// XP and Tokens are monotonically non-decreasing except on explicit
// purchase (tokens) or full reset. Streak is only ever incremented by
// session completion and zeroed by explicit reset logic.
type Progress struct {
	Streak          int       `json:"streak"`
	XP              int       `json:"xp"`
	Tokens          int       `json:"tokens"`
	LastMeditatedAt time.Time `json:"lastMeditatedAt"` // zero value = never meditated
}

// Cosmetics tracks owned and equipped avatar items.
// Invariant: every non-empty id in Equipped is present in Owned.
type Cosmetics struct {
	Owned    []string            `json:"owned"` // set semantics, insertion order preserved
	Equipped map[Category]string `json:"equipped"`
}

// Owns reports whether the item id is in the owned set.
func (c *Cosmetics) Owns(id string) bool {
	for _, owned := range c.Owned {
		if owned == id {
			return true
		}
	}
	return false
}

// Grant adds the item id to the owned set. Returns false if already owned.
func (c *Cosmetics) Grant(id string) bool {
	if c.Owns(id) {
		return false
	}
	c.Owned = append(c.Owned, id)
	return true
}

// Achievements tracks unlocked achievement ids. Monotonically grows.
type Achievements struct {
	Unlocked []string `json:"unlocked"`
}

// Has reports whether the achievement id is unlocked.
func (a *Achievements) Has(id string) bool {
	for _, unlocked := range a.Unlocked {
		if unlocked == id {
			return true
		}
	}
	return false
}

// Unlock inserts the achievement id. Returns false if already unlocked.
func (a *Achievements) Unlock(id string) bool {
	if a.Has(id) {
		return false
	}
	a.Unlocked = append(a.Unlocked, id)
	return true
}

// QuestDefinition describes one daily micro-objective.
type QuestDefinition struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

// Quests holds the daily quest board.
// Invariant: Progress keys are a subset of DailyQuests ids for the
// current day; a reset replaces DailyQuests and clears Progress.
type Quests struct {
	DailyQuests []QuestDefinition `json:"dailyQuests"`
	Progress    map[string]bool   `json:"progress"`
	LastReset   time.Time         `json:"lastReset"`
}

// Completed reports whether the quest id is marked done today.
func (q *Quests) Completed(id string) bool {
	return q.Progress[id]
}

// AllComplete reports whether every quest on today's board is done.
// An empty board is never considered complete.
func (q *Quests) AllComplete() bool {
	if len(q.DailyQuests) == 0 {
		return false
	}
	for _, def := range q.DailyQuests {
		if !q.Progress[def.ID] {
			return false
		}
	}
	return true
}

// FriendSummary is a read-only projection of another player fetched from
// the remote store for display. Never written back.
type FriendSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	XP        int      `json:"xp,omitempty"`
	Level     int      `json:"level,omitempty"`
	Streak    int      `json:"streak,omitempty"`
	Cosmetics []string `json:"cosmetics,omitempty"`
}

// State is the aggregate game state owned by the engine store. Mutated
// exclusively through named store operations, never by field writes from
// callers.
type State struct {
	User                    Profile         `json:"user"`
	Friends                 []FriendSummary `json:"friends"`
	Progress                Progress        `json:"progress"`
	Cosmetics               Cosmetics       `json:"cosmetics"`
	Achievements            Achievements    `json:"achievements"`
	Quests                  Quests          `json:"quests"`
	FirstMeditationRewarded bool            `json:"firstMeditationRewarded"`
	LowPowerMode            bool            `json:"lowPowerMode"`
}

// NewState creates the aggregate with hardcoded defaults, before any
// local snapshot or remote merge is applied.
func NewState() *State {
	return &State{
		Friends: []FriendSummary{},
		Cosmetics: Cosmetics{
			Owned:    []string{},
			Equipped: make(map[Category]string),
		},
		Achievements: Achievements{Unlocked: []string{}},
		Quests: Quests{
			DailyQuests: []QuestDefinition{},
			Progress:    make(map[string]bool),
		},
	}
}

// Clone returns a deep copy of the state, safe to hand to asynchronous
// persistence while the original keeps mutating.
func (s *State) Clone() *State {
	out := *s

	out.Friends = append([]FriendSummary(nil), s.Friends...)
	for i := range out.Friends {
		out.Friends[i].Cosmetics = append([]string(nil), s.Friends[i].Cosmetics...)
	}
	out.Cosmetics.Owned = append([]string(nil), s.Cosmetics.Owned...)
	out.Cosmetics.Equipped = make(map[Category]string, len(s.Cosmetics.Equipped))
	for cat, id := range s.Cosmetics.Equipped {
		out.Cosmetics.Equipped[cat] = id
	}
	out.Achievements.Unlocked = append([]string(nil), s.Achievements.Unlocked...)
	out.Quests.DailyQuests = append([]QuestDefinition(nil), s.Quests.DailyQuests...)
	out.Quests.Progress = make(map[string]bool, len(s.Quests.Progress))
	for id, done := range s.Quests.Progress {
		out.Quests.Progress[id] = done
	}

	return &out
}
