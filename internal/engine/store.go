// Package engine owns the mutable game state and the reward economy.
// The Store is the sole writable owner of player progression; every
// read elsewhere is a projection, every write goes through a named
// operation here.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/calmloop/glowcore/internal/domain/catalog"
	"github.com/calmloop/glowcore/internal/domain/player"
	"github.com/calmloop/glowcore/internal/domain/rules"
	"github.com/calmloop/glowcore/internal/events"
	"github.com/calmloop/glowcore/internal/infra/identity"
	"github.com/calmloop/glowcore/internal/infra/remote"
	"github.com/calmloop/glowcore/internal/infra/storage"
	"github.com/calmloop/glowcore/internal/platform/logger"
	"github.com/calmloop/glowcore/internal/platform/metrics"
)

// DefaultDebounceWindow is the coalescing delay before a snapshot write
// fires after the last mutation.
const DefaultDebounceWindow = 5 * time.Second

// RemotePusher is the write half of the remote document store. Pushes
// are best-effort; a failed push never affects the mutation that
// triggered it.
type RemotePusher interface {
	SetDocument(ctx context.Context, collection, id string, partial any, merge bool) error
}

// SyncResult is the explicit outcome of one asynchronous state push.
// Consumers log it; they never act on it.
type SyncResult struct {
	OK  bool
	Err error
}

// StoreDeps wires the store's collaborators. Blobs and Log are
// required; everything else degrades gracefully when nil.
type StoreDeps struct {
	Blobs          storage.BlobStore
	Remote         RemotePusher
	Identity       identity.Provider
	Activity       *events.Log
	Log            *logger.Logger
	Stats          *metrics.Collector
	DebounceWindow time.Duration
	Now            func() time.Time
}

// Store holds the aggregate game state and applies invariant-preserving
// transitions. All mutations are synchronous; asynchronous I/O happens
// only at the edges (debounced persistence, fire-and-forget push).
type Store struct {
	mu    sync.Mutex
	state *player.State

	blobs    storage.BlobStore
	remote   RemotePusher
	identity identity.Provider
	activity *events.Log
	log      *logger.Logger
	stats    *metrics.Collector
	now      func() time.Time

	debouncer *Debouncer
}

// NewStore creates a store with hardcoded default state. Call Hydrate to
// overlay a locally persisted snapshot.
func NewStore(deps StoreDeps) *Store {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.DebounceWindow <= 0 {
		deps.DebounceWindow = DefaultDebounceWindow
	}

	s := &Store{
		state:    player.NewState(),
		blobs:    deps.Blobs,
		remote:   deps.Remote,
		identity: deps.Identity,
		activity: deps.Activity,
		log:      deps.Log,
		stats:    deps.Stats,
		now:      deps.Now,
	}
	s.debouncer = NewDebouncer(deps.DebounceWindow, s.persistAndPush)
	return s
}

// State returns a deep copy of the current aggregate for projection.
func (s *Store) State() *player.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Hydrate overlays the locally persisted snapshot, if one exists. A
// missing or unreadable snapshot leaves the defaults in place.
func (s *Store) Hydrate(ctx context.Context) error {
	blob, err := s.blobs.Load(ctx, storage.KeyGameState)
	if err != nil {
		return fmt.Errorf("hydrate game state: %w", err)
	}
	if blob == nil {
		return nil
	}

	var snapshot player.State
	if err := json.Unmarshal(blob, &snapshot); err != nil {
		return fmt.Errorf("hydrate game state: %w", err)
	}

	s.mu.Lock()
	s.state = normalize(&snapshot)
	s.mu.Unlock()
	return nil
}

// AddXP increases XP by amount and stamps the meditation time. A long
// session (amount >= threshold) also satisfies the meditate_5 quest, but
// never grants the quest board's completion bonus; that is CompleteQuest's
// job.
func (s *Store) AddXP(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative xp amount %d", ErrInvalidArgument, amount)
	}

	s.mu.Lock()
	now := s.now()
	s.state.Progress.XP += amount
	s.state.Progress.LastMeditatedAt = now
	if amount >= rules.LongSessionXPThreshold {
		s.markQuestLocked(rules.LongSessionQuestID)
	}
	s.mu.Unlock()

	s.record(events.EventTypeSessionCompleted, map[string]any{"xp": amount})
	s.dirty()
	return nil
}

// IncrementStreak bumps the consecutive-day counter and stamps the
// meditation time. There is no same-day guard here: day accounting
// belongs to the session scheduler, not the store.
func (s *Store) IncrementStreak() {
	s.mu.Lock()
	s.state.Progress.Streak++
	s.state.Progress.LastMeditatedAt = s.now()
	streak := s.state.Progress.Streak
	s.mu.Unlock()

	s.record(events.EventTypeStreakIncremented, map[string]any{"streak": streak})
	s.dirty()
}

// ResetQuests replaces the daily board with the full quest catalog and
// clears all progress. The store always replaces; the once-per-UTC-day
// gate is MaybeResetQuests.
func (s *Store) ResetQuests() {
	s.mu.Lock()
	s.state.Quests.DailyQuests = catalog.DailyQuests()
	s.state.Quests.Progress = make(map[string]bool)
	s.state.Quests.LastReset = s.now()
	s.mu.Unlock()

	s.record(events.EventTypeQuestBoardReset, nil)
	s.dirty()
}

// MaybeResetQuests resets the board only when the current UTC date
// differs from the last reset's. Idempotent within a day, so repeated
// app launches are safe.
func (s *Store) MaybeResetQuests() bool {
	s.mu.Lock()
	lastReset := s.state.Quests.LastReset
	now := s.now()
	s.mu.Unlock()

	if !lastReset.IsZero() && rules.SameUTCDay(now, lastReset) {
		return false
	}
	s.ResetQuests()
	return true
}

// CompleteQuest marks one quest done. Idempotent: completing an
// already-complete quest changes nothing and can never re-grant the
// all-complete bonus. The transition to a fully complete board grants
// +50 XP and the bonus cosmetic exactly once.
func (s *Store) CompleteQuest(id string) error {
	s.mu.Lock()

	known := false
	for _, def := range s.state.Quests.DailyQuests {
		if def.ID == id {
			known = true
			break
		}
	}
	if !known {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownQuest, id)
	}

	if s.state.Quests.Completed(id) {
		s.mu.Unlock()
		return nil
	}

	s.state.Quests.Progress[id] = true
	bonus := s.state.Quests.AllComplete()
	if bonus {
		s.state.Progress.XP += rules.AllQuestsBonusXP
		s.state.Cosmetics.Grant(catalog.QuestBonusItemID)
	}
	s.mu.Unlock()

	s.record(events.EventTypeQuestCompleted, map[string]any{"quest": id})
	if bonus {
		s.record(events.EventTypeQuestBonusGranted, map[string]any{
			"xp":   rules.AllQuestsBonusXP,
			"item": catalog.QuestBonusItemID,
		})
	}
	s.dirty()
	return nil
}

// UnlockAchievement inserts the achievement id. Returns true on first
// unlock, false when already held.
func (s *Store) UnlockAchievement(id string) bool {
	s.mu.Lock()
	unlocked := s.state.Achievements.Unlock(id)
	s.mu.Unlock()

	if !unlocked {
		return false
	}
	s.record(events.EventTypeAchievementUnlocked, map[string]any{"achievement": id})
	s.dirty()
	return true
}

// GrantCosmetic adds the item id to the owned set. Returns true when
// newly granted, false when already owned. No catalog check here: the
// grant service validates ids before calling.
func (s *Store) GrantCosmetic(id string) bool {
	s.mu.Lock()
	granted := s.state.Cosmetics.Grant(id)
	s.mu.Unlock()

	if !granted {
		return false
	}
	s.record(events.EventTypeCosmeticGranted, map[string]any{"item": id})
	s.dirty()
	return true
}

// Equip places an owned item into its category slot. An empty id clears
// the slot. Equipping a non-owned id is rejected, which keeps the
// equipped map from ever referencing an item outside the owned set.
func (s *Store) Equip(category player.Category, id string) error {
	if !player.ValidCategory(category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	s.mu.Lock()
	if id != "" && !s.state.Cosmetics.Owns(id) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotOwned, id)
	}
	s.state.Cosmetics.Equipped[category] = id
	s.mu.Unlock()

	s.record(events.EventTypeCosmeticEquipped, map[string]any{"category": string(category), "item": id})
	s.dirty()
	return nil
}

// Purchase deducts price tokens and grants ownership of the item.
// Already-owned items cannot be bought twice.
func (s *Store) Purchase(id string, price int) error {
	if price < 0 {
		return fmt.Errorf("%w: negative price %d", ErrInvalidArgument, price)
	}

	s.mu.Lock()
	if s.state.Cosmetics.Owns(id) {
		s.mu.Unlock()
		return nil
	}
	if s.state.Progress.Tokens < price {
		s.mu.Unlock()
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientTokens, s.state.Progress.Tokens, price)
	}
	s.state.Progress.Tokens -= price
	s.state.Cosmetics.Grant(id)
	s.mu.Unlock()

	s.record(events.EventTypeCosmeticPurchased, map[string]any{"item": id, "price": price})
	s.dirty()
	return nil
}

// AddTokens increases the token balance.
func (s *Store) AddTokens(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative token amount %d", ErrInvalidArgument, amount)
	}

	s.mu.Lock()
	s.state.Progress.Tokens += amount
	s.mu.Unlock()

	s.dirty()
	return nil
}

// SetProfile overwrites the onboarding profile. Used by the onboarding
// collaborators; never partial.
func (s *Store) SetProfile(profile player.Profile) {
	s.mu.Lock()
	s.state.User = profile
	s.mu.Unlock()
	s.dirty()
}

// MarkFirstMeditationRewarded flips the one-time first-session flag.
func (s *Store) MarkFirstMeditationRewarded() {
	s.mu.Lock()
	s.state.FirstMeditationRewarded = true
	s.mu.Unlock()
	s.dirty()
}

// ReplaceState atomically overwrites the aggregate. Used by remote
// reconciliation; rehydration goes through Hydrate.
func (s *Store) ReplaceState(next *player.State) {
	s.mu.Lock()
	s.state = normalize(next.Clone())
	s.mu.Unlock()
	s.dirty()
}

// MergeRemote applies the reconciliation policy against the current
// local state: remote shallow-overwrites everything except the streak,
// which takes the larger of the two.
func (s *Store) MergeRemote(remoteState *player.State) {
	s.mu.Lock()
	s.state = normalize(rules.MergeSnapshots(s.state, remoteState))
	s.mu.Unlock()

	s.record(events.EventTypeStateReconciled, nil)
	s.dirty()
}

// MergeRemoteDocument decodes the raw remote document over a copy of
// the current state, then applies the merge policy. Top-level fields
// the document does not carry keep their local values, so a
// field-sparse document from an older client can never wipe local
// progress.
func (s *Store) MergeRemoteDocument(raw []byte) error {
	overlay := s.State()
	if err := json.Unmarshal(raw, overlay); err != nil {
		return err
	}
	s.MergeRemote(overlay)
	return nil
}

// Reset returns the aggregate to hardcoded defaults. Called on
// sign-out; the debounced write persists the cleared state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = player.NewState()
	s.mu.Unlock()

	s.record(events.EventTypeSignedOut, nil)
	s.dirty()
}

// SyncNow persists the snapshot and pushes it remotely, surfacing both
// outcomes. Unlike the debounced path this is caller initiated, so a
// missing session is an error rather than a silent skip.
func (s *Store) SyncNow(ctx context.Context) error {
	if s.identity == nil || s.identity.CurrentID() == "" {
		return remote.ErrAuthSession
	}

	snapshot := s.State()
	blob, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("serialize game state: %w", err)
	}
	if err := s.blobs.Save(ctx, storage.KeyGameState, blob); err != nil {
		return err
	}
	if s.stats != nil {
		s.stats.SnapshotWrites.Inc()
	}

	if result := s.pushRemote(ctx, snapshot); result.Err != nil {
		return result.Err
	}
	return nil
}

// Flush forces any pending debounced write. Call on shutdown.
func (s *Store) Flush() {
	s.debouncer.Flush()
}

// Close stops the debouncer after flushing pending work.
func (s *Store) Close() {
	s.debouncer.Flush()
	s.debouncer.Stop()
}

// markQuestLocked marks a quest done without bonus side effects.
// Caller holds s.mu.
func (s *Store) markQuestLocked(id string) {
	for _, def := range s.state.Quests.DailyQuests {
		if def.ID == id {
			if s.state.Quests.Progress == nil {
				s.state.Quests.Progress = make(map[string]bool)
			}
			s.state.Quests.Progress[id] = true
			return
		}
	}
}

// dirty schedules the debounced persistence write.
func (s *Store) dirty() {
	s.debouncer.Trigger()
}

// persistAndPush is the debounced action: write the local snapshot, then
// push the projection remotely when an identity is present. Failures on
// either leg are logged and swallowed; in-memory state is already the
// source of truth for the running session.
func (s *Store) persistAndPush() {
	snapshot := s.State()

	blob, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Error("failed to serialize game state: " + err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.blobs.Save(ctx, storage.KeyGameState, blob); err != nil {
		if s.stats != nil {
			s.stats.SnapshotWriteErrors.Inc()
		}
		s.log.Error("failed to persist game state: " + err.Error())
	} else if s.stats != nil {
		s.stats.SnapshotWrites.Inc()
	}

	if result := s.pushRemote(ctx, snapshot); !result.OK && result.Err != nil {
		s.log.Warn("remote state push failed: " + result.Err.Error())
	}
}

// pushRemote sends the serializable projection to the remote document
// keyed by the signed-in identity. Best-effort, never retried inline.
func (s *Store) pushRemote(ctx context.Context, snapshot *player.State) SyncResult {
	if s.remote == nil || s.identity == nil {
		return SyncResult{OK: true}
	}
	playerID := s.identity.CurrentID()
	if playerID == "" {
		return SyncResult{OK: true}
	}

	if s.stats != nil {
		s.stats.RemotePushes.Inc()
	}
	if err := s.remote.SetDocument(ctx, remote.CollectionUsers, playerID, snapshot, true); err != nil {
		if s.stats != nil {
			s.stats.RemotePushErrors.Inc()
		}
		return SyncResult{Err: err}
	}
	return SyncResult{OK: true}
}

// record appends to the activity log when one is wired.
func (s *Store) record(eventType events.EventType, payload map[string]any) {
	if s.activity == nil {
		return
	}
	playerID := ""
	if s.identity != nil {
		playerID = s.identity.CurrentID()
	}
	s.activity.Append(events.ActivityEvent{
		Timestamp: s.now(),
		Type:      eventType,
		PlayerID:  playerID,
		Payload:   payload,
	})
}

// normalize repairs nil maps and slices after deserialization or merge
// so invariant checks never trip over a missing container.
func normalize(state *player.State) *player.State {
	if state.Friends == nil {
		state.Friends = []player.FriendSummary{}
	}
	if state.Cosmetics.Owned == nil {
		state.Cosmetics.Owned = []string{}
	}
	if state.Cosmetics.Equipped == nil {
		state.Cosmetics.Equipped = make(map[player.Category]string)
	}
	if state.Achievements.Unlocked == nil {
		state.Achievements.Unlocked = []string{}
	}
	if state.Quests.DailyQuests == nil {
		state.Quests.DailyQuests = []player.QuestDefinition{}
	}
	if state.Quests.Progress == nil {
		state.Quests.Progress = make(map[string]bool)
	}
	return state
}
