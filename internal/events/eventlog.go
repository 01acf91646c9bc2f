// Package events provides the append-only activity log of the engine.
// It is the audit trail behind the friend activity feed.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of an activity event.
type EventType string

const (
	EventTypeSessionCompleted    EventType = "SESSION_COMPLETED"
	EventTypeStreakIncremented   EventType = "STREAK_INCREMENTED"
	EventTypeQuestCompleted      EventType = "QUEST_COMPLETED"
	EventTypeQuestBoardReset     EventType = "QUEST_BOARD_RESET"
	EventTypeQuestBonusGranted   EventType = "QUEST_BONUS_GRANTED"
	EventTypeAchievementUnlocked EventType = "ACHIEVEMENT_UNLOCKED"
	EventTypeCosmeticGranted     EventType = "COSMETIC_GRANTED"
	EventTypeCosmeticEquipped    EventType = "COSMETIC_EQUIPPED"
	EventTypeCosmeticPurchased   EventType = "COSMETIC_PURCHASED"
	EventTypeLootDropped         EventType = "LOOT_DROPPED"
	EventTypeLootNoDrop          EventType = "LOOT_NO_DROP"
	EventTypeStateReconciled     EventType = "STATE_RECONCILED"
	EventTypeSignedOut           EventType = "SIGNED_OUT"
)

// ActivityEvent records one progression action.
type ActivityEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	PlayerID  string         `json:"player_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Persister defines how an event is durably stored.
type Persister interface {
	Append(event ActivityEvent) error
}

// Log is the in-memory append-only activity log.
type Log struct {
	mu        sync.RWMutex
	events    []ActivityEvent
	persister Persister
}

// NewLog creates an activity log with an optional persister.
func NewLog(persister Persister) *Log {
	return &Log{
		events:    make([]ActivityEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (l *Log) Append(event ActivityEvent) {
	if event.ID == "" {
		event.ID = NewEventID()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	if l.persister != nil {
		// Write through to persistent storage; best-effort.
		go func(e ActivityEvent) {
			_ = l.persister.Append(e)
		}(event)
	}
}

// ByPlayer returns all events recorded for a specific player.
func (l *Log) ByPlayer(playerID string) []ActivityEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []ActivityEvent
	for _, e := range l.events {
		if e.PlayerID == playerID {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full history of events.
func (l *Log) Replay() []ActivityEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.events
}

// NewEventID creates a unique event identifier.
func NewEventID() string {
	return uuid.NewString()
}
