// Package storage provides the persistence layer for the engine and the
// sync server. This package implements the repository pattern to keep the
// domain pure.
package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for the persistence layer. Callers match with
// errors.Is; the engine logs and swallows both.
var (
	ErrStorageWrite = errors.New("storage write failed")
	ErrStorageRead  = errors.New("storage read failed")
)

// Keys used by the engine's blob store.
const (
	KeyGameState       = "game_state"
	KeyOddsConfigCache = "odds_config_cache"
)

// BlobStore is the local key-value persistence adapter. Values are
// JSON-serializable blobs.
type BlobStore interface {
	// Save stores the blob under key, overwriting any previous value.
	Save(ctx context.Context, key string, value []byte) error

	// Load returns the blob stored under key, or (nil, nil) when the key
	// has never been written.
	Load(ctx context.Context, key string) ([]byte, error)
}

// Document is one user document held by the sync server.
type Document struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Body       []byte    `json:"body"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentRepository is the server-side document store behind glow-syncd.
type DocumentRepository interface {
	// Get returns the document, or nil when it does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Merge shallow-merges the partial JSON body into the stored
	// document, creating it if absent.
	Merge(ctx context.Context, collection, id string, partial []byte) error

	// Put replaces the document body outright.
	Put(ctx context.Context, collection, id string, body []byte) error

	// List returns every document in the collection.
	List(ctx context.Context, collection string) ([]Document, error)
}

// ActivityRecord mirrors an activity event for persistence.
type ActivityRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	PlayerID  string    `json:"player_id"`
	Payload   []byte    `json:"payload"`
}

// ActivityRepository persists the append-only activity log.
type ActivityRepository interface {
	Append(ctx context.Context, record ActivityRecord) error
	ByPlayer(ctx context.Context, playerID string) ([]ActivityRecord, error)
}
