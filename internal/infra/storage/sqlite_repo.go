package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteBlobStore implements BlobStore on the blobs table.
type SQLiteBlobStore struct {
	db *sql.DB
}

func NewSQLiteBlobStore(db *sql.DB) *SQLiteBlobStore {
	return &SQLiteBlobStore{db: db}
}

func (s *SQLiteBlobStore) Save(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO blobs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: save %q: %v", ErrStorageWrite, key, err)
	}
	return nil
}

func (s *SQLiteBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %q: %v", ErrStorageRead, key, err)
	}
	return []byte(value), nil
}

// ---------------------------------------------------------
// SQLiteDocumentRepository
// ---------------------------------------------------------

// SQLiteDocumentRepository implements DocumentRepository on the
// documents table.
type SQLiteDocumentRepository struct {
	db *sql.DB
}

func NewSQLiteDocumentRepository(db *sql.DB) *SQLiteDocumentRepository {
	return &SQLiteDocumentRepository{db: db}
}

func (r *SQLiteDocumentRepository) Get(ctx context.Context, collection, id string) (*Document, error) {
	var doc Document
	var body string
	err := r.db.QueryRowContext(ctx,
		`SELECT collection, id, body, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&doc.Collection, &doc.ID, &body, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get document %s/%s: %v", ErrStorageRead, collection, id, err)
	}
	doc.Body = []byte(body)
	return &doc, nil
}

// Merge shallow-merges partial into the stored body: top-level keys of
// the partial overwrite the stored document's keys.
func (r *SQLiteDocumentRepository) Merge(ctx context.Context, collection, id string, partial []byte) error {
	var incoming map[string]json.RawMessage
	if err := json.Unmarshal(partial, &incoming); err != nil {
		return fmt.Errorf("%w: merge document %s/%s: invalid body: %v", ErrStorageWrite, collection, id, err)
	}

	existing, err := r.Get(ctx, collection, id)
	if err != nil {
		return err
	}

	merged := make(map[string]json.RawMessage)
	if existing != nil {
		if err := json.Unmarshal(existing.Body, &merged); err != nil {
			// Stored body is corrupt; replace it outright.
			merged = make(map[string]json.RawMessage)
		}
	}
	for key, value := range incoming {
		merged[key] = value
	}

	body, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("%w: merge document %s/%s: %v", ErrStorageWrite, collection, id, err)
	}

	query := `
		INSERT INTO documents (collection, id, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, collection, id, string(body), time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: merge document %s/%s: %v", ErrStorageWrite, collection, id, err)
	}
	return nil
}

// Put replaces the stored body outright.
func (r *SQLiteDocumentRepository) Put(ctx context.Context, collection, id string, body []byte) error {
	if !json.Valid(body) {
		return fmt.Errorf("%w: put document %s/%s: invalid body", ErrStorageWrite, collection, id)
	}
	query := `
		INSERT INTO documents (collection, id, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, collection, id, string(body), time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: put document %s/%s: %v", ErrStorageWrite, collection, id, err)
	}
	return nil
}

func (r *SQLiteDocumentRepository) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT collection, id, body, updated_at FROM documents WHERE collection = ? ORDER BY id ASC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list collection %q: %v", ErrStorageRead, collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var body string
		if err := rows.Scan(&doc.Collection, &doc.ID, &body, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: list collection %q: %v", ErrStorageRead, collection, err)
		}
		doc.Body = []byte(body)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ---------------------------------------------------------
// SQLiteActivityRepository
// ---------------------------------------------------------

// SQLiteActivityRepository implements ActivityRepository on the
// activity_events table.
type SQLiteActivityRepository struct {
	db *sql.DB
}

func NewSQLiteActivityRepository(db *sql.DB) *SQLiteActivityRepository {
	return &SQLiteActivityRepository{db: db}
}

func (r *SQLiteActivityRepository) Append(ctx context.Context, record ActivityRecord) error {
	query := `
		INSERT INTO activity_events (id, timestamp, event_type, player_id, payload)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.Timestamp, record.EventType, record.PlayerID, string(record.Payload),
	)
	if err != nil {
		return fmt.Errorf("%w: append activity event: %v", ErrStorageWrite, err)
	}
	return nil
}

func (r *SQLiteActivityRepository) ByPlayer(ctx context.Context, playerID string) ([]ActivityRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, timestamp, event_type, player_id, payload FROM activity_events WHERE player_id = ? ORDER BY timestamp ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: activity by player: %v", ErrStorageRead, err)
	}
	defer rows.Close()

	var records []ActivityRecord
	for rows.Next() {
		var rec ActivityRecord
		var payload string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.EventType, &rec.PlayerID, &payload); err != nil {
			return nil, fmt.Errorf("%w: activity by player: %v", ErrStorageRead, err)
		}
		rec.Payload = []byte(payload)
		records = append(records, rec)
	}
	return records, rows.Err()
}
