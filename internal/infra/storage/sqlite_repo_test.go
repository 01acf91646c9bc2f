package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *SQLiteBlobStore {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteBlobStore(db)
}

func TestBlobStoreRoundTrip(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	// Missing key loads as nil without error.
	value, err := store.Load(ctx, KeyGameState)
	if err != nil {
		t.Fatalf("Load missing key: %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil for missing key, got %q", value)
	}

	// Save then load.
	if err := store.Save(ctx, KeyGameState, []byte(`{"streak":3}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	value, err = store.Load(ctx, KeyGameState)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(value) != `{"streak":3}` {
		t.Errorf("round-trip mismatch: %q", value)
	}

	// Overwrite wins.
	if err := store.Save(ctx, KeyGameState, []byte(`{"streak":4}`)); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	value, _ = store.Load(ctx, KeyGameState)
	if string(value) != `{"streak":4}` {
		t.Errorf("overwrite mismatch: %q", value)
	}
}

func TestDocumentMergeIsShallow(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	defer db.Close()

	repo := NewSQLiteDocumentRepository(db)
	ctx := context.Background()

	if err := repo.Merge(ctx, "users", "u1", []byte(`{"progress":{"streak":2,"xp":100},"lowPowerMode":false}`)); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if err := repo.Merge(ctx, "users", "u1", []byte(`{"progress":{"streak":5,"xp":250}}`)); err != nil {
		t.Fatalf("second merge: %v", err)
	}

	doc, err := repo.Get(ctx, "users", "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc == nil {
		t.Fatal("document missing after merge")
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(doc.Body, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}

	// progress was replaced wholesale, lowPowerMode survived untouched.
	if string(body["progress"]) != `{"streak":5,"xp":250}` {
		t.Errorf("progress not overwritten: %s", body["progress"])
	}
	if string(body["lowPowerMode"]) != "false" {
		t.Errorf("untouched top-level key lost: %s", body["lowPowerMode"])
	}
}

func TestDocumentGetMissing(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "missing.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	defer db.Close()

	repo := NewSQLiteDocumentRepository(db)
	doc, err := repo.Get(context.Background(), "users", "ghost")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if doc != nil {
		t.Errorf("expected nil document, got %+v", doc)
	}
}
