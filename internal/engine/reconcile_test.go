package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/calmloop/glowcore/internal/domain/player"
)

// fakeDocs serves a canned remote document.
type fakeDocs struct {
	doc json.RawMessage
	err error
}

func (f fakeDocs) GetDocument(context.Context, string, string) (json.RawMessage, error) {
	return f.doc, f.err
}

func remoteDoc(t *testing.T, state *player.State) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal remote state: %v", err)
	}
	return raw
}

func TestReconcileKeepsLargerLocalStreak(t *testing.T) {
	store, _, _ := newTestStore(t)
	for i := 0; i < 5; i++ {
		store.IncrementStreak()
	}

	remoteState := player.NewState()
	remoteState.Progress.Streak = 3
	remoteState.Progress.XP = 900

	rec := NewReconciler(store, fakeDocs{doc: remoteDoc(t, remoteState)}, staticIdentity("u1"), nil, quietLogger())
	rec.Run(context.Background())

	state := store.State()
	if state.Progress.Streak != 5 {
		t.Errorf("streak = %d, want 5 (local wins)", state.Progress.Streak)
	}
	if state.Progress.XP != 900 {
		t.Errorf("xp = %d, want 900 (remote wins)", state.Progress.XP)
	}
}

func TestReconcileTakesLargerRemoteStreak(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.IncrementStreak()
	store.IncrementStreak()

	remoteState := player.NewState()
	remoteState.Progress.Streak = 9

	rec := NewReconciler(store, fakeDocs{doc: remoteDoc(t, remoteState)}, staticIdentity("u1"), nil, quietLogger())
	rec.Run(context.Background())

	if got := store.State().Progress.Streak; got != 9 {
		t.Errorf("streak = %d, want 9 (remote wins)", got)
	}
}

func TestReconcileKeepsLocalFieldsAbsentFromRemoteDoc(t *testing.T) {
	store, _, _ := newTestStore(t)
	if err := store.AddXP(500); err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	store.GrantCosmetic("koi_spirit")
	store.UnlockAchievement("first_legendary")

	// A sparse but valid document, as written by an older client that
	// only ever synced one field. It must overlay, not replace.
	doc := json.RawMessage(`{"lowPowerMode":true}`)
	rec := NewReconciler(store, fakeDocs{doc: doc}, staticIdentity("u1"), nil, quietLogger())
	rec.Run(context.Background())

	state := store.State()
	if state.Progress.XP != 500 {
		t.Errorf("xp = %d, want 500 (absent field kept local value)", state.Progress.XP)
	}
	if !state.Cosmetics.Owns("koi_spirit") {
		t.Error("sparse remote doc wiped owned cosmetics")
	}
	if !state.Achievements.Has("first_legendary") {
		t.Error("sparse remote doc wiped achievements")
	}
	if !state.LowPowerMode {
		t.Error("field present in remote doc was not applied")
	}
}

func TestReconcileSkipsWhenOffline(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.IncrementStreak()

	offline := func(context.Context) bool { return false }
	remoteState := player.NewState()
	remoteState.Progress.Streak = 99

	rec := NewReconciler(store, fakeDocs{doc: remoteDoc(t, remoteState)}, staticIdentity("u1"), offline, quietLogger())
	rec.Run(context.Background())

	if got := store.State().Progress.Streak; got != 1 {
		t.Errorf("offline reconciliation touched state: streak = %d", got)
	}
}

func TestReconcileSkipsWhenSignedOut(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.IncrementStreak()

	rec := NewReconciler(store, fakeDocs{doc: remoteDoc(t, player.NewState())}, staticIdentity(""), nil, quietLogger())
	rec.Run(context.Background())

	if got := store.State().Progress.Streak; got != 1 {
		t.Errorf("signed-out reconciliation touched state: streak = %d", got)
	}
}

func TestReconcileToleratesMissingAndMalformedDocs(t *testing.T) {
	// Missing document.
	store, _, _ := newTestStore(t)
	store.IncrementStreak()
	NewReconciler(store, fakeDocs{}, staticIdentity("u1"), nil, quietLogger()).Run(context.Background())
	if got := store.State().Progress.Streak; got != 1 {
		t.Errorf("missing doc touched state: streak = %d", got)
	}

	// Fetch error.
	NewReconciler(store, fakeDocs{err: errors.New("offline")}, staticIdentity("u1"), nil, quietLogger()).Run(context.Background())
	if got := store.State().Progress.Streak; got != 1 {
		t.Errorf("fetch error touched state: streak = %d", got)
	}

	// Malformed document.
	NewReconciler(store, fakeDocs{doc: json.RawMessage(`{"progress":`)}, staticIdentity("u1"), nil, quietLogger()).Run(context.Background())
	if got := store.State().Progress.Streak; got != 1 {
		t.Errorf("malformed doc touched state: streak = %d", got)
	}
}
