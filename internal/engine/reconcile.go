package engine

import (
	"context"
	"encoding/json"

	"github.com/calmloop/glowcore/internal/infra/identity"
	"github.com/calmloop/glowcore/internal/infra/remote"
	"github.com/calmloop/glowcore/internal/platform/logger"
)

// DocumentFetcher is the read half of the remote document store.
type DocumentFetcher interface {
	GetDocument(ctx context.Context, collection, id string) (json.RawMessage, error)
}

// Reconciler merges the remote snapshot into local state once at
// startup. It races against the rest of app initialization but never
// blocks it; whenever the merge lands, last write wins.
type Reconciler struct {
	store    *Store
	docs     DocumentFetcher
	identity identity.Provider
	online   func(ctx context.Context) bool
	log      *logger.Logger
}

// NewReconciler wires the one-shot startup reconciliation. online
// reports network availability; pass nil to assume connectivity.
func NewReconciler(store *Store, docs DocumentFetcher, provider identity.Provider, online func(ctx context.Context) bool, log *logger.Logger) *Reconciler {
	if online == nil {
		online = func(context.Context) bool { return true }
	}
	return &Reconciler{store: store, docs: docs, identity: provider, online: online, log: log}
}

// Run fetches the remote document for the signed-in identity and merges
// it into local state. Every failure path (offline, signed out, missing
// or malformed document) leaves local state untouched and is logged,
// never surfaced.
func (r *Reconciler) Run(ctx context.Context) {
	if !r.online(ctx) {
		r.log.Info("reconciliation skipped: offline")
		return
	}

	playerID := r.identity.CurrentID()
	if playerID == "" {
		r.log.Info("reconciliation skipped: signed out")
		return
	}

	raw, err := r.docs.GetDocument(ctx, remote.CollectionUsers, playerID)
	if err != nil {
		r.log.Warn("reconciliation fetch failed: " + err.Error())
		return
	}
	if raw == nil {
		r.log.Info("reconciliation skipped: no remote document")
		return
	}

	if err := r.store.MergeRemoteDocument(raw); err != nil {
		r.log.Warn("reconciliation skipped: malformed remote document: " + err.Error())
		return
	}
	r.log.Info("remote snapshot merged for " + playerID)
}
