package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/calmloop/glowcore/internal/domain/player"
	"github.com/calmloop/glowcore/internal/events"
	"github.com/calmloop/glowcore/internal/infra/identity"
	"github.com/calmloop/glowcore/internal/infra/remote"
	"github.com/calmloop/glowcore/internal/infra/storage"
	"github.com/calmloop/glowcore/internal/platform/logger"
	"github.com/calmloop/glowcore/internal/platform/metrics"
	"github.com/gorilla/mux"
)

// maxDocumentBytes caps incoming document bodies. Snapshots are small;
// anything bigger is a broken client.
const maxDocumentBytes = 1 << 20

type contextKey string

const subjectKey contextKey = "subject"

// API serves the glow-syncd HTTP surface: the user-document collection,
// the odds-config endpoint, the activity feed and the websocket stream.
type API struct {
	docs     storage.DocumentRepository
	activity storage.ActivityRepository
	eventLog *events.Log
	hub      *Hub
	log      *logger.Logger
	stats    *metrics.Collector

	// jwtSecret enables bearer-token auth when non-empty.
	jwtSecret []byte

	mu   sync.RWMutex
	odds remote.OddsConfig
}

// NewAPI wires the sync server surface. The initial odds config is served
// until an admin replaces it via PUT /v1/config/odds.
func NewAPI(
	docs storage.DocumentRepository,
	activity storage.ActivityRepository,
	eventLog *events.Log,
	hub *Hub,
	log *logger.Logger,
	stats *metrics.Collector,
	jwtSecret []byte,
	initialOdds remote.OddsConfig,
) *API {
	return &API{
		docs:      docs,
		activity:  activity,
		eventLog:  eventLog,
		hub:       hub,
		log:       log,
		stats:     stats,
		jwtSecret: jwtSecret,
		odds:      initialOdds,
	}
}

// Router builds the full route table.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/config/odds", a.handleGetOdds).Methods(http.MethodGet)
	r.HandleFunc("/v1/config/odds", a.withAuth(a.handleSetOdds)).Methods(http.MethodPut)

	r.HandleFunc("/v1/docs/{collection}/{id}", a.withAuth(a.handleGetDocument)).Methods(http.MethodGet)
	r.HandleFunc("/v1/docs/{collection}/{id}", a.withAuth(a.handleMergeDocument)).Methods(http.MethodPatch)
	r.HandleFunc("/v1/docs/{collection}/{id}", a.withAuth(a.handlePutDocument)).Methods(http.MethodPut)

	r.HandleFunc("/v1/friends", a.withAuth(a.handleListFriends)).Methods(http.MethodGet)
	r.HandleFunc("/v1/activity", a.withAuth(a.handlePostActivity)).Methods(http.MethodPost)
	r.HandleFunc("/v1/activity/{playerID}", a.withAuth(a.handleGetActivity)).Methods(http.MethodGet)

	if a.hub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
			ServeWS(a.hub, w, req, a.log)
		})
	}
	if a.stats != nil {
		r.Handle("/metrics", a.stats.Handler()).Methods(http.MethodGet)
	}

	return r
}

// withAuth verifies the bearer token and stashes its subject in the
// request context. A server started without a secret runs open, which is
// the normal local-development mode.
func (a *API) withAuth(next http.HandlerFunc) http.HandlerFunc {
	if len(a.jwtSecret) == 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		subject, err := identity.SubjectFromToken(token, a.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), subjectKey, subject)
		next(w, r.WithContext(ctx))
	}
}

func subjectFrom(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}

// canWrite reports whether the authenticated caller may write the given
// user document. With auth disabled everything is writable.
func (a *API) canWrite(ctx context.Context, collection, id string) bool {
	if len(a.jwtSecret) == 0 {
		return true
	}
	if collection != remote.CollectionUsers {
		return true
	}
	return subjectFrom(ctx) == id
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleGetOdds(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	odds := a.odds
	a.mu.RUnlock()
	writeJSON(w, http.StatusOK, odds)
}

func (a *API) handleSetOdds(w http.ResponseWriter, r *http.Request) {
	var incoming remote.OddsConfig
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDocumentBytes)).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "invalid odds payload")
		return
	}
	a.mu.Lock()
	a.odds = incoming
	a.mu.Unlock()
	a.log.Info("Odds config replaced via admin endpoint")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doc, err := a.docs.Get(r.Context(), vars["collection"], vars["id"])
	if err != nil {
		a.log.Error("Document read failed: " + err.Error())
		writeError(w, http.StatusInternalServerError, "document read failed")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if a.stats != nil {
		a.stats.DocumentReads.Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Body)
}

func (a *API) handleMergeDocument(w http.ResponseWriter, r *http.Request) {
	a.writeDocument(w, r, a.docs.Merge)
}

func (a *API) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	a.writeDocument(w, r, a.docs.Put)
}

func (a *API) writeDocument(w http.ResponseWriter, r *http.Request, write func(ctx context.Context, collection, id string, body []byte) error) {
	vars := mux.Vars(r)
	collection, id := vars["collection"], vars["id"]

	if !a.canWrite(r.Context(), collection, id) {
		writeError(w, http.StatusForbidden, "token subject does not own this document")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid document body")
		return
	}

	if err := write(r.Context(), collection, id, body); err != nil {
		if errors.Is(err, storage.ErrStorageWrite) {
			a.log.Error("Document write failed: " + err.Error())
		}
		writeError(w, http.StatusInternalServerError, "document write failed")
		return
	}
	if a.stats != nil {
		a.stats.DocumentWrites.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListFriends projects every user document down to the summary the
// client's friends screen renders.
func (a *API) handleListFriends(w http.ResponseWriter, r *http.Request) {
	docs, err := a.docs.List(r.Context(), remote.CollectionUsers)
	if err != nil {
		a.log.Error("Friend list read failed: " + err.Error())
		writeError(w, http.StatusInternalServerError, "friend list read failed")
		return
	}

	summaries := make([]player.FriendSummary, 0, len(docs))
	for _, doc := range docs {
		var state player.State
		if err := json.Unmarshal(doc.Body, &state); err != nil {
			// Skip documents this server did not write.
			continue
		}
		summaries = append(summaries, player.FriendSummary{
			ID:        doc.ID,
			Name:      state.User.Name,
			XP:        state.Progress.XP,
			Streak:    state.Progress.Streak,
			Cosmetics: state.Cosmetics.Owned,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (a *API) handlePostActivity(w http.ResponseWriter, r *http.Request) {
	var event events.ActivityEvent
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDocumentBytes)).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity event")
		return
	}
	if event.Type == "" || event.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "activity event needs type and player id")
		return
	}
	if len(a.jwtSecret) > 0 && subjectFrom(r.Context()) != event.PlayerID {
		writeError(w, http.StatusForbidden, "token subject does not own this event")
		return
	}
	if event.ID == "" {
		event.ID = events.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// The log append fans out to the websocket hub via the poller and to
	// sqlite via the persister.
	a.eventLog.Append(event)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": event.ID})
}

func (a *API) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerID"]
	records, err := a.activity.ByPlayer(r.Context(), playerID)
	if err != nil {
		a.log.Error("Activity read failed: " + err.Error())
		writeError(w, http.StatusInternalServerError, "activity read failed")
		return
	}
	if records == nil {
		records = []storage.ActivityRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
