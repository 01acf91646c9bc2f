// Package engine contains the client-side game-state store and the
// reward subsystems built around it: debounced persistence, loot rolls,
// grant orchestration and startup reconciliation with the remote copy.
package engine
