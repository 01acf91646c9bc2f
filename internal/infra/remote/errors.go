// Package remote talks to the sync backend: the user document store and
// the odds-config endpoint. All failures here degrade to local-only
// behavior; nothing in this package is user-facing.
package remote

import "errors"

var (
	// ErrConfigUnavailable is returned when the odds config can neither
	// be fetched nor served from cache. Callers substitute the hardcoded
	// default table instead of blocking the reward flow.
	ErrConfigUnavailable = errors.New("odds config unavailable")

	// ErrRemoteSync is returned when a document read or write against
	// the sync backend fails. The engine logs and swallows it.
	ErrRemoteSync = errors.New("remote sync failed")

	// ErrAuthSession is returned when an operation requires a signed-in
	// identity and none is present.
	ErrAuthSession = errors.New("no authenticated session")
)
