package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no state exists for a session id.
var ErrNotFound = errors.New("session: state not found")

// ErrStorage marks any I/O fault other than "not found". Callers treat
// wrapped ErrStorage as fatal for the turn.
var ErrStorage = errors.New("session: storage error")

// Store is the durable home of session state documents.
//
// Persistence is atomic from the caller's perspective: a reader never
// observes a partially written document. No optimistic-concurrency token is
// kept (last writer wins), so callers wanting per-session serialization
// should hold the matching Locker key across the load-mutate-save cycle.
type Store interface {
	// Load returns the state for id, or an error wrapping ErrNotFound when
	// none exists yet. Any other fault wraps ErrStorage.
	Load(ctx context.Context, id string) (*State, error)

	// Save persists the full state document, overwriting any prior version.
	Save(ctx context.Context, id string, state *State) error
}
