package realtime

import "sync"

// Registry is the single source of truth for which connection, if any, can
// reach a user for live push. A user maps to at most one connection; the most
// recent registration wins, so a reconnecting client simply displaces the
// previous mapping. Entries are process-local and rebuilt from nothing on
// restart via client re-handshake.
type Registry struct {
	mu     sync.Mutex
	byUser map[string]string // user ID → connection ID
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]string)}
}

// Register maps a user to a connection, unconditionally overwriting any prior
// mapping for that user (last writer wins).
func (r *Registry) Register(userID, connID string) {
	if userID == "" || connID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = connID
}

// Lookup returns the connection currently registered for the user, if any.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connID, ok := r.byUser[userID]
	return connID, ok
}

// Unregister removes the entry whose value equals connID. At most one entry
// can match since registration is keyed by user. Unregistering a connection
// that was never registered, such as a disconnect before handshake, is a no-op.
func (r *Registry) Unregister(connID string) {
	if connID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, registered := range r.byUser {
		if registered == connID {
			delete(r.byUser, userID)
			return
		}
	}
}
