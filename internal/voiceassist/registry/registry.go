// Package registry tracks live voice conversations so out-of-band callers
// (the stop endpoint, shutdown) can find and terminate them.
package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Conversation is the minimal handle the registry keeps per live session.
type Conversation interface {
	Stop(ctx context.Context)
}

// Key identifies one live connection.
type Key struct {
	UserID       string
	TenantID     uuid.UUID
	ConnectionID string
}

type entry struct {
	key  Key
	conv Conversation
}

// Registry is an in-memory index of live conversations keyed by connection ID.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register records a live conversation. Registering the same connection ID
// twice replaces the earlier entry.
func (r *Registry) Register(key Key, conv Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key.ConnectionID] = entry{key: key, conv: conv}
}

// Deregister removes the entry for the connection. It is idempotent so the
// close path can call it unconditionally.
func (r *Registry) Deregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, connectionID)
}

// Lookup returns the conversation for the connection, if still live.
func (r *Registry) Lookup(connectionID string) (Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connectionID]
	return e.conv, ok
}

// Len reports the number of live conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// StopAll stops every live conversation. Used on server shutdown.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.Lock()
	convs := make([]Conversation, 0, len(r.entries))
	for _, e := range r.entries {
		convs = append(convs, e.conv)
	}
	r.mu.Unlock()

	for _, c := range convs {
		c.Stop(ctx)
	}
}
