package gate

import (
	"context"
	"sync"
)

// Holder is the per-request identity slot. It holds at most one Identity
// and is mutated only by the gate (on success) or cleared at the request
// boundaries. A Holder must never be shared across concurrently running
// requests; the gate installs a fresh one per request.
type Holder struct {
	mu       sync.Mutex
	identity *Identity
}

// Get returns the held identity, or nil when the slot is empty.
func (h *Holder) Get() *Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.identity
}

// Set stores the identity, replacing any previous one.
func (h *Holder) Set(id *Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.identity = id
}

// Clear empties the slot.
func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.identity = nil
}

// holderKey is a private type for the holder context key.
type holderKey struct{}

// WithHolder returns a context carrying the given identity holder.
// An upstream stage may install a pre-populated holder to signal that
// the request was already authenticated by another mechanism.
func WithHolder(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// HolderFromContext retrieves the identity holder, or nil if none is set.
func HolderFromContext(ctx context.Context) *Holder {
	if h, ok := ctx.Value(holderKey{}).(*Holder); ok {
		return h
	}
	return nil
}

// IdentityFromContext returns the currently authenticated identity.
// Returns nil when the request is unauthenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	h := HolderFromContext(ctx)
	if h == nil {
		return nil
	}
	return h.Get()
}
