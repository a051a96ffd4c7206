package tools

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// NewCallID returns a per-call correlation id. It also names the transport
// temp file, so it must never repeat across concurrent calls.
func NewCallID() string {
	return uuid.NewString()
}

// CancelRegistry tracks cancel functions for in-flight calls keyed by the
// transport's request key.
type CancelRegistry struct {
	mu      sync.Mutex
	pending map[string]*trackedCall
}

// trackedCall is one registration. Entries are compared by pointer so a
// finished call never removes a newer call reusing its key.
type trackedCall struct {
	cancel context.CancelFunc
}

func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{pending: make(map[string]*trackedCall)}
}

// Track derives a cancellable context for key. The returned release func
// must be called when the call completes; it removes the entry if it still
// belongs to this call and releases the context. A later Track with the same
// key takes over cancellation for that key.
func (r *CancelRegistry) Track(ctx context.Context, key string) (context.Context, func()) {
	callCtx, cancel := context.WithCancel(ctx)
	if key == "" {
		return callCtx, cancel
	}

	call := &trackedCall{cancel: cancel}
	r.mu.Lock()
	r.pending[key] = call
	r.mu.Unlock()

	return callCtx, func() {
		r.mu.Lock()
		if r.pending[key] == call {
			delete(r.pending, key)
		}
		r.mu.Unlock()
		cancel()
	}
}

// Cancel cancels the call registered under key. It reports whether a call
// was found.
func (r *CancelRegistry) Cancel(key string) bool {
	r.mu.Lock()
	call, ok := r.pending[key]
	if ok {
		delete(r.pending, key)
	}
	r.mu.Unlock()
	if ok {
		call.cancel()
	}
	return ok
}

// Len returns the number of tracked calls.
func (r *CancelRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

type requestKeyContextKey struct{}

// WithRequestKey attaches the transport request key used for cancellation.
func WithRequestKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, requestKeyContextKey{}, key)
}

// RequestKeyFrom returns the request key attached by WithRequestKey.
func RequestKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(requestKeyContextKey{}).(string)
	return key
}
