package types

import (
	"context"

	"github.com/slighter12/sanshu-mcp-go/mcp"
)

// Backend serves a tool whose implementation lives outside this server.
type Backend[Req any] interface {
	Handle(ctx context.Context, callID string, req Req) ([]mcp.Content, error)
}

// BackendFunc adapts a function into a Backend.
type BackendFunc[Req any] func(ctx context.Context, callID string, req Req) ([]mcp.Content, error)

func (f BackendFunc[Req]) Handle(ctx context.Context, callID string, req Req) ([]mcp.Content, error) {
	return f(ctx, callID, req)
}

// Delegate returns an Executor forwarding to backend. A nil backend yields an
// internal error on every call.
func Delegate[Req any](name string, backend Backend[Req]) Executor[Req] {
	return func(ctx context.Context, call Call, req Req) ([]mcp.Content, error) {
		if backend == nil {
			return nil, NewInternalError(name+" backend not configured", nil)
		}
		return backend.Handle(ctx, call.ID, req)
	}
}
