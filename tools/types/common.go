package types

import (
	"context"

	"github.com/slighter12/sanshu-mcp-go/mcp"
)

// Descriptor is the static identity of a tool.
type Descriptor struct {
	// Name is the wire name clients call.
	Name string
	// ConfigKey is the enablement key in configuration. It differs from Name
	// for tools whose config entry predates the tool name.
	ConfigKey string
	// Required tools are never gated by configuration.
	Required bool
	// Label is the human-readable name used in disabled messages.
	Label string
}

// Call carries per-invocation metadata into a handler.
type Call struct {
	ID        string
	Arguments map[string]any
}

// Handler runs a prepared tool invocation.
type Handler func(ctx context.Context, call Call) ([]mcp.Content, error)

// Tool interface defines the contract for all tools. Prepare decodes the
// arguments into the tool's typed request; a Prepare error means the call
// must not reach the handler.
type Tool interface {
	Descriptor() Descriptor
	Definition() mcp.Tool
	Prepare(arguments map[string]any) (Handler, error)
}
