package tools

import (
	"maps"

	"github.com/slighter12/sanshu-mcp-go/config"
	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

// ConfigSource supplies tool enablement. Load must read storage fresh on
// every call.
type ConfigSource interface {
	Load() (*config.Config, error)
	Snapshot() *config.Config
}

// Registry answers "is this tool reachable right now". It holds no cache:
// each query re-reads configuration so edits apply without a restart, and
// falls back to the boot snapshot only when the read fails.
type Registry struct {
	source ConfigSource
	boot   map[string]bool
}

// NewRegistry captures the boot snapshot from source.
func NewRegistry(source ConfigSource) *Registry {
	boot := map[string]bool{}
	if source != nil {
		if snapshot := source.Snapshot(); snapshot != nil {
			boot = maps.Clone(snapshot.MCP.Tools)
		}
	}
	return &Registry{source: source, boot: boot}
}

// IsEnabled reports whether the tool may be called. Required tools are
// always enabled.
func (r *Registry) IsEnabled(d types.Descriptor) bool {
	if d.Required {
		return true
	}
	key := d.ConfigKey
	if key == "" {
		key = d.Name
	}
	if r == nil || r.source == nil {
		return true
	}

	cfg, err := r.source.Load()
	if err != nil {
		logger.Warn("Reading tool config failed, using boot snapshot", "tool", d.Name, "error", err)
		if enabled, ok := r.boot[key]; ok {
			return enabled
		}
		return mcp.DefaultToolEnabled(key)
	}

	enabled := cfg.ToolEnabled(key)
	logger.Debug("Tool enablement", "tool", d.Name, "key", key, "enabled", enabled)
	return enabled
}
