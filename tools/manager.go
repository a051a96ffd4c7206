package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

// previewKeys are argument fields summarized at debug level.
var previewKeys = []string{"message", "prompt", "query", "content"}

// Manager is the single entry point for tool invocations. It owns the tool
// table and delegates enablement to the Registry; it keeps no per-call state
// besides the cancel map.
type Manager struct {
	tools map[string]types.Tool
	order []string
	mutex sync.RWMutex

	registry *Registry
	schemas  *SchemaValidator
	cancels  *CancelRegistry
}

// NewManager creates a new tool manager. A nil registry enables every tool.
func NewManager(registry *Registry) *Manager {
	return &Manager{
		tools:    make(map[string]types.Tool),
		registry: registry,
		schemas:  NewSchemaValidator(),
		cancels:  NewCancelRegistry(),
	}
}

// RegisterTool registers a new tool and compiles its input schema.
func (m *Manager) RegisterTool(tool types.Tool) error {
	if tool == nil {
		return errors.New("tool cannot be nil")
	}

	name := tool.Descriptor().Name
	if name == "" {
		return errors.New("tool name cannot be empty")
	}
	if err := m.schemas.Register(name, tool.Definition().InputSchema); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.tools[name]; !exists {
		m.order = append(m.order, name)
	}
	m.tools[name] = tool
	logger.Debug("Tool registered", "name", name)
	return nil
}

// RegisterTools registers each tool, logging failures.
func (m *Manager) RegisterTools(tools ...types.Tool) {
	for _, tool := range tools {
		if err := m.RegisterTool(tool); err != nil {
			logger.Error("Failed to register tool", "error", err)
		}
	}
	logger.Info("Tools registered", "count", len(m.ListTools()))
}

// GetTool retrieves a tool by name
func (m *Manager) GetTool(name string) (types.Tool, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tool, exists := m.tools[name]
	return tool, exists
}

// ListTools returns all registered tools in registration order.
func (m *Manager) ListTools() []types.Tool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tools := make([]types.Tool, 0, len(m.order))
	for _, name := range m.order {
		tools = append(tools, m.tools[name])
	}
	return tools
}

// EnabledTools returns definitions of the tools reachable right now.
func (m *Manager) EnabledTools() []mcp.Tool {
	registered := m.ListTools()
	out := make([]mcp.Tool, 0, len(registered))
	for _, tool := range registered {
		if m.registry.IsEnabled(tool.Descriptor()) {
			out = append(out, tool.Definition())
		}
	}
	return out
}

// Cancel cancels the in-flight call registered under the transport request
// key.
func (m *Manager) Cancel(requestKey string) bool {
	return m.cancels.Cancel(requestKey)
}

// InFlight returns the number of calls currently tracked for cancellation.
func (m *Manager) InFlight() int {
	return m.cancels.Len()
}

// Call dispatches one tool invocation. Unknown, disabled and malformed
// calls are rejected before the handler runs. The outcome is logged exactly
// once on exit.
func (m *Manager) Call(ctx context.Context, name string, arguments map[string]any) (content []mcp.Content, err error) {
	callID := NewCallID()
	start := time.Now()

	defer func() {
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			logger.WarnContext(ctx, "Tool call failed",
				"call_id", callID,
				"tool", name,
				"elapsed_ms", elapsed,
				"kind", string(types.KindOf(err)),
				"error", err)
			return
		}
		logger.InfoContext(ctx, "Tool call finished",
			"call_id", callID,
			"tool", name,
			"elapsed_ms", elapsed,
			"content_items", len(content))
	}()

	logger.DebugContext(ctx, "Tool call started", "call_id", callID, "tool", name, "arg_count", len(arguments))
	for _, key := range previewKeys {
		if s, ok := arguments[key].(string); ok {
			logger.DebugContext(ctx, "Tool argument", "call_id", callID, "tool", name, "field", key, "len", len(s), "preview", logger.Preview(s, 200))
		}
	}

	tool, exists := m.GetTool(name)
	if !exists {
		return nil, types.NewUnknownToolError(name)
	}

	descriptor := tool.Descriptor()
	if !m.registry.IsEnabled(descriptor) {
		reason := ""
		if descriptor.Label != "" {
			reason = descriptor.Label + "已被禁用"
		}
		return nil, types.NewDisabledError(name, reason)
	}

	if err := m.schemas.Validate(name, arguments); err != nil {
		return nil, types.NewInvalidParamsError(err)
	}

	handler, err := tool.Prepare(arguments)
	if err != nil {
		return nil, types.NewInvalidParamsError(err)
	}

	callCtx, release := m.cancels.Track(ctx, RequestKeyFrom(ctx))
	defer release()

	content, err = handler(callCtx, types.Call{ID: callID, Arguments: arguments})
	if err != nil {
		if _, ok := types.AsToolError(err); !ok {
			err = types.NewInternalError("", err)
		}
		return nil, err
	}
	if len(content) == 0 {
		return nil, types.NewInternalError(fmt.Sprintf("tool %s returned no content", name), nil)
	}
	return content, nil
}
