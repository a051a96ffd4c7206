package mcp

// Protocol version
const (
	ProtocolVersion = "2025-11-25"
)

// Method names handled by the transports
const (
	MethodInitialize             = "initialize"
	MethodInitialized            = "notifications/initialized"
	MethodPing                   = "ping"
	MethodToolsList              = "tools/list"
	MethodToolsCall              = "tools/call"
	MethodCancelledNotification  = "notifications/cancelled"
	MethodToolsListChangedNotice = "notifications/tools/list_changed"
)

// Tool ids. ToolZhi is the only tool that can never be disabled.
const (
	ToolZhi      = "zhi"
	ToolJi       = "ji"
	ToolSou      = "sou"
	ToolContext7 = "context7"
	ToolTu       = "tu"
	ToolEnhance  = "enhance"

	ToolUIUXSearch       = "uiux_search"
	ToolUIUXStack        = "uiux_stack"
	ToolUIUXDesignSystem = "uiux_design_system"
	ToolUIUXSuggest      = "uiux_suggest"

	// ToolIconKey is the configuration key gating ToolTu.
	ToolIconKey = "icon"
	// ToolUIUXKey gates every uiux_* tool at once.
	ToolUIUXKey = "uiux"
)

// DefaultToolStates returns the enablement defaults for every configurable tool.
func DefaultToolStates() map[string]bool {
	return map[string]bool{
		ToolZhi:      true,
		ToolJi:       true,
		ToolSou:      false,
		ToolContext7: true,
		ToolIconKey:  true,
		ToolUIUXKey:  true,
		ToolEnhance:  false,
	}
}

// DefaultToolEnabled reports the documented default for a tool config key.
// Keys without a documented default are enabled.
func DefaultToolEnabled(key string) bool {
	enabled, ok := DefaultToolStates()[key]
	if !ok {
		return true
	}
	return enabled
}

// ServerInstructions is returned to clients in the initialize result.
const ServerInstructions = "Zhi 智能代码审查工具，支持交互式对话和记忆管理"
