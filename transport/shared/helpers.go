package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/mcp/jsonrpc"
	"github.com/slighter12/sanshu-mcp-go/tools"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

const pageSize = 50

// ServerInfo identifies the server in initialize results.
type ServerInfo struct {
	Name    string
	Version string
}

// BuildInitializeResult returns the initialize result for version.
func BuildInitializeResult(info ServerInfo, version, sessionID string) mcp.InitializeResult {
	return mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    ServerCapabilities(),
		ServerInfo:      mcp.ServerInfo{Name: info.Name, Version: info.Version},
		Instructions:    mcp.ServerInstructions,
		SessionID:       sessionID,
	}
}

// ServerCapabilities advertises tools only. listChanged is sent when the
// config file changes tool enablement.
func ServerCapabilities() map[string]any {
	return map[string]any{
		"tools": map[string]any{"listChanged": true},
	}
}

// ToolsListChanged is the notification sent after enablement changes.
func ToolsListChanged() *jsonrpc.Notification {
	return jsonrpc.NewNotification(mcp.MethodToolsListChangedNotice, nil)
}

// BuildToolsListResponse lists tools in catalog order, paginated by cursor.
func BuildToolsListResponse(msg jsonrpc.Request, tools []mcp.Tool) *jsonrpc.Response {
	start, err := ParseCursor(msg.Params, len(tools))
	if err != nil {
		return jsonrpc.NewErrorResponse(msg.ID, int(jsonrpc.ErrInvalidParams), err.Error(), nil)
	}
	end := min(start+pageSize, len(tools))

	result := map[string]any{
		"tools": tools[start:end],
	}
	if end < len(tools) {
		result["nextCursor"] = strconv.Itoa(end)
	}
	return jsonrpc.NewResponse(msg.ID, result)
}

func BuildPingResponse(msg jsonrpc.Request) *jsonrpc.Response {
	return jsonrpc.NewResponse(msg.ID, map[string]any{})
}

// BuildToolCallResponse dispatches a tools/call request. Rejections before
// the handler runs become JSON-RPC errors; handler failures become an
// isError result. scope namespaces the cancellation key, e.g. per HTTP
// session.
func BuildToolCallResponse(ctx context.Context, scope string, msg jsonrpc.Request, toolManager *tools.Manager) *jsonrpc.Response {
	var params mcp.CallToolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(msg.ID, int(jsonrpc.ErrInvalidParams), "Invalid tool call payload", nil)
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return jsonrpc.NewErrorResponse(msg.ID, int(jsonrpc.ErrInvalidParams), "Tool name is required", nil)
	}

	if msg.ID != nil {
		ctx = tools.WithRequestKey(ctx, ScopedKey(scope, msg.ID))
	}
	content, err := toolManager.Call(ctx, name, params.Arguments)
	if err != nil {
		return ToolErrorResponse(msg.ID, err)
	}
	return jsonrpc.NewResponse(msg.ID, mcp.CallToolResult{Content: content})
}

// ToolErrorResponse maps a dispatcher error to its wire form.
func ToolErrorResponse(id any, err error) *jsonrpc.Response {
	toolErr, ok := types.AsToolError(err)
	if !ok {
		toolErr = types.NewInternalError("", err)
	}
	if !toolErr.Rejected() {
		return jsonrpc.NewResponse(id, mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent(toolErr.Error())},
			IsError: true,
		})
	}
	switch toolErr.Kind {
	case types.KindUnknownTool:
		return jsonrpc.NewErrorResponse(id, int(jsonrpc.ErrInvalidRequest), toolErr.Error(), nil)
	case types.KindInvalidParams:
		return jsonrpc.NewErrorResponse(id, int(jsonrpc.ErrInvalidParams), toolErr.Error(), nil)
	default:
		return jsonrpc.NewErrorResponse(id, int(jsonrpc.ErrServerError), toolErr.Error(), toolErr.Data)
	}
}

// HandleCancelled routes notifications/cancelled to the in-flight call.
func HandleCancelled(scope string, msg jsonrpc.Request, toolManager *tools.Manager) {
	var params mcp.CancelledParams
	decoder := json.NewDecoder(bytes.NewReader(msg.Params))
	decoder.UseNumber()
	if err := decoder.Decode(&params); err != nil || params.RequestID == nil {
		logger.Debug("Ignoring malformed cancellation", "error", err)
		return
	}
	key := ScopedKey(scope, params.RequestID)
	found := toolManager.Cancel(key)
	logger.Info("Cancellation received", "request_id", key, "found", found, "reason", params.Reason)
}

// RequestKey renders a JSON-RPC id as a cancellation key. String and
// numeric ids never collide.
func RequestKey(id any) string {
	switch v := id.(type) {
	case string:
		return "s:" + v
	case json.Number:
		return "n:" + v.String()
	case float64:
		return "n:" + strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return "n:" + strconv.Itoa(v)
	case int64:
		return "n:" + strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("?:%v", v)
	}
}

// ScopedKey is RequestKey prefixed with scope.
func ScopedKey(scope string, id any) string {
	if scope == "" {
		return RequestKey(id)
	}
	return scope + "/" + RequestKey(id)
}

// DispatchStandardMethod handles shared non-initialize JSON-RPC methods for all transports.
func DispatchStandardMethod(ctx context.Context, scope string, msg jsonrpc.Request, toolManager *tools.Manager) any {
	switch msg.Method {
	case mcp.MethodToolsList:
		return BuildToolsListResponse(msg, toolManager.EnabledTools())
	case mcp.MethodToolsCall:
		return BuildToolCallResponse(ctx, scope, msg, toolManager)
	case mcp.MethodPing:
		return BuildPingResponse(msg)
	case mcp.MethodCancelledNotification:
		HandleCancelled(scope, msg, toolManager)
		return nil
	case mcp.MethodInitialized:
		if msg.ID != nil {
			return jsonrpc.NewErrorResponse(msg.ID, int(jsonrpc.ErrInvalidRequest), "Invalid request", nil)
		}
		return nil
	default:
		if msg.ID != nil {
			return jsonrpc.NewErrorResponse(msg.ID, int(jsonrpc.ErrMethodNotFound), "Method not found", map[string]any{
				"method": msg.Method,
			})
		}
		return nil
	}
}

// NegotiateProtocolVersion echoes a supported client version, otherwise the
// server's preferred one.
func NegotiateProtocolVersion(paramsRaw json.RawMessage) string {
	var params struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if err := json.Unmarshal(paramsRaw, &params); err != nil {
		return mcp.ProtocolVersion
	}
	if IsSupportedProtocolVersion(params.ProtocolVersion) {
		return params.ProtocolVersion
	}
	return mcp.ProtocolVersion
}

var supportedProtocolVersions = map[string]struct{}{
	"2024-11-05":        {},
	"2025-03-26":        {},
	"2025-06-18":        {},
	mcp.ProtocolVersion: {},
}

func IsSupportedProtocolVersion(version string) bool {
	_, ok := supportedProtocolVersions[version]
	return ok
}

func ParseCursor(paramsRaw json.RawMessage, total int) (int, error) {
	if len(paramsRaw) == 0 {
		return 0, nil
	}

	var params struct {
		Cursor string `json:"cursor"`
	}
	if err := json.Unmarshal(paramsRaw, &params); err != nil {
		return 0, fmt.Errorf("invalid params payload")
	}
	if strings.TrimSpace(params.Cursor) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(params.Cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor value")
	}
	if offset < 0 || offset > total {
		return 0, fmt.Errorf("invalid cursor value")
	}
	return offset, nil
}

// ParseJSONRPCFrame validates and parses one JSON-RPC message frame.
// Both stdio and streamable HTTP require a single message per frame; a
// request is returned, or a prebuilt error response, or acceptedOneWay for
// a client response the server does not act on.
func ParseJSONRPCFrame(frame []byte) (req *jsonrpc.Request, errResp *jsonrpc.Response, acceptedOneWay bool, err error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 {
		return nil, nil, false, fmt.Errorf("empty message")
	}
	if trimmed[0] == '[' {
		return nil, jsonrpc.NewErrorResponse(nil, int(jsonrpc.ErrInvalidRequest), "Invalid request", nil), false, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, jsonrpc.NewErrorResponse(nil, int(jsonrpc.ErrParseError), "Parse error", nil), false, nil
	}

	requestID, hasID, validID := parseIDFromEnvelope(envelope)
	if !validID {
		return nil, jsonrpc.NewErrorResponse(nil, int(jsonrpc.ErrInvalidRequest), "Invalid request", nil), false, nil
	}

	var msg jsonrpc.Request
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return nil, jsonrpc.NewErrorResponse(requestID, int(jsonrpc.ErrInvalidRequest), "Invalid request", nil), false, nil
	}

	if msg.Method == "" {
		_, hasResult := envelope["result"]
		_, hasErr := envelope["error"]
		if (hasResult || hasErr) && msg.JSONRPC == jsonrpc.Version && hasID && !(hasResult && hasErr) {
			return nil, nil, true, nil
		}
		return nil, jsonrpc.NewErrorResponse(requestID, int(jsonrpc.ErrInvalidRequest), "Invalid request", nil), false, nil
	}

	if msg.JSONRPC != jsonrpc.Version {
		return nil, jsonrpc.NewErrorResponse(requestID, int(jsonrpc.ErrInvalidRequest), "Invalid request", nil), false, nil
	}
	if rawParams, ok := envelope["params"]; ok && !isValidParamsValue(rawParams) {
		return nil, jsonrpc.NewErrorResponse(requestID, int(jsonrpc.ErrInvalidRequest), "Invalid request", nil), false, nil
	}
	if msg.Method == mcp.MethodInitialize && msg.ID == nil {
		return nil, jsonrpc.NewErrorResponse(nil, int(jsonrpc.ErrInvalidRequest), "Invalid request", nil), false, nil
	}

	// Keep integer ids exact instead of the float64 encoding/json produces.
	if hasID {
		msg.ID = requestID
	}
	return &msg, nil, false, nil
}

func parseIDFromEnvelope(envelope map[string]json.RawMessage) (any, bool, bool) {
	rawID, exists := envelope["id"]
	if !exists {
		return nil, false, true
	}
	trimmed := bytes.TrimSpace(rawID)
	if len(trimmed) == 0 {
		return nil, true, false
	}

	var id any
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	if err := decoder.Decode(&id); err != nil {
		return nil, true, false
	}
	if !isValidJSONRPCID(id) {
		return nil, true, false
	}
	return id, true, true
}

func isValidJSONRPCID(id any) bool {
	switch v := id.(type) {
	case string:
		return true
	case json.Number:
		return isJSONInteger(v.String())
	default:
		return false
	}
}

func isValidParamsValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	return trimmed[0] == '{'
}

func isJSONInteger(value string) bool {
	if value == "" || strings.ContainsAny(value, ".eE") {
		return false
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return true
	}
	if strings.HasPrefix(value, "-") {
		return false
	}
	_, err := strconv.ParseUint(value, 10, 64)
	return err == nil
}
