package shared

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slighter12/sanshu-mcp-go/config"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/mcp/jsonrpc"
	"github.com/slighter12/sanshu-mcp-go/tools"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

type sayRequest struct {
	Text string `json:"text"`
}

func newTestManager(t *testing.T, disabled ...string) *tools.Manager {
	t.Helper()
	cfg := config.NewConfig()
	for _, name := range disabled {
		cfg.MCP.Tools[name] = false
	}
	path := t.TempDir() + "/sanshu_config.json"
	require.NoError(t, config.SaveConfig(cfg, path))

	manager := tools.NewManager(tools.NewRegistry(config.NewStore(path)))
	schema := mcp.InputSchema{
		Type:       "object",
		Properties: map[string]any{"text": map[string]any{"type": "string"}},
		Required:   []string{"text"},
	}
	say := func(ctx context.Context, call types.Call, req sayRequest) ([]mcp.Content, error) {
		switch req.Text {
		case "fail":
			return nil, types.NewToolError(types.KindTransportFailed, "UI进程失败: boom", errors.New("boom"))
		case "wait":
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []mcp.Content{mcp.TextContent(req.Text)}, nil
	}
	manager.RegisterTools(
		types.NewTyped(types.Descriptor{Name: mcp.ToolZhi, Required: true}, mcp.Tool{InputSchema: schema}, say),
		types.NewTyped(types.Descriptor{Name: mcp.ToolJi, Label: "记忆管理工具"}, mcp.Tool{InputSchema: schema}, say),
	)
	return manager
}

func call(t *testing.T, manager *tools.Manager, id any, params string) *jsonrpc.Response {
	t.Helper()
	msg := jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: id, Method: mcp.MethodToolsCall, Params: json.RawMessage(params)}
	resp, ok := DispatchStandardMethod(context.Background(), "", msg, manager).(*jsonrpc.Response)
	require.True(t, ok)
	return resp
}

func TestToolCallSuccess(t *testing.T) {
	manager := newTestManager(t)
	resp := call(t, manager, 1, `{"name":"zhi","arguments":{"text":"hi"}}`)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(mcp.CallToolResult)
	require.True(t, ok)
	assert.False(t, result.IsError)
	assert.Equal(t, []mcp.Content{mcp.TextContent("hi")}, result.Content)
}

func TestToolCallErrorMapping(t *testing.T) {
	manager := newTestManager(t, mcp.ToolJi)

	resp := call(t, manager, 1, `{"name":"nope","arguments":{}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, int(jsonrpc.ErrInvalidRequest), resp.Error.Code)
	assert.Equal(t, "未知的工具: nope", resp.Error.Message)

	resp = call(t, manager, 2, `{"name":"zhi","arguments":{"text":5}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, int(jsonrpc.ErrInvalidParams), resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "参数解析失败")

	resp = call(t, manager, 3, `{"name":"ji","arguments":{"text":"x"}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, int(jsonrpc.ErrServerError), resp.Error.Code)
	assert.Equal(t, "记忆管理工具已被禁用", resp.Error.Message)
	data, ok := resp.Error.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "disabled", data["kind"])

	resp = call(t, manager, 4, `{"name":"zhi","arguments":{"text":"fail"}}`)
	require.Nil(t, resp.Error)
	result := resp.Result.(mcp.CallToolResult)
	assert.True(t, result.IsError)
	assert.Equal(t, []mcp.Content{mcp.TextContent("UI进程失败: boom")}, result.Content)
}

func TestToolErrorResponseSplitsRejectedFromFailed(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wireCode int
	}{
		{"unknown tool", types.NewUnknownToolError("nope"), int(jsonrpc.ErrInvalidRequest)},
		{"invalid params", types.NewInvalidParamsError(errors.New("bad")), int(jsonrpc.ErrInvalidParams)},
		{"disabled", types.NewDisabledError("sou", ""), int(jsonrpc.ErrServerError)},
		{"binary not found", types.NewToolError(types.KindBinaryNotFound, "未找到UI程序", nil), 0},
		{"transport failed", types.NewToolError(types.KindTransportFailed, "UI进程失败: x", nil), 0},
		{"untyped", errors.New("plain"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ToolErrorResponse(1, tt.err)
			if tt.wireCode != 0 {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wireCode, resp.Error.Code)
				return
			}
			require.Nil(t, resp.Error)
			result, ok := resp.Result.(mcp.CallToolResult)
			require.True(t, ok)
			assert.True(t, result.IsError)
			assert.Equal(t, []mcp.Content{mcp.TextContent(tt.err.Error())}, result.Content)
		})
	}
}

func TestToolCallMalformedParams(t *testing.T) {
	manager := newTestManager(t)
	resp := call(t, manager, 1, `{"arguments":{}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, int(jsonrpc.ErrInvalidParams), resp.Error.Code)
}

func TestToolsListHidesDisabledTools(t *testing.T) {
	manager := newTestManager(t, mcp.ToolJi)
	msg := jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: 1, Method: mcp.MethodToolsList}

	resp := DispatchStandardMethod(context.Background(), "", msg, manager).(*jsonrpc.Response)
	result := resp.Result.(map[string]any)
	listed := result["tools"].([]mcp.Tool)
	require.Len(t, listed, 1)
	assert.Equal(t, mcp.ToolZhi, listed[0].Name)
}

func TestCancelledNotificationCancelsCall(t *testing.T) {
	manager := newTestManager(t)
	id := json.Number("9")

	done := make(chan *jsonrpc.Response, 1)
	go func() {
		done <- call(t, manager, id, `{"name":"zhi","arguments":{"text":"wait"}}`)
	}()
	require.Eventually(t, func() bool { return manager.InFlight() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel := jsonrpc.Request{JSONRPC: jsonrpc.Version, Method: mcp.MethodCancelledNotification, Params: json.RawMessage(`{"requestId":9,"reason":"user"}`)}
	assert.Nil(t, DispatchStandardMethod(context.Background(), "", cancel, manager))

	select {
	case resp := <-done:
		result := resp.Result.(mcp.CallToolResult)
		assert.True(t, result.IsError)
	case <-time.After(2 * time.Second):
		t.Fatal("call was not cancelled")
	}
	assert.Zero(t, manager.InFlight())
}

func TestRequestKey(t *testing.T) {
	assert.Equal(t, "n:7", RequestKey(json.Number("7")))
	assert.Equal(t, "n:7", RequestKey(float64(7)))
	assert.Equal(t, "s:7", RequestKey("7"))
	assert.Equal(t, "session_a/n:7", ScopedKey("session_a", float64(7)))
	assert.Equal(t, "n:7", ScopedKey("", 7))
}

func TestParseJSONRPCFrame(t *testing.T) {
	req, errResp, oneWay, err := ParseJSONRPCFrame([]byte(`{"jsonrpc":"2.0","id":12345678901234567,"method":"ping"}`))
	require.NoError(t, err)
	require.Nil(t, errResp)
	assert.False(t, oneWay)
	assert.Equal(t, json.Number("12345678901234567"), req.ID)

	_, errResp, _, _ = ParseJSONRPCFrame([]byte(`{not json`))
	require.NotNil(t, errResp)
	assert.Equal(t, int(jsonrpc.ErrParseError), errResp.Error.Code)

	_, errResp, _, _ = ParseJSONRPCFrame([]byte(`[{"jsonrpc":"2.0","id":1,"method":"ping"}]`))
	require.NotNil(t, errResp)
	assert.Equal(t, int(jsonrpc.ErrInvalidRequest), errResp.Error.Code)

	_, errResp, _, _ = ParseJSONRPCFrame([]byte(`{"jsonrpc":"2.0","id":1.5,"method":"ping"}`))
	require.NotNil(t, errResp)

	_, errResp, oneWay, _ = ParseJSONRPCFrame([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	assert.Nil(t, errResp)
	assert.True(t, oneWay)

	_, _, _, err = ParseJSONRPCFrame([]byte("   "))
	assert.Error(t, err)
}

func TestNegotiateProtocolVersion(t *testing.T) {
	assert.Equal(t, "2025-06-18", NegotiateProtocolVersion(json.RawMessage(`{"protocolVersion":"2025-06-18"}`)))
	assert.Equal(t, mcp.ProtocolVersion, NegotiateProtocolVersion(json.RawMessage(`{"protocolVersion":"1999-01-01"}`)))
}
