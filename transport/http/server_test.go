package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slighter12/sanshu-mcp-go/config"
	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/mcp/jsonrpc"
	"github.com/slighter12/sanshu-mcp-go/tools"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
	"github.com/slighter12/sanshu-mcp-go/transport/shared"
)

const testProtocolVersion = "2025-06-18"

var initHTTPTestLogger sync.Once

type waitRequest struct {
	Text string `json:"text"`
}

// newTestHTTPServer registers "echo", which answers at once, and "wait",
// which blocks until its context ends.
func newTestHTTPServer(t *testing.T) *Server {
	t.Helper()
	initHTTPTestLogger.Do(func() {
		if err := logger.Init(logger.GetLevelFromString("error"), logger.FormatJSON); err != nil {
			t.Fatalf("init logger: %v", err)
		}
	})

	manager := tools.NewManager(nil)
	schema := mcp.Tool{InputSchema: mcp.InputSchema{Type: "object"}}
	manager.RegisterTools(
		types.NewTyped(types.Descriptor{Name: "echo", Required: true}, schema,
			func(ctx context.Context, call types.Call, req waitRequest) ([]mcp.Content, error) {
				return []mcp.Content{mcp.TextContent("echo " + req.Text)}, nil
			}),
		types.NewTyped(types.Descriptor{Name: "wait", Required: true}, schema,
			func(ctx context.Context, call types.Call, req waitRequest) ([]mcp.Content, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}),
	)
	return NewServer(config.NewConfig(), manager, shared.ServerInfo{Name: "sanshu-mcp-go", Version: "test"})
}

func doPost(server *Server, body string, sessionID, protocolVersion string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sessionID != "" {
		req.Header.Set(headerSessionID, sessionID)
	}
	if protocolVersion != "" {
		req.Header.Set(headerProtocolVersion, protocolVersion)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func postMCP(t *testing.T, server *Server, body string, sessionID, protocolVersion string) (map[string]any, string, int) {
	t.Helper()
	rec := doPost(server, body, sessionID, protocolVersion)
	var parsed map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("unmarshal response: %v (%s)", err, rec.Body.String())
		}
	}
	return parsed, rec.Header().Get(headerSessionID), rec.Code
}

func initSession(t *testing.T, server *Server) string {
	t.Helper()
	resp, sessionID, status := postMCP(t, server,
		`{"jsonrpc":"2.0","id":"init","method":"initialize","params":{"protocolVersion":"`+testProtocolVersion+`","capabilities":{},"clientInfo":{"name":"test","version":"0.1.0"}}}`,
		"", "")
	if status != http.StatusOK || sessionID == "" {
		t.Fatalf("initialize failed, status=%d session=%q resp=%v", status, sessionID, resp)
	}
	result, _ := resp["result"].(map[string]any)
	if result["protocolVersion"] != testProtocolVersion {
		t.Fatalf("unexpected negotiated version: %v", result["protocolVersion"])
	}
	if result["sessionId"] != sessionID {
		t.Errorf("sessionId in result %v does not match header %q", result["sessionId"], sessionID)
	}

	_, _, status = postMCP(t, server, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, sessionID, testProtocolVersion)
	if status != http.StatusAccepted {
		t.Fatalf("initialized notification failed, status=%d", status)
	}
	return sessionID
}

func TestInitializeAndToolCall(t *testing.T) {
	server := newTestHTTPServer(t)
	sessionID := initSession(t, server)

	resp, _, status := postMCP(t, server, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`, sessionID, testProtocolVersion)
	if status != http.StatusOK {
		t.Fatalf("tools/list failed, status=%d", status)
	}
	listed, _ := resp["result"].(map[string]any)["tools"].([]any)
	if len(listed) != 2 {
		t.Fatalf("expected 2 tools, got %v", listed)
	}

	resp, _, status = postMCP(t, server, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`, sessionID, testProtocolVersion)
	if status != http.StatusOK {
		t.Fatalf("tools/call failed, status=%d", status)
	}
	content, _ := resp["result"].(map[string]any)["content"].([]any)
	if len(content) != 1 || content[0].(map[string]any)["text"] != "echo hi" {
		t.Errorf("unexpected tool result: %v", resp)
	}
}

func TestSessionHeaderValidation(t *testing.T) {
	server := newTestHTTPServer(t)
	ping := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	if _, _, status := postMCP(t, server, ping, "", testProtocolVersion); status != http.StatusBadRequest {
		t.Errorf("missing session should be 400, got %d", status)
	}
	if _, _, status := postMCP(t, server, ping, "session_unknown", testProtocolVersion); status != http.StatusNotFound {
		t.Errorf("unknown session should be 404, got %d", status)
	}

	sessionID := initSession(t, server)
	if _, _, status := postMCP(t, server, ping, sessionID, "2024-11-05"); status != http.StatusBadRequest {
		t.Errorf("mismatched protocol version should be 400, got %d", status)
	}
	if _, _, status := postMCP(t, server, ping, sessionID, "1999-01-01"); status != http.StatusBadRequest {
		t.Errorf("unsupported protocol version should be 400, got %d", status)
	}
	if _, _, status := postMCP(t, server, ping, sessionID, ""); status != http.StatusOK {
		t.Errorf("omitted header should fall back to negotiated version, got %d", status)
	}
}

func TestBatchRequestsAreRejected(t *testing.T) {
	server := newTestHTTPServer(t)
	sessionID := initSession(t, server)

	resp, _, status := postMCP(t, server, `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`, sessionID, testProtocolVersion)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for batch, got %d", status)
	}
	errObj, _ := resp["error"].(map[string]any)
	if errObj["code"] != float64(jsonrpc.ErrInvalidRequest) {
		t.Errorf("expected invalid request error, got %v", resp)
	}
}

func TestCancellationIsScopedToSession(t *testing.T) {
	server := newTestHTTPServer(t)
	sessionA := initSession(t, server)
	sessionB := initSession(t, server)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- doPost(server, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"wait","arguments":{}}}`, sessionA, testProtocolVersion)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for server.GetToolManager().InFlight() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("call never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel := `{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":1}}`
	if _, _, status := postMCP(t, server, cancel, sessionB, testProtocolVersion); status != http.StatusAccepted {
		t.Fatalf("cancel from B failed, status=%d", status)
	}
	select {
	case <-done:
		t.Fatal("another session's cancellation reached the call")
	case <-time.After(100 * time.Millisecond):
	}

	if _, _, status := postMCP(t, server, cancel, sessionA, testProtocolVersion); status != http.StatusAccepted {
		t.Fatalf("cancel from A failed, status=%d", status)
	}
	select {
	case rec := <-done:
		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp["result"].(map[string]any)["isError"] != true {
			t.Errorf("cancelled call should be reported as isError, got %v", resp)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("call was not cancelled")
	}
}

func TestDeleteEndsSession(t *testing.T) {
	server := newTestHTTPServer(t)
	sessionID := initSession(t, server)

	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	req.Header.Set(headerSessionID, sessionID)
	req.Header.Set(headerProtocolVersion, testProtocolVersion)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed, status=%d", rec.Code)
	}

	if _, _, status := postMCP(t, server, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, sessionID, testProtocolVersion); status != http.StatusNotFound {
		t.Errorf("deleted session should be 404, got %d", status)
	}
}

func TestToolsListChangedReachesOpenStream(t *testing.T) {
	server := newTestHTTPServer(t)
	sessionID := initSession(t, server)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/mcp", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set(headerSessionID, sessionID)
	req.Header.Set(headerProtocolVersion, testProtocolVersion)
	req.Header.Set(echo.HeaderAccept, "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status=%d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	if line, _ := reader.ReadString('\n'); !strings.HasPrefix(line, ": stream opened") {
		t.Fatalf("unexpected first frame: %q", line)
	}

	deadline := time.Now().Add(2 * time.Second)
	for server.GetSessionManager().Broadcast(shared.ToolsListChanged()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream was never bound to the session")
		}
		time.Sleep(5 * time.Millisecond)
	}
	server.NotifyToolsListChanged()

	lines := make(chan string, 16)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- line
		}
	}()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed before notification")
			}
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, mcp.MethodToolsListChangedNotice) {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for tools/list_changed")
		}
	}
}
