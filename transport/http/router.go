package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/mcp/jsonrpc"
	"github.com/slighter12/sanshu-mcp-go/transport/shared"
)

const maxJSONRPCBodyBytes = 16 << 20

const (
	headerSessionID       = "MCP-Session-Id"
	headerProtocolVersion = "MCP-Protocol-Version"
)

func RegisterRoutes(e *echo.Echo, s *Server) {
	e.GET("/", s.handleHTTPInfo)
	e.POST("/mcp", s.handleStreamableHTTPPost)
	e.GET("/mcp", s.handleStreamableHTTPGet)
	e.DELETE("/mcp", s.handleStreamableHTTPDelete)
	e.OPTIONS("/mcp", s.handleOptions)
}

func (s *Server) handleHTTPInfo(c echo.Context) error {
	info := map[string]any{
		"name":    s.info.Name,
		"version": s.info.Version,
		"capabilities": map[string]any{
			"stdio":           true,
			"streamable_http": true,
		},
		"streamable_http_endpoint": "/mcp",
		"sessions":                 s.sessionManager.Count(),
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleOptions(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func rpcError(c echo.Context, status int, code jsonrpc.ErrorCode, message string) error {
	return c.JSON(status, jsonrpc.NewErrorResponse(nil, int(code), message, nil))
}

func (s *Server) handleStreamableHTTPPost(c echo.Context) error {
	limitedBody := http.MaxBytesReader(c.Response(), c.Request().Body, maxJSONRPCBodyBytes)
	defer limitedBody.Close()

	body, err := io.ReadAll(limitedBody)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("Request body too large", "limit_bytes", maxJSONRPCBodyBytes, "remote_addr", c.RealIP())
			return rpcError(c, http.StatusRequestEntityTooLarge, jsonrpc.ErrInvalidRequest, "Request body too large")
		}
		logger.Error("Failed to read request body", "error", err)
		return rpcError(c, http.StatusBadRequest, jsonrpc.ErrParseError, "Parse error")
	}

	msg, errResp, acceptedOneWay, err := shared.ParseJSONRPCFrame(body)
	if err != nil {
		return rpcError(c, http.StatusBadRequest, jsonrpc.ErrParseError, "Parse error")
	}
	if errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}

	requestedVersion := strings.TrimSpace(c.Request().Header.Get(headerProtocolVersion))
	if requestedVersion != "" && !shared.IsSupportedProtocolVersion(requestedVersion) {
		return rpcError(c, http.StatusBadRequest, jsonrpc.ErrInvalidRequest, "Unsupported MCP-Protocol-Version header")
	}

	sessionID := c.Request().Header.Get(headerSessionID)

	if msg != nil && msg.Method == mcp.MethodInitialize {
		if sessionID == "" {
			sessionID = generateSessionID()
			s.sessionManager.CreateSession(sessionID)
			logger.Debug("Generated new MCP session", "session_id", sessionID)
		} else if !s.sessionManager.TouchSession(sessionID) {
			return rpcError(c, http.StatusNotFound, jsonrpc.ErrInvalidRequest, "Unknown MCP session")
		}
		version := shared.NegotiateProtocolVersion(msg.Params)
		s.sessionManager.SetProtocolVersion(sessionID, version)
		c.Response().Header().Set(headerSessionID, sessionID)
		return c.JSON(http.StatusOK, jsonrpc.NewResponse(msg.ID, shared.BuildInitializeResult(s.info, version, sessionID)))
	}

	if status, message := s.checkSession(sessionID, requestedVersion); status != 0 {
		return rpcError(c, status, jsonrpc.ErrInvalidRequest, message)
	}
	c.Response().Header().Set(headerSessionID, sessionID)

	if acceptedOneWay {
		return c.NoContent(http.StatusAccepted)
	}

	logger.Debug("Streamable HTTP request received", "method", msg.Method, "id", msg.ID, "session_id", sessionID)
	if msg.Method == mcp.MethodInitialized {
		s.sessionManager.MarkInitialized(sessionID)
	}

	// The request context ends when the client disconnects, which cancels
	// any tool call waiting on the popup.
	response := shared.DispatchStandardMethod(c.Request().Context(), sessionID, *msg, s.toolManager)
	if msg.ID == nil || response == nil {
		return c.NoContent(http.StatusAccepted)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleStreamableHTTPGet(c echo.Context) error {
	sessionID := c.Request().Header.Get(headerSessionID)
	if status, message := s.checkSession(sessionID, strings.TrimSpace(c.Request().Header.Get(headerProtocolVersion))); status != 0 {
		return rpcError(c, status, jsonrpc.ErrInvalidRequest, message)
	}
	if !acceptsEventStream(c.Request().Header.Get(echo.HeaderAccept)) {
		return rpcError(c, http.StatusBadRequest, jsonrpc.ErrInvalidRequest, "Accept header must include text/event-stream")
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return rpcError(c, http.StatusMethodNotAllowed, jsonrpc.ErrInvalidRequest, "SSE stream is not available")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set(headerSessionID, sessionID)
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()

	stream := newNotifyStream(c.Response().Writer, flusher)
	if err := stream.open(); err != nil {
		logger.Warn("Failed to open SSE stream", "session_id", sessionID, "error", err)
		return nil
	}

	// Publish only after the headers and first frame are out so a
	// concurrent broadcast cannot interleave with stream setup.
	if !s.sessionManager.BindStream(sessionID, stream) {
		stream.Close()
		return nil
	}
	defer s.sessionManager.UnbindStream(sessionID, stream)

	select {
	case <-c.Request().Context().Done():
		stream.Close()
	case <-stream.Done():
	}
	return nil
}

func (s *Server) handleStreamableHTTPDelete(c echo.Context) error {
	sessionID := c.Request().Header.Get(headerSessionID)
	if status, message := s.checkSession(sessionID, strings.TrimSpace(c.Request().Header.Get(headerProtocolVersion))); status != 0 {
		return rpcError(c, status, jsonrpc.ErrInvalidRequest, message)
	}
	// Calls still running for this session are left to finish; their
	// responses go to the POSTs that started them.
	s.sessionManager.RemoveSession(sessionID)
	return c.NoContent(http.StatusNoContent)
}

// checkSession validates the session header and the protocol version
// header against what initialize negotiated. A zero status means the
// request may proceed.
func (s *Server) checkSession(sessionID, requestedVersion string) (int, string) {
	if sessionID == "" {
		return http.StatusBadRequest, "Missing MCP-Session-Id header"
	}
	if !s.sessionManager.TouchSession(sessionID) {
		return http.StatusNotFound, "Unknown MCP session"
	}
	negotiated, _ := s.sessionManager.GetProtocolVersion(sessionID)
	if requestedVersion == "" {
		if negotiated == "" {
			return http.StatusBadRequest, "Missing MCP-Protocol-Version header"
		}
		return 0, ""
	}
	if negotiated != "" && negotiated != requestedVersion {
		return http.StatusBadRequest, "Invalid MCP-Protocol-Version header"
	}
	return 0, ""
}

func generateSessionID() string {
	return "session_" + uuid.NewString()
}

func acceptsEventStream(acceptHeader string) bool {
	for _, part := range strings.Split(acceptHeader, ",") {
		mime := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(mime, "text/event-stream") {
			return true
		}
	}
	return false
}
