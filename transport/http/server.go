package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/slighter12/sanshu-mcp-go/config"
	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/tools"
	"github.com/slighter12/sanshu-mcp-go/transport/shared"
)

const (
	sessionTimeout  = 30 * time.Minute
	cleanupInterval = 5 * time.Minute
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	toolManager    *tools.Manager
	sessionManager *SessionManager
	config         *config.Config
	info           shared.ServerInfo
	echo           *echo.Echo
}

func NewServer(cfg *config.Config, toolManager *tools.Manager, info shared.ServerInfo) *Server {
	s := &Server{
		toolManager:    toolManager,
		sessionManager: NewSessionManager(),
		config:         cfg,
		info:           info,
		echo:           echo.New(),
	}
	s.setupEcho()
	return s
}

// Start listens on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.startCleanupGoroutine(ctx)

	addr := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
	logger.Info("Starting MCP server in Streamable HTTP mode", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Open SSE streams never go idle, so end them before Shutdown waits.
	s.sessionManager.Close()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Streamable HTTP shutdown did not complete", "error", err)
		return err
	}
	logger.Info("Streamable HTTP server stopped")
	return nil
}

func (s *Server) setupEcho() {
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("HTTP request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, headerSessionID, headerProtocolVersion, "Last-Event-ID"},
		ExposeHeaders: []string{headerSessionID},
	}))
	RegisterRoutes(s.echo, s)
}

func (s *Server) startCleanupGoroutine(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessionManager.CleanupSessions(sessionTimeout)
		}
	}
}

// NotifyToolsListChanged pushes tools/list_changed to every open SSE stream.
func (s *Server) NotifyToolsListChanged() {
	sent := s.sessionManager.Broadcast(shared.ToolsListChanged())
	logger.Debug("Broadcast tools/list_changed", "streams", sent)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) GetToolManager() *tools.Manager {
	return s.toolManager
}

func (s *Server) GetSessionManager() *SessionManager {
	return s.sessionManager
}
