package http

import (
	"sync"
	"time"

	"github.com/slighter12/sanshu-mcp-go/mcp/jsonrpc"
)

// SessionManager manages MCP sessions for Streamable HTTP
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// Session represents an MCP session
type Session struct {
	ID              string
	Created         time.Time
	LastSeen        time.Time
	ProtocolVersion string
	Initialized     bool
	Stream          *notifyStream
}

// NewSessionManager creates a new session manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// CreateSession creates a session, keeping an existing one untouched.
func (sm *SessionManager) CreateSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; exists {
		return
	}
	now := time.Now()
	sm.sessions[sessionID] = &Session{
		ID:       sessionID,
		Created:  now,
		LastSeen: now,
	}
}

// HasSession reports whether sessionID is live.
func (sm *SessionManager) HasSession(sessionID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, exists := sm.sessions[sessionID]
	return exists
}

// TouchSession refreshes LastSeen. It reports whether the session exists.
func (sm *SessionManager) TouchSession(sessionID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[sessionID]
	if exists {
		session.LastSeen = time.Now()
	}
	return exists
}

func (sm *SessionManager) SetProtocolVersion(sessionID, version string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if session, exists := sm.sessions[sessionID]; exists {
		session.ProtocolVersion = version
	}
}

func (sm *SessionManager) GetProtocolVersion(sessionID string) (string, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, exists := sm.sessions[sessionID]
	if !exists {
		return "", false
	}
	return session.ProtocolVersion, true
}

func (sm *SessionManager) MarkInitialized(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if session, exists := sm.sessions[sessionID]; exists {
		session.Initialized = true
	}
}

// BindStream attaches the SSE stream of a session, closing any previous one.
func (sm *SessionManager) BindStream(sessionID string, stream *notifyStream) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return false
	}
	if session.Stream != nil && session.Stream != stream {
		session.Stream.Close()
	}
	session.Stream = stream
	return true
}

// UnbindStream detaches stream if it is still the session's stream.
func (sm *SessionManager) UnbindStream(sessionID string, stream *notifyStream) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if session, exists := sm.sessions[sessionID]; exists && session.Stream == stream {
		session.Stream = nil
	}
}

// Broadcast pushes n to every initialized session with an open stream and
// returns how many received it.
func (sm *SessionManager) Broadcast(n *jsonrpc.Notification) int {
	sm.mu.RLock()
	streams := make([]*notifyStream, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		if session.Stream != nil && session.Initialized {
			streams = append(streams, session.Stream)
		}
	}
	sm.mu.RUnlock()

	sent := 0
	for _, stream := range streams {
		if err := stream.Notify(n); err == nil {
			sent++
		}
	}
	return sent
}

// RemoveSession removes a session
func (sm *SessionManager) RemoveSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[sessionID]; exists {
		if session.Stream != nil {
			session.Stream.Close()
		}
		delete(sm.sessions, sessionID)
	}
}

// CleanupSessions removes expired sessions
func (sm *SessionManager) CleanupSessions(timeout time.Duration) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for sessionID, session := range sm.sessions {
		if now.Sub(session.LastSeen) > timeout {
			if session.Stream != nil {
				session.Stream.Close()
			}
			delete(sm.sessions, sessionID)
		}
	}
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Close drops every session and ends their SSE streams.
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for sessionID, session := range sm.sessions {
		if session.Stream != nil {
			session.Stream.Close()
		}
		delete(sm.sessions, sessionID)
	}
}
