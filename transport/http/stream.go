package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/slighter12/sanshu-mcp-go/mcp/jsonrpc"
)

var errStreamClosed = errors.New("notification stream is closed")

// notifyStream is the SSE response opened by GET /mcp. Requests are answered
// inline on POST, so the stream only ever carries JSON-RPC notifications.
type notifyStream struct {
	mu     sync.Mutex
	w      io.Writer
	flush  http.Flusher
	closed bool
	done   chan struct{}
}

func newNotifyStream(w io.Writer, flusher http.Flusher) *notifyStream {
	return &notifyStream{w: w, flush: flusher, done: make(chan struct{})}
}

// open writes the comment frame that lets clients see the stream is live.
func (s *notifyStream) open() error {
	return s.write([]byte(": stream opened\n\n"))
}

// Notify writes n as one "message" event.
func (s *notifyStream) Notify(n *jsonrpc.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", n.Method, err)
	}
	frame := make([]byte, 0, len(payload)+32)
	frame = append(frame, "event: message\ndata: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)
	return s.write(frame)
}

func (s *notifyStream) write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStreamClosed
	}
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	s.flush.Flush()
	return nil
}

// Close ends the stream. Later writes fail with errStreamClosed and Done is
// released. Safe to call more than once.
func (s *notifyStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

// Done is closed once the stream has been closed from either side.
func (s *notifyStream) Done() <-chan struct{} {
	return s.done
}
