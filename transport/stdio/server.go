package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/mcp/jsonrpc"
	"github.com/slighter12/sanshu-mcp-go/tools"
	"github.com/slighter12/sanshu-mcp-go/transport/shared"
)

// maxFrameBytes bounds one newline-delimited message.
const maxFrameBytes = 16 << 20

// StdioServer handles MCP communication over stdio. Each request runs on
// its own goroutine so a blocking popup never stalls other calls;
// responses are written whole, one per line.
type StdioServer struct {
	toolManager *tools.Manager
	info        shared.ServerInfo

	in  io.Reader
	out io.Writer

	writeMu  sync.Mutex
	inflight sync.WaitGroup
}

// NewStdioServer creates a new stdio server on os.Stdin and os.Stdout.
func NewStdioServer(toolManager *tools.Manager, info shared.ServerInfo) *StdioServer {
	return &StdioServer{
		toolManager: toolManager,
		info:        info,
		in:          os.Stdin,
		out:         os.Stdout,
	}
}

// WithIO replaces the input and output streams.
func (s *StdioServer) WithIO(in io.Reader, out io.Writer) *StdioServer {
	s.in = in
	s.out = out
	return s
}

// Start serves until the input reaches EOF or ctx is done, then waits for
// in-flight requests to finish.
func (s *StdioServer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)

	logger.Debug("Stdio server started and waiting for messages")

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				err = <-scanErr
				logger.Debug("Stdio EOF received, terminating server")
				break loop
			}
			s.dispatch(ctx, line)
		}
	}

	s.inflight.Wait()
	return err
}

func (s *StdioServer) dispatch(ctx context.Context, line []byte) {
	msg, errResp, _, err := shared.ParseJSONRPCFrame(line)
	if err != nil {
		return
	}
	if errResp != nil {
		s.write(errResp)
		return
	}
	if msg == nil {
		return
	}

	logger.Debug("Stdio message received", "method", msg.Method, "id", msg.ID)

	// Cancellations must not queue behind the call they cancel.
	if msg.Method == mcp.MethodCancelledNotification {
		shared.HandleCancelled("", *msg, s.toolManager)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if response := s.handleMessage(ctx, *msg); response != nil {
			s.write(response)
		}
	}()
}

func (s *StdioServer) handleMessage(ctx context.Context, msg jsonrpc.Request) any {
	switch msg.Method {
	case mcp.MethodInitialize:
		logger.Debug("Handling initialize message", "request_id", msg.ID)
		version := shared.NegotiateProtocolVersion(msg.Params)
		return jsonrpc.NewResponse(msg.ID, shared.BuildInitializeResult(s.info, version, ""))
	default:
		return shared.DispatchStandardMethod(ctx, "", msg, s.toolManager)
	}
}

// NotifyToolsListChanged tells the client to re-fetch tools/list.
func (s *StdioServer) NotifyToolsListChanged() {
	s.write(shared.ToolsListChanged())
}

func (s *StdioServer) write(response any) {
	data, err := json.Marshal(response)
	if err != nil {
		logger.Error("Error encoding response", "error", err)
		return
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		logger.Error("Error writing response", "error", err)
	}
}
