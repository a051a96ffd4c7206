package interaction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/slighter12/sanshu-mcp-go/logger"
)

// BinaryResolver locates the UI executable.
type BinaryResolver interface {
	Resolve() (string, error)
}

const (
	popupProcessLabel = "UI进程失败"
	iconProcessLabel  = "图标选择进程失败"
)

// ProcessError reports a UI process that could not be started or exited
// with a non-zero status. Label names the failed operation and leads the
// message; it defaults to the popup label.
type ProcessError struct {
	Label    string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	label := e.Label
	if label == "" {
		label = popupProcessLabel
	}
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", label, e.Stderr)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", label, e.Err)
	}
	return fmt.Sprintf("%s: exit code %d", label, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Transport drives the UI process. Each call writes its own request file
// named after the correlation id, so concurrent calls never share a path.
//
// The wait has no server-side timeout and a cancelled context does not kill
// the UI process: process exit is the only completion signal.
type Transport struct {
	resolver BinaryResolver
	tempDir  string
}

// NewTransport creates a transport that writes request files under the
// system temp directory.
func NewTransport(resolver BinaryResolver) *Transport {
	return &Transport{resolver: resolver, tempDir: os.TempDir()}
}

// WithTempDir overrides the directory used for request files.
func (t *Transport) WithTempDir(dir string) *Transport {
	t.tempDir = dir
	return t
}

// RequestPath returns the request file path for a correlation id.
func (t *Transport) RequestPath(id string) string {
	return filepath.Join(t.tempDir, fmt.Sprintf("mcp_request_%s.json", id))
}

// RunPopup shows a popup and returns the UI's trimmed stdout.
func (t *Transport) RunPopup(ctx context.Context, req Request) (string, error) {
	if req.ID == "" {
		return "", errors.New("request id is required")
	}

	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode popup request: %w", err)
	}

	path := t.RequestPath(req.ID)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write popup request: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.WarnContext(ctx, "Failed to remove popup request file", "request_id", req.ID, "file", path, "error", err)
		}
	}()

	logger.InfoContext(ctx, "Popup request written",
		"request_id", req.ID,
		"file", path,
		"message_len", len(req.Message),
		"message_preview", logger.Preview(req.Message, 200),
		"options_len", len(req.PredefinedOptions),
		"project", req.ProjectRootPath,
		"markdown", req.IsMarkdown)

	binary, err := t.resolver.Resolve()
	if err != nil {
		return "", err
	}

	return t.run(ctx, req.ID, popupProcessLabel, binary, "--mcp-request", path)
}

// RunIcon opens the icon picker. Empty output is a cancellation, not an
// error.
func (t *Transport) RunIcon(ctx context.Context, id string, req IconRequest) (IconResponse, error) {
	binary, err := t.resolver.Resolve()
	if err != nil {
		return IconResponse{}, err
	}

	out, err := t.run(ctx, id, iconProcessLabel, binary, req.Args()...)
	if err != nil {
		return IconResponse{}, err
	}
	if out == "" {
		return IconResponse{Cancelled: true}, nil
	}

	var resp IconResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return IconResponse{}, fmt.Errorf("解析图标保存响应失败: %w", err)
	}
	return resp, nil
}

func (t *Transport) run(ctx context.Context, id, label, binary string, args ...string) (string, error) {
	start := time.Now()

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.DebugContext(ctx, "Starting UI process", "request_id", id, "binary", binary, "args", len(args))
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		perr := &ProcessError{Label: label, ExitCode: -1, Stderr: strings.TrimSpace(stderr.String()), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			perr.ExitCode = exitErr.ExitCode()
		}
		logger.ErrorContext(ctx, "UI process failed",
			"request_id", id,
			"exit_code", perr.ExitCode,
			"stdout_len", stdout.Len(),
			"stderr_len", stderr.Len(),
			"stderr_preview", logger.Preview(perr.Stderr, 200),
			"elapsed_ms", elapsed)
		return "", perr
	}

	logger.InfoContext(ctx, "UI process finished",
		"request_id", id,
		"stdout_len", stdout.Len(),
		"stderr_len", stderr.Len(),
		"elapsed_ms", elapsed)
	return strings.TrimSpace(stdout.String()), nil
}
