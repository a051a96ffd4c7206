package enhance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/slighter12/sanshu-mcp-go/history"
	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

const (
	historyEntries   = 5
	historyTextLimit = 200
)

// Request is the decoded enhance argument object.
type Request struct {
	Prompt          string `json:"prompt"`
	ProjectRootPath string `json:"project_root_path"`
	CurrentFile     string `json:"current_file"`
	IncludeHistory  *bool  `json:"include_history"`

	// History summarizes the project's recent zhi exchanges. It is filled
	// by the tool, never decoded from arguments.
	History string `json:"-"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("prompt is required")
	}
	return nil
}

// WithHistory reports whether prior interactions should be folded in.
// Defaults to true.
func (r Request) WithHistory() bool {
	return r.IncludeHistory == nil || *r.IncludeHistory
}

// HistoryReader returns the newest n interactions recorded for a project.
type HistoryReader interface {
	Recent(ctx context.Context, projectPath string, n int) ([]history.Entry, error)
}

// NewTool creates the enhance tool backed by backend. When reader is set and
// the request asks for history, the project's recent zhi exchanges reach the
// backend in Request.History. enhance is off by default.
func NewTool(backend types.Backend[Request], reader HistoryReader) *types.Typed[Request] {
	delegate := types.Delegate(mcp.ToolEnhance, backend)
	return types.NewTyped(
		types.Descriptor{Name: mcp.ToolEnhance, Label: "提示词增强工具"},
		Definition(),
		func(ctx context.Context, call types.Call, req Request) ([]mcp.Content, error) {
			req.History = loadHistory(ctx, reader, call.ID, req)
			return delegate(ctx, call, req)
		},
	)
}

// loadHistory never fails the call; a missing or unreadable history only
// leaves the summary empty.
func loadHistory(ctx context.Context, reader HistoryReader, callID string, req Request) string {
	root := types.NormalizeProjectRoot(req.ProjectRootPath)
	if reader == nil || root == "" || !req.WithHistory() {
		return ""
	}
	entries, err := reader.Recent(ctx, root, historyEntries)
	if err != nil {
		logger.Debug("Loading interaction history failed", "call_id", callID, "project", root, "error", err)
		return ""
	}
	summary := Summarize(entries)
	logger.Debug("Interaction history loaded", "call_id", callID, "entries", len(entries), "summary_len", len(summary))
	return summary
}

// Summarize renders entries (newest first, as Recent returns them) oldest
// first as "- Q: ...\n  A: ..." pairs. Entries with neither side are
// skipped.
func Summarize(entries []history.Entry) string {
	lines := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		prompt := clip(entries[i].Prompt, historyTextLimit)
		reply := clip(entries[i].UserReply, historyTextLimit)
		if prompt == "" && reply == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- Q: %s\n  A: %s", prompt, reply))
	}
	return strings.Join(lines, "\n")
}

// clip flattens s onto one line and cuts it to limit runes.
func clip(s string, limit int) string {
	s = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func Definition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolEnhance,
		Description: "提示词增强工具，结合项目上下文与历史对话将用户输入改写为更清晰完整的提示词",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"prompt": map[string]any{
					"type":        "string",
					"description": "需要增强的原始提示词",
				},
				"project_root_path": map[string]any{
					"type":        "string",
					"description": "项目根目录绝对路径（可选）",
				},
				"current_file": map[string]any{
					"type":        "string",
					"description": "当前编辑的文件路径（可选）",
				},
				"include_history": map[string]any{
					"type":        "boolean",
					"description": "是否结合历史对话，默认为true",
				},
			},
			Required: []string{"prompt"},
		},
	}
}
