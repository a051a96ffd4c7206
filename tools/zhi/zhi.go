package zhi

import (
	"context"
	"time"

	"github.com/slighter12/sanshu-mcp-go/history"
	"github.com/slighter12/sanshu-mcp-go/interaction"
	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

const recordTimeout = 5 * time.Second

// Request is the decoded zhi argument object.
type Request struct {
	Message           string   `json:"message"`
	PredefinedOptions []string `json:"predefined_options"`
	IsMarkdown        *bool    `json:"is_markdown"`
	ProjectRootPath   string   `json:"project_root_path"`
	UIUXIntent        string   `json:"uiux_intent"`
	UIUXContextPolicy string   `json:"uiux_context_policy"`
	UIUXReason        string   `json:"uiux_reason"`
}

// Popup runs one interaction round trip with the UI process.
type Popup interface {
	RunPopup(ctx context.Context, req interaction.Request) (string, error)
}

// Recorder stores completed interactions.
type Recorder interface {
	Add(ctx context.Context, projectPath string, e history.Entry) (string, error)
}

// Options wires the zhi tool. ClientMode is consulted once per call; a nil
// ClientMode means generic. History is optional.
type Options struct {
	Popup      Popup
	Reconciler *interaction.Reconciler
	ClientMode func() interaction.ClientMode
	History    Recorder
}

type service struct {
	opts Options
}

// NewTool creates the zhi tool. zhi is required and never gated.
func NewTool(opts Options) *types.Typed[Request] {
	if opts.Reconciler == nil {
		opts.Reconciler = interaction.NewReconciler(interaction.NewTempImageSaver())
	}
	s := &service{opts: opts}
	return types.NewTyped(
		types.Descriptor{Name: mcp.ToolZhi, Required: true, Label: "智能交互工具"},
		Definition(),
		s.execute,
	)
}

// Definition returns the zhi tool definition.
func Definition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolZhi,
		Description: "智能代码审查交互工具，支持预定义选项、自由文本输入和图片上传",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"message": map[string]any{
					"type":        "string",
					"description": "要显示给用户的消息",
				},
				"predefined_options": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "预定义的选项列表（可选）",
				},
				"is_markdown": map[string]any{
					"type":        "boolean",
					"description": "消息是否为Markdown格式，默认为true",
				},
				"project_root_path": map[string]any{
					"type":        "string",
					"description": "项目根目录绝对路径",
				},
				"uiux_intent":         map[string]any{"type": "string"},
				"uiux_context_policy": map[string]any{"type": "string"},
				"uiux_reason":         map[string]any{"type": "string"},
			},
			Required: []string{"message"},
		},
	}
}

func (s *service) execute(ctx context.Context, call types.Call, req Request) ([]mcp.Content, error) {
	if req.UIUXIntent != "" || req.UIUXContextPolicy != "" || req.UIUXReason != "" {
		logger.Info("UI/UX context signals",
			"call_id", call.ID,
			"intent", req.UIUXIntent,
			"policy", req.UIUXContextPolicy,
			"reason", req.UIUXReason)
	}

	isMarkdown := true
	if req.IsMarkdown != nil {
		isMarkdown = *req.IsMarkdown
	}
	popupReq := interaction.Request{
		ID:                call.ID,
		Message:           req.Message,
		PredefinedOptions: req.PredefinedOptions,
		IsMarkdown:        isMarkdown,
		ProjectRootPath:   types.NormalizeProjectRoot(req.ProjectRootPath),
		UIUXIntent:        req.UIUXIntent,
		UIUXContextPolicy: req.UIUXContextPolicy,
		UIUXReason:        req.UIUXReason,
	}
	logger.Info("Popup request",
		"call_id", call.ID,
		"message_len", len(req.Message),
		"message_preview", logger.Preview(req.Message, 200),
		"options", len(req.PredefinedOptions),
		"project", popupReq.ProjectRootPath)

	if s.opts.Popup == nil {
		return nil, types.NewInternalError("popup transport not configured", nil)
	}
	raw, err := s.opts.Popup.RunPopup(ctx, popupReq)
	if err != nil {
		logger.Warn("Popup failed", "call_id", call.ID, "error", err)
		return nil, interaction.ToolError("", err)
	}
	logger.Debug("Popup response received", "call_id", call.ID, "response_len", len(raw))

	mode := interaction.ModeGeneric
	if s.opts.ClientMode != nil {
		mode = s.opts.ClientMode()
	}
	content := s.opts.Reconciler.Reconcile(raw, mode)
	s.record(ctx, call.ID, popupReq, content)
	return content, nil
}

// record saves the exchange to history. Failures are logged only.
func (s *service) record(ctx context.Context, callID string, req interaction.Request, content []mcp.Content) {
	if s.opts.History == nil || req.ProjectRootPath == "" || interaction.IsCancellation(content) {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	_, err := s.opts.History.Add(ctx, req.ProjectRootPath, history.Entry{
		RequestID: callID,
		Prompt:    req.Message,
		UserReply: interaction.ReplySummary(content),
		Source:    history.SourcePopup,
	})
	if err != nil {
		logger.Warn("Recording interaction history failed", "call_id", callID, "error", err)
	}
}
