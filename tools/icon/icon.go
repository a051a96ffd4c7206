package icon

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/slighter12/sanshu-mcp-go/interaction"
	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

const (
	CancelledText    = "用户取消了图标选择操作"
	NothingSavedText = "用户未选择任何图标"

	errorPrefix = "图标选择失败: "
)

var styles = []string{"line", "fill", "flat", "all"}

// Request is the decoded tu argument object.
type Request struct {
	Query       string `json:"query"`
	Style       string `json:"style"`
	SavePath    string `json:"save_path"`
	ProjectRoot string `json:"project_root"`
}

// Validate rejects unknown styles and save paths leaving the project.
func (r Request) Validate() error {
	if r.Style != "" && !slices.Contains(styles, r.Style) {
		return fmt.Errorf("unsupported style %q", r.Style)
	}
	_, err := r.savePath()
	return err
}

// savePath returns the canonical save_path, or "" when none was given.
func (r Request) savePath() (string, error) {
	if strings.TrimSpace(r.SavePath) == "" {
		return "", nil
	}
	clean, err := types.CleanRelativePath(r.SavePath)
	if err != nil {
		return "", fmt.Errorf("save_path: %w", err)
	}
	return clean, nil
}

// Picker runs the icon selection UI.
type Picker interface {
	RunIcon(ctx context.Context, id string, req interaction.IconRequest) (interaction.IconResponse, error)
}

// NewTool creates the tu tool, gated by the "icon" config key.
func NewTool(picker Picker) *types.Typed[Request] {
	return types.NewTyped(
		types.Descriptor{Name: mcp.ToolTu, ConfigKey: mcp.ToolIconKey, Label: "图标工坊工具"},
		Definition(),
		func(ctx context.Context, call types.Call, req Request) ([]mcp.Content, error) {
			return execute(ctx, picker, call, req)
		},
	)
}

// Definition returns the tu tool definition.
func Definition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolTu,
		Title:       "图标工坊",
		Description: "交互式图标选择工具。打开可视化界面让用户搜索、预览、选择并保存 Iconfont 图标。支持筛选风格、分页浏览和批量保存。",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "预设的搜索关键词（可选，用户可在界面中修改）",
				},
				"style": map[string]any{
					"type":        "string",
					"enum":        styles,
					"description": "预设的图标风格：line(线性)、fill(面性)、flat(扁平)、all(全部)",
				},
				"save_path": map[string]any{
					"type":        "string",
					"description": "建议的保存路径（相对于项目根目录，如 assets/icons）",
				},
				"project_root": map[string]any{
					"type":        "string",
					"description": "项目根目录路径（用于计算相对路径）",
				},
			},
		},
	}
}

func execute(ctx context.Context, picker Picker, call types.Call, req Request) ([]mcp.Content, error) {
	if picker == nil {
		return nil, types.NewInternalError("icon picker not configured", nil)
	}
	savePath, err := req.savePath()
	if err != nil {
		return nil, types.NewInvalidParamsError(err)
	}
	resp, err := picker.RunIcon(ctx, call.ID, interaction.IconRequest{
		Query:       req.Query,
		Style:       req.Style,
		SavePath:    savePath,
		ProjectRoot: types.NormalizeProjectRoot(req.ProjectRoot),
	})
	if err != nil {
		logger.Warn("Icon selection failed", "call_id", call.ID, "error", err)
		return nil, interaction.ToolError(errorPrefix, err)
	}
	logger.Info("Icon selection finished", "call_id", call.ID, "cancelled", resp.Cancelled, "saved", resp.SavedCount)
	return []mcp.Content{mcp.TextContent(Summary(resp))}, nil
}

// Summary renders the icon response for the calling agent.
func Summary(resp interaction.IconResponse) string {
	switch {
	case resp.Cancelled:
		return CancelledText
	case resp.SavedCount == 0:
		return NothingSavedText
	}
	names := make([]string, 0, len(resp.SavedNames))
	for _, name := range resp.SavedNames {
		names = append(names, "• "+name)
	}
	return fmt.Sprintf("✅ 已成功保存 %d 个图标到 %s\n\n保存的图标：\n%s",
		resp.SavedCount, resp.SavePath, strings.Join(names, "\n"))
}
