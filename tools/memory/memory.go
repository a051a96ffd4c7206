package memory

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

// Actions accepted by ji.
const (
	ActionRemember = "记忆"
	ActionRecall   = "回忆"
	ActionCompact  = "整理"
	ActionList     = "列表"
	ActionPreview  = "预览相似"
	ActionConfig   = "配置"
	ActionDelete   = "删除"
)

var (
	actions    = []string{ActionRemember, ActionRecall, ActionCompact, ActionList, ActionPreview, ActionConfig, ActionDelete}
	categories = []string{"rule", "preference", "pattern", "context"}
)

// Config carries the dedup settings for the 配置 action.
type Config struct {
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	DedupOnStartup      *bool    `json:"dedup_on_startup"`
	EnableDedup         *bool    `json:"enable_dedup"`
}

// Request is the decoded ji argument object.
type Request struct {
	Action      string  `json:"action"`
	ProjectPath string  `json:"project_path"`
	Content     string  `json:"content"`
	Category    string  `json:"category"`
	Config      *Config `json:"config"`
	MemoryID    string  `json:"memory_id"`
}

func (r Request) Validate() error {
	if !slices.Contains(actions, r.Action) {
		return fmt.Errorf("unsupported action %q", r.Action)
	}
	if strings.TrimSpace(r.ProjectPath) == "" {
		return errors.New("project_path is required")
	}
	switch r.Action {
	case ActionRemember, ActionPreview:
		if strings.TrimSpace(r.Content) == "" {
			return fmt.Errorf("content is required for %s", r.Action)
		}
	case ActionDelete:
		if strings.TrimSpace(r.MemoryID) == "" {
			return errors.New("memory_id is required for 删除")
		}
	}
	if r.Category != "" && !slices.Contains(categories, r.Category) {
		return fmt.Errorf("unsupported category %q", r.Category)
	}
	if r.Config != nil && r.Config.SimilarityThreshold != nil {
		if t := *r.Config.SimilarityThreshold; t < 0.5 || t > 0.95 {
			return fmt.Errorf("similarity_threshold %.2f out of range 0.5~0.95", t)
		}
	}
	return nil
}

// NewTool creates the ji tool backed by backend.
func NewTool(backend types.Backend[Request]) *types.Typed[Request] {
	return types.NewTyped(
		types.Descriptor{Name: mcp.ToolJi, Label: "记忆管理工具"},
		Definition(),
		types.Delegate(mcp.ToolJi, backend),
	)
}

func Definition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolJi,
		Description: "全局记忆管理工具，用于存储和管理重要的开发规范、用户偏好和最佳实践",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"action": map[string]any{
					"type":        "string",
					"description": "操作类型：记忆(添加) | 回忆(查询) | 整理(去重) | 列表(全部记忆) | 预览相似(检测相似度) | 配置(获取/更新) | 删除(移除记忆)",
				},
				"project_path": map[string]any{
					"type":        "string",
					"description": "项目路径（必需）",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "记忆内容（记忆/预览相似操作时必需）",
				},
				"category": map[string]any{
					"type":        "string",
					"description": "记忆分类：rule(规范规则), preference(用户偏好), pattern(最佳实践), context(项目上下文)",
				},
				"config": map[string]any{
					"type":        "object",
					"description": "配置参数（配置操作时使用）",
					"properties": map[string]any{
						"similarity_threshold": map[string]any{"type": "number", "description": "相似度阈值 (0.5~0.95)，超过此值视为重复"},
						"dedup_on_startup":     map[string]any{"type": "boolean", "description": "启动时自动去重"},
						"enable_dedup":         map[string]any{"type": "boolean", "description": "启用去重检测"},
					},
				},
				"memory_id": map[string]any{
					"type":        "string",
					"description": "记忆ID（删除操作时必需）",
				},
			},
			Required: []string{"action", "project_path"},
		},
	}
}
