package docs

import (
	"errors"
	"strings"

	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

// Request is the decoded context7 argument object.
type Request struct {
	Library string `json:"library"`
	Topic   string `json:"topic"`
	Version string `json:"version"`
	Page    *int   `json:"page"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Library) == "" {
		return errors.New("library is required")
	}
	if r.Page != nil && *r.Page < 1 {
		return errors.New("page starts at 1")
	}
	return nil
}

// NewTool creates the context7 tool backed by backend.
func NewTool(backend types.Backend[Request]) *types.Typed[Request] {
	return types.NewTyped(
		types.Descriptor{Name: mcp.ToolContext7, Label: "Context7 文档查询工具"},
		Definition(),
		types.Delegate(mcp.ToolContext7, backend),
	)
}

func Definition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolContext7,
		Description: "查询第三方库的最新官方文档，支持指定主题、版本和分页",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"library": map[string]any{
					"type":        "string",
					"description": "库标识，如 vercel/next.js 或 react",
				},
				"topic": map[string]any{
					"type":        "string",
					"description": "聚焦的主题（可选）",
				},
				"version": map[string]any{
					"type":        "string",
					"description": "库版本（可选）",
				},
				"page": map[string]any{
					"type":        "integer",
					"minimum":     1,
					"description": "分页页码，从 1 开始（可选）",
				},
			},
			Required: []string{"library"},
		},
	}
}
