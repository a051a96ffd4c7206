package search

import (
	"errors"
	"strings"

	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

// Request is the decoded sou argument object.
type Request struct {
	ProjectRootPath string `json:"project_root_path"`
	Query           string `json:"query"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.ProjectRootPath) == "" {
		return errors.New("project_root_path is required")
	}
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is required")
	}
	return nil
}

// NewTool creates the sou tool backed by backend. sou is off by default.
func NewTool(backend types.Backend[Request]) *types.Typed[Request] {
	return types.NewTyped(
		types.Descriptor{Name: mcp.ToolSou, Label: "代码搜索工具"},
		Definition(),
		types.Delegate(mcp.ToolSou, backend),
	)
}

func Definition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolSou,
		Description: "代码库语义搜索工具，根据自然语言查询在项目中检索相关代码片段",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"project_root_path": map[string]any{
					"type":        "string",
					"description": "项目根目录绝对路径",
				},
				"query": map[string]any{
					"type":        "string",
					"description": "自然语言搜索查询",
				},
			},
			Required: []string{"project_root_path", "query"},
		},
	}
}
