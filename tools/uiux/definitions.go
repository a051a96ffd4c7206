package uiux

import "github.com/slighter12/sanshu-mcp-go/mcp"

func outputProperties(props map[string]any) map[string]any {
	props["output_format"] = map[string]any{
		"type":        "string",
		"enum":        []string{string(FormatJSON), string(FormatText)},
		"description": "输出格式：json 返回统一结构，text 仅返回文本（默认 json）",
	}
	props["lang"] = map[string]any{
		"type":        "string",
		"enum":        []string{string(LangZh), string(LangEn)},
		"description": "文案语言（默认 zh）",
	}
	return props
}

var modeProperty = map[string]any{
	"type":        "string",
	"enum":        []string{string(ModeSearch), string(ModeBeautify), string(ModeDesignSystem)},
	"description": "调用意图，影响摘要文案",
}

var maxResultsProperty = map[string]any{
	"type":        "integer",
	"minimum":     1,
	"maximum":     maxResultsLimit,
	"description": "返回条数（默认 3）",
}

func SearchDefinition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolUIUXSearch,
		Title:       "UI/UX 检索",
		Description: "检索 UI/UX 设计知识库（风格、配色、字体、图表、落地页、无障碍等），支持中文与中英混合查询，未指定领域时自动识别",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: outputProperties(map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "检索内容",
				},
				"domain": map[string]any{
					"type":        "string",
					"enum":        Domains,
					"description": "检索领域（可选，默认自动识别）",
				},
				"max_results": maxResultsProperty,
				"mode":        modeProperty,
			}),
			Required: []string{"query"},
		},
	}
}

func StackDefinition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolUIUXStack,
		Title:       "UI/UX 技术栈指南",
		Description: "查询指定技术栈（如 react、vue、html-tailwind、swiftui）的 UI 实现指南",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: outputProperties(map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "检索内容",
				},
				"stack": map[string]any{
					"type":        "string",
					"description": "技术栈标识",
				},
				"max_results": maxResultsProperty,
			}),
			Required: []string{"query", "stack"},
		},
	}
}

func DesignSystemDefinition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolUIUXDesignSystem,
		Title:       "UI/UX 设计系统",
		Description: "根据产品描述生成设计系统建议（风格、配色、字体、组件规范），可选写入 design-system 目录",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: outputProperties(map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "产品或页面描述",
				},
				"project_name": map[string]any{
					"type":        "string",
					"description": "项目名称（可选，默认使用 query）",
				},
				"format": map[string]any{
					"type":        "string",
					"enum":        []string{"ascii", "markdown"},
					"description": "设计系统文档格式（默认 markdown）",
				},
				"persist": map[string]any{
					"type":        "boolean",
					"description": "是否写入 design-system/<项目>/MASTER.md",
				},
				"page": map[string]any{
					"type":        "string",
					"description": "页面名称，写入 pages/<页面>.md（可选）",
				},
				"output_dir": map[string]any{
					"type":        "string",
					"description": "写入根目录（可选，默认当前目录）",
				},
				"mode": modeProperty,
			}),
			Required: []string{"query"},
		},
	}
}

func SuggestDefinition() mcp.Tool {
	return mcp.Tool{
		Name:        mcp.ToolUIUXSuggest,
		Title:       "UI/UX 需求识别",
		Description: "判断一段文本是否包含 UI/UX 诉求，并给出匹配关键词与建议检索领域",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: outputProperties(map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "待识别的文本",
				},
			}),
			Required: []string{"text"},
		},
	}
}
