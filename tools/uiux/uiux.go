package uiux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

const label = "UI/UX 工具"

// Engine answers catalog lookups for the uiux tools. uiux_suggest runs
// without one.
type Engine interface {
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	Stack(ctx context.Context, req StackRequest) (SearchResult, error)
	DesignSystem(ctx context.Context, req DesignSystemRequest) (DesignSystem, error)
}

// SearchResult is one catalog lookup. Rows keep the catalog's column names.
type SearchResult struct {
	Domain string              `json:"domain"`
	Stack  string              `json:"stack,omitempty"`
	Query  string              `json:"query"`
	Count  int                 `json:"count"`
	Rows   []map[string]string `json:"results"`
}

// DesignSystem is a generated design system document.
type DesignSystem struct {
	ProjectName string `json:"project_name"`
	Format      string `json:"format"`
	Content     string `json:"content"`
	Persisted   bool   `json:"persisted"`
	Path        string `json:"path,omitempty"`
}

// NewTools creates the uiux_* family, all gated by the "uiux" config key.
func NewTools(engine Engine) []types.Tool {
	return []types.Tool{
		types.NewTyped(descriptor(mcp.ToolUIUXSearch), SearchDefinition(),
			func(ctx context.Context, call types.Call, req SearchRequest) ([]mcp.Content, error) {
				return search(ctx, engine, call, req)
			}),
		types.NewTyped(descriptor(mcp.ToolUIUXStack), StackDefinition(),
			func(ctx context.Context, call types.Call, req StackRequest) ([]mcp.Content, error) {
				return stack(ctx, engine, call, req)
			}),
		types.NewTyped(descriptor(mcp.ToolUIUXDesignSystem), DesignSystemDefinition(),
			func(ctx context.Context, call types.Call, req DesignSystemRequest) ([]mcp.Content, error) {
				return designSystem(ctx, engine, call, req)
			}),
		types.NewTyped(descriptor(mcp.ToolUIUXSuggest), SuggestDefinition(), suggest),
	}
}

func descriptor(name string) types.Descriptor {
	return types.Descriptor{Name: name, ConfigKey: mcp.ToolUIUXKey, Label: label}
}

func notConfigured(name string) error {
	return types.NewInternalError(name+" backend not configured", nil)
}

func search(ctx context.Context, engine Engine, call types.Call, req SearchRequest) ([]mcp.Content, error) {
	if engine == nil {
		return nil, notConfigured(mcp.ToolUIUXSearch)
	}
	if req.Domain == "" {
		req.Domain = DetectDomain(req.Query)
	}
	limit := maxResults(req.MaxResults)
	req.MaxResults = &limit
	req.Terms = ExpandQuery(req.Query)

	result, err := engine.Search(ctx, req)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if result.Domain == "" {
		result.Domain = req.Domain
	}
	result = trimRows(result, req.Query, limit)

	env := newEnvelope(mcp.ToolUIUXSearch, req.Lang, call.ID, map[string]any{"result": result}, searchText(req.Lang, req.Mode, result))
	if err != nil {
		env.fail("search_failed", err.Error())
	}
	logger.Debug("UI/UX search finished", "call_id", call.ID, "domain", result.Domain, "terms", len(req.Terms), "count", result.Count, "error", err)
	return env.Content(req.OutputFormat, rowsText(result.Rows))
}

func stack(ctx context.Context, engine Engine, call types.Call, req StackRequest) ([]mcp.Content, error) {
	if engine == nil {
		return nil, notConfigured(mcp.ToolUIUXStack)
	}
	req.Stack = strings.ToLower(strings.TrimSpace(req.Stack))
	limit := maxResults(req.MaxResults)
	req.MaxResults = &limit
	req.Terms = ExpandQuery(req.Query)

	result, err := engine.Stack(ctx, req)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if result.Stack == "" {
		result.Stack = req.Stack
	}
	result = trimRows(result, req.Query, limit)

	env := newEnvelope(mcp.ToolUIUXStack, req.Lang, call.ID, map[string]any{"result": result}, stackText(req.Lang, result))
	if err != nil {
		env.fail("stack_failed", err.Error())
	}
	logger.Debug("UI/UX stack lookup finished", "call_id", call.ID, "stack", result.Stack, "count", result.Count, "error", err)
	return env.Content(req.OutputFormat, rowsText(result.Rows))
}

func designSystem(ctx context.Context, engine Engine, call types.Call, req DesignSystemRequest) ([]mcp.Content, error) {
	if engine == nil {
		return nil, notConfigured(mcp.ToolUIUXDesignSystem)
	}
	if req.Format == "" {
		req.Format = "markdown"
	}

	ds, err := engine.DesignSystem(ctx, req)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	ds.ProjectName = req.Name()
	ds.Format = req.Format

	var failure Error
	switch {
	case err != nil:
		failure = Error{Code: "design_system_failed", Message: err.Error()}
	case req.Persist != nil && *req.Persist:
		path, perr := persistDesignSystem(req, ds)
		if perr != nil {
			failure = Error{Code: "persist_failed", Message: perr.Error()}
		} else {
			ds.Persisted, ds.Path = true, path
		}
	}

	env := newEnvelope(mcp.ToolUIUXDesignSystem, req.Lang, call.ID, map[string]any{"result": ds},
		designSystemText(req.Lang, req.Mode, ds.ProjectName, ds.Persisted))
	if failure.Code != "" {
		env.fail(failure.Code, failure.Message)
	}
	logger.Debug("UI/UX design system finished", "call_id", call.ID, "project", ds.ProjectName, "persisted", ds.Persisted, "path", ds.Path)
	return env.Content(req.OutputFormat, ds.Content)
}

func suggest(_ context.Context, call types.Call, req SuggestRequest) ([]mcp.Content, error) {
	result := Suggest(req.Text)
	env := newEnvelope(mcp.ToolUIUXSuggest, req.Lang, call.ID, map[string]any{"result": result}, suggestText(req.Lang, result))
	return env.Content(req.OutputFormat, "")
}

func trimRows(result SearchResult, query string, limit int) SearchResult {
	if len(result.Rows) > limit {
		result.Rows = result.Rows[:limit]
	}
	if result.Rows == nil {
		result.Rows = []map[string]string{}
	}
	result.Query = query
	result.Count = len(result.Rows)
	return result
}

// persistDesignSystem writes <output_dir>/design-system/<slug>/MASTER.md, or
// pages/<page>.md beside it when a page is named. output_dir defaults to the
// working directory.
func persistDesignSystem(req DesignSystemRequest, ds DesignSystem) (string, error) {
	base := strings.TrimSpace(req.OutputDir)
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve output dir: %w", err)
		}
		base = wd
	}
	dir := filepath.Join(base, "design-system", Slug(ds.ProjectName))
	path := filepath.Join(dir, "MASTER.md")
	if page := strings.TrimSpace(req.Page); page != "" {
		path = filepath.Join(dir, "pages", PathSegment(page)+".md")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create design system dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(ds.Content), 0o644); err != nil {
		return "", fmt.Errorf("write design system: %w", err)
	}
	return path, nil
}
