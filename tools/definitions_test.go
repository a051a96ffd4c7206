package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slighter12/sanshu-mcp-go/history"
	"github.com/slighter12/sanshu-mcp-go/interaction"
	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/enhance"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

type scriptedPopup struct {
	reply string
}

func (p scriptedPopup) RunPopup(context.Context, interaction.Request) (string, error) {
	return p.reply, nil
}

func TestGetAllToolsOrder(t *testing.T) {
	var names []string
	for _, tool := range GetAllTools(Dependencies{}) {
		names = append(names, tool.Definition().Name)
	}
	want := []string{
		mcp.ToolZhi, mcp.ToolJi, mcp.ToolSou, mcp.ToolContext7, mcp.ToolTu,
		mcp.ToolUIUXSearch, mcp.ToolUIUXStack, mcp.ToolUIUXDesignSystem, mcp.ToolUIUXSuggest,
		mcp.ToolEnhance,
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, names)
	}
}

func TestUIUXToolsShareOneSwitch(t *testing.T) {
	source := &fakeSource{tools: map[string]bool{mcp.ToolUIUXKey: false}}
	manager := NewManager(NewRegistry(source))
	manager.RegisterTools(GetAllTools(Dependencies{})...)

	for _, def := range manager.EnabledTools() {
		if strings.HasPrefix(def.Name, "uiux_") {
			t.Errorf("%s listed while uiux is disabled", def.Name)
		}
	}
	_, err := manager.Call(context.Background(), mcp.ToolUIUXSuggest, map[string]any{"text": "美化界面"})
	toolErr, ok := types.AsToolError(err)
	if !ok || toolErr.Kind != types.KindDisabled {
		t.Fatalf("Expected disabled error, got %v", err)
	}
	if toolErr.Message != "UI/UX 工具已被禁用" {
		t.Errorf("Unexpected disabled message: %s", toolErr.Message)
	}

	source.set(mcp.ToolUIUXKey, true)
	if _, err := manager.Call(context.Background(), mcp.ToolUIUXSuggest, map[string]any{"text": "美化界面"}); err != nil {
		t.Fatalf("Expected uiux_suggest to run once enabled: %v", err)
	}
}

func TestZhiHistoryReachesEnhanceBackend(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), 20)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()

	var seen enhance.Request
	backend := types.BackendFunc[enhance.Request](func(_ context.Context, _ string, req enhance.Request) ([]mcp.Content, error) {
		seen = req
		return []mcp.Content{mcp.TextContent("enhanced")}, nil
	})

	manager := NewManager(nil)
	manager.RegisterTools(GetAllTools(Dependencies{
		Popup:      scriptedPopup{reply: `{"selected_options":["用 JWT"],"user_input":"注意刷新令牌"}`},
		Reconciler: interaction.NewReconciler(nil),
		History:    store,
		Enhance:    backend,
	})...)

	root := t.TempDir()
	if _, err := manager.Call(context.Background(), mcp.ToolZhi, map[string]any{
		"message":           "登录怎么做？",
		"project_root_path": root,
	}); err != nil {
		t.Fatalf("zhi call failed: %v", err)
	}

	if _, err := manager.Call(context.Background(), mcp.ToolEnhance, map[string]any{
		"prompt":            "实现登录",
		"project_root_path": root,
	}); err != nil {
		t.Fatalf("enhance call failed: %v", err)
	}

	if !strings.HasPrefix(seen.History, "- Q: 登录怎么做？\n  A: ") {
		t.Fatalf("Expected the zhi exchange in the enhance request, got %q", seen.History)
	}
	if !strings.Contains(seen.History, "用 JWT") || !strings.Contains(seen.History, "注意刷新令牌") {
		t.Errorf("Expected the user's reply in the summary, got %q", seen.History)
	}

	if _, err := manager.Call(context.Background(), mcp.ToolEnhance, map[string]any{
		"prompt":            "实现登录",
		"project_root_path": root,
		"include_history":   false,
	}); err != nil {
		t.Fatalf("enhance call failed: %v", err)
	}
	if seen.History != "" {
		t.Errorf("include_history=false should leave history out, got %q", seen.History)
	}
}
