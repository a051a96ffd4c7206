package tools

import (
	"github.com/slighter12/sanshu-mcp-go/interaction"
	"github.com/slighter12/sanshu-mcp-go/tools/docs"
	"github.com/slighter12/sanshu-mcp-go/tools/enhance"
	"github.com/slighter12/sanshu-mcp-go/tools/icon"
	"github.com/slighter12/sanshu-mcp-go/tools/memory"
	"github.com/slighter12/sanshu-mcp-go/tools/search"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
	"github.com/slighter12/sanshu-mcp-go/tools/uiux"
	"github.com/slighter12/sanshu-mcp-go/tools/zhi"
)

// HistoryStore records zhi exchanges and serves them back to enhance.
type HistoryStore interface {
	zhi.Recorder
	enhance.HistoryReader
}

// Dependencies are the collaborators shared by the built-in tools. Backends
// left nil make their tool answer with an internal error.
type Dependencies struct {
	Popup      zhi.Popup
	Picker     icon.Picker
	Reconciler *interaction.Reconciler
	ClientMode func() interaction.ClientMode
	History    HistoryStore

	Memory  types.Backend[memory.Request]
	Search  types.Backend[search.Request]
	Docs    types.Backend[docs.Request]
	Enhance types.Backend[enhance.Request]
	UIUX    uiux.Engine
}

// GetAllTools returns every built-in tool in listing order.
func GetAllTools(deps Dependencies) []types.Tool {
	all := []types.Tool{
		zhi.NewTool(zhi.Options{
			Popup:      deps.Popup,
			Reconciler: deps.Reconciler,
			ClientMode: deps.ClientMode,
			History:    deps.History,
		}),
		memory.NewTool(deps.Memory),
		search.NewTool(deps.Search),
		docs.NewTool(deps.Docs),
		icon.NewTool(deps.Picker),
	}
	all = append(all, uiux.NewTools(deps.UIUX)...)
	return append(all, enhance.NewTool(deps.Enhance, deps.History))
}
