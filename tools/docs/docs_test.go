package docs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slighter12/sanshu-mcp-go/mcp"
	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

func TestDocsDecodesPage(t *testing.T) {
	var got Request
	backend := types.BackendFunc[Request](func(_ context.Context, _ string, req Request) ([]mcp.Content, error) {
		got = req
		return []mcp.Content{mcp.TextContent("docs")}, nil
	})

	handler, err := NewTool(backend).Prepare(map[string]any{"library": "react", "topic": "hooks", "page": float64(2)})
	require.NoError(t, err)
	_, err = handler(context.Background(), types.Call{ID: "c7-1"})
	require.NoError(t, err)

	assert.Equal(t, "react", got.Library)
	require.NotNil(t, got.Page)
	assert.Equal(t, 2, *got.Page)
}

func TestDocsValidate(t *testing.T) {
	zero := 0
	assert.Error(t, Request{}.Validate())
	assert.Error(t, Request{Library: "react", Page: &zero}.Validate())
	assert.NoError(t, Request{Library: "react"}.Validate())
}
