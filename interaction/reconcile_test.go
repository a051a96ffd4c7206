package interaction

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slighter12/sanshu-mcp-go/mcp"
)

const pngB64 = "iVBORw0KGgo="

type failingSaver struct{}

func (failingSaver) Save(string, string, int) (string, error) {
	return "", errors.New("disk full")
}

func TestReconcileCancellation(t *testing.T) {
	r := NewReconciler(&TempImageSaver{Dir: t.TempDir()})
	for _, raw := range []string{"", "   ", "\n\t", "CANCELLED", " CANCELLED \n", "用户取消了操作"} {
		for _, mode := range []ClientMode{ModeGeneric, ModeAugment} {
			got := r.Reconcile(raw, mode)
			require.Len(t, got, 1, "raw=%q mode=%s", raw, mode)
			assert.Equal(t, mcp.TextContent(CancelledText), got[0])
			assert.True(t, IsCancellation(got))
		}
	}
}

func TestReconcileStructuredOptionsBeforeInput(t *testing.T) {
	r := NewReconciler(nil)
	got := r.Reconcile(`{"selected_options":["A","B"],"user_input":"hello","images":[]}`, ModeGeneric)

	require.Len(t, got, 1)
	assert.Equal(t, mcp.TextContent("选择的选项: A, B\n\nhello"), got[0])
}

func TestReconcileStructuredTrimsInputAndSkipsBlank(t *testing.T) {
	r := NewReconciler(nil)

	got := r.Reconcile(`{"selected_options":[],"user_input":"  spaced  "}`, ModeGeneric)
	require.Len(t, got, 1)
	assert.Equal(t, "spaced", got[0].Text)

	got = r.Reconcile(`{"selected_options":[],"user_input":"   "}`, ModeGeneric)
	require.Len(t, got, 1)
	assert.Equal(t, EmptyText, got[0].Text)
}

func TestReconcileStructuredGenericImages(t *testing.T) {
	big := strings.Repeat("A", 2000)
	raw := `{"selected_options":["ok"],"images":[` +
		`{"data":"` + pngB64 + `","media_type":"image/png","filename":"shot.png"},` +
		`{"data":"` + big + `","media_type":"image/jpeg"}]}`

	got := NewReconciler(nil).Reconcile(raw, ModeGeneric)
	require.Len(t, got, 3)

	assert.Equal(t, mcp.ImageContent(pngB64, "image/png"), got[0])
	assert.Equal(t, mcp.ImageContent(big, "image/jpeg"), got[1])
	require.Equal(t, mcp.ContentText, got[2].Type)

	want := strings.Join([]string{
		"选择的选项: ok",
		"=== 图片 1 ===\n文件名: shot.png\n类型: image/png\n大小: 9 B\nBase64 预览: " + pngB64 + "\n完整 Base64 长度: 12 字符",
		"=== 图片 2 ===\n类型: image/jpeg\n大小: 1.5 KB\nBase64 预览: " + strings.Repeat("A", 50) + "...\n完整 Base64 长度: 2000 字符",
		"💡 注意：用户提供了 2 张图片。如果 AI 助手无法显示图片，图片数据已包含在上述 Base64 信息中。",
	}, "\n\n")
	assert.Equal(t, want, got[2].Text)
}

func TestReconcileLegacyGeneric(t *testing.T) {
	raw := `[{"type":"text","text":"hi"},{"type":"image","source":{"type":"base64","data":"` + pngB64 + `","media_type":"image/png"}}]`

	got := NewReconciler(nil).Reconcile(raw, ModeGeneric)
	require.Len(t, got, 2)

	assert.Equal(t, mcp.ContentImage, got[0].Type)
	assert.Equal(t, "image/png", got[0].MimeType)

	text := got[1].Text
	assert.True(t, strings.HasPrefix(text, "hi\n\n=== 图片 1 ===\n类型: image/png"), text)
	assert.Contains(t, text, "用户提供了 1 张图片")
}

func TestReconcileLegacyIgnoresUnsupportedItems(t *testing.T) {
	raw := `[
		{"type":"note","text":"from unknown"},
		{"type":"image","source":{"type":"url","data":"http://x","media_type":"image/png"}},
		{"type":"image"},
		{"type":"video"},
		{"type":"text","text":"second"}
	]`

	got := NewReconciler(nil).Reconcile(raw, ModeGeneric)
	require.Len(t, got, 1)
	assert.Equal(t, "from unknown\n\nsecond", got[0].Text)
	assert.NotContains(t, got[0].Text, "💡")
}

func TestReconcileLegacyEmptyArray(t *testing.T) {
	got := NewReconciler(nil).Reconcile(`[]`, ModeGeneric)
	require.Len(t, got, 1)
	assert.Equal(t, EmptyText, got[0].Text)
}

func TestReconcileOpaqueText(t *testing.T) {
	r := NewReconciler(nil)
	for _, raw := range []string{"just some words", `{"foo":1}`, `{"selected_options":"not a list"}`, "[1, 2", "null", " null "} {
		got := r.Reconcile(raw, ModeGeneric)
		require.Len(t, got, 1, raw)
		assert.Equal(t, mcp.TextContent(raw), got[0])
	}
}

func TestReconcileAugmentWritesPointers(t *testing.T) {
	dir := t.TempDir()
	r := NewReconciler(&TempImageSaver{Dir: dir})

	raw := `{"selected_options":["A"],"user_input":"look <here>","images":[` +
		`{"data":"` + pngB64 + `","media_type":"image/png"},` +
		`{"data":"` + pngB64 + `","media_type":"image/jpeg"}]}`
	got := r.Reconcile(raw, ModeAugment)
	require.Len(t, got, 1)
	require.Equal(t, mcp.ContentText, got[0].Type)

	var payload struct {
		Text   string `json:"text"`
		Images []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal([]byte(got[0].Text), &payload))
	assert.Equal(t, "选择的选项: A\n\nlook <here>", payload.Text)
	assert.Contains(t, got[0].Text, "<here>")
	require.Len(t, payload.Images, 2)

	assert.Equal(t, "png", payload.Images[0].Type)
	assert.Equal(t, "jpeg", payload.Images[1].Type)
	assert.True(t, strings.HasSuffix(payload.Images[1].Path, ".jpg"))
	for _, img := range payload.Images {
		_, err := os.Stat(img.Path)
		assert.NoError(t, err, img.Path)
		assert.Contains(t, img.Path, SavedImagePrefix)
	}
}

func TestReconcileAugmentLegacy(t *testing.T) {
	r := NewReconciler(&TempImageSaver{Dir: t.TempDir()})
	raw := `[{"type":"text","text":"hi"},{"type":"image","source":{"type":"base64","data":"` + pngB64 + `","media_type":"image/webp"}}]`

	got := r.Reconcile(raw, ModeAugment)
	require.Len(t, got, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(got[0].Text), &payload))
	assert.Equal(t, "hi", payload["text"])
	assert.Len(t, payload["images"], 1)
}

func TestReconcileAugmentSaveFailureDegradesInline(t *testing.T) {
	r := NewReconciler(failingSaver{})
	raw := `{"selected_options":["A"],"user_input":"text","images":[{"data":"` + pngB64 + `","media_type":"image/png"}]}`

	got := r.Reconcile(raw, ModeAugment)
	require.Len(t, got, 2)
	assert.Equal(t, mcp.ImageContent(pngB64, "image/png"), got[0])
	assert.Equal(t, mcp.TextContent("选择的选项: A\n\ntext"), got[1])
}

func TestReconcileAugmentWithoutImagesIsPlainText(t *testing.T) {
	got := NewReconciler(failingSaver{}).Reconcile(`{"selected_options":["A","B"],"user_input":"hello"}`, ModeAugment)
	require.Len(t, got, 1)
	assert.Equal(t, "选择的选项: A, B\n\nhello", got[0].Text)
}

func TestTempImageSaverRejectsBadBase64(t *testing.T) {
	saver := &TempImageSaver{Dir: t.TempDir()}
	_, err := saver.Save("***", "image/png", 0)
	require.Error(t, err)
}

func TestTempImageSaverNaming(t *testing.T) {
	saver := &TempImageSaver{Dir: t.TempDir()}
	first, err := saver.Save(pngB64, "image/gif", 2)
	require.NoError(t, err)
	second, err := saver.Save(pngB64, "image/gif", 2)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Contains(t, first, SavedImagePrefix+"3_")
	assert.True(t, strings.HasSuffix(first, ".gif"))
}

func TestFormatSize(t *testing.T) {
	cases := map[int]string{
		0:           "0 B",
		1023:        "1023 B",
		1024:        "1.0 KB",
		1536:        "1.5 KB",
		1024 * 1024: "1.0 MB",
		3 << 20:     "3.0 MB",
	}
	for size, want := range cases {
		assert.Equal(t, want, formatSize(size), "size=%d", size)
	}
}

func TestParseClientMode(t *testing.T) {
	assert.Equal(t, ModeAugment, ParseClientMode("augment"))
	assert.Equal(t, ModeAugment, ParseClientMode(" AUGMENT "))
	assert.Equal(t, ModeGeneric, ParseClientMode("cursor"))
	assert.Equal(t, ModeGeneric, ParseClientMode(""))
	assert.Equal(t, "augment", ModeAugment.String())
}

func TestReplySummary(t *testing.T) {
	items := []mcp.Content{mcp.ImageContent(pngB64, "image/png"), mcp.TextContent("hello")}
	assert.Equal(t, "[image]\nhello", ReplySummary(items))
	assert.False(t, IsCancellation(items))
}
