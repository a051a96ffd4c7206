package interaction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/mcp"
)

const (
	// CancelledSentinel is the UI's explicit cancellation output.
	CancelledSentinel = "CANCELLED"

	CancelledText = "用户取消了操作"
	EmptyText     = "用户未提供任何内容"

	previewChars = 50
)

// ClientMode selects how images are shaped for the calling client.
type ClientMode int

const (
	// ModeGeneric emits images inline followed by a text summary.
	ModeGeneric ClientMode = iota
	// ModeAugment saves images to disk and emits one text item carrying
	// file pointers.
	ModeAugment
)

// ParseClientMode maps the client-mode setting to a mode. Only "augment",
// compared case-insensitively, selects ModeAugment.
func ParseClientMode(value string) ClientMode {
	if strings.EqualFold(strings.TrimSpace(value), "augment") {
		return ModeAugment
	}
	return ModeGeneric
}

func (m ClientMode) String() string {
	if m == ModeAugment {
		return "augment"
	}
	return "generic"
}

// Image is a base64 attachment returned by the UI.
type Image struct {
	Data      string `json:"data"`
	MediaType string `json:"media_type"`
	Filename  string `json:"filename,omitempty"`
}

// reply is the shape shared by every decoded response format: text parts in
// display order and the recognized images in input order.
type reply struct {
	texts  []string
	images []Image
}

// decoder attempts one response format.
type decoder func(raw string) (reply, bool)

// decoders are tried in order; the first that accepts raw wins.
var decoders = []decoder{decodeStructured, decodeLegacy}

type structuredResponse struct {
	SelectedOptions *[]string `json:"selected_options"`
	UserInput       *string   `json:"user_input"`
	Images          []Image   `json:"images"`
}

func decodeStructured(raw string) (reply, bool) {
	var resp structuredResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil || resp.SelectedOptions == nil {
		return reply{}, false
	}

	var r reply
	if options := *resp.SelectedOptions; len(options) > 0 {
		r.texts = append(r.texts, "选择的选项: "+strings.Join(options, ", "))
	}
	if resp.UserInput != nil {
		if input := strings.TrimSpace(*resp.UserInput); input != "" {
			r.texts = append(r.texts, input)
		}
	}
	r.images = resp.Images
	return r, true
}

type legacyItem struct {
	Type   string        `json:"type"`
	Text   *string       `json:"text"`
	Source *legacySource `json:"source"`
}

type legacySource struct {
	Type      string `json:"type"`
	Data      string `json:"data"`
	MediaType string `json:"media_type"`
}

func decodeLegacy(raw string) (reply, bool) {
	var items []legacyItem
	// A bare null unmarshals into a nil slice without error; only a real
	// array counts as the legacy form.
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return reply{}, false
	}

	var r reply
	for _, item := range items {
		switch item.Type {
		case "image":
			if item.Source != nil && item.Source.Type == "base64" {
				r.images = append(r.images, Image{Data: item.Source.Data, MediaType: item.Source.MediaType})
			}
		default:
			// "text" and unknown kinds both contribute their text.
			if item.Text != nil {
				r.texts = append(r.texts, *item.Text)
			}
		}
	}
	return r, true
}

// Reconciler normalizes UI output into an ordered content list.
type Reconciler struct {
	saver ImageSaver
}

// NewReconciler creates a reconciler. A nil saver writes to the system temp
// directory.
func NewReconciler(saver ImageSaver) *Reconciler {
	if saver == nil {
		saver = NewTempImageSaver()
	}
	return &Reconciler{saver: saver}
}

// Reconcile never fails: output matching no known format is returned as
// plain text, and the result is never empty.
func (r *Reconciler) Reconcile(raw string, mode ClientMode) []mcp.Content {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == CancelledSentinel || trimmed == CancelledText {
		return []mcp.Content{mcp.TextContent(CancelledText)}
	}

	for _, decode := range decoders {
		if decoded, ok := decode(raw); ok {
			return orEmpty(r.render(decoded, mode))
		}
	}

	logger.Debug("UI output matched no response format, returning as text", "len", len(raw))
	return []mcp.Content{mcp.TextContent(raw)}
}

func (r *Reconciler) render(rep reply, mode ClientMode) []mcp.Content {
	switch mode {
	case ModeAugment:
		return r.renderAugment(rep)
	default:
		return renderGeneric(rep)
	}
}

// renderGeneric puts images first, then one text item with the text parts,
// a description block per image and a compatibility note.
func renderGeneric(rep reply) []mcp.Content {
	var out []mcp.Content
	texts := append([]string(nil), rep.texts...)
	for i, img := range rep.images {
		out = append(out, mcp.ImageContent(img.Data, img.MediaType))
		texts = append(texts, imageInfo(i+1, img))
	}
	if len(rep.images) > 0 {
		texts = append(texts, compatibilityNote(len(rep.images)))
	}
	if len(texts) > 0 {
		out = append(out, mcp.TextContent(strings.Join(texts, "\n\n")))
	}
	return out
}

type imagePointer struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

type pointerPayload struct {
	Text   string         `json:"text"`
	Images []imagePointer `json:"images"`
}

// renderAugment saves every image and emits one text item with the text and
// the file pointers. An image that cannot be saved degrades to an inline
// image. When nothing could be saved only the joined text follows.
func (r *Reconciler) renderAugment(rep reply) []mcp.Content {
	var out []mcp.Content
	var pointers []imagePointer
	for i, img := range rep.images {
		path, err := r.saver.Save(img.Data, img.MediaType, i)
		if err != nil {
			logger.Warn("Saving image failed, sending it inline", "index", i+1, "media_type", img.MediaType, "error", err)
			out = append(out, mcp.ImageContent(img.Data, img.MediaType))
			continue
		}
		pointers = append(pointers, imagePointer{Path: path, Type: imageType(img.MediaType)})
	}

	text := strings.Join(rep.texts, "\n\n")
	if len(pointers) > 0 {
		payload, err := encodePointers(pointerPayload{Text: text, Images: pointers})
		if err == nil {
			return append(out, mcp.TextContent(payload))
		}
		logger.Warn("Encoding image pointers failed", "error", err)
	}
	if len(rep.texts) > 0 {
		out = append(out, mcp.TextContent(text))
	}
	return out
}

func encodePointers(p pointerPayload) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func imageInfo(index int, img Image) string {
	n := len(img.Data)
	preview := img.Data
	if n > previewChars {
		preview = img.Data[:previewChars] + "..."
	}
	filename := ""
	if img.Filename != "" {
		filename = "\n文件名: " + img.Filename
	}
	return fmt.Sprintf("=== 图片 %d ===%s\n类型: %s\n大小: %s\nBase64 预览: %s\n完整 Base64 长度: %d 字符",
		index, filename, img.MediaType, formatSize(n*3/4), preview, n)
}

func formatSize(size int) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}

func compatibilityNote(count int) string {
	return fmt.Sprintf("💡 注意：用户提供了 %d 张图片。如果 AI 助手无法显示图片，图片数据已包含在上述 Base64 信息中。", count)
}

func orEmpty(items []mcp.Content) []mcp.Content {
	if len(items) == 0 {
		return []mcp.Content{mcp.TextContent(EmptyText)}
	}
	return items
}

// ReplySummary flattens reconciled content into text for history records.
// Image items are summarized as "[image]".
func ReplySummary(items []mcp.Content) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch item.Type {
		case mcp.ContentImage:
			parts = append(parts, "[image]")
		default:
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// IsCancellation reports whether items is the cancellation reply.
func IsCancellation(items []mcp.Content) bool {
	return len(items) == 1 && items[0].Type == mcp.ContentText && items[0].Text == CancelledText
}
