package uiux

import (
	"encoding/json"

	"github.com/slighter12/sanshu-mcp-go/mcp"
)

const envelopeVersion = "v1"

// Envelope is the uniform response of every uiux_* tool.
type Envelope struct {
	Meta   Meta    `json:"meta"`
	Data   any     `json:"data"`
	Text   string  `json:"text"`
	Errors []Error `json:"errors"`
}

type Meta struct {
	Tool      string `json:"tool"`
	Lang      string `json:"lang"`
	RequestID string `json:"request_id"`
	Version   string `json:"version"`
}

// Error is a non-fatal problem reported inside the envelope.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newEnvelope(tool string, lang Lang, callID string, data any, text string) *Envelope {
	return &Envelope{
		Meta:   Meta{Tool: tool, Lang: string(lang.orDefault()), RequestID: callID, Version: envelopeVersion},
		Data:   data,
		Text:   text,
		Errors: []Error{},
	}
}

func (e *Envelope) fail(code, message string) {
	e.Errors = append(e.Errors, Error{Code: code, Message: message})
	e.Text = errorText(Lang(e.Meta.Lang), message)
}

// Content renders the envelope as one text item: the JSON document, or for
// FormatText the text followed by detail.
func (e *Envelope) Content(format Format, detail string) ([]mcp.Content, error) {
	if format == FormatText {
		text := e.Text
		if detail != "" && len(e.Errors) == 0 {
			text += "\n\n" + detail
		}
		return []mcp.Content{mcp.TextContent(text)}, nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return []mcp.Content{mcp.TextContent(string(payload))}, nil
}
