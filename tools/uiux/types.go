package uiux

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	defaultMaxResults = 3
	maxResultsLimit   = 50
)

// Lang selects the language of the envelope text.
type Lang string

const (
	LangZh Lang = "zh"
	LangEn Lang = "en"
)

func (l Lang) orDefault() Lang {
	if l == "" {
		return LangZh
	}
	return l
}

// Format selects the shape of the returned content: the JSON envelope or
// its text alone.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Mode tunes the summary line of search and design-system calls.
type Mode string

const (
	ModeSearch       Mode = "search"
	ModeBeautify     Mode = "beautify"
	ModeDesignSystem Mode = "design_system"
)

// Domains searchable through uiux_search.
var Domains = []string{"style", "prompt", "color", "chart", "landing", "product", "ux", "typography", "icons", "react", "web"}

// SearchRequest is the decoded uiux_search argument object.
type SearchRequest struct {
	Query        string `json:"query"`
	Domain       string `json:"domain"`
	MaxResults   *int   `json:"max_results"`
	OutputFormat Format `json:"output_format"`
	Lang         Lang   `json:"lang"`
	Mode         Mode   `json:"mode"`

	// Terms is the expanded query handed to the engine.
	Terms []string `json:"-"`
}

func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is required")
	}
	if r.Domain != "" && !slices.Contains(Domains, r.Domain) {
		return fmt.Errorf("unknown domain %q", r.Domain)
	}
	return errors.Join(checkMaxResults(r.MaxResults), checkFormat(r.OutputFormat), checkLang(r.Lang), checkMode(r.Mode))
}

// StackRequest is the decoded uiux_stack argument object.
type StackRequest struct {
	Query        string `json:"query"`
	Stack        string `json:"stack"`
	MaxResults   *int   `json:"max_results"`
	OutputFormat Format `json:"output_format"`
	Lang         Lang   `json:"lang"`

	Terms []string `json:"-"`
}

func (r StackRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is required")
	}
	if strings.TrimSpace(r.Stack) == "" {
		return errors.New("stack is required")
	}
	return errors.Join(checkMaxResults(r.MaxResults), checkFormat(r.OutputFormat), checkLang(r.Lang))
}

// DesignSystemRequest is the decoded uiux_design_system argument object.
type DesignSystemRequest struct {
	Query        string `json:"query"`
	ProjectName  string `json:"project_name"`
	Format       string `json:"format"`
	Persist      *bool  `json:"persist"`
	Page         string `json:"page"`
	OutputDir    string `json:"output_dir"`
	OutputFormat Format `json:"output_format"`
	Lang         Lang   `json:"lang"`
	Mode         Mode   `json:"mode"`
}

func (r DesignSystemRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is required")
	}
	switch r.Format {
	case "", "ascii", "markdown":
	default:
		return fmt.Errorf("format must be ascii or markdown, got %q", r.Format)
	}
	return errors.Join(checkFormat(r.OutputFormat), checkLang(r.Lang), checkMode(r.Mode))
}

// Name returns the project name, falling back to the query.
func (r DesignSystemRequest) Name() string {
	if name := strings.TrimSpace(r.ProjectName); name != "" {
		return name
	}
	return strings.TrimSpace(r.Query)
}

// SuggestRequest is the decoded uiux_suggest argument object.
type SuggestRequest struct {
	Text         string `json:"text"`
	OutputFormat Format `json:"output_format"`
	Lang         Lang   `json:"lang"`
}

func (r SuggestRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text is required")
	}
	return errors.Join(checkFormat(r.OutputFormat), checkLang(r.Lang))
}

func maxResults(n *int) int {
	if n == nil {
		return defaultMaxResults
	}
	return *n
}

func checkMaxResults(n *int) error {
	if n != nil && (*n < 1 || *n > maxResultsLimit) {
		return fmt.Errorf("max_results must be between 1 and %d", maxResultsLimit)
	}
	return nil
}

func checkFormat(f Format) error {
	switch f {
	case "", FormatJSON, FormatText:
		return nil
	}
	return fmt.Errorf("output_format must be json or text, got %q", f)
}

func checkLang(l Lang) error {
	switch l {
	case "", LangZh, LangEn:
		return nil
	}
	return fmt.Errorf("lang must be zh or en, got %q", l)
}

func checkMode(m Mode) error {
	switch m {
	case "", ModeSearch, ModeBeautify, ModeDesignSystem:
		return nil
	}
	return fmt.Errorf("unknown mode %q", m)
}

