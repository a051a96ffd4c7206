package interaction

// Request is written to the transport file read by the UI process.
type Request struct {
	ID                string   `json:"id"`
	Message           string   `json:"message"`
	PredefinedOptions []string `json:"predefined_options,omitempty"`
	IsMarkdown        bool     `json:"is_markdown"`
	ProjectRootPath   string   `json:"project_root_path,omitempty"`
	UIUXIntent        string   `json:"uiux_intent,omitempty"`
	UIUXContextPolicy string   `json:"uiux_context_policy,omitempty"`
	UIUXReason        string   `json:"uiux_reason,omitempty"`
}

// IconRequest is passed to the UI process as command-line flags.
type IconRequest struct {
	Query       string
	Style       string
	SavePath    string
	ProjectRoot string
}

// Args returns the icon-mode argument list. Empty fields are omitted.
func (r IconRequest) Args() []string {
	args := []string{"--icon-search"}
	if r.Query != "" {
		args = append(args, "--query", r.Query)
	}
	if r.Style != "" {
		args = append(args, "--style", r.Style)
	}
	if r.SavePath != "" {
		args = append(args, "--save-path", r.SavePath)
	}
	if r.ProjectRoot != "" {
		args = append(args, "--project-root", r.ProjectRoot)
	}
	return args
}

// IconResponse is the UI process result for an icon selection.
type IconResponse struct {
	SavedCount uint     `json:"saved_count"`
	SavePath   string   `json:"save_path"`
	SavedNames []string `json:"saved_names"`
	Cancelled  bool     `json:"cancelled"`
}
