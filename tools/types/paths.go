package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CleanRelativePath canonicalizes a project-relative path. Absolute paths and
// paths that climb out of the project root are rejected.
func CleanRelativePath(input string) (string, error) {
	rel := strings.TrimSpace(input)
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	rel = strings.ReplaceAll(rel, "\\", "/")
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("absolute paths are not allowed")
	}
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}

	cleanRel := filepath.Clean(rel)
	if cleanRel == "." || cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes project root")
	}
	return filepath.ToSlash(cleanRel), nil
}

// NormalizeProjectRoot trims and cleans a project root supplied by a client.
// An empty input stays empty.
func NormalizeProjectRoot(input string) string {
	root := strings.TrimSpace(input)
	if root == "" {
		return ""
	}
	return filepath.Clean(root)
}
