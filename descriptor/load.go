package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads and parses the descriptor at path, choosing the syntax by
// extension. The document is not validated; Build does that.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse parses content using the syntax implied by filename.
func Parse(filename string, content []byte) (*Document, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".star", ".bzl", ".varsel":
		return ParseStarlark(filename, content)
	case ".yaml", ".yml":
		return ParseYAML(filename, content)
	default:
		return nil, fmt.Errorf("unsupported descriptor extension %q", ext)
	}
}

// LoadWorkspace loads and builds the descriptor at path.
func LoadWorkspace(path string) (*Workspace, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}
