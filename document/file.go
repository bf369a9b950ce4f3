package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// ParseJSONC decodes JSON with comments and trailing commas.
func ParseJSONC(data []byte) (any, error) {
	return Parse(jsonc.ToJSON(data))
}

// ReadFile loads a document from disk, picking the syntax from the file
// extension: .yaml and .yml are YAML, .jsonc is JSON with comments, anything
// else is strict JSON.
func ReadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err = ParseYAML(data)
	case ".jsonc":
		v, err = ParseJSONC(data)
	default:
		v, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
