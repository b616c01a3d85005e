package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Configuration document loading.
 *
 * Documents are authored in JSON or YAML. YAML decodes through a generic
 * tree and re-encodes as JSON before hitting the typed decoder, so both
 * formats flow through the same JSON tags and custom unmarshalers and the
 * two spellings of a document cannot drift apart.
 */

// LoadDocument reads and parses a formula document, inferring the format
// from the file extension (.yaml/.yml is YAML, everything else JSON). The
// returned document is normalized and ready for ordering.
func LoadDocument(path string) (*types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseDocument(data, "yaml")
	default:
		return ParseDocument(data, "json")
	}
}

// ParseDocument parses document bytes in the given format ("json" or
// "yaml") and normalizes the result.
func ParseDocument(data []byte, format string) (*types.Document, error) {
	var jsonData []byte
	switch format {
	case "json":
		jsonData = data
	case "yaml":
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
		converted, err := json.Marshal(stringifyKeys(tree))
		if err != nil {
			return nil, fmt.Errorf("yaml document not representable as json: %w", err)
		}
		jsonData = converted
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}

	var doc types.Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	if len(doc.Formulas) == 0 {
		return nil, fmt.Errorf("document declares no formulas")
	}
	if err := doc.Normalize(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// stringifyKeys rewrites the map keys yaml.v3 may decode as any into
// strings so the tree marshals as JSON.
func stringifyKeys(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = stringifyKeys(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprintf("%v", k)] = stringifyKeys(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = stringifyKeys(item)
		}
		return x
	default:
		return v
	}
}
