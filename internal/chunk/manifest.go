package chunk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a manifest encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// FormatFor picks the format from a resource path's extension.
func FormatFor(resourcePath string) (Format, error) {
	switch strings.ToLower(path.Ext(resourcePath)) {
	case ".json", ".js":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("no manifest format for resource '%s'", resourcePath)
	}
}

// ModuleSpec is one module entry of a manifest.
type ModuleSpec struct {
	ID       string         `json:"id" yaml:"id" toml:"id"`
	Factory  string         `json:"factory,omitempty" yaml:"factory,omitempty" toml:"factory,omitempty"`
	Options  map[string]any `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
	Data     any            `json:"data,omitempty" yaml:"data,omitempty" toml:"data,omitempty"`
	ESModule bool           `json:"es_module,omitempty" yaml:"es_module,omitempty" toml:"es_module,omitempty"`
}

// Manifest is a decoded resource pot.
type Manifest struct {
	ID      string       `json:"id" yaml:"id" toml:"id"`
	Modules []ModuleSpec `json:"modules" yaml:"modules" toml:"modules"`
}

// Decode parses data in the given format and validates the result.
func Decode(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	var err error
	switch format {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&m)
	case YAML:
		err = yaml.Unmarshal(data, &m)
	case TOML:
		err = toml.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unsupported manifest format '%s'", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s manifest: %w", format, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeFile decodes a manifest read from resourcePath.
func DecodeFile(resourcePath string, data []byte) (*Manifest, error) {
	format, err := FormatFor(resourcePath)
	if err != nil {
		return nil, err
	}
	m, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("resource '%s': %w", resourcePath, err)
	}
	return m, nil
}

// Validate checks that every module has an id, ids are unique and that each
// module is either data or a factory reference.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Modules))
	for i, spec := range m.Modules {
		if spec.ID == "" {
			return fmt.Errorf("module %d has no id", i)
		}
		if _, dup := seen[spec.ID]; dup {
			return fmt.Errorf("module '%s' listed twice", spec.ID)
		}
		seen[spec.ID] = struct{}{}
		if spec.Factory != "" && spec.Data != nil {
			return fmt.Errorf("module '%s' has both a factory and data", spec.ID)
		}
	}
	return nil
}
