// Package spec provides the catalog file codecs: TOML (Data.toml) and YAML.
package spec

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure the codecs implement the interface.
var (
	_ driven.SpecCodec = (*TOML)(nil)
	_ driven.SpecCodec = (*YAML)(nil)
)

// DefaultCodecs returns every bundled codec.
func DefaultCodecs() []driven.SpecCodec {
	return []driven.SpecCodec{NewTOML(), NewYAML()}
}

// TOML reads and writes TOML catalogs.
type TOML struct{}

// NewTOML creates a TOML codec.
func NewTOML() *TOML { return &TOML{} }

// Format returns "toml".
func (c *TOML) Format() string { return "toml" }

// Extensions returns ".toml".
func (c *TOML) Extensions() []string { return []string{".toml"} }

// Decode parses TOML into a spec dictionary.
func (c *TOML) Decode(data []byte) (map[string]any, error) {
	spec := map[string]any{}
	if err := toml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing toml: %w", err)
	}
	return spec, nil
}

// Encode renders a spec dictionary as TOML. Tables are indented.
func (c *TOML) Encode(spec map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(spec); err != nil {
		return nil, fmt.Errorf("encoding toml: %w", err)
	}
	return buf.Bytes(), nil
}

// YAML reads and writes YAML catalogs.
type YAML struct{}

// NewYAML creates a YAML codec.
func NewYAML() *YAML { return &YAML{} }

// Format returns "yaml".
func (c *YAML) Format() string { return "yaml" }

// Extensions returns ".yaml" and ".yml".
func (c *YAML) Extensions() []string { return []string{".yaml", ".yml"} }

// Decode parses YAML into a spec dictionary. An empty document is an
// empty dictionary.
func (c *YAML) Decode(data []byte) (map[string]any, error) {
	spec := map[string]any{}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return spec, nil
}

// Encode renders a spec dictionary as YAML.
func (c *YAML) Encode(spec map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(spec); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}
