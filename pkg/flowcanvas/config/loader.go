package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned when a settings document's top level is not a
// key/value mapping.
var ErrNotMapping = errors.New("settings document must be a mapping")

// FromFile loads a settings file. The format follows the extension:
// .yaml and .yml are YAML, .json is JSON.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read settings %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = FromYAML(data)
	case ".json":
		cfg, err = FromJSON(data)
	default:
		return Config{}, fmt.Errorf("settings %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return cfg, nil
}

// FromYAML parses a YAML settings document. An empty document yields an
// empty Config.
func FromYAML(data []byte) (Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return mapping(doc)
}

// FromJSON parses a JSON settings document. A bare null yields an empty
// Config.
func FromJSON(data []byte) (Config, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return mapping(doc)
}

func mapping(doc any) (Config, error) {
	switch v := doc.(type) {
	case nil:
		return New(nil), nil
	case map[string]any:
		return New(v), nil
	case []any:
		return Config{}, fmt.Errorf("%w, got a list", ErrNotMapping)
	default:
		return Config{}, fmt.Errorf("%w, got %T", ErrNotMapping, v)
	}
}
