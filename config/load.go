package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads path, decoding it as YAML (.yaml, .yml) or TOML (.toml), then
// applies defaults, validates and normalizes the result. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed (%s): %w", path, err)
	}
	Normalize(cfg)
	return cfg, nil
}

// Parse decodes data in the format named by ext (".yaml", ".yml" or
// ".toml"). No defaults are applied.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}
