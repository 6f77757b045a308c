package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SimulatorSection is the config section listing the modules to instantiate.
const SimulatorSection = "Simulator"

// Reserved keys in a module's section.
const (
	SettingKind     = "kind"
	SettingOverride = "override"
)

// Config is a parsed simulation config file: section name -> key/value settings.
//
//	Simulator:
//	  modules: power radio counter
//	power:
//	  capacity_mah: 3000
type Config struct {
	Sections map[string]ModuleSettings
}

// LoadConfig reads and parses the YAML config at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading sim config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config contents. The Simulator section is mandatory.
func ParseConfig(data []byte) (*Config, error) {
	sections := make(map[string]ModuleSettings)
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&sections); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing sim config: %w", ErrConfig, err)
	}
	if _, ok := sections[SimulatorSection]; !ok {
		return nil, fmt.Errorf("%w: %w", ErrConfig, ErrMissingSimulatorSection)
	}
	return &Config{Sections: sections}, nil
}

// ModuleNames returns the space-separated module list of the Simulator section.
func (c *Config) ModuleNames() []string {
	return strings.Fields(c.Sections[SimulatorSection]["modules"])
}

// Settings returns the section for a module; a missing section is empty.
func (c *Config) Settings(name string) ModuleSettings {
	if s, ok := c.Sections[name]; ok && s != nil {
		return s
	}
	return ModuleSettings{}
}

// ModuleSettings holds one config section. Values stay strings until a
// module asks for a typed value.
type ModuleSettings map[string]string

// String returns the value for key, or def when unset.
func (s ModuleSettings) String(key, def string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return def
}

// Int64 parses the value for key, or returns def when unset.
func (s ModuleSettings) Int64(key string, def int64) (int64, error) {
	v, ok := s[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, invalidSetting(key, v, err)
	}
	return n, nil
}

// Float64 parses the value for key, or returns def when unset.
func (s ModuleSettings) Float64(key string, def float64) (float64, error) {
	v, ok := s[key]
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, invalidSetting(key, v, err)
	}
	return f, nil
}

// Bool parses the value for key, or returns def when unset.
func (s ModuleSettings) Bool(key string, def bool) (bool, error) {
	v, ok := s[key]
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, invalidSetting(key, v, err)
	}
	return b, nil
}

func invalidSetting(key, value string, err error) error {
	return fmt.Errorf("%w: %w: %s=%q: %w", ErrConfig, ErrInvalidSetting, key, value, err)
}
