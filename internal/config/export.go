package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neuro-elements/session-export/internal/timeutil"
)

// DefaultConfigPath is the path to the canonical export defaults file.
// This is the single source of truth for all default export settings.
const DefaultConfigPath = "config/export.defaults.json"

// ExportConfig controls how the NWB export is assembled. Provider
// activation is decided here, once, and handed to the exporter at
// construction; nothing probes for providers mid-export.
// Fields omitted from the JSON file fall back to the Get* defaults, so
// partial configs are safe.
type ExportConfig struct {
	// Provider activation
	SubjectProvider *bool `json:"subject_provider,omitempty"`
	LabProvider     *bool `json:"lab_provider,omitempty"`

	// Display timezone override applied when a lab record carries none,
	// "UTC±HH" form. Empty means leave start times in UTC.
	DisplayTimeZone *string `json:"display_time_zone,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// EmptyExportConfig returns an ExportConfig with all fields set to nil.
// Use LoadExportConfig to load actual values from the defaults file.
func EmptyExportConfig() *ExportConfig {
	return &ExportConfig{}
}

// LoadExportConfig loads an ExportConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size.
func LoadExportConfig(path string) (*ExportConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyExportConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical export defaults from
// DefaultConfigPath. It searches the current directory and common parent
// directories. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *ExportConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadExportConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ExportConfig) Validate() error {
	if c.DisplayTimeZone != nil && *c.DisplayTimeZone != "" {
		if !timeutil.IsUTCOffset(*c.DisplayTimeZone) {
			return fmt.Errorf("display_time_zone must be of the form UTC±HH, got %q", *c.DisplayTimeZone)
		}
	}
	return nil
}

// GetSubjectProvider returns whether the subject provider is enabled.
func (c *ExportConfig) GetSubjectProvider() bool {
	if c.SubjectProvider == nil {
		return true // default
	}
	return *c.SubjectProvider
}

// GetLabProvider returns whether the lab provider is enabled.
func (c *ExportConfig) GetLabProvider() bool {
	if c.LabProvider == nil {
		return true // default
	}
	return *c.LabProvider
}

// GetDisplayTimeZone returns the display timezone override, or "" when start
// times should stay in UTC.
func (c *ExportConfig) GetDisplayTimeZone() string {
	if c.DisplayTimeZone == nil {
		return "" // default
	}
	return *c.DisplayTimeZone
}
