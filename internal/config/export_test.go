package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadExportConfig(t *testing.T) {
	path := writeConfigFile(t, "export.json", `{
		"subject_provider": false,
		"lab_provider": true,
		"display_time_zone": "UTC-5"
	}`)

	cfg, err := LoadExportConfig(path)
	require.NoError(t, err)

	assert.False(t, cfg.GetSubjectProvider())
	assert.True(t, cfg.GetLabProvider())
	assert.Equal(t, "UTC-5", cfg.GetDisplayTimeZone())
}

func TestLoadExportConfigPartial(t *testing.T) {
	path := writeConfigFile(t, "export.json", `{"lab_provider": false}`)

	cfg, err := LoadExportConfig(path)
	require.NoError(t, err)

	// Omitted fields fall back to defaults.
	assert.True(t, cfg.GetSubjectProvider())
	assert.False(t, cfg.GetLabProvider())
	assert.Equal(t, "", cfg.GetDisplayTimeZone())
}

func TestLoadExportConfigRejectsNonJSON(t *testing.T) {
	path := writeConfigFile(t, "export.yaml", `subject_provider: true`)

	_, err := LoadExportConfig(path)
	assert.Error(t, err)
}

func TestLoadExportConfigMissingFile(t *testing.T) {
	_, err := LoadExportConfig("does-not-exist.json")
	assert.Error(t, err)
}

func TestLoadExportConfigInvalidJSON(t *testing.T) {
	path := writeConfigFile(t, "export.json", `{not json`)

	_, err := LoadExportConfig(path)
	assert.Error(t, err)
}

func TestValidateDisplayTimeZone(t *testing.T) {
	assert.NoError(t, (&ExportConfig{DisplayTimeZone: ptrString("UTC-5")}).Validate())
	assert.NoError(t, (&ExportConfig{DisplayTimeZone: ptrString("")}).Validate())
	assert.Error(t, (&ExportConfig{DisplayTimeZone: ptrString("America/New_York")}).Validate())
	assert.Error(t, (&ExportConfig{DisplayTimeZone: ptrString("EST")}).Validate())
}

func TestLoadExportConfigValidates(t *testing.T) {
	path := writeConfigFile(t, "export.json", `{"display_time_zone": "EST"}`)

	_, err := LoadExportConfig(path)
	assert.Error(t, err)
}

func TestGettersHonorExplicitValues(t *testing.T) {
	cfg := &ExportConfig{
		SubjectProvider: ptrBool(false),
		LabProvider:     ptrBool(false),
		DisplayTimeZone: ptrString("UTC+2"),
	}
	assert.False(t, cfg.GetSubjectProvider())
	assert.False(t, cfg.GetLabProvider())
	assert.Equal(t, "UTC+2", cfg.GetDisplayTimeZone())
}

func TestEmptyExportConfigDefaults(t *testing.T) {
	cfg := EmptyExportConfig()
	assert.True(t, cfg.GetSubjectProvider())
	assert.True(t, cfg.GetLabProvider())
	assert.Equal(t, "", cfg.GetDisplayTimeZone())
	assert.NoError(t, cfg.Validate())
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	assert.True(t, cfg.GetSubjectProvider())
	assert.True(t, cfg.GetLabProvider())
	assert.NoError(t, cfg.Validate())
}
