package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgap/agentgap/types"
)

func writeAccountMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAccountOverrides(t *testing.T) {
	path := writeAccountMap(t, `{"111": "Prod", "222": "Staging"}`)

	overrides, err := LoadAccountOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "Prod", overrides["111"])
	assert.Equal(t, "Staging", overrides["222"])
}

func TestLoadAccountOverridesMalformed(t *testing.T) {
	path := writeAccountMap(t, `{"111": "Prod"`)

	_, err := LoadAccountOverrides(path)
	require.Error(t, err)

	var cfgErr *types.ConfigError
	assert.True(t, errors.As(err, &cfgErr), "malformed override file must be a ConfigError")
}

func TestLoadAccountOverridesEmptyEntries(t *testing.T) {
	path := writeAccountMap(t, `{"": "Prod"}`)
	_, err := LoadAccountOverrides(path)
	assert.Error(t, err)

	path = writeAccountMap(t, `{"111": ""}`)
	_, err = LoadAccountOverrides(path)
	assert.Error(t, err)
}

func TestLoadAccountOverridesMissingFile(t *testing.T) {
	_, err := LoadAccountOverrides(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
