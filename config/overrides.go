package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/agentgap/agentgap/types"
)

// LoadAccountOverrides reads a JSON file mapping account IDs to aliases.
// A malformed file is a fatal ConfigError raised before any network activity.
func LoadAccountOverrides(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read account map: %w", err)
	}

	var overrides map[string]string
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, types.NewConfigError("malformed account map %s: %v", path, err)
	}

	for id, alias := range overrides {
		if id == "" || alias == "" {
			return nil, types.NewConfigError("account map %s: empty account ID or alias", path)
		}
	}
	return overrides, nil
}
