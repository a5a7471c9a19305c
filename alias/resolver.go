// Package alias resolves human-friendly names for cloud accounts.
package alias

// Map is the final account ID → alias mapping. It is read-only once built
// and safe to share across all assets.
type Map map[string]string

// Resolve merges the API alias source with the user override source.
// Override entries replace API entries for identical keys. Any account seen
// in the run but absent from both sources falls back to the identity
// mapping, so every surviving asset gets an alias.
func Resolve(accountsSeen []string, apiAliases, overrides map[string]string) Map {
	resolved := make(Map, len(accountsSeen))

	for id, name := range apiAliases {
		resolved[id] = name
	}
	for id, name := range overrides {
		resolved[id] = name
	}
	for _, id := range accountsSeen {
		if _, ok := resolved[id]; !ok {
			resolved[id] = id
		}
	}
	return resolved
}

// Lookup returns the alias for an account, falling back to the ID itself.
func (m Map) Lookup(accountID string) string {
	if alias, ok := m[accountID]; ok {
		return alias
	}
	return accountID
}
