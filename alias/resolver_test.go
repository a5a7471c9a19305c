package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverrideWinsOverAPI(t *testing.T) {
	m := Resolve([]string{"111"},
		map[string]string{"111": "Acme"},
		map[string]string{"111": "Prod"})
	assert.Equal(t, "Prod", m["111"])
}

func TestAPIAliasUsedWithoutOverride(t *testing.T) {
	m := Resolve([]string{"111", "222"},
		map[string]string{"111": "Acme", "222": "Beta"},
		nil)
	assert.Equal(t, "Acme", m["111"])
	assert.Equal(t, "Beta", m["222"])
}

func TestIdentityFallback(t *testing.T) {
	m := Resolve([]string{"111", "333"},
		map[string]string{"111": "Acme"},
		nil)
	assert.Equal(t, "Acme", m["111"])
	assert.Equal(t, "333", m["333"])
}

func TestSourcesOutsideSeenSetAreKept(t *testing.T) {
	// aliases for accounts not in this run stay available for reports
	m := Resolve([]string{"111"},
		map[string]string{"999": "Legacy"},
		map[string]string{"888": "Archive"})
	assert.Equal(t, "Legacy", m["999"])
	assert.Equal(t, "Archive", m["888"])
	assert.Equal(t, "111", m["111"])
}

func TestLookup(t *testing.T) {
	m := Map{"111": "Prod"}
	assert.Equal(t, "Prod", m.Lookup("111"))
	assert.Equal(t, "404", m.Lookup("404"))
}

func TestResolveEmptyInputs(t *testing.T) {
	m := Resolve(nil, nil, nil)
	assert.Empty(t, m)
}
