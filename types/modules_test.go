package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testModuleConfig() ModuleConfig {
	return ModuleConfig{
		{Name: ReservedMainEntry, Params: map[string]any{"copy-files": false}},
		{Name: "filemeta", Enabled: true},
		{Name: "hashes", Enabled: true},
		{Name: "strings", Enabled: false},
		{Name: "entropy", Enabled: false},
	}
}

func TestEnabledRatio_FullConfig(t *testing.T) {
	cfg := testModuleConfig()

	enabled, total := cfg.EnabledRatio(nil)
	assert.Equal(t, 2, enabled)
	assert.Equal(t, 4, total)
	assert.Equal(t, "2 / 4", fmt.Sprintf("%d / %d", enabled, total))
}

func TestEnabledRatio_ExplicitSubset(t *testing.T) {
	cfg := testModuleConfig()

	enabled, total := cfg.EnabledRatio([]string{"filemeta", "hashes", "strings"})
	assert.Equal(t, 3, enabled)
	assert.Equal(t, 4, total)
	assert.Equal(t, "3 / 4", fmt.Sprintf("%d / %d", enabled, total))
}

func TestEnabledSnapshot_ExcludesMainEntry(t *testing.T) {
	snap := testModuleConfig().EnabledSnapshot()

	assert.Len(t, snap, 4)
	_, hasMain := snap[ReservedMainEntry]
	assert.False(t, hasMain)
	assert.True(t, snap["filemeta"])
	assert.False(t, snap["strings"])
}

func TestGet(t *testing.T) {
	cfg := testModuleConfig()

	m, ok := cfg.Get("hashes")
	assert.True(t, ok)
	assert.True(t, m.Enabled)

	_, ok = cfg.Get("missing")
	assert.False(t, ok)
}
