package types

// ReservedMainEntry is the sentinel configuration entry holding engine-wide
// settings. It is not a scan module and never counts toward module totals.
const ReservedMainEntry = "main"

// ModuleEntry is one scan module in the configuration: an enabled flag plus
// free-form parameters handed to the module at scan time.
type ModuleEntry struct {
	Name    string         `json:"name"`
	Enabled bool           `json:"enabled"`
	Params  map[string]any `json:"params,omitempty"`
}

// ModuleConfig is the ordered module registry resolved once at startup and
// passed through to the engine. Order is the order modules run in.
type ModuleConfig []ModuleEntry

func (c ModuleConfig) Get(name string) (ModuleEntry, bool) {
	for _, m := range c {
		if m.Name == name {
			return m, true
		}
	}
	return ModuleEntry{}, false
}

// EnabledRatio returns how many modules ran against how many are configurable.
// The reserved main entry is excluded from the total. When an explicit subset
// was supplied the subset length is the numerator, mirroring what actually ran.
func (c ModuleConfig) EnabledRatio(subset []string) (enabled, total int) {
	for _, m := range c {
		if m.Name == ReservedMainEntry {
			continue
		}
		total++
		if m.Enabled {
			enabled++
		}
	}
	if len(subset) > 0 {
		enabled = len(subset)
	}
	return enabled, total
}

// EnabledSnapshot is the per-module enabled map injected into report metadata
// when the scan ran with the full configuration rather than a subset.
func (c ModuleConfig) EnabledSnapshot() map[string]bool {
	snap := make(map[string]bool)
	for _, m := range c {
		if m.Name == ReservedMainEntry {
			continue
		}
		snap[m.Name] = m.Enabled
	}
	return snap
}
