package scan

import (
	"context"
	"fmt"

	"scanpipe/types"
)

// Engine runs the configured modules against a set of file refs and returns
// findings keyed by file ref. Module execution internals are the engine's
// business; the dispatcher only sees the mapping or an error.
type Engine interface {
	Scan(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error)

func (f EngineFunc) Scan(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
	return f(ctx, fileRefs, modules, subset)
}

// Resolve returns the module entries a scan will actually run: the named
// subset when one was supplied (unknown names are an error), otherwise every
// enabled entry. The reserved main entry never runs as a module.
func Resolve(modules types.ModuleConfig, subset []string) (types.ModuleConfig, error) {
	if len(subset) == 0 {
		var enabled types.ModuleConfig
		for _, m := range modules {
			if m.Name == types.ReservedMainEntry {
				continue
			}
			if m.Enabled {
				enabled = append(enabled, m)
			}
		}
		return enabled, nil
	}

	var resolved types.ModuleConfig
	for _, name := range subset {
		if name == types.ReservedMainEntry {
			return nil, fmt.Errorf("module subset must not name the reserved %q entry", types.ReservedMainEntry)
		}
		m, ok := modules.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown module %q in subset", name)
		}
		resolved = append(resolved, m)
	}
	return resolved, nil
}
