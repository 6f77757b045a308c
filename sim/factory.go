package sim

import (
	"fmt"
	"sort"
)

// ModuleFactory constructs a module named name from its config section.
type ModuleFactory func(s *Simulator, name string, settings ModuleSettings) (Module, error)

// moduleFactories is filled by init() functions of module packages
// (see sim/modules/register.go), which keeps sim free of imports on them.
var moduleFactories = map[string]ModuleFactory{}

// RegisterModuleFactory makes a module kind available to the build phase.
// It panics on a duplicate kind; registration happens in init().
func RegisterModuleFactory(kind string, factory ModuleFactory) {
	if _, exists := moduleFactories[kind]; exists {
		panic(fmt.Sprintf("module factory %q registered twice", kind))
	}
	moduleFactories[kind] = factory
}

// ModuleKinds returns the registered module kinds, sorted.
func ModuleKinds() []string {
	kinds := make([]string, 0, len(moduleFactories))
	for k := range moduleFactories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// newModule instantiates a module using the factory selected by the
// section's kind key, defaulting to the module name.
func newModule(s *Simulator, name string, settings ModuleSettings) (Module, error) {
	kind := settings.String(SettingKind, name)
	factory, ok := moduleFactories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q (module %q)", ErrConfig, ErrUnknownModule, kind, name)
	}
	m, err := factory(s, name, settings)
	if err != nil {
		return nil, fmt.Errorf("creating module %q: %w", name, err)
	}
	return m, nil
}
