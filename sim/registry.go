package sim

import (
	"errors"
	"fmt"
	"reflect"
)

// ModuleType is the capability a module provides. One module per type is
// active at a time; the others are fallbacks.
type ModuleType string

const (
	ModuleTypePower ModuleType = "power"
	ModuleTypeRadio ModuleType = "radio"
	ModuleTypeStats ModuleType = "stats"
)

// Module is a simulation component driven by the engine.
type Module interface {
	// Name is unique within a simulation.
	Name() string
	Type() ModuleType
	// Build is called once, after every module has been registered.
	Build() error
	// Finish is called once when the run loop ends.
	Finish() error
}

// InsertPolicy controls where a module lands in its type's provider list.
type InsertPolicy int

const (
	// InsertAppend adds the module as a fallback provider.
	InsertAppend InsertPolicy = iota
	// InsertPrepend makes the module the active provider for its type.
	InsertPrepend
)

// ModuleRegistry tracks modules by name and by type.
type ModuleRegistry struct {
	byName map[string]Module
	byType map[ModuleType][]Module
	order  []Module
}

// NewModuleRegistry creates an empty registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		byName: make(map[string]Module),
		byType: make(map[ModuleType][]Module),
	}
}

// Register adds m after any existing provider of its type.
func (r *ModuleRegistry) Register(m Module) error {
	return r.RegisterWithPolicy(m, InsertAppend)
}

// Override adds m in front of any existing provider of its type.
func (r *ModuleRegistry) Override(m Module) error {
	return r.RegisterWithPolicy(m, InsertPrepend)
}

// RegisterWithPolicy adds m to the registry.
func (r *ModuleRegistry) RegisterWithPolicy(m Module, policy InsertPolicy) error {
	if isNil(m) {
		return ErrNilModule
	}
	name := m.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %w: %q", ErrConfig, ErrDuplicateModule, name)
	}

	r.byName[name] = m
	r.order = append(r.order, m)

	providers := r.byType[m.Type()]
	switch policy {
	case InsertPrepend:
		providers = append([]Module{m}, providers...)
	default:
		providers = append(providers, m)
	}
	r.byType[m.Type()] = providers
	return nil
}

// isNil also catches a nil pointer stored in a non-nil Module.
func isNil(m Module) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (r *ModuleRegistry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Get returns the module registered under name.
func (r *ModuleRegistry) Get(name string) (Module, error) {
	m, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	return m, nil
}

// GetForType returns the active provider of t, or nil if none is registered.
func (r *ModuleRegistry) GetForType(t ModuleType) Module {
	providers := r.byType[t]
	if len(providers) == 0 {
		return nil
	}
	return providers[0]
}

// Modules returns every module in registration order.
func (r *ModuleRegistry) Modules() []Module {
	out := make([]Module, len(r.order))
	copy(out, r.order)
	return out
}

func (r *ModuleRegistry) Len() int {
	return len(r.order)
}

// BuildAll builds every module in registration order and stops at the first failure.
func (r *ModuleRegistry) BuildAll() error {
	for _, m := range r.order {
		if err := m.Build(); err != nil {
			return fmt.Errorf("building module %q: %w", m.Name(), err)
		}
	}
	return nil
}

// FinishAll finishes every module in registration order, even when some fail.
func (r *ModuleRegistry) FinishAll() error {
	var errs []error
	for _, m := range r.order {
		if err := m.Finish(); err != nil {
			errs = append(errs, fmt.Errorf("finishing module %q: %w", m.Name(), err))
		}
	}
	return errors.Join(errs...)
}
