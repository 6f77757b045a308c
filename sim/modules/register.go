// Package modules holds the concrete simulation modules: a battery model
// (power), a cellular radio state machine (radio) and an event counter.
//
// register.go wires the module constructors into sim's factory table. The
// init() runs when any package imports sim/modules; the CLI blank-imports it
// so that config sections can name these kinds.
package modules

import (
	"fmt"

	"github.com/uamp-sim/uamp-sim/sim"
)

// Module kinds, as named by a config section's kind key (or its name).
const (
	KindPower   = "power"
	KindRadio   = "radio"
	KindCounter = "counter"
)

func init() {
	sim.RegisterModuleFactory(KindPower, NewPower)
	sim.RegisterModuleFactory(KindRadio, NewRadio)
	sim.RegisterModuleFactory(KindCounter, NewCounter)
}

// drawSource is a module with a time-varying current draw. Listeners run
// just before the draw changes, so integrators can close the old interval.
type drawSource interface {
	DrawMA() float64
	OnDrawChange(fn func(now int64))
}

func invalidSettingErr(module, key string, err error) error {
	return fmt.Errorf("%w: %w: module %q setting %s: %w", sim.ErrConfig, sim.ErrInvalidSetting, module, key, err)
}
