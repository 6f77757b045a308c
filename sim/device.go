package sim

import "sort"

// DeviceState is the simulated device, shared by all modules.
// Modules publish values under well-known keys; the engine never reads it.
type DeviceState struct {
	values map[string]any
}

// Well-known device state keys.
const (
	StateScreenOn    = "screen_on"
	StateCharging    = "charging"
	StateBatteryPct  = "battery_pct"
	StateRadioActive = "radio_active"
	StateForeground  = "foreground_app"
)

func NewDeviceState() *DeviceState {
	return &DeviceState{values: make(map[string]any)}
}

func (d *DeviceState) Set(key string, value any) {
	d.values[key] = value
}

func (d *DeviceState) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Bool returns the value under key, or false when unset or not a bool.
func (d *DeviceState) Bool(key string) bool {
	b, _ := d.values[key].(bool)
	return b
}

// Float returns the value under key, or 0 when unset or not a float64.
func (d *DeviceState) Float(key string) float64 {
	f, _ := d.values[key].(float64)
	return f
}

// Keys returns the set keys in sorted order.
func (d *DeviceState) Keys() []string {
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
