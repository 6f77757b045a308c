package modules

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/uamp-sim/uamp-sim/sim"
	"github.com/uamp-sim/uamp-sim/sim/trace"
)

// Radio models a cellular radio with a tail timer: any traffic moves it to
// the active state, and it drops back to idle tailTicks after the last packet.
type Radio struct {
	sim  *sim.Simulator
	name string

	activeMA  float64
	tailTicks int64

	active      bool
	tail        *sim.Alarm
	listeners   []func(now int64)
	activations int64
	packets     int64
	bytes       int64
	activeTicks int64
	activeSince int64
}

var _ drawSource = (*Radio)(nil)

// NewRadio creates a radio module from its config section.
// Settings: active_ma (200), tail_ticks (5 s).
func NewRadio(s *sim.Simulator, name string, settings sim.ModuleSettings) (sim.Module, error) {
	activeMA, err := settings.Float64("active_ma", 200)
	if err != nil {
		return nil, err
	}
	tailTicks, err := settings.Int64("tail_ticks", 5*sim.TicksPerSecond)
	if err != nil {
		return nil, err
	}
	if activeMA < 0 {
		return nil, fmt.Errorf("%w: %w: active_ma must not be negative, got %g", sim.ErrConfig, sim.ErrInvalidSetting, activeMA)
	}
	if tailTicks <= 0 {
		return nil, fmt.Errorf("%w: %w: tail_ticks must be positive, got %d", sim.ErrConfig, sim.ErrInvalidSetting, tailTicks)
	}
	return &Radio{sim: s, name: name, activeMA: activeMA, tailTicks: tailTicks}, nil
}

func (r *Radio) Name() string         { return r.name }
func (r *Radio) Type() sim.ModuleType { return sim.ModuleTypeRadio }

func (r *Radio) Build() error {
	r.sim.Subscribe(sim.EventTypeNetTx, r.onTraffic, carriesPayload)
	r.sim.Subscribe(sim.EventTypeNetRx, r.onTraffic, carriesPayload)
	r.sim.DeviceState().Set(sim.StateRadioActive, false)
	return nil
}

// carriesPayload drops trace rows that explicitly record zero bytes.
func carriesPayload(ev sim.Event) bool {
	rec, ok := trace.RecordOf(ev)
	if !ok {
		return true
	}
	return rec.IntField("bytes", -1) != 0
}

func (r *Radio) onTraffic(ev sim.Event) error {
	now := ev.Timestamp()
	r.packets++
	if rec, ok := trace.RecordOf(ev); ok {
		r.bytes += max(rec.IntField("bytes", 0), 0)
	}

	if !r.active {
		r.setActive(now, true)
		r.activations++
	}
	if r.tail != nil {
		r.tail.Cancel()
	}
	r.tail = sim.NewAlarm(now+r.tailTicks, r.onTailExpired)
	r.tail.Name = r.name + "-tail"
	return r.sim.RegisterAlarm(r.tail)
}

func (r *Radio) onTailExpired(a *sim.Alarm) error {
	if a != r.tail {
		return nil
	}
	r.tail = nil
	r.setActive(a.Timestamp(), false)
	logrus.Tracef("[tick %07d] %s: radio idle", a.Timestamp(), r.name)
	return nil
}

func (r *Radio) setActive(now int64, active bool) {
	for _, fn := range r.listeners {
		fn(now)
	}
	if active {
		r.activeSince = now
	} else {
		r.activeTicks += now - r.activeSince
	}
	r.active = active
	r.sim.DeviceState().Set(sim.StateRadioActive, active)
}

// Active reports whether the radio is out of idle.
func (r *Radio) Active() bool { return r.active }

// DrawMA is the radio's current draw in milliamps.
func (r *Radio) DrawMA() float64 {
	if r.active {
		return r.activeMA
	}
	return 0
}

// OnDrawChange registers fn to run before every active/idle transition.
func (r *Radio) OnDrawChange(fn func(now int64)) {
	r.listeners = append(r.listeners, fn)
}

// ActiveTicks is the total time spent active, up to the last transition.
func (r *Radio) ActiveTicks() int64 { return r.activeTicks }

func (r *Radio) Finish() error {
	if r.active {
		r.activeTicks += r.sim.Now() - r.activeSince
	}
	logrus.Infof("%s: %d packets, %d bytes, %d activations, active %.3fs",
		r.name, r.packets, r.bytes, r.activations, float64(r.activeTicks)/float64(sim.TicksPerSecond))
	return nil
}
