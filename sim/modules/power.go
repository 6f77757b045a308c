package modules

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/uamp-sim/uamp-sim/sim"
)

const ticksPerHour = 3600 * sim.TicksPerSecond

// Power integrates the device's current draw over simulated time and
// publishes the remaining battery charge.
//
// Draw is base_ma, plus screen_ma while the screen is on, plus the active
// radio's draw. Nothing is drained while a charger is connected.
type Power struct {
	sim  *sim.Simulator
	name string

	capacityMAh float64
	baseMA      float64
	screenMA    float64
	sampleTicks int64

	radio    drawSource
	screenOn bool
	charging bool

	// lastUpdate is the end of the interval already integrated.
	lastUpdate  int64
	consumedMAh float64
	samples     int64
	sampler     *sim.Alarm
}

// NewPower creates a power module from its config section.
// Settings: capacity_mah (3000), base_ma (5), screen_ma (250), sample_ticks (60 s).
func NewPower(s *sim.Simulator, name string, settings sim.ModuleSettings) (sim.Module, error) {
	p := &Power{sim: s, name: name}
	var err error
	if p.capacityMAh, err = settings.Float64("capacity_mah", 3000); err != nil {
		return nil, err
	}
	if p.baseMA, err = settings.Float64("base_ma", 5); err != nil {
		return nil, err
	}
	if p.screenMA, err = settings.Float64("screen_ma", 250); err != nil {
		return nil, err
	}
	if p.sampleTicks, err = settings.Int64("sample_ticks", 60*sim.TicksPerSecond); err != nil {
		return nil, err
	}
	if p.capacityMAh <= 0 {
		return nil, fmt.Errorf("%w: %w: capacity_mah must be positive, got %g", sim.ErrConfig, sim.ErrInvalidSetting, p.capacityMAh)
	}
	if p.baseMA < 0 || p.screenMA < 0 {
		return nil, fmt.Errorf("%w: %w: current draw must not be negative", sim.ErrConfig, sim.ErrInvalidSetting)
	}
	if p.sampleTicks <= 0 {
		return nil, fmt.Errorf("%w: %w: sample_ticks must be positive, got %d", sim.ErrConfig, sim.ErrInvalidSetting, p.sampleTicks)
	}
	return p, nil
}

func (p *Power) Name() string         { return p.name }
func (p *Power) Type() sim.ModuleType { return sim.ModuleTypePower }

// Build subscribes to screen and charger events, attaches to the active
// radio if there is one and arms the sampling alarm.
func (p *Power) Build() error {
	if radio, ok := p.sim.GetForType(sim.ModuleTypeRadio).(drawSource); ok {
		p.radio = radio
		radio.OnDrawChange(p.integrate)
	} else {
		logrus.Infof("%s: no radio module, radio draw not modelled", p.name)
	}

	p.sim.Subscribe(sim.EventTypeScreenOn, p.onScreen, nil)
	p.sim.Subscribe(sim.EventTypeScreenOff, p.onScreen, nil)
	p.sim.Subscribe(sim.EventTypeChargerConnected, p.onCharger, nil)
	p.sim.Subscribe(sim.EventTypeChargerDisconnected, p.onCharger, nil)

	p.sampler = sim.NewRepeatingAlarm(p.sampleTicks, p.sampleTicks, p.sample)
	p.sampler.Name = p.name + "-sample"
	p.sim.DeviceState().Set(sim.StateBatteryPct, 100.0)
	return p.sim.RegisterAlarm(p.sampler)
}

// DrawMA is the device's present current draw.
func (p *Power) DrawMA() float64 {
	draw := p.baseMA
	if p.screenOn {
		draw += p.screenMA
	}
	if p.radio != nil {
		draw += p.radio.DrawMA()
	}
	return draw
}

// integrate accounts the draw between lastUpdate and now.
func (p *Power) integrate(now int64) {
	if now <= p.lastUpdate {
		return
	}
	if !p.charging {
		p.consumedMAh += p.DrawMA() * float64(now-p.lastUpdate) / float64(ticksPerHour)
		p.consumedMAh = min(p.consumedMAh, p.capacityMAh)
	}
	p.lastUpdate = now
}

func (p *Power) onScreen(ev sim.Event) error {
	p.integrate(ev.Timestamp())
	p.screenOn = ev.Type() == sim.EventTypeScreenOn
	p.sim.DeviceState().Set(sim.StateScreenOn, p.screenOn)
	return nil
}

func (p *Power) onCharger(ev sim.Event) error {
	p.integrate(ev.Timestamp())
	p.charging = ev.Type() == sim.EventTypeChargerConnected
	p.sim.DeviceState().Set(sim.StateCharging, p.charging)
	return nil
}

func (p *Power) sample(a *sim.Alarm) error {
	p.integrate(a.Timestamp())
	p.samples++
	pct := p.BatteryPct()
	p.sim.DeviceState().Set(sim.StateBatteryPct, pct)
	if err := p.sim.Broadcast(sim.NewEvent(sim.EventTypeBatteryLevel, pct)); err != nil {
		return err
	}
	if p.sim.Idle() {
		a.Cancel()
	}
	return nil
}

// BatteryPct is the remaining charge as a percentage of capacity.
func (p *Power) BatteryPct() float64 {
	return 100 * (1 - p.consumedMAh/p.capacityMAh)
}

// ConsumedMAh is the charge drained up to the last integrated instant.
func (p *Power) ConsumedMAh() float64 { return p.consumedMAh }

func (p *Power) Finish() error {
	p.integrate(p.sim.Now())
	logrus.Infof("%s: consumed %.3f mAh of %.0f (%.1f%% left) over %d samples",
		p.name, p.consumedMAh, p.capacityMAh, p.BatteryPct(), p.samples)
	return nil
}
