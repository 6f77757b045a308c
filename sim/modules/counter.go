package modules

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/uamp-sim/uamp-sim/sim"
)

// Counter tallies broadcast events per type.
type Counter struct {
	sim    *sim.Simulator
	name   string
	types  []sim.EventType
	counts map[sim.EventType]int64
}

// NewCounter creates a counter module. The types setting is a
// space-separated list of event types; by default every domain type is counted.
func NewCounter(s *sim.Simulator, name string, settings sim.ModuleSettings) (sim.Module, error) {
	c := &Counter{sim: s, name: name, counts: make(map[sim.EventType]int64)}
	fields := strings.Fields(settings.String("types", ""))
	if len(fields) == 0 {
		c.types = sim.DomainEventTypes()
		return c, nil
	}
	for _, f := range fields {
		t, err := sim.ParseEventType(f)
		if err != nil {
			return nil, invalidSettingErr(name, "types", err)
		}
		if t.IsInternal() {
			return nil, invalidSettingErr(name, "types", sim.ErrReservedEventType)
		}
		c.types = append(c.types, t)
	}
	return c, nil
}

func (c *Counter) Name() string         { return c.name }
func (c *Counter) Type() sim.ModuleType { return sim.ModuleTypeStats }

func (c *Counter) Build() error {
	for _, t := range c.types {
		c.sim.Subscribe(t, c.count, nil)
	}
	return nil
}

func (c *Counter) count(ev sim.Event) error {
	c.counts[ev.Type()]++
	return nil
}

// Count returns how many events of type t were seen.
func (c *Counter) Count(t sim.EventType) int64 {
	return c.counts[t]
}

func (c *Counter) Finish() error {
	for _, t := range c.types {
		if n := c.counts[t]; n > 0 {
			logrus.Infof("%s: %-22s %d", c.name, t, n)
		}
	}
	return nil
}
