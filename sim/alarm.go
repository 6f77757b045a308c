package sim

import "fmt"

// AlarmFunc is the action run when an alarm fires.
type AlarmFunc func(a *Alarm) error

// Alarm is an event the engine fires directly instead of broadcasting.
// A repeating alarm moves itself forward by Period every time it fires.
type Alarm struct {
	BaseEvent
	Name      string
	Period    int64
	Repeating bool

	action    AlarmFunc
	cancelled bool
}

// NewAlarm creates a one-shot alarm firing at the given tick.
func NewAlarm(at int64, action AlarmFunc) *Alarm {
	return &Alarm{
		BaseEvent: NewBaseEventAt(at, EventTypeAlarm),
		action:    action,
	}
}

// NewRepeatingAlarm creates an alarm firing at the given tick and every period after.
func NewRepeatingAlarm(at, period int64, action AlarmFunc) *Alarm {
	a := NewAlarm(at, action)
	a.Period = period
	a.Repeating = true
	return a
}

// Fire runs the action and, for repeating alarms, advances the timestamp by Period.
// A cancelled alarm does nothing.
func (a *Alarm) Fire() error {
	if a.cancelled {
		return nil
	}
	var err error
	if a.action != nil {
		err = a.action(a)
	}
	if a.Repeating && !a.cancelled {
		a.timestamp += a.Period
	}
	return err
}

// Cancel stops all future firings. The queued entry is dropped when it comes due.
func (a *Alarm) Cancel() {
	a.cancelled = true
	a.Repeating = false
}

func (a *Alarm) Cancelled() bool {
	return a.cancelled
}

func (a *Alarm) String() string {
	name := a.Name
	if name == "" {
		name = "alarm"
	}
	if a.Repeating {
		return fmt.Sprintf("[tick %07d] %s %s every %d", a.timestamp, EventTypeAlarm, name, a.Period)
	}
	return fmt.Sprintf("[tick %07d] %s %s", a.timestamp, EventTypeAlarm, name)
}
