// sim/simulator.go
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// DefaultQueueThreshold is the queue size below which the run loop pulls the
// next batch of trace events, and the size of that batch.
const DefaultQueueThreshold = 100

// TraceSource supplies pre-recorded events in non-decreasing timestamp order.
type TraceSource interface {
	Build() error
	EndOfTrace() bool
	// PeekEvent returns the earliest event not yet pulled, or nil.
	PeekEvent() Event
	// GetEvents consumes and returns up to count events.
	GetEvents(count int) ([]Event, error)
}

// Options configures a Simulator. Zero values select the defaults.
type Options struct {
	Verbose        bool
	Debug          bool
	QueueThreshold int
	// DebugIn supplies operator commands; defaults to os.Stdin.
	DebugIn io.Reader
	// Out receives event echo and debug prompts; defaults to os.Stdout.
	Out   io.Writer
	RunID string
}

// Simulator is the core object that holds simulation time, the module
// registry, the event bus and the event loop.
type Simulator struct {
	HookableBase
	*ModuleRegistry

	bus     *EventBus
	queue   *EventQueue
	device  *DeviceState
	debug   *DebugController
	metrics *Metrics
	trace   TraceSource

	out       io.Writer
	threshold int
	verbose   bool

	// now is meaningful only once started is set by the first dispatch.
	now     int64
	started bool
}

func NewSimulator(opts Options) *Simulator {
	if opts.QueueThreshold <= 0 {
		opts.QueueThreshold = DefaultQueueThreshold
	}
	if opts.DebugIn == nil {
		opts.DebugIn = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.RunID == "" {
		opts.RunID = xid.New().String()
	}

	s := &Simulator{
		ModuleRegistry: NewModuleRegistry(),
		queue:          NewEventQueue(),
		device:         NewDeviceState(),
		debug:          NewDebugController(opts.DebugIn, opts.Out),
		metrics:        NewMetrics(),
		out:            opts.Out,
		threshold:      opts.QueueThreshold,
		verbose:        opts.Verbose,
	}
	s.bus = NewEventBus(s.CurrentTime)
	s.debug.Enable(opts.Debug)
	s.metrics.RunID = opts.RunID
	return s
}

// Build instantiates the modules listed in cfg, registers all of them and
// then builds them in registration order, so Build may look up siblings.
func (s *Simulator) Build(cfg *Config) error {
	for _, name := range cfg.ModuleNames() {
		settings := cfg.Settings(name)
		override, err := settings.Bool(SettingOverride, false)
		if err != nil {
			return err
		}
		m, err := newModule(s, name, settings)
		if err != nil {
			return err
		}
		policy := InsertAppend
		if override {
			policy = InsertPrepend
		}
		if err := s.RegisterWithPolicy(m, policy); err != nil {
			return err
		}
		logrus.Debugf("Registered module %q (type %s, override=%t)", name, m.Type(), override)
	}
	if err := s.BuildAll(); err != nil {
		return err
	}
	logrus.Infof("Built %d simulation modules", s.ModuleRegistry.Len())
	return nil
}

// Run merges trace events with internally scheduled ones and dispatches them
// in time order until both sources are drained. Every module is finished on
// return, whatever the reason the loop stopped.
func (s *Simulator) Run(ctx context.Context, source TraceSource) (err error) {
	if err := source.Build(); err != nil {
		return fmt.Errorf("building trace source: %w", err)
	}
	s.trace = source

	start := time.Now()
	defer func() {
		s.metrics.WallTime = time.Since(start)
		if ferr := s.FinishAll(); ferr != nil {
			err = errors.Join(err, ferr)
		}
		logrus.Infof("[tick %07d] Simulation ended after %d events", s.now, s.metrics.DispatchedEvents)
	}()

	if s.debug.Enabled() {
		if s.pause() == DebugTerminated {
			return ErrTerminated
		}
	}

	for !source.EndOfTrace() || !s.queue.Empty() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.queue.Len() < s.threshold && !source.EndOfTrace() {
			if err := s.refill(); err != nil {
				return err
			}
			continue
		}

		// A trace event earlier than the head of the queue has not been
		// pulled in yet; dispatching now would reorder them.
		cur := s.queue.Peek()
		if next := source.PeekEvent(); next != nil && next.Timestamp() < cur.Timestamp() {
			if err := s.refill(); err != nil {
				return err
			}
			continue
		}

		if err := s.dispatchNext(); err != nil {
			return err
		}
	}
	return nil
}

// refill moves the next batch of trace events into the queue.
func (s *Simulator) refill() error {
	events, err := s.trace.GetEvents(s.threshold)
	if err != nil {
		return fmt.Errorf("reading trace events: %w", err)
	}
	if len(events) == 0 && !s.trace.EndOfTrace() {
		return ErrTraceStalled
	}
	for _, ev := range events {
		if !ev.Stamped() {
			return fmt.Errorf("%w: trace event %s has no timestamp", ErrInvalidTimestamp, ev.Type())
		}
		if s.started && ev.Timestamp() < s.now {
			return fmt.Errorf("%w: trace event %s at %d is before current time %d",
				ErrInvalidTimestamp, ev.Type(), ev.Timestamp(), s.now)
		}
		s.queue.Push(ev, SortKey{Time: ev.Timestamp(), Priority: PriorityTrace})
	}
	s.metrics.QueueRefills++
	s.metrics.TraceEvents += int64(len(events))
	s.metrics.recordQueueLen(s.queue.Len())
	logrus.Debugf("[tick %07d] Pulled %d trace events, queue size %d", s.now, len(events), s.queue.Len())
	return nil
}

func (s *Simulator) dispatchNext() error {
	key, _ := s.queue.PeekKey()
	ev := s.queue.Pop()

	s.now = ev.Timestamp()
	s.started = true
	logrus.Tracef("[tick %07d] Executing %s", s.now, ev.Type())
	if s.verbose {
		_, _ = fmt.Fprintln(s.out, describe(ev))
	}

	if s.debug.Tick() {
		if s.pause() == DebugTerminated {
			return ErrTerminated
		}
	}

	ctx := HookCtx{Now: s.now, Pos: HookPosBeforeEvent, Item: ev, Priority: key.Priority, QueueLen: s.queue.Len()}
	s.InvokeHook(ctx)

	if err := s.execute(ev); err != nil {
		if errors.Is(err, ErrTerminated) {
			return err
		}
		return fmt.Errorf("[tick %07d] executing %s: %w", s.now, ev.Type(), err)
	}
	s.metrics.recordDispatch(ev)

	ctx.Pos = HookPosAfterEvent
	ctx.QueueLen = s.queue.Len()
	s.InvokeHook(ctx)
	return nil
}

func (s *Simulator) execute(ev Event) error {
	switch ev.Type() {
	case EventTypeDebug:
		if s.pause() == DebugTerminated {
			return ErrTerminated
		}
		return nil
	case EventTypeAlarm:
		alarm, ok := ev.(*Alarm)
		if !ok {
			return fmt.Errorf("alarm event %T carries no fire action", ev)
		}
		return s.fireAlarm(alarm)
	default:
		return s.bus.Broadcast(ev)
	}
}

func (s *Simulator) fireAlarm(a *Alarm) error {
	if a.Cancelled() {
		return nil
	}
	s.metrics.AlarmsFired++
	if err := a.Fire(); err != nil {
		return err
	}
	if a.Repeating {
		s.queue.Push(a, SortKey{Time: a.Timestamp(), Priority: PriorityAlarm})
	}
	return nil
}

func (s *Simulator) pause() DebugState {
	s.metrics.DebugBreaks++
	return s.debug.Pause(s)
}

// Subscribe registers handler for eventType; see EventBus.Subscribe.
func (s *Simulator) Subscribe(eventType EventType, handler Handler, filter Filter) {
	s.bus.Subscribe(eventType, handler, filter)
}

// Broadcast delivers ev to subscribers now; see EventBus.Broadcast.
func (s *Simulator) Broadcast(ev Event) error {
	return s.bus.Broadcast(ev)
}

// RegisterAlarm queues an alarm at its timestamp with alarm priority.
func (s *Simulator) RegisterAlarm(a *Alarm) error {
	if a.Timestamp() < 0 {
		return fmt.Errorf("%w: alarm at %d is negative", ErrInvalidTimestamp, a.Timestamp())
	}
	if a.Repeating && a.Period <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPeriod, a.Period)
	}
	if s.started && a.Timestamp() < s.now {
		return fmt.Errorf("%w: alarm at %d, now %d", ErrInvalidTimestamp, a.Timestamp(), s.now)
	}
	s.queue.Push(a, SortKey{Time: a.Timestamp(), Priority: PriorityAlarm})
	return nil
}

// Schedule queues a stamped event with an explicit priority class.
func (s *Simulator) Schedule(ev Event, priority Priority) error {
	if !ev.Stamped() {
		return fmt.Errorf("%w: scheduled %s has no timestamp", ErrInvalidTimestamp, ev.Type())
	}
	if ev.Timestamp() < 0 {
		return fmt.Errorf("%w: scheduled %s at %d is negative", ErrInvalidTimestamp, ev.Type(), ev.Timestamp())
	}
	if s.started && ev.Timestamp() < s.now {
		return fmt.Errorf("%w: %s at %d, now %d", ErrInvalidTimestamp, ev.Type(), ev.Timestamp(), s.now)
	}
	s.queue.Push(ev, SortKey{Time: ev.Timestamp(), Priority: priority})
	return nil
}

// CurrentTime returns the simulation clock; ok is false before the first dispatch.
func (s *Simulator) CurrentTime() (now int64, ok bool) {
	return s.now, s.started
}

// Now returns the simulation clock, or 0 before the first dispatch.
func (s *Simulator) Now() int64 {
	return s.now
}

func (s *Simulator) DeviceState() *DeviceState { return s.device }

func (s *Simulator) Metrics() *Metrics { return s.metrics }

func (s *Simulator) Debugger() *DebugController { return s.debug }

func (s *Simulator) QueueLen() int { return s.queue.Len() }

// Idle reports whether the trace is exhausted and only repeating alarms are
// still queued. Repeating alarms check it from their action to let the run end;
// other samplers do not count as pending work.
func (s *Simulator) Idle() bool {
	return s.trace != nil && s.trace.EndOfTrace() && s.queue.OnlyRepeating()
}

func (s *Simulator) Verbose() bool { return s.verbose }

func (s *Simulator) SetVerbose(on bool) { s.verbose = on }

// Status summarizes the clock and queue for the debug prompt.
func (s *Simulator) Status() string {
	now := "unset"
	if s.started {
		now = fmt.Sprintf("%d", s.now)
	}
	return fmt.Sprintf("now=%s dispatched=%d queued=%d", now, s.metrics.DispatchedEvents, s.queue.Len())
}

func describe(ev Event) string {
	if str, ok := ev.(fmt.Stringer); ok {
		return str.String()
	}
	return fmt.Sprintf("[tick %07d] %s", ev.Timestamp(), ev.Type())
}
