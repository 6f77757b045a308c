// Package sim provides the discrete-event simulation engine for uamp-sim.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - event.go: Event interface, event types and priority classes
//   - queue.go: the (timestamp, priority) ordered event queue
//   - simulator.go: the run loop merging trace events with scheduled ones
//
// # Architecture
//
// The engine pulls batches of trace events from a TraceSource into the
// EventQueue and keeps the queue ahead of the trace, so events are always
// dispatched in non-decreasing timestamp order. Alarms and debug checkpoints
// are handled by the engine; every other event goes to the EventBus, which
// fans it out to module handlers in subscription order.
//
// Implementations of the extension points live in sub-packages:
//   - sim/trace/: CSV trace reader (TraceSource)
//   - sim/modules/: power, radio and counter modules (Module)
//   - sim/record/: SQLite dispatch log (Hook)
//   - sim/monitor/: HTTP progress endpoint (Hook)
//
// Module packages register constructors via init() functions that call
// RegisterModuleFactory; the build phase instantiates modules by kind.
package sim
