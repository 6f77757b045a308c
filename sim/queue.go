package sim

import "container/heap"

// SortKey orders queued events: timestamp first, then priority class.
type SortKey struct {
	Time     int64
	Priority Priority
}

// queueEntry wraps an Event with its key and a sequence ID for FIFO
// tie-breaking when timestamp and priority are equal.
type queueEntry struct {
	event     Event
	key       SortKey
	seqID     int64
	repeating bool
}

// entryHeap is a min-heap ordered by (Time, Priority, seqID).
// Implements heap.Interface.
type entryHeap []queueEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].key.Time != h[j].key.Time {
		return h[i].key.Time < h[j].key.Time
	}
	if h[i].key.Priority != h[j].key.Priority {
		return h[i].key.Priority < h[j].key.Priority
	}
	return h[i].seqID < h[j].seqID
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(queueEntry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queueEntry{}
	*h = old[:n-1]
	return item
}

// EventQueue holds pending events. No operation blocks.
type EventQueue struct {
	entries   entryHeap
	nextSeq   int64
	repeating int // queued entries that were repeating alarms when pushed
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{entries: make(entryHeap, 0)}
	heap.Init(&q.entries)
	return q
}

// Push adds ev under key.
func (q *EventQueue) Push(ev Event, key SortKey) {
	entry := queueEntry{event: ev, key: key, seqID: q.nextSeq}
	if a, ok := ev.(*Alarm); ok && a.Repeating {
		entry.repeating = true
		q.repeating++
	}
	heap.Push(&q.entries, entry)
	q.nextSeq++
}

// Pop removes and returns the next event, or nil when empty.
func (q *EventQueue) Pop() Event {
	if q.Len() == 0 {
		return nil
	}
	entry := heap.Pop(&q.entries).(queueEntry)
	if entry.repeating {
		q.repeating--
	}
	return entry.event
}

// Peek returns the next event without removing it, or nil when empty.
func (q *EventQueue) Peek() Event {
	if q.Len() == 0 {
		return nil
	}
	return q.entries[0].event
}

// PeekKey returns the key of the next event.
func (q *EventQueue) PeekKey() (SortKey, bool) {
	if q.Len() == 0 {
		return SortKey{}, false
	}
	return q.entries[0].key, true
}

func (q *EventQueue) Len() int {
	return len(q.entries)
}

func (q *EventQueue) Empty() bool {
	return len(q.entries) == 0
}

// OnlyRepeating reports whether every queued entry is a repeating alarm.
// An empty queue qualifies.
func (q *EventQueue) OnlyRepeating() bool {
	return len(q.entries) == q.repeating
}
