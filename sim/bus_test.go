package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(now int64) func() (int64, bool) {
	return func() (int64, bool) { return now, true }
}

func TestEventBus_Broadcast_FanOutInSubscriptionOrder(t *testing.T) {
	// GIVEN H1 then H2 subscribed to the same type
	b := NewEventBus(fixedClock(10))
	var calls []string
	b.Subscribe(EventTypeScreenOn, func(Event) error { calls = append(calls, "H1"); return nil }, nil)
	b.Subscribe(EventTypeScreenOn, func(Event) error { calls = append(calls, "H2"); return nil }, nil)

	// WHEN a matching event is broadcast
	require.NoError(t, b.Broadcast(NewEvent(EventTypeScreenOn, nil)))

	// THEN H1 runs strictly before H2
	assert.Equal(t, []string{"H1", "H2"}, calls)
	assert.Equal(t, 2, b.Subscribers(EventTypeScreenOn))
}

func TestEventBus_Broadcast_OnlyMatchingType(t *testing.T) {
	b := NewEventBus(fixedClock(0))
	called := false
	b.Subscribe(EventTypeScreenOff, func(Event) error { called = true; return nil }, nil)

	require.NoError(t, b.Broadcast(NewEvent(EventTypeScreenOn, nil)))

	assert.False(t, called)
}

func TestEventBus_Broadcast_FilterSelectsEvents(t *testing.T) {
	b := NewEventBus(fixedClock(0))
	var got []any
	b.Subscribe(EventTypeNetTx, func(ev Event) error {
		got = append(got, ev.(*BasicEvent).Payload)
		return nil
	}, func(ev Event) bool {
		return ev.(*BasicEvent).Payload.(int) > 0
	})

	require.NoError(t, b.Broadcast(NewEvent(EventTypeNetTx, 0)))
	require.NoError(t, b.Broadcast(NewEvent(EventTypeNetTx, 512)))

	assert.Equal(t, []any{512}, got)
}

func TestEventBus_Broadcast_StampsUnsetTimestamp(t *testing.T) {
	b := NewEventBus(fixedClock(42))
	ev := NewEvent(EventTypeScreenOn, nil)
	require.False(t, ev.Stamped())

	require.NoError(t, b.Broadcast(ev))

	assert.True(t, ev.Stamped())
	assert.Equal(t, int64(42), ev.Timestamp())
}

func TestEventBus_Broadcast_PresetTimestampMustBeNow(t *testing.T) {
	b := NewEventBus(fixedClock(42))
	called := false
	b.Subscribe(EventTypeScreenOn, func(Event) error { called = true; return nil }, nil)

	assert.NoError(t, b.Broadcast(NewEventAt(42, EventTypeScreenOn, nil)))
	assert.True(t, called)

	called = false
	err := b.Broadcast(NewEventAt(41, EventTypeScreenOn, nil))
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
	assert.False(t, called, "no handler may see an event from another time")
}

func TestEventBus_Broadcast_BeforeClockStarts_Fails(t *testing.T) {
	b := NewEventBus(func() (int64, bool) { return 0, false })
	assert.ErrorIs(t, b.Broadcast(NewEvent(EventTypeScreenOn, nil)), ErrClockNotStarted)
}

func TestEventBus_Broadcast_ReservedTypesRejected(t *testing.T) {
	b := NewEventBus(fixedClock(0))
	assert.ErrorIs(t, b.Broadcast(NewEvent(EventTypeDebug, nil)), ErrReservedEventType)
	assert.ErrorIs(t, b.Broadcast(NewAlarm(0, nil)), ErrReservedEventType)
}

func TestEventBus_Broadcast_HandlerErrorStopsFanOut(t *testing.T) {
	b := NewEventBus(fixedClock(0))
	secondCalled := false
	b.Subscribe(EventTypeScreenOn, func(Event) error { return errors.New("broken handler") }, nil)
	b.Subscribe(EventTypeScreenOn, func(Event) error { secondCalled = true; return nil }, nil)

	err := b.Broadcast(NewEvent(EventTypeScreenOn, nil))

	assert.ErrorContains(t, err, "broken handler")
	assert.False(t, secondCalled)
}

func TestEventBus_NestedBroadcast_DeferredUntilFanOutCompletes(t *testing.T) {
	// GIVEN a handler that broadcasts another event while handling screen_on
	b := NewEventBus(fixedClock(5))
	var calls []string
	b.Subscribe(EventTypeScreenOn, func(Event) error {
		calls = append(calls, "on:first")
		require.NoError(t, b.Broadcast(NewEvent(EventTypeBatteryLevel, nil)))
		calls = append(calls, "on:first:returned")
		return nil
	}, nil)
	b.Subscribe(EventTypeScreenOn, func(Event) error { calls = append(calls, "on:second"); return nil }, nil)
	b.Subscribe(EventTypeBatteryLevel, func(ev Event) error {
		calls = append(calls, "battery")
		assert.Equal(t, int64(5), ev.Timestamp())
		return nil
	}, nil)

	// WHEN screen_on is broadcast
	require.NoError(t, b.Broadcast(NewEvent(EventTypeScreenOn, nil)))

	// THEN the nested event is delivered after every screen_on handler, never recursively
	assert.Equal(t, []string{"on:first", "on:first:returned", "on:second", "battery"}, calls)
}
