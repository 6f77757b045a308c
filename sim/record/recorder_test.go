package record

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uamp-sim/uamp-sim/sim"
	"github.com/uamp-sim/uamp-sim/sim/internal/testutil"
)

func newSim() *sim.Simulator {
	return sim.NewSimulator(sim.Options{Out: io.Discard, DebugIn: strings.NewReader("")})
}

func readRows(t *testing.T, path string) []Row {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`SELECT seq, tick, event_type, priority, queue_len, detail FROM dispatch ORDER BY seq`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var r Row
		require.NoError(t, rows.Scan(&r.Seq, &r.Tick, &r.EventType, &r.Priority, &r.QueueLen, &r.Detail))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestRecorder_WritesOneRowPerDispatch(t *testing.T) {
	// GIVEN a recorder attached to a simulator with an alarm and three trace events
	path := filepath.Join(t.TempDir(), "run.sqlite3")
	rec, err := New(path, "run-1")
	require.NoError(t, err)
	s := newSim()
	s.AcceptHook(rec)
	alarm := sim.NewAlarm(15, func(*sim.Alarm) error { return nil })
	alarm.Name = "wake"
	require.NoError(t, s.RegisterAlarm(alarm))
	src := testutil.NewSliceSourceOf(
		sim.NewEventAt(10, sim.EventTypeScreenOn, nil),
		sim.NewEventAt(20, sim.EventTypeNetTx, 512),
		sim.NewEventAt(30, sim.EventTypeScreenOff, nil),
	)

	// WHEN the run completes and the recorder is closed
	require.NoError(t, s.Run(context.Background(), src))
	require.NoError(t, rec.Close())

	// THEN the table holds the dispatches in order
	rows := readRows(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, Row{Seq: 1, Tick: 10, EventType: "screen_on", Priority: int(sim.PriorityTrace), QueueLen: 3}, rows[0])
	assert.Equal(t, Row{Seq: 2, Tick: 15, EventType: "sim_alarm", Priority: int(sim.PriorityAlarm), QueueLen: 2, Detail: "wake"}, rows[1])
	assert.Equal(t, "512", rows[2].Detail)
	assert.Equal(t, int64(30), rows[3].Tick)
	assert.Equal(t, int64(4), rec.Written())
	assert.Equal(t, path, rec.Path())
}

func TestRecorder_FlushesInBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batched.sqlite3")
	rec, err := New(path, "")
	require.NoError(t, err)
	rec.WithBatchSize(2)
	assert.NotEmpty(t, rec.RunID())
	s := newSim()
	s.AcceptHook(rec)

	require.NoError(t, s.Run(context.Background(), testutil.NewSliceSource(sim.EventTypeScreenOn, 1, 2, 3)))

	// Two rows went out with the first full batch; the third waits for Close
	assert.Equal(t, int64(2), rec.Written())
	require.NoError(t, rec.Close())
	assert.Equal(t, int64(3), rec.Written())
	assert.Len(t, readRows(t, path), 3)
}

func TestRecorder_RefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taken.sqlite3")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := New(path, "")

	assert.ErrorContains(t, err, "already exists")
}

func TestRecorder_CloseIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "shared.sqlite3"))
	require.NoError(t, err)
	rec, err := NewWithDB(db, "run-x")
	require.NoError(t, err)
	assert.Empty(t, rec.Path())

	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())

	// Hooks after Close are ignored
	rec.Func(sim.HookCtx{Pos: sim.HookPosAfterEvent, Item: sim.NewEventAt(1, sim.EventTypeScreenOn, nil)})
	assert.Zero(t, rec.Written())
	assert.NoError(t, rec.Err())
}

func TestRecorder_IgnoresBeforeEventHooks(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "before.sqlite3"))
	require.NoError(t, err)
	rec, err := NewWithDB(db, "run-y")
	require.NoError(t, err)

	rec.Func(sim.HookCtx{Pos: sim.HookPosBeforeEvent, Item: sim.NewEventAt(1, sim.EventTypeScreenOn, nil)})
	require.NoError(t, rec.Flush())

	assert.Zero(t, rec.Written())
	require.NoError(t, rec.Close())
}

func TestRecorder_DuplicateRunID_Fails(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "dup.sqlite3"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = NewWithDB(db, "same")
	require.NoError(t, err)
	_, err = NewWithDB(db, "same")

	assert.ErrorContains(t, err, "registering run same")
}
