// Package record writes every dispatched event of a simulation run into a
// SQLite database, for offline inspection with any SQL client.
//
// A Recorder is a sim.Hook. Rows are buffered in memory and written in one
// transaction per batch; the remaining rows are flushed on Close and, for
// recorders created with New, when the process exits through atexit.
package record

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	// SQLite driver for database/sql.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"

	"github.com/uamp-sim/uamp-sim/sim"
)

// DefaultBatchSize is the number of buffered rows that triggers a flush.
const DefaultBatchSize = 10000

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS dispatch (
	run_id     TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	tick       INTEGER NOT NULL,
	event_type TEXT    NOT NULL,
	priority   INTEGER NOT NULL,
	queue_len  INTEGER NOT NULL,
	detail     TEXT    NOT NULL
);`

const insertDispatch = `INSERT INTO dispatch
	(run_id, seq, tick, event_type, priority, queue_len, detail)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// Row is one dispatched event.
type Row struct {
	Seq       int64
	Tick      int64
	EventType string
	Priority  int
	QueueLen  int
	Detail    string
}

// Recorder buffers dispatch rows and writes them to SQLite.
type Recorder struct {
	db        *sql.DB
	path      string
	runID     string
	batchSize int

	pending []Row
	seq     int64
	written int64
	err     error
	closed  bool
}

var _ sim.Hook = (*Recorder)(nil)

// New creates the SQLite database at path and a Recorder writing into it.
// An empty path picks a unique name in the working directory. The file must
// not exist yet, so runs never mix rows by accident.
func New(path, runID string) (*Recorder, error) {
	if path == "" {
		path = "uamp_sim_" + xid.New().String() + ".sqlite3"
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("recording database %s already exists", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening recording database: %w", err)
	}
	r, err := NewWithDB(db, runID)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	r.path = path

	atexit.Register(func() {
		if err := r.Close(); err != nil {
			logrus.Errorf("Flushing recording database %s: %v", path, err)
		}
	})
	logrus.Infof("Recording dispatched events to %s", path)
	return r, nil
}

// NewWithDB creates a Recorder on an open database, creating the tables if needed.
func NewWithDB(db *sql.DB, runID string) (*Recorder, error) {
	if runID == "" {
		runID = xid.New().String()
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating recording tables: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO runs (run_id, started_at) VALUES (?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("registering run %s: %w", runID, err)
	}
	return &Recorder{db: db, runID: runID, batchSize: DefaultBatchSize}, nil
}

// WithBatchSize sets the flush threshold.
func (r *Recorder) WithBatchSize(n int) *Recorder {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// Func records events after they execute; hooks cannot fail the run, so
// the first write error is kept and reported by Err and Close.
func (r *Recorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent || r.closed {
		return
	}
	r.seq++
	r.pending = append(r.pending, Row{
		Seq:       r.seq,
		Tick:      ctx.Now,
		EventType: string(ctx.Item.Type()),
		Priority:  int(ctx.Priority),
		QueueLen:  ctx.QueueLen,
		Detail:    detail(ctx.Item),
	})
	if len(r.pending) >= r.batchSize {
		if err := r.Flush(); err != nil {
			logrus.Errorf("Recording dispatched events: %v", err)
		}
	}
}

func detail(ev sim.Event) string {
	switch e := ev.(type) {
	case *sim.Alarm:
		return e.Name
	case *sim.BasicEvent:
		if e.Payload == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(e.Payload))
	default:
		return ""
	}
}

// Flush writes the buffered rows in a single transaction.
func (r *Recorder) Flush() error {
	if r.err != nil {
		return r.err
	}
	if len(r.pending) == 0 || r.closed {
		return nil
	}
	if err := r.writeBatch(r.pending); err != nil {
		r.err = err
		return err
	}
	r.written += int64(len(r.pending))
	r.pending = r.pending[:0]
	return nil
}

func (r *Recorder) writeBatch(rows []Row) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.Prepare(insertDispatch)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		if _, err := stmt.Exec(r.runID, row.Seq, row.Tick, row.EventType, row.Priority, row.QueueLen, row.Detail); err != nil {
			return fmt.Errorf("inserting row %d: %w", row.Seq, err)
		}
	}
	return tx.Commit()
}

// Close flushes the remaining rows and closes the database. It is safe to
// call more than once.
func (r *Recorder) Close() error {
	if r.closed {
		return r.err
	}
	flushErr := r.Flush()
	r.closed = true
	return errors.Join(flushErr, r.db.Close())
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error { return r.err }

// Written is the number of rows committed so far.
func (r *Recorder) Written() int64 { return r.written }

// Path is the database file, empty for recorders created with NewWithDB.
func (r *Recorder) Path() string { return r.path }

// RunID identifies this run's rows in the dispatch table.
func (r *Recorder) RunID() string { return r.runID }
