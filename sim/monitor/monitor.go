// Package monitor exposes the progress of a running simulation over HTTP.
//
// The Monitor is attached to the simulator as a hook. The hook copies what it
// needs into a mutex-guarded snapshot, and the HTTP handlers only ever read
// that snapshot, so the server goroutine never touches engine state.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/uamp-sim/uamp-sim/sim"
)

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Progress is the state reported by /api/progress.
type Progress struct {
	RunID       string           `json:"run_id"`
	Started     bool             `json:"started"`
	Now         int64            `json:"now"`
	Dispatched  int64            `json:"dispatched"`
	QueueLen    int              `json:"queue_len"`
	LastEvent   string           `json:"last_event"`
	ByType      map[string]int64 `json:"by_type"`
	WallSeconds float64          `json:"wall_seconds"`
}

// Monitor turns a simulation into a read-only HTTP endpoint.
type Monitor struct {
	mu         sync.Mutex
	progress   Progress
	modules    []ModuleInfo
	wallStart  time.Time
	portNumber int

	server *http.Server
}

var _ sim.Hook = (*Monitor)(nil)

// NewMonitor creates a Monitor listening on a random port.
func NewMonitor() *Monitor {
	return &Monitor{
		progress:  Progress{ByType: make(map[string]int64)},
		wallStart: time.Now(),
	}
}

// WithPortNumber sets the port of the HTTP server. Ports below 1000 are
// refused and replaced by a random one.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		logrus.Warnf("Port number %d is not allowed for the monitoring server, using a random port instead", portNumber)
		portNumber = 0
	}
	m.portNumber = portNumber
	return m
}

// RegisterSimulator records the run ID and module list of s and attaches
// the monitor hook. Call it after Build and before Run.
func (m *Monitor) RegisterSimulator(s *sim.Simulator) {
	modules := make([]ModuleInfo, 0, s.ModuleRegistry.Len())
	for _, mod := range s.Modules() {
		modules = append(modules, ModuleInfo{Name: mod.Name(), Type: string(mod.Type())})
	}

	m.mu.Lock()
	m.modules = modules
	m.progress.RunID = s.Metrics().RunID
	m.mu.Unlock()

	s.AcceptHook(m)
}

// Func updates the snapshot after every executed event.
func (m *Monitor) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.progress.Started = true
	m.progress.Now = ctx.Now
	m.progress.Dispatched++
	m.progress.QueueLen = ctx.QueueLen
	m.progress.LastEvent = string(ctx.Item.Type())
	m.progress.ByType[m.progress.LastEvent]++
}

// Snapshot returns a copy of the current progress.
func (m *Monitor) Snapshot() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.progress
	p.ByType = make(map[string]int64, len(m.progress.ByType))
	for k, v := range m.progress.ByType {
		p.ByType[k] = v
	}
	p.WallSeconds = time.Since(m.wallStart).Seconds()
	return p
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/now", m.now).Methods(http.MethodGet)
	r.HandleFunc("/api/progress", m.listProgress).Methods(http.MethodGet)
	r.HandleFunc("/api/modules", m.listModules).Methods(http.MethodGet)
	r.HandleFunc("/api/events/{type}", m.eventCount).Methods(http.MethodGet)
	return r
}

// StartServer listens on the configured port and serves in the background.
// It returns the address actually bound.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("starting monitoring server: %w", err)
	}
	m.server = &http.Server{Handler: m.Router(), ReadHeaderTimeout: 5 * time.Second}

	addr := listener.Addr().String()
	logrus.Infof("Monitoring simulation with http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)

	go func() {
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("Monitoring server stopped: %v", err)
		}
	}()
	return addr, nil
}

// Shutdown stops the server started by StartServer.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	p := m.Snapshot()
	writeJSON(w, map[string]any{"now": p.Now, "started": p.Started})
}

func (m *Monitor) listProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.Snapshot())
}

func (m *Monitor) listModules(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	modules := append([]ModuleInfo(nil), m.modules...)
	m.mu.Unlock()
	writeJSON(w, modules)
}

func (m *Monitor) eventCount(w http.ResponseWriter, r *http.Request) {
	eventType, err := sim.ParseEventType(mux.Vars(r)["type"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	p := m.Snapshot()
	writeJSON(w, map[string]any{"type": eventType, "count": p.ByType[string(eventType)]})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("Writing monitoring response: %v", err)
	}
}
