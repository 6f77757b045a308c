package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uamp-sim/uamp-sim/sim"
	"github.com/uamp-sim/uamp-sim/sim/internal/testutil"
)

type stubModule struct {
	name string
	typ  sim.ModuleType
}

func (m stubModule) Name() string         { return m.name }
func (m stubModule) Type() sim.ModuleType { return m.typ }
func (m stubModule) Build() error         { return nil }
func (m stubModule) Finish() error        { return nil }

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func runMonitored(t *testing.T) (*Monitor, *sim.Simulator) {
	t.Helper()
	s := sim.NewSimulator(sim.Options{Out: io.Discard, DebugIn: strings.NewReader(""), RunID: "run-42"})
	require.NoError(t, s.Register(stubModule{name: "power", typ: sim.ModuleTypePower}))
	m := NewMonitor()
	m.RegisterSimulator(s)
	src := testutil.NewSliceSourceOf(
		sim.NewEventAt(100, sim.EventTypeScreenOn, nil),
		sim.NewEventAt(250, sim.EventTypeNetTx, nil),
		sim.NewEventAt(400, sim.EventTypeScreenOn, nil),
	)
	require.NoError(t, s.Run(context.Background(), src))
	return m, s
}

func TestMonitor_ReportsLastDispatchedTime(t *testing.T) {
	m, _ := runMonitored(t)

	var now struct {
		Now     int64 `json:"now"`
		Started bool  `json:"started"`
	}
	require.Equal(t, http.StatusOK, get(t, m.Router(), "/api/now", &now))

	assert.Equal(t, int64(400), now.Now)
	assert.True(t, now.Started)
}

func TestMonitor_Progress(t *testing.T) {
	m, _ := runMonitored(t)

	var p Progress
	require.Equal(t, http.StatusOK, get(t, m.Router(), "/api/progress", &p))

	assert.Equal(t, "run-42", p.RunID)
	assert.Equal(t, int64(3), p.Dispatched)
	assert.Equal(t, 0, p.QueueLen)
	assert.Equal(t, "screen_on", p.LastEvent)
	assert.Equal(t, map[string]int64{"screen_on": 2, "net_tx": 1}, p.ByType)
}

func TestMonitor_ModulesAndEventCounts(t *testing.T) {
	m, _ := runMonitored(t)
	router := m.Router()

	var modules []ModuleInfo
	require.Equal(t, http.StatusOK, get(t, router, "/api/modules", &modules))
	assert.Equal(t, []ModuleInfo{{Name: "power", Type: "power"}}, modules)

	var count struct {
		Type  string `json:"type"`
		Count int64  `json:"count"`
	}
	require.Equal(t, http.StatusOK, get(t, router, "/api/events/net_tx", &count))
	assert.Equal(t, int64(1), count.Count)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/events/teleport", nil))
}

func TestMonitor_BeforeRun_NotStarted(t *testing.T) {
	m := NewMonitor()
	p := m.Snapshot()
	assert.False(t, p.Started)
	assert.Empty(t, p.ByType)
}

func TestMonitor_SnapshotIsACopy(t *testing.T) {
	m, _ := runMonitored(t)
	p := m.Snapshot()
	p.ByType["screen_on"] = 99
	assert.Equal(t, int64(2), m.Snapshot().ByType["screen_on"])
}

func TestMonitor_WithPortNumber_RejectsPrivilegedPorts(t *testing.T) {
	assert.Equal(t, 0, NewMonitor().WithPortNumber(80).portNumber)
	assert.Equal(t, 8080, NewMonitor().WithPortNumber(8080).portNumber)
}

func TestMonitor_StartServer_ServesRoutes(t *testing.T) {
	m, _ := runMonitored(t)
	addr, err := m.StartServer()
	require.NoError(t, err)
	defer func() { _ = m.Shutdown(context.Background()) }()

	port := addr[strings.LastIndex(addr, ":"):]
	resp, err := http.Get("http://localhost" + port + "/api/now")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
