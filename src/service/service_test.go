package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/mpl/src/common"
	"github.com/mosaicnetworks/mpl/src/mpl"
	"github.com/mosaicnetworks/mpl/src/telemetry"
)

type fakeNode struct {
	name  string
	stats mpl.Stats
}

func (f *fakeNode) Name() string        { return f.name }
func (f *fakeNode) GetStats() mpl.Stats { return f.stats }

func newTestService(t *testing.T) *Service {
	sources := []telemetry.StatsSource{
		&fakeNode{name: "node0", stats: mpl.Stats{Accepted: 2, Seeds: 1}},
		&fakeNode{name: "node1", stats: mpl.Stats{Accepted: 1}},
	}
	return NewService("127.0.0.1:0", sources, common.NewTestEntry(t, logrus.DebugLevel))
}

func get(t *testing.T, s *Service, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetStats(t *testing.T) {
	s := newTestService(t)

	rec := get(t, s, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var stats map[string]mpl.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.Len(t, stats, 2)
	require.Equal(t, 2, stats["node0"].Accepted)
	require.Equal(t, 1, stats["node1"].Accepted)
}

func TestGetNodeStats(t *testing.T) {
	s := newTestService(t)

	rec := get(t, s, "/stats/node0")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats mpl.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.Equal(t, 1, stats.Seeds)

	rec = get(t, s, "/stats/node9")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics(t *testing.T) {
	s := newTestService(t)

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `mpl_engine_accepted_total{node="node0"} 2`)
}

func TestShutdownBeforeServe(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.Shutdown(context.Background()))

	done := make(chan struct{})
	go func() {
		s.Serve()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve kept listening after Shutdown")
	}
}

func TestServeThenShutdown(t *testing.T) {
	s := newTestService(t)

	done := make(chan struct{})
	go func() {
		s.Serve()
		close(done)
	}()

	require.Eventually(t, func() bool {
		return s.Shutdown(context.Background()) == nil
	}, 5*time.Second, 10*time.Millisecond)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
