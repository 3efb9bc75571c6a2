package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guihaojin/alluxio/internal/clock"
	"github.com/guihaojin/alluxio/internal/command"
	"github.com/guihaojin/alluxio/internal/idgen"
	"github.com/guihaojin/alluxio/internal/jobmaster"
	"github.com/guihaojin/alluxio/internal/logging"
	"github.com/guihaojin/alluxio/internal/metrics"
	"github.com/guihaojin/alluxio/internal/planregistry"
	"github.com/guihaojin/alluxio/internal/plantracker"
	"github.com/guihaojin/alluxio/internal/workerset"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	c := clock.SystemClock{}
	log := logging.New("test")
	tracker := plantracker.New(plantracker.Config{Capacity: 10, FinishedJobRetention: time.Hour, FinishedJobPurgeCount: -1}, c, log)
	master := jobmaster.New(idgen.New(c), tracker, planregistry.NewWithBuiltins(), workerset.New(), command.New(), c, log, &metrics.Metrics{})
	srv := NewServer("", master, log)
	return httptest.NewServer(srv.Handler())
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func TestRunAndStatusRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/v1/jobs/run", runRequest{Name: "noop"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runResp runResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runResp))
	assert.NotZero(t, runResp.ID)

	statusResp := postJSON(t, ts, "/api/v1/jobs/status", statusRequest{ID: runResp.ID})
	defer statusResp.Body.Close()
	assert.Equal(t, http.StatusOK, statusResp.StatusCode)
}

func TestRunUnknownPlanReturns400(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/v1/jobs/run", runRequest{Name: "does-not-exist"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "UNKNOWN_PLAN", string(errResp.Code))
}

func TestCancelNotFoundReturns404(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/v1/jobs/cancel", cancelRequest{ID: 9999})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterAndHeartbeatRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	regResp := postJSON(t, ts, "/api/v1/workers/register", registerRequest{Host: "worker-1", RPCPort: 1})
	defer regResp.Body.Close()
	require.Equal(t, http.StatusOK, regResp.StatusCode)

	var reg registerResponse
	require.NoError(t, json.NewDecoder(regResp.Body).Decode(&reg))
	assert.NotZero(t, reg.WorkerID)

	hbResp := postJSON(t, ts, "/api/v1/workers/heartbeat", heartbeatRequest{WorkerID: reg.WorkerID})
	defer hbResp.Body.Close()
	assert.Equal(t, http.StatusOK, hbResp.StatusCode)
}

func TestUnknownWorkerHeartbeatReturnsRegisterCommand(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	hbResp := postJSON(t, ts, "/api/v1/workers/heartbeat", heartbeatRequest{WorkerID: 424242})
	defer hbResp.Body.Close()
	require.Equal(t, http.StatusOK, hbResp.StatusCode)

	var hb heartbeatResponse
	require.NoError(t, json.NewDecoder(hbResp.Body).Decode(&hb))
	require.Len(t, hb.Commands, 1)
	assert.Equal(t, "REGISTER", string(hb.Commands[0].Type))
}

func TestListAndSummaryReturn200(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	listResp := postJSON(t, ts, "/api/v1/jobs/list", nil)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	summaryResp := postJSON(t, ts, "/api/v1/jobs/summary", nil)
	defer summaryResp.Body.Close()
	assert.Equal(t, http.StatusOK, summaryResp.StatusCode)
}
