package liveview

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uedaq/acquire"
	"uedaq/device"
	"uedaq/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type serverFixture struct {
	det      *device.SimDetector
	sched    *acquire.Scheduler
	progress *acquire.ProgressEstimator
	router   *gin.Engine
}

func newServerFixture(t *testing.T, connected bool, opts ...acquire.CycleOption) *serverFixture {
	t.Helper()

	det := device.NewSimDetector()
	if !connected {
		det.Disconnect()
	}

	base := []acquire.CycleOption{
		acquire.WithSettleDelay(5 * time.Millisecond),
		acquire.WithPollInterval(5 * time.Millisecond),
		acquire.WithSimExposure(20 * time.Millisecond),
	}

	cycle := acquire.NewCycle(det, append(base, opts...)...)
	sched := acquire.NewScheduler(cycle, logger.GetLogger())
	progress := acquire.NewProgressEstimator(det)
	srv := NewServer(det, sched, progress, logger.GetLogger())

	t.Cleanup(func() {
		sched.Stop()
		progress.Stop()
	})

	return &serverFixture{det: det, sched: sched, progress: progress, router: srv.Router()}
}

func (f *serverFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp
}

func TestServer_Status(t *testing.T) {
	f := newServerFixture(t, true)

	w := f.do(http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.Equal(t, "success", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["connected"])
	assert.Equal(t, "on", data["detector_state"])
	assert.Equal(t, false, data["live_running"])
}

func TestServer_LiveStartStop(t *testing.T) {
	f := newServerFixture(t, true)

	w := f.do(http.MethodPost, "/api/v1/live/start", `{"interval_ms": 10}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.sched.LiveRunning())

	// Starting again conflicts.
	w = f.do(http.MethodPost, "/api/v1/live/start", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, "/api/v1/live/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.sched.LiveRunning())
}

func TestServer_Acquire(t *testing.T) {
	f := newServerFixture(t, false, acquire.WithSimExposure(200*time.Millisecond))

	w := f.do(http.MethodPost, "/api/v1/acquire", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	// A second capture while one is in flight conflicts.
	w = f.do(http.MethodPost, "/api/v1/acquire", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_Frame(t *testing.T) {
	f := newServerFixture(t, false)

	// No acquisition yet.
	w := f.do(http.MethodGet, "/api/v1/frame", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, "/api/v1/acquire", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	time.Sleep(150 * time.Millisecond)

	w = f.do(http.MethodGet, "/api/v1/frame", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	require.Equal(t, "success", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(512), data["width"])
	assert.Equal(t, float64(512), data["height"])
	assert.Greater(t, data["mean"], float64(0))
}

func TestServer_SetExposure(t *testing.T) {
	f := newServerFixture(t, true)

	w := f.do(http.MethodPut, "/api/v1/exposure", `{"seconds": 0.25}`)
	require.Equal(t, http.StatusOK, w.Code)

	exp, err := f.det.Exposure()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, exp)
}

func TestServer_SetExposureInvalid(t *testing.T) {
	f := newServerFixture(t, true)

	w := f.do(http.MethodPut, "/api/v1/exposure", `{"seconds": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/v1/exposure", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_SetExposureDisconnected(t *testing.T) {
	f := newServerFixture(t, false)

	w := f.do(http.MethodPut, "/api/v1/exposure", `{"seconds": 1}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestServer_ProgressResetsOnFailedCycle(t *testing.T) {
	f := newServerFixture(t, true)
	f.det.FailNextAcquisitions(1)

	f.progress.HandleTrigger()
	time.Sleep(30 * time.Millisecond)

	w := f.do(http.MethodPost, "/api/v1/acquire", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	time.Sleep(100 * time.Millisecond)

	// The failed result stopped and reset the estimator, so the display
	// recovers and the next trigger advances from zero.
	require.Equal(t, int64(0), f.progress.Value())

	f.progress.HandleTrigger()
	time.Sleep(50 * time.Millisecond)
	assert.Greater(t, f.progress.Value(), int64(0))
}

func TestServer_Progress(t *testing.T) {
	f := newServerFixture(t, false)

	w := f.do(http.MethodGet, "/api/v1/progress", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	require.Equal(t, "success", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), data["value"])
	assert.Equal(t, float64(100), data["max"])
}
