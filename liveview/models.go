package liveview

import "time"

// apiResponse is the common JSON envelope for all endpoints.
type apiResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// statusData reports the detector and scheduler state.
type statusData struct {
	Connected     bool    `json:"connected"`
	DetectorState string  `json:"detector_state"`
	ExposureSec   float64 `json:"exposure_sec"`
	LiveRunning   bool    `json:"live_running"`
	CycleInFlight bool    `json:"cycle_in_flight"`
}

// liveStartRequest configures the live-view cadence.
type liveStartRequest struct {
	IntervalMS int `json:"interval_ms"`
}

// exposureRequest sets the detector exposure time.
type exposureRequest struct {
	Seconds float64 `json:"seconds" binding:"required"`
}

// frameData summarizes the latest acquired frame. Pixel data stays with the
// rendering client; this endpoint serves alignment telemetry.
type frameData struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Min        uint16    `json:"min"`
	Max        uint16    `json:"max"`
	Mean       float64   `json:"mean"`
	CapturedAt time.Time `json:"captured_at"`
}

// progressData reports the exposure progress estimate.
type progressData struct {
	Value int64 `json:"value"`
	Max   int64 `json:"max"`
}
