package liveview

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"uedaq/acquire"
	"uedaq/device"
)

func (s *Server) handleStatus(c *gin.Context) {
	data := statusData{
		Connected:     s.det.Connected(),
		DetectorState: device.StateUnknown.String(),
		LiveRunning:   s.sched.LiveRunning(),
		CycleInFlight: s.sched.InFlight(),
	}

	if data.Connected {
		if st, err := s.det.State(); err == nil {
			data.DetectorState = st.String()
		}
		if exp, err := s.det.Exposure(); err == nil {
			data.ExposureSec = exp.Seconds()
		}
	}

	c.JSON(http.StatusOK, apiResponse{Status: "success", Data: data})
}

func (s *Server) handleLiveStart(c *gin.Context) {
	// An empty or malformed body selects the default cadence.
	var req liveStartRequest
	_ = c.ShouldBindJSON(&req)

	interval := DefaultLiveInterval
	if req.IntervalMS > 0 {
		interval = time.Duration(req.IntervalMS) * time.Millisecond
	}

	if err := s.sched.Start(interval); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, acquire.ErrLiveViewRunning) {
			status = http.StatusConflict
		}
		c.JSON(status, apiResponse{Status: "error", Error: err.Error()})

		return
	}

	c.JSON(http.StatusOK, apiResponse{Status: "success"})
}

func (s *Server) handleLiveStop(c *gin.Context) {
	s.sched.Stop()
	c.JSON(http.StatusOK, apiResponse{Status: "success"})
}

func (s *Server) handleAcquire(c *gin.Context) {
	if err := s.sched.SingleShot(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, acquire.ErrCycleInFlight) {
			status = http.StatusConflict
		}
		c.JSON(status, apiResponse{Status: "error", Error: err.Error()})

		return
	}

	c.JSON(http.StatusAccepted, apiResponse{Status: "success"})
}

func (s *Server) handleSetExposure(c *gin.Context) {
	var req exposureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiResponse{Status: "error", Error: "invalid exposure request: " + err.Error()})
		return
	}

	if req.Seconds <= 0 {
		c.JSON(http.StatusBadRequest, apiResponse{Status: "error", Error: "exposure must be positive"})
		return
	}

	// Exposure changes must not race a live acquisition on the same handle.
	err := s.sched.WithAcquisitionPaused(func() error {
		return s.det.SetExposure(time.Duration(req.Seconds * float64(time.Second)))
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, apiResponse{Status: "error", Error: err.Error()})
		return
	}

	s.log.Info("exposure changed", "seconds", req.Seconds)
	c.JSON(http.StatusOK, apiResponse{Status: "success"})
}

func (s *Server) handleFrame(c *gin.Context) {
	s.mu.RLock()
	res, have := s.last, s.have
	s.mu.RUnlock()

	if !have {
		c.JSON(http.StatusNotFound, apiResponse{Status: "error", Error: "no frame acquired yet"})
		return
	}

	if res.Failed() {
		c.JSON(http.StatusOK, apiResponse{Status: "error", Error: res.Err.Error()})
		return
	}

	f := res.Frame
	data := frameData{
		Width:      f.Width,
		Height:     f.Height,
		CapturedAt: f.CapturedAt,
	}

	if len(f.Pix) > 0 {
		data.Min = f.Pix[0]
		var sum uint64
		for _, px := range f.Pix {
			if px < data.Min {
				data.Min = px
			}
			if px > data.Max {
				data.Max = px
			}
			sum += uint64(px)
		}
		data.Mean = float64(sum) / float64(len(f.Pix))
	}

	c.JSON(http.StatusOK, apiResponse{Status: "success", Data: data})
}

func (s *Server) handleProgress(c *gin.Context) {
	data := progressData{}
	if s.progress != nil {
		data.Value = s.progress.Value()
		data.Max = s.progress.Max()
	}

	c.JSON(http.StatusOK, apiResponse{Status: "success", Data: data})
}
