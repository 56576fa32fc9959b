// Package liveview exposes the interactive acquisition regime over HTTP for
// manual alignment: live-preview start/stop, single-shot acquisition,
// exposure reconfiguration and acquisition status. It consumes the core's
// results; frame rendering stays with the UI client.
package liveview

import (
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"uedaq/acquire"
	"uedaq/device"
	"uedaq/logger"
)

// DefaultLiveInterval is the live-view cadence used when a start request
// does not specify one.
const DefaultLiveInterval = 50 * time.Millisecond

// Server wires the scheduler, the progress estimator and the detector handle
// into a gin router.
type Server struct {
	det      device.Detector
	sched    *acquire.Scheduler
	progress *acquire.ProgressEstimator
	log      logger.Logger

	mu   sync.RWMutex
	last acquire.Result
	have bool
}

// NewServer creates a live-view server and registers it as a result listener
// on the scheduler, so the latest result and the progress estimator stay
// current.
func NewServer(det device.Detector, sched *acquire.Scheduler, progress *acquire.ProgressEstimator, l logger.Logger) *Server {
	if l == nil {
		l = logger.GetLogger()
	}

	s := &Server{
		det:      det,
		sched:    sched,
		progress: progress,
		log:      l,
	}

	sched.AddResultListener(s.onResult)

	return s
}

// onResult records the latest cycle outcome and resets the progress
// estimator. Failed cycles reset it too; otherwise the tick loop would hold
// saturated and swallow the next trigger.
func (s *Server) onResult(res acquire.Result) {
	s.mu.Lock()
	s.last = res
	s.have = true
	s.mu.Unlock()

	if s.progress != nil {
		s.progress.HandleFrame()
	}
}

// Router builds the HTTP router with CORS enabled for browser clients.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)

		live := v1.Group("/live")
		{
			live.POST("/start", s.handleLiveStart)
			live.POST("/stop", s.handleLiveStop)
		}

		v1.POST("/acquire", s.handleAcquire)
		v1.PUT("/exposure", s.handleSetExposure)
		v1.GET("/frame", s.handleFrame)
		v1.GET("/progress", s.handleProgress)
	}

	return r
}
