package progress

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/csnight/streetslim/internal/metrics"
)

// StatusServer exposes run progress over HTTP: GET /status returns the
// current fraction as JSON, GET /healthz is a liveness probe, and
// GET /metrics serves the run's Prometheus collectors. Fast-MBTiler's
// go.mod declared gin-gonic/gin but never imported it anywhere; this is
// the ops-facing status surface it never got around to building, kept
// distinct from the interactive tile-browsing GUI the specification
// excludes.
type StatusServer struct {
	fraction int64 // fraction scaled by 1e9, via atomic
	srv      *http.Server
}

// NewStatusServer builds a gin router serving status, health and metrics
// endpoints, bound to listenAddr once Start is called.
func NewStatusServer(listenAddr string, reg *metrics.Registry) *StatusServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &StatusServer{}

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"fraction": s.current()})
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if reg != nil {
		handler := promhttp.HandlerFor(reg.Registry, promhttp.HandlerOpts{})
		router.GET("/metrics", gin.WrapH(handler))
	}

	s.srv = &http.Server{Addr: listenAddr, Handler: router}
	return s
}

// Report implements Sink.
func (s *StatusServer) Report(fraction float64) {
	atomic.StoreInt64(&s.fraction, int64(fraction*1e9))
}

func (s *StatusServer) current() float64 {
	return float64(atomic.LoadInt64(&s.fraction)) / 1e9
}

// Start begins serving in a background goroutine. Errors other than a
// clean shutdown are silently dropped; the status API is diagnostic, not
// load-bearing for the driver run it describes.
func (s *StatusServer) Start() {
	go func() {
		_ = s.srv.ListenAndServe()
	}()
}

// Stop shuts the server down, waiting up to five seconds for in-flight
// requests to drain.
func (s *StatusServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
