// Package api serves briefings, dedup diagnostics and run control over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"compass/archive"
	"compass/classify"
	"compass/deduplication"
	"compass/entities"
	"compass/logging"
	"compass/orchestrator"
	"compass/scheduler"
	"compass/store"

	"github.com/gin-gonic/gin"
)

// BriefingReader loads persisted briefings.
type BriefingReader interface {
	LoadBriefing(ctx context.Context, date string) (*archive.Document, error)
	FindPreviousBriefing(ctx context.Context, date string, accept archive.Accept) (*archive.Document, error)
	LoadLatest(ctx context.Context) (*archive.Document, error)
}

// RunHistory lists recorded runs.
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]store.Run, error)
	Get(ctx context.Context, runID string) (*store.Run, error)
}

// RunControl starts runs and reports scheduler state.
type RunControl interface {
	Trigger(req orchestrator.Request) (scheduler.Status, error)
	Status() scheduler.Status
}

// Deps are the services behind the routes. Runs and Control may be nil, in
// which case their routes answer 503.
type Deps struct {
	Reader     BriefingReader
	Dedup      *deduplication.Deduplicator
	Classifier *classify.Classifier
	Entities   *entities.Matcher
	Runs       RunHistory
	Control    RunControl
}

// Server holds the route dependencies.
type Server struct {
	deps Deps
	now  func() time.Time
}

// NewServer fills unset analysis dependencies with defaults.
func NewServer(deps Deps) *Server {
	if deps.Dedup == nil {
		deps.Dedup = deduplication.NewDeduplicator(deduplication.DefaultConfig())
	}
	if deps.Classifier == nil {
		deps.Classifier = classify.Default()
	}
	if deps.Entities == nil {
		deps.Entities = entities.Default()
	}
	return &Server{deps: deps, now: time.Now}
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	RegisterHealthRoutes(r)
	s.RegisterBriefingRoutes(r)
	s.RegisterDeduplicationRoutes(r)
	s.RegisterSignalRoutes(r)
	s.RegisterRunRoutes(r)
	s.RegisterRSSRoutes(r)
	return r
}

// RegisterHealthRoutes registers the liveness check.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("http request",
			"method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "elapsed", time.Since(start).Round(time.Microsecond))
	}
}

// HTTPServer runs the router until shut down.
type HTTPServer struct {
	srv *http.Server
}

// NewHTTPServer binds handler to port.
func NewHTTPServer(port int, handler http.Handler) *HTTPServer {
	return &HTTPServer{srv: &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Start serves in the background.
func (h *HTTPServer) Start() {
	logging.Info("starting api server", "addr", h.srv.Addr)
	go func() {
		if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("http server error", "err", err)
		}
	}()
}

// Shutdown gracefully stops the server
func (h *HTTPServer) Shutdown(ctx context.Context) error {
	logging.Info("shutting down api server")
	return h.srv.Shutdown(ctx)
}

func errorJSON(c *gin.Context, status int, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["detail"] = err.Error()
		if status >= http.StatusInternalServerError {
			logging.Error("api error", "path", c.Request.URL.Path, "msg", msg, "err", err)
		}
	}
	c.AbortWithStatusJSON(status, body)
}
