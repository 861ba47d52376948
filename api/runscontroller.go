package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"compass/orchestrator"
	"compass/scheduler"
	"compass/store"
	"compass/types"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 20

// RegisterRunRoutes registers run control and history endpoints.
func (s *Server) RegisterRunRoutes(r *gin.Engine) {
	r.POST("/api/runs", s.handleStartRun)
	r.GET("/api/runs", s.handleListRuns)
	r.GET("/api/runs/:id", s.handleGetRun)
	r.GET("/api/status", s.handleStatus)
}

// StartRunRequest is the optional body of POST /api/runs
type StartRunRequest struct {
	Date  string `json:"date"`
	Fetch bool   `json:"fetch"`
}

// handleStartRun starts a run in the background and answers 202, or 409
// while another run is in progress.
func (s *Server) handleStartRun(c *gin.Context) {
	var req StartRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		errorJSON(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Date != "" {
		if _, err := time.Parse(types.DateLayout, req.Date); err != nil {
			errorJSON(c, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
			return
		}
	}
	s.startRun(c, orchestrator.Request{Date: req.Date, Fetch: req.Fetch})
}

func (s *Server) startRun(c *gin.Context, req orchestrator.Request) {
	if s.deps.Control == nil {
		errorJSON(c, http.StatusServiceUnavailable, "run control is not configured", nil)
		return
	}
	status, err := s.deps.Control.Trigger(req)
	if errors.Is(err, scheduler.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": status})
		return
	}
	if errors.Is(err, scheduler.ErrStopped) {
		errorJSON(c, http.StatusServiceUnavailable, "server is shutting down", err)
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "failed to start run", err)
		return
	}
	c.JSON(http.StatusAccepted, status)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.deps.Runs == nil {
		errorJSON(c, http.StatusServiceUnavailable, "run history is not configured", nil)
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errorJSON(c, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}
	runs, err := s.deps.Runs.Recent(c.Request.Context(), limit)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "failed to list runs", err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.deps.Runs == nil {
		errorJSON(c, http.StatusServiceUnavailable, "run history is not configured", nil)
		return
	}
	run, err := s.deps.Runs.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrRunNotFound) {
		errorJSON(c, http.StatusNotFound, "run not found", err)
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "failed to load run", err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleStatus(c *gin.Context) {
	if s.deps.Control == nil {
		errorJSON(c, http.StatusServiceUnavailable, "run control is not configured", nil)
		return
	}
	c.JSON(http.StatusOK, s.deps.Control.Status())
}
