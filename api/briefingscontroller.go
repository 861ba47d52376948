package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"compass/archive"
	"compass/trend"
	"compass/types"

	"github.com/gin-gonic/gin"
)

// RegisterBriefingRoutes registers briefing, tension and trend lookups.
func (s *Server) RegisterBriefingRoutes(r *gin.Engine) {
	r.GET("/api/briefings/latest", s.handleLatestBriefing)
	r.GET("/api/briefings/:date", s.handleBriefing)
	r.GET("/api/tension/:date", s.handleTension)
	r.GET("/api/trend/:date", s.handleTrend)
}

func (s *Server) handleLatestBriefing(c *gin.Context) {
	doc, err := s.deps.Reader.LoadLatest(c.Request.Context())
	if err != nil {
		s.briefingError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc.Raw)
}

func (s *Server) handleBriefing(c *gin.Context) {
	doc, ok := s.loadDated(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc.Raw)
}

// handleTension returns only the tension_index object.
func (s *Server) handleTension(c *gin.Context) {
	doc, ok := s.loadDated(c)
	if !ok {
		return
	}
	var body struct {
		TensionIndex json.RawMessage `json:"tension_index"`
	}
	if err := doc.Decode(&body); err != nil {
		errorJSON(c, http.StatusInternalServerError, "stored briefing is unreadable", err)
		return
	}
	if len(body.TensionIndex) == 0 || string(body.TensionIndex) == "null" {
		errorJSON(c, http.StatusNotFound, "briefing has no tension index", nil)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body.TensionIndex)
}

// handleTrend recomputes the day-over-day comparison from the stored
// briefing's signals.
func (s *Server) handleTrend(c *gin.Context) {
	doc, ok := s.loadDated(c)
	if !ok {
		return
	}
	var body struct {
		Signals []types.Signal `json:"signals"`
	}
	if err := doc.Decode(&body); err != nil {
		errorJSON(c, http.StatusInternalServerError, "stored briefing is unreadable", err)
		return
	}
	td := trend.Compute(c.Request.Context(), doc.Date, body.Signals, s.deps.Reader)
	c.JSON(http.StatusOK, td)
}

func (s *Server) loadDated(c *gin.Context) (*archive.Document, bool) {
	date := c.Param("date")
	if _, err := time.Parse(types.DateLayout, date); err != nil {
		errorJSON(c, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
		return nil, false
	}
	doc, err := s.deps.Reader.LoadBriefing(c.Request.Context(), date)
	if err != nil {
		s.briefingError(c, err)
		return nil, false
	}
	return doc, true
}

func (s *Server) briefingError(c *gin.Context, err error) {
	if errors.Is(err, archive.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "briefing not found", err)
		return
	}
	errorJSON(c, http.StatusInternalServerError, "failed to load briefing", err)
}
