package api

import (
	"net/http"
	"time"

	"compass/types"

	"github.com/gin-gonic/gin"
)

// RegisterDeduplicationRoutes registers deduplication service endpoints.
func (s *Server) RegisterDeduplicationRoutes(r *gin.Engine) {
	g := r.Group("/api/deduplication")
	g.POST("/check", s.handleCheckDuplicates)
	g.POST("/compare", s.handleCompare)
}

// CheckDuplicatesRequest is a batch to deduplicate, optionally against history
type CheckDuplicatesRequest struct {
	Signals  []types.Signal `json:"signals" binding:"required"`
	Previous []types.Signal `json:"previous"`
}

// CheckDuplicatesResponse holds the survivors and what was dropped
type CheckDuplicatesResponse struct {
	Signals   []types.Signal   `json:"signals"`
	Stats     types.DedupStats `json:"stats"`
	CheckedAt time.Time        `json:"checked_at"`
}

// CompareRequest is a pair of signals to compare
type CompareRequest struct {
	A types.Signal `json:"a"`
	B types.Signal `json:"b"`
}

func (s *Server) handleCheckDuplicates(c *gin.Context) {
	var req CheckDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	kept, stats := s.deps.Dedup.Deduplicate(req.Signals, req.Previous)
	c.JSON(http.StatusOK, CheckDuplicatesResponse{
		Signals:   kept,
		Stats:     stats,
		CheckedAt: s.now().UTC(),
	})
}

func (s *Server) handleCompare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	c.JSON(http.StatusOK, s.deps.Dedup.Compare(req.A, req.B))
}
