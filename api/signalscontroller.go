package api

import (
	"net/http"

	"compass/types"

	"github.com/gin-gonic/gin"
)

// RegisterSignalRoutes registers signal analysis routes.
func (s *Server) RegisterSignalRoutes(r *gin.Engine) {
	r.POST("/api/signals/classify", s.handleClassify)
}

// ClassifyRequest carries raw signals to annotate
type ClassifyRequest struct {
	Signals []types.Signal `json:"signals" binding:"required"`
}

// handleClassify returns the signals with id, tier, category, severity and
// entity ids filled in, dated against today.
func (s *Server) handleClassify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	for i := range req.Signals {
		req.Signals[i].EnsureID()
	}
	classified := s.deps.Classifier.ClassifyAll(req.Signals, s.now())
	annotated, directory := s.deps.Entities.Annotate(classified)
	c.JSON(http.StatusOK, gin.H{"signals": annotated, "entities": directory})
}
