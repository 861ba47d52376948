package api

import (
	"net/http"

	"compass/orchestrator"
	"compass/rssfeeds"

	"github.com/gin-gonic/gin"
)

// RegisterRSSRoutes registers RSS-related endpoints.
func (s *Server) RegisterRSSRoutes(r *gin.Engine) {
	g := r.Group("/api/rss")
	g.GET("/presets", handleRSSPresets)
	g.POST("/refresh", s.handleRSSRefresh)
}

func handleRSSPresets(c *gin.Context) {
	presets := make([]rssfeeds.FeedConfig, 0, len(rssfeeds.FeedPresets))
	for _, name := range rssfeeds.PresetNames() {
		presets = append(presets, rssfeeds.FeedPresets[name])
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets, "default": rssfeeds.DefaultPresets})
}

// handleRSSRefresh fetches the feeds and rebuilds today's briefing in the
// background. It returns 202 Accepted immediately.
func (s *Server) handleRSSRefresh(c *gin.Context) {
	s.startRun(c, orchestrator.Request{Fetch: true})
}
