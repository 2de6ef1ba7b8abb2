package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleMetrics returns the performance dashboard for the caller's assigned
// tasks. Backlog tasks are excluded from everything the report contains.
func (s *Server) handleMetrics(c *gin.Context) {
	report, err := s.tasks.Metrics(c.Request.Context(), caller(c), time.Now().UTC())
	if err != nil {
		s.respondEngineError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, report)
}
