package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/elo/internal/common"
)

// StatusHandler serves health and version endpoints.
type StatusHandler struct {
	startTime time.Time
}

// NewStatusHandler creates a status handler
func NewStatusHandler() *StatusHandler {
	return &StatusHandler{startTime: time.Now()}
}

// HandleHealth reports service liveness
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
		"version": common.GetVersion(),
	})
}

// HandleVersion reports build information
func (h *StatusHandler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
