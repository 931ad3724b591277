package httpapi

import (
	"encoding/json"
	"net/http"

	"aero-backend-go/internal/services"
)

type QueryEventRequest struct {
	Topic          string `json:"topic"`
	Difficulty     string `json:"difficulty"`
	ResponseTimeMs int    `json:"responseTimeMs"`
	CacheHit       bool   `json:"cacheHit"`
}

// RecordQueryEvent ingests one answered question from the QA surface; the
// dashboards aggregate over these rows.
func (s *Server) RecordQueryEvent(w http.ResponseWriter, r *http.Request) {
	var req QueryEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	userID := CurrentUserID(r)
	if err := services.RecordQueryEvent(s.DB, userID, req.Topic, req.Difficulty, req.ResponseTimeMs, req.CacheHit); err != nil {
		WriteServiceError(w, err)
		return
	}
	_ = services.TouchLastActive(s.DB, userID)
	s.Cache.Invalidate("snapshot:system-analytics")
	w.WriteHeader(http.StatusNoContent)
}
