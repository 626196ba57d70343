package api

import "net/http"

func (s *Server) handleParseStats(w http.ResponseWriter, r *http.Request) {
	if s.timing == nil {
		jsonError(w, "parse stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.store.Len(),
		"window":   s.cfg.StatsWindow.String(),
		"stats":    s.timing.Snapshot(),
	})
}
