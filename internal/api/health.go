package api

import (
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
	Queued  int    `json:"queued"`
	Active  int    `json:"active"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Running: s.engine.IsRunning(),
		Queued:  s.engine.QueueLen(),
		Active:  s.engine.Active(),
	})
}
