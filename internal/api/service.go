package api

import "net/http"

// serviceResponse is the JSON body of every /v1/service endpoint.
type serviceResponse struct {
	Message string `json:"message,omitempty"`
	Running bool   `json:"running"`
}

func (s *Server) handleServiceStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, serviceResponse{Running: s.engine.IsRunning()})
}

func (s *Server) handleServiceStart(w http.ResponseWriter, _ *http.Request) {
	msg := s.engine.Start()
	s.writeJSON(w, http.StatusOK, serviceResponse{Message: msg, Running: s.engine.IsRunning()})
}

func (s *Server) handleServiceStop(w http.ResponseWriter, _ *http.Request) {
	msg := s.engine.Stop()
	s.writeJSON(w, http.StatusOK, serviceResponse{Message: msg, Running: s.engine.IsRunning()})
}
