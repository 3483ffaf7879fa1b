// Package service holds the running/stopped flag that gates new submissions.
package service

import "sync/atomic"

// Confirmation messages returned by Start and Stop.
const (
	StartedMessage = "Background task started"
	StoppedMessage = "Background task stopped"
)

// State is the admission flag shared by every submission. The zero value is
// stopped; use New for a state that starts out running.
type State struct {
	running atomic.Bool
}

// New returns a State that is already running.
func New() *State {
	s := &State{}
	s.running.Store(true)
	return s
}

// Start marks the service as running. Calling it again has no further effect.
func (s *State) Start() string {
	s.running.Store(true)
	return StartedMessage
}

// Stop marks the service as stopped. Work already handed to the workers is
// not affected.
func (s *State) Stop() string {
	s.running.Store(false)
	return StoppedMessage
}

// IsRunning reports the current value of the flag.
func (s *State) IsRunning() bool {
	return s.running.Load()
}
