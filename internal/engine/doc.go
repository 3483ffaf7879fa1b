// Package engine runs encode and decode requests in the background.
//
// A request is admitted by Engine.Submit (or Encode/Decode), which returns a
// pending future immediately. The work item is queued on a Dispatcher whose
// worker goroutines run the transform. Completion is never settled from a
// worker: the worker posts the finished item to the engine's Loop, a single
// goroutine that acts as the issuing context, and the completion bridge
// running there resolves or rejects the future exactly once.
//
// Tearing the dispatcher down rejects every item still waiting in its queue
// with ErrCancelled instead of dropping it.
package engine
