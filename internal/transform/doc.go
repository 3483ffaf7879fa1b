// Package transform defines the handlers that perform the actual encode and
// decode work on a worker goroutine. Handlers are opaque to the engine: it
// only relies on them returning an output string or an error.
package transform
