package config

import "sync/atomic"

// Runtime holds the live configuration snapshot. Readers call Get once per
// request and use that snapshot for the whole request, so a reload never
// changes the principal table under an evaluation in progress.
type Runtime struct {
	ptr     atomic.Pointer[Config]
	reloads atomic.Uint64
}

// NewRuntime creates a Runtime serving initial.
func NewRuntime(initial *Config) *Runtime {
	r := &Runtime{}
	r.ptr.Store(initial)
	return r
}

// Get returns the current snapshot.
func (r *Runtime) Get() *Config {
	return r.ptr.Load()
}

// Store swaps in a new snapshot.
func (r *Runtime) Store(cfg *Config) {
	r.ptr.Store(cfg)
	r.reloads.Add(1)
}

// Reloads reports how many times Store has been called.
func (r *Runtime) Reloads() uint64 {
	return r.reloads.Load()
}

var _ RuntimeConfig = (*Runtime)(nil)
