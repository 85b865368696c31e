package manager

import "time"

// State represents the provisioning lifecycle of the manager.
type State string

const (
	// StateIdle means provisioning was never requested.
	StateIdle         State = "idle"
	StateProvisioning State = "provisioning"
	StateReady        State = "ready"
)

// Instance holds the admission slots for one model id. An instance exists
// only while some request is queued on or running against its model.
type Instance struct {
	ID       string
	LastUsed time.Time
	// requests holding or waiting for a slot; guarded by Manager.mu
	refs int
	// Queueing primitives
	genCh   chan struct{} // buffered: in-flight generations
	queueCh chan struct{} // buffered: queue slots
}

func newInstance(id string, inflight, depth int) *Instance {
	return &Instance{
		ID:      id,
		genCh:   make(chan struct{}, inflight),
		queueCh: make(chan struct{}, depth),
	}
}
