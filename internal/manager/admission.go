package manager

import (
	"context"
	"time"
)

// acquireInstance returns the admission slots for modelID, creating them on
// first use, and pins them until releaseInstance.
func (m *Manager) acquireInstance(modelID string) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst := m.instances[modelID]
	if inst == nil {
		inst = newInstance(modelID, m.maxInflight, m.maxQueueDepth)
		m.instances[modelID] = inst
	}
	inst.refs++
	return inst
}

// releaseInstance drops one pin. The last one removes the instance, so
// model ids that are no longer requested do not accumulate.
func (m *Manager) releaseInstance(inst *Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst.refs--
	if inst.refs <= 0 && m.instances[inst.ID] == inst {
		delete(m.instances, inst.ID)
	}
}

// beginGeneration reserves a queue slot and then one of the in-flight slots
// for modelID. Both waits share a single maxWait budget. Returns a release
// func to be deferred.
func (m *Manager) beginGeneration(ctx context.Context, modelID string) (func(), error) {
	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	inst := m.acquireInstance(modelID)

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case inst.queueCh <- struct{}{}:
	case <-ctx.Done():
		m.releaseInstance(inst)
		return func() {}, ctx.Err()
	case <-timer.C:
		m.releaseInstance(inst)
		return func() {}, tooBusyError{modelID: modelID}
	}

	select {
	case inst.genCh <- struct{}{}:
		m.mu.Lock()
		inst.LastUsed = m.now()
		m.mu.Unlock()
		return func() {
			<-inst.genCh
			<-inst.queueCh
			m.releaseInstance(inst)
		}, nil
	case <-ctx.Done():
		<-inst.queueCh
		m.releaseInstance(inst)
		return func() {}, ctx.Err()
	case <-timer.C:
		<-inst.queueCh
		m.releaseInstance(inst)
		return func() {}, tooBusyError{modelID: modelID}
	}
}

// inflight returns the number of running generations per model.
func (m *Manager) inflight() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.instances))
	for id, inst := range m.instances {
		out[id] = len(inst.genCh)
	}
	return out
}
