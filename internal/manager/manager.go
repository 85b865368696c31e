package manager

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"assistd/internal/hardware"
	"assistd/internal/registry"
	"assistd/pkg/types"
)

type Manager struct {
	mu    sync.RWMutex
	state State
	// tier detected by the last provisioning run
	tier      hardware.Tier
	tierKnown bool
	// per-model provisioning outcomes, in catalog order
	provisioning []types.ProvisionStatus

	profiler Profiler
	gen      Generator
	store    Store
	catalog  *registry.Catalog
	personas map[string]string

	// per-model admission
	instances     map[string]*Instance
	maxInflight   int
	maxQueueDepth int
	maxWait       time.Duration

	pub       EventPublisher
	log       zerolog.Logger
	now       func() time.Time
	newID     func() string
	startTime time.Time
}

// Ready reports whether startup provisioning is not in progress. A manager
// that was never asked to provision is ready.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != StateProvisioning
}

// State returns the current provisioning state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Catalog returns the routing catalog in use.
func (m *Manager) Catalog() *registry.Catalog { return m.catalog }

func (m *Manager) persona(category string) string {
	if p, ok := m.personas[category]; ok {
		return p
	}
	return m.personas["chat"]
}

func normalizeCategory(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "chat"
	}
	return s
}
