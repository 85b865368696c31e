package manager

import (
	"context"
	"errors"

	"assistd/pkg/types"
)

// Provision states reported per model.
const (
	provisionPending = "pending"
	provisionSuccess = "success"
	provisionWarning = "warning"
	provisionFailed  = "failed"
)

// ErrProvisioningRunning is returned when Provision is called while another
// run is in progress.
var ErrProvisioningRunning = errors.New("provisioning already running")

// Provision pulls every model in the detected tier's list, one at a time.
// Individual failures are logged and published and never stop the run. The
// only errors returned are ErrProvisioningRunning and a canceled ctx.
func (m *Manager) Provision(ctx context.Context) error {
	tier, _ := m.detect(ctx)
	models := m.catalog.ModelsFor(tier)

	m.mu.Lock()
	if m.state == StateProvisioning {
		m.mu.Unlock()
		return ErrProvisioningRunning
	}
	m.state = StateProvisioning
	m.tier, m.tierKnown = tier, true
	m.provisioning = make([]types.ProvisionStatus, len(models))
	for i, name := range models {
		m.provisioning[i] = types.ProvisionStatus{Model: name, State: provisionPending}
	}
	m.mu.Unlock()

	m.log.Info().Str("tier", tier.String()).Strs("models", models).Msg("provisioning models")
	defer func() {
		m.mu.Lock()
		m.state = StateReady
		m.mu.Unlock()
		m.publish(Event{Name: "provision_done", Fields: map[string]any{"tier": tier.String()}})
	}()

	for i, name := range models {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(models); j++ {
				m.setProvision(j, provisionFailed, err.Error())
			}
			return err
		}
		m.publish(Event{Name: "provision_start", ModelID: name})
		warn, err := m.gen.EnsureModel(ctx, name)
		switch {
		case err != nil:
			m.log.Error().Err(err).Str("model", name).Msg("model provisioning failed")
			m.setProvision(i, provisionFailed, err.Error())
			m.publish(Event{Name: "provision_failed", ModelID: name, Fields: map[string]any{"error": err.Error()}})
		case warn != nil:
			m.setProvision(i, provisionWarning, warn.Status)
			m.publish(Event{Name: "provision_warning", ModelID: name, Fields: map[string]any{"status": warn.Status}})
		default:
			m.setProvision(i, provisionSuccess, "")
			m.publish(Event{Name: "provision_success", ModelID: name})
		}
	}
	return nil
}

// StartProvisioning runs Provision in the background. The returned channel
// is closed when the run ends.
func (m *Manager) StartProvisioning(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := m.Provision(ctx); err != nil {
			m.log.Warn().Err(err).Msg("provisioning stopped")
		}
	}()
	return done
}

func (m *Manager) setProvision(i int, state, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < len(m.provisioning) {
		m.provisioning[i].State = state
		m.provisioning[i].Detail = detail
	}
}
