package manager

import (
	"context"

	"assistd/pkg/types"
)

// Status builds a detailed status response for /status. It performs a
// gateway health check and a record count, so it takes a context.
func (m *Manager) Status(ctx context.Context) types.StatusResponse {
	now := m.now()
	m.mu.RLock()
	resp := types.StatusResponse{
		State:          string(m.state),
		Provisioning:   make([]types.ProvisionStatus, len(m.provisioning)),
		UptimeSeconds:  int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
	copy(resp.Provisioning, m.provisioning)
	if m.tierKnown {
		resp.Tier = m.tier.String()
	}
	m.mu.RUnlock()
	resp.Inflight = m.inflight()

	if err := m.gen.HealthCheck(ctx); err != nil {
		resp.GatewayError = err.Error()
	} else {
		resp.GatewayHealthy = true
	}
	n, err := m.store.Count(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("count records failed")
		n = -1
	}
	resp.RecordCount = n
	return resp
}
