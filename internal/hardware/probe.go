package hardware

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"assistd/pkg/types"
)

// ProbeError records a failed sub-probe. It is logged, never returned to
// callers of Profile.
type ProbeError struct {
	Probe string
	Err   error
}

func (e *ProbeError) Error() string { return "probe " + e.Probe + ": " + e.Err.Error() }

func (e *ProbeError) Unwrap() error { return e.Err }

// Config wires a Prober. Zero fields get defaults.
type Config struct {
	Runner        Runner
	Host          HostReader
	GPUDetectors  []GPUDetector
	NPUDetectors  []NPUDetector
	Logger        *zerolog.Logger
	Timeout       time.Duration // per external command
	MaxConcurrent int           // sub-probes in flight for one profile
	CacheTTL      time.Duration // 0 re-probes on every call
}

// Prober produces HardwareProfiles. It is safe for concurrent use;
// concurrent callers share a single in-flight probe.
type Prober struct {
	run         Runner
	host        HostReader
	gpus        []GPUDetector
	npus        []NPUDetector
	log         zerolog.Logger
	maxParallel int
	ttl         time.Duration
	now         func() time.Time
	group       singleflight.Group

	mu       sync.Mutex
	cached   types.HardwareProfile
	cachedAt time.Time
}

func NewProber(cfg Config) *Prober {
	p := &Prober{
		run:         cfg.Runner,
		host:        cfg.Host,
		gpus:        cfg.GPUDetectors,
		npus:        cfg.NPUDetectors,
		maxParallel: cfg.MaxConcurrent,
		ttl:         cfg.CacheTTL,
		now:         time.Now,
		log:         zerolog.Nop(),
	}
	if cfg.Logger != nil {
		p.log = cfg.Logger.With().Str("component", "hardware").Logger()
	}
	if p.maxParallel <= 0 {
		p.maxParallel = 4
	}
	if p.run == nil {
		p.run = NewExecRunner(cfg.Timeout, p.maxParallel)
	}
	if p.host == nil {
		p.host = SystemHost{}
	}
	if p.gpus == nil {
		p.gpus = DefaultGPUDetectors()
	}
	if p.npus == nil {
		p.npus = DefaultNPUDetectors()
	}
	return p
}

// Profile returns the current hardware profile. It never fails: every
// sub-probe that errors degrades its field to the zero value. If ctx ends
// before the shared probe completes, the host-only facts are returned.
func (p *Prober) Profile(ctx context.Context) types.HardwareProfile {
	if prof, ok := p.fromCache(); ok {
		return prof
	}
	// The shared probe must not die with whichever caller happened to start it;
	// each external command carries its own timeout.
	ch := p.group.DoChan("profile", func() (any, error) {
		prof := p.probe(context.WithoutCancel(ctx))
		p.store(prof)
		return prof, nil
	})
	select {
	case res := <-ch:
		return cloneProfile(res.Val.(types.HardwareProfile))
	case <-ctx.Done():
		facts, _ := p.host.Read(ctx)
		return profileFromHost(facts)
	}
}

func (p *Prober) fromCache() (types.HardwareProfile, bool) {
	if p.ttl <= 0 {
		return types.HardwareProfile{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cachedAt.IsZero() || p.now().Sub(p.cachedAt) > p.ttl {
		return types.HardwareProfile{}, false
	}
	return cloneProfile(p.cached), true
}

func (p *Prober) store(prof types.HardwareProfile) {
	if p.ttl <= 0 {
		return
	}
	p.mu.Lock()
	p.cached = cloneProfile(prof)
	p.cachedAt = p.now()
	p.mu.Unlock()
}

func (p *Prober) probe(ctx context.Context) types.HardwareProfile {
	facts, err := p.host.Read(ctx)
	if err != nil {
		p.report(&ProbeError{Probe: "host", Err: err})
	}
	prof := profileFromHost(facts)

	gpuResults := make([][]types.GpuDescriptor, len(p.gpus))
	npuResults := make([]bool, len(p.npus))
	var g errgroup.Group
	g.SetLimit(p.maxParallel)
	for i, d := range p.gpus {
		g.Go(func() error {
			found, err := d.Detect(ctx, p.run)
			if err != nil {
				p.report(&ProbeError{Probe: d.Name(), Err: err})
				return nil
			}
			gpuResults[i] = found
			return nil
		})
	}
	for i, d := range p.npus {
		g.Go(func() error {
			ok, err := d.Detect(ctx, p.run, facts)
			if err != nil {
				p.report(&ProbeError{Probe: d.Name(), Err: err})
				return nil
			}
			npuResults[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	for _, found := range gpuResults {
		prof.GPUs = append(prof.GPUs, found...)
	}
	if len(prof.GPUs) == 0 {
		if igpu, ok := integratedFromBrand(facts.CPUBrand); ok {
			prof.GPUs = append(prof.GPUs, igpu)
		}
	}
	for _, ok := range npuResults {
		if ok {
			prof.NPUDetected = true
			break
		}
	}
	p.log.Debug().
		Float64("memory_gb", prof.TotalMemoryGB).
		Int("gpus", len(prof.GPUs)).
		Bool("npu", prof.NPUDetected).
		Msg("hardware probed")
	return prof
}

func (p *Prober) report(err *ProbeError) {
	p.log.Debug().Str("probe", err.Probe).Err(err.Err).Msg("sub-probe failed")
}

func profileFromHost(f HostFacts) types.HardwareProfile {
	return types.HardwareProfile{
		TotalMemoryGB: f.MemoryGB(),
		CPUCount:      f.CPUCount,
		CPUBrand:      f.CPUBrand,
		OSInfo:        f.OSInfo,
		GPUs:          []types.GpuDescriptor{},
	}
}

func cloneProfile(p types.HardwareProfile) types.HardwareProfile {
	out := p
	out.GPUs = make([]types.GpuDescriptor, len(p.GPUs))
	for i, g := range p.GPUs {
		out.GPUs[i] = g
		if g.VRAMGB != nil {
			out.GPUs[i].VRAMGB = types.Float64Ptr(*g.VRAMGB)
		}
	}
	return out
}
