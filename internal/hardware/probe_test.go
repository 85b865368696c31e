package hardware

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeRunner answers by tool name; unknown tools behave like missing binaries.
type fakeRunner struct {
	mu    sync.Mutex
	out   map[string]string
	delay time.Duration
	calls map[string]int
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	out, ok := f.out[name]
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, ErrToolMissing
	}
	return []byte(out), nil
}

func (f *fakeRunner) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

type fakeHost struct {
	facts HostFacts
	err   error
}

func (h fakeHost) Read(context.Context) (HostFacts, error) { return h.facts, h.err }

const gib = 1 << 30

func newTestProber(run Runner, host HostFacts, ttl time.Duration) *Prober {
	return NewProber(Config{
		Runner:       run,
		Host:         fakeHost{facts: host},
		GPUDetectors: DefaultGPUDetectors(),
		NPUDetectors: []NPUDetector{AppleSilicon{GOOS: "linux"}, LspciKeywords{}},
		CacheTTL:     ttl,
	})
}

func TestProfile_DiscreteGPU(t *testing.T) {
	run := &fakeRunner{out: map[string]string{
		"nvidia-smi": "NVIDIA GeForce RTX 3060, 12288\n",
		"lspci":      "00:02.0 VGA compatible controller: Intel Corporation\n",
	}}
	p := newTestProber(run, HostFacts{MemoryBytes: 16 * gib, CPUCount: 8, CPUBrand: "Intel Core i5", OSInfo: "Ubuntu 24.04"}, 0)
	prof := p.Profile(context.Background())
	assert.InDelta(t, 16.0, prof.TotalMemoryGB, 0.001)
	assert.Equal(t, 8, prof.CPUCount)
	require.Len(t, prof.GPUs, 1)
	assert.Equal(t, "NVIDIA GeForce RTX 3060", prof.GPUs[0].Name)
	assert.False(t, prof.NPUDetected)
	assert.Equal(t, Heavy, Classify(prof))
}

func TestProfile_IntegratedFallbackAndNPU(t *testing.T) {
	run := &fakeRunner{out: map[string]string{
		"lspci": "00:0b.0 System peripheral: Intel Corporation Meteor Lake NPU (rev 04)\n",
	}}
	p := newTestProber(run, HostFacts{MemoryBytes: 4 * gib, CPUBrand: "Intel(R) Core(TM) Ultra 7 155H"}, 0)
	prof := p.Profile(context.Background())
	require.Len(t, prof.GPUs, 1)
	assert.Equal(t, "Intel Integrated Graphics", prof.GPUs[0].Name)
	assert.Nil(t, prof.GPUs[0].VRAMGB)
	assert.True(t, prof.NPUDetected)
	assert.Equal(t, NPU, Classify(prof))
}

func TestProfile_NoToolsNeverFails(t *testing.T) {
	p := NewProber(Config{
		Runner:       &fakeRunner{},
		Host:         fakeHost{facts: HostFacts{OSInfo: "plan9"}, err: errors.New("no sysinfo")},
		NPUDetectors: []NPUDetector{LspciKeywords{}},
	})
	prof := p.Profile(context.Background())
	assert.Empty(t, prof.GPUs)
	assert.NotNil(t, prof.GPUs)
	assert.False(t, prof.NPUDetected)
	assert.Equal(t, "plan9", prof.OSInfo)
	assert.Equal(t, Light, Classify(prof))
}

func TestProfile_AppleSiliconOnDarwin(t *testing.T) {
	p := NewProber(Config{
		Runner:       &fakeRunner{},
		Host:         fakeHost{facts: HostFacts{MemoryBytes: 8 * gib, CPUBrand: "Apple M2"}},
		NPUDetectors: []NPUDetector{AppleSilicon{GOOS: "darwin"}},
	})
	prof := p.Profile(context.Background())
	assert.True(t, prof.NPUDetected)
	assert.Empty(t, prof.GPUs)
}

func TestAccelDevices(t *testing.T) {
	d := t.TempDir()
	ok, err := AccelDevices{Dir: filepath.Join(d, "missing")}.Detect(context.Background(), nil, HostFacts{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(d, "accel0"), nil, 0o644))
	ok, err = AccelDevices{Dir: d}.Detect(context.Background(), nil, HostFacts{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProfile_ConcurrentCallersShareOneProbe(t *testing.T) {
	run := &fakeRunner{out: map[string]string{"nvidia-smi": "A, 4096\n"}, delay: 50 * time.Millisecond}
	p := newTestProber(run, HostFacts{MemoryBytes: 8 * gib}, 0)
	var wg sync.WaitGroup
	var mediums atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Classify(p.Profile(context.Background())) == Medium {
				mediums.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(8), mediums.Load())
	assert.Less(t, run.count("nvidia-smi"), 8)
}

func TestProfile_CacheTTL(t *testing.T) {
	run := &fakeRunner{out: map[string]string{"nvidia-smi": "A, 4096\n"}}
	p := newTestProber(run, HostFacts{}, time.Minute)
	now := time.Unix(1700000000, 0)
	p.now = func() time.Time { return now }

	first := p.Profile(context.Background())
	first.GPUs[0].Name = "mutated"
	second := p.Profile(context.Background())
	assert.Equal(t, 1, run.count("nvidia-smi"))
	assert.Equal(t, "A", second.GPUs[0].Name)

	now = now.Add(2 * time.Minute)
	p.Profile(context.Background())
	assert.Equal(t, 2, run.count("nvidia-smi"))
}

func TestProfile_CallerDeadlineReturnsHostFacts(t *testing.T) {
	run := &fakeRunner{out: map[string]string{"nvidia-smi": "A, 16384\n"}, delay: 200 * time.Millisecond}
	p := newTestProber(run, HostFacts{MemoryBytes: 64 * gib}, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	prof := p.Profile(ctx)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Empty(t, prof.GPUs)
	assert.Equal(t, Heavy, Classify(prof))
	// Joining the in-flight probe lets it finish before goleak checks.
	full := p.Profile(context.Background())
	require.Len(t, full.GPUs, 1)
}
