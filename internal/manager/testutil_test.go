package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"assistd/internal/gateway"
	"assistd/internal/store"
	"assistd/pkg/types"
)

var (
	heavyProfile = types.HardwareProfile{TotalMemoryGB: 64, CPUCount: 16, CPUBrand: "AMD Ryzen 9"}
	lightProfile = types.HardwareProfile{TotalMemoryGB: 8, CPUCount: 4}
)

type fakeProfiler struct{ prof types.HardwareProfile }

func (f fakeProfiler) Profile(context.Context) types.HardwareProfile { return f.prof }

type genCall struct{ model, system, user string }

// fakeGen is an in-memory inference server.
type fakeGen struct {
	mu        sync.Mutex
	reply     string
	genErr    error
	calls     []genCall
	pulls     []string
	pullWarn  map[string]string // model -> non-success status
	pullErr   map[string]error
	healthErr error
	models    []string
	// when non-nil Generate blocks until it is closed or ctx ends
	block chan struct{}
}

func (f *fakeGen) Generate(ctx context.Context, model, system, user string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, genCall{model, system, user})
	block, reply, err := f.block, f.reply, f.genErr
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

func (f *fakeGen) EnsureModel(ctx context.Context, name string) (*gateway.ProvisionWarning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls = append(f.pulls, name)
	if err := f.pullErr[name]; err != nil {
		return nil, err
	}
	if st, ok := f.pullWarn[name]; ok {
		return &gateway.ProvisionWarning{Model: name, Status: st}, nil
	}
	return nil, nil
}

func (f *fakeGen) ListModels(context.Context) ([]string, error) { return f.models, nil }

func (f *fakeGen) HealthCheck(context.Context) error { return f.healthErr }

func (f *fakeGen) lastCall(t *testing.T) genCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatalf("Generate was not called")
	}
	return f.calls[len(f.calls)-1]
}

// failingStore wraps a real store and fails every Save.
type failingStore struct{ *store.Store }

func (failingStore) Save(context.Context, types.ConversationRecord) error {
	return &store.PersistError{ID: "x", Err: errors.New("disk full")}
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// newTestManager builds a manager on a heavy host with a real in-memory store.
func newTestManager(t *testing.T, gen *fakeGen, mutate func(*ManagerConfig)) (*Manager, *store.Store, *MemoryPublisher) {
	t.Helper()
	st := newStore(t)
	pub := NewMemoryPublisher()
	n := 0
	cfg := ManagerConfig{
		Profiler:  fakeProfiler{prof: heavyProfile},
		Generator: gen,
		Store:     st,
		Publisher: pub,
		Now:       func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("rec-%d", n)
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewWithConfig(cfg), st, pub
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func hasEvent(evts []Event, name string) bool {
	for _, e := range evts {
		if e.Name == name {
			return true
		}
	}
	return false
}
