package hardware

import (
	"bytes"
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
)

// NPUDetector reports whether one kind of neural accelerator is present.
type NPUDetector interface {
	Name() string
	Detect(ctx context.Context, run Runner, host HostFacts) (bool, error)
}

// DefaultNPUDetectors returns the signals checked on every probe.
func DefaultNPUDetectors() []NPUDetector {
	return []NPUDetector{
		AppleSilicon{GOOS: runtime.GOOS},
		AccelDevices{Dir: "/dev/accel"},
		LspciKeywords{},
	}
}

// AppleSilicon treats an Apple CPU on macOS as having a Neural Engine.
type AppleSilicon struct{ GOOS string }

func (AppleSilicon) Name() string { return "apple-silicon" }

func (a AppleSilicon) Detect(_ context.Context, _ Runner, host HostFacts) (bool, error) {
	return a.GOOS == "darwin" && strings.Contains(strings.ToLower(host.CPUBrand), "apple"), nil
}

// AccelDevices looks for compute accelerator nodes exposed by the kernel
// accel subsystem (Intel NPU and similar).
type AccelDevices struct{ Dir string }

func (AccelDevices) Name() string { return "accel-devices" }

func (a AccelDevices) Detect(context.Context, Runner, HostFacts) (bool, error) {
	entries, err := os.ReadDir(a.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "accel") {
			return true, nil
		}
	}
	return false, nil
}

// LspciKeywords scans the PCI device listing for accelerator keywords.
type LspciKeywords struct{}

func (LspciKeywords) Name() string { return "lspci" }

var npuKeywords = [][]byte{[]byte("neural"), []byte("npu")}

func (LspciKeywords) Detect(ctx context.Context, run Runner, _ HostFacts) (bool, error) {
	out, err := run.Run(ctx, "lspci")
	if err != nil {
		return false, err
	}
	lower := bytes.ToLower(out)
	for _, kw := range npuKeywords {
		if bytes.Contains(lower, kw) {
			return true, nil
		}
	}
	return false, nil
}
