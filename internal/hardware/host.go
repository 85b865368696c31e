package hardware

import (
	"bufio"
	"context"
	"io"
	"runtime"
	"strings"
)

// HostFacts are the cheap, syscall-level facts about the machine.
type HostFacts struct {
	MemoryBytes uint64
	CPUCount    int
	CPUBrand    string
	OSInfo      string
}

// MemoryGB converts MemoryBytes to GiB.
func (h HostFacts) MemoryGB() float64 { return float64(h.MemoryBytes) / bytesPerGB }

// HostReader gathers HostFacts. Implementations return whatever they could
// read alongside an error describing what they could not.
type HostReader interface {
	Read(ctx context.Context) (HostFacts, error)
}

// SystemHost reads facts from the running OS.
type SystemHost struct{}

func (SystemHost) Read(context.Context) (HostFacts, error) {
	f, err := readHost()
	f.CPUCount = runtime.NumCPU()
	return f, err
}

// parseCPUInfo returns the first processor description in /proc/cpuinfo.
// x86 uses "model name"; some ARM kernels only expose "Hardware".
func parseCPUInfo(r io.Reader) string {
	var hardware string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch key {
		case "model name":
			if val != "" {
				return val
			}
		case "Hardware":
			if hardware == "" {
				hardware = val
			}
		}
	}
	return hardware
}

// parseOSRelease renders NAME and VERSION_ID from an os-release file.
func parseOSRelease(r io.Reader) string {
	var name, version string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		switch strings.TrimSpace(key) {
		case "NAME":
			name = val
		case "VERSION_ID":
			version = val
		}
	}
	return strings.TrimSpace(name + " " + version)
}
