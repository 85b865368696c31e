package hardware

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"assistd/pkg/types"
)

// GPUDetector enumerates discrete GPUs of one vendor.
type GPUDetector interface {
	Name() string
	Detect(ctx context.Context, run Runner) ([]types.GpuDescriptor, error)
}

// DefaultGPUDetectors returns the vendor queries tried on every probe.
func DefaultGPUDetectors() []GPUDetector {
	return []GPUDetector{NvidiaSMI{}, RocmSMI{}}
}

// NvidiaSMI queries nvidia-smi for every visible GPU.
type NvidiaSMI struct{}

func (NvidiaSMI) Name() string { return "nvidia-smi" }

func (NvidiaSMI) Detect(ctx context.Context, run Runner) ([]types.GpuDescriptor, error) {
	out, err := run.Run(ctx, "nvidia-smi", "--query-gpu=name,memory.total", "--format=csv,noheader,nounits")
	if err != nil {
		return nil, err
	}
	return parseNvidiaSMI(out)
}

// parseNvidiaSMI reads "name, MiB" lines. A line whose memory column is not a
// number ([N/A] on some drivers) yields a GPU with unknown VRAM.
func parseNvidiaSMI(out []byte) ([]types.GpuDescriptor, error) {
	var gpus []types.GpuDescriptor
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, mem := line, ""
		if i := strings.LastIndex(line, ","); i >= 0 {
			name, mem = strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
		}
		g := types.GpuDescriptor{Name: name, Vendor: "NVIDIA"}
		if mib, err := strconv.ParseFloat(mem, 64); err == nil {
			g.VRAMGB = types.Float64Ptr(mib / 1024.0)
		}
		gpus = append(gpus, g)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(gpus) == 0 {
		return nil, errors.New("nvidia-smi reported no GPUs")
	}
	return gpus, nil
}

// RocmSMI queries rocm-smi in JSON mode.
type RocmSMI struct{}

func (RocmSMI) Name() string { return "rocm-smi" }

func (RocmSMI) Detect(ctx context.Context, run Runner) ([]types.GpuDescriptor, error) {
	out, err := run.Run(ctx, "rocm-smi", "--showproductname", "--showmeminfo", "vram", "--json")
	if err != nil {
		return nil, err
	}
	return parseRocmSMI(out)
}

const bytesPerGB = 1024 * 1024 * 1024

// parseRocmSMI reads the {"card0": {...}, "system": {...}} document.
func parseRocmSMI(out []byte) ([]types.GpuDescriptor, error) {
	var doc map[string]map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("decode rocm-smi json: %w", err)
	}
	cards := make([]string, 0, len(doc))
	for k := range doc {
		if strings.HasPrefix(strings.ToLower(k), "card") {
			cards = append(cards, k)
		}
	}
	if len(cards) == 0 {
		return nil, errors.New("rocm-smi reported no cards")
	}
	sort.Strings(cards)
	gpus := make([]types.GpuDescriptor, 0, len(cards))
	for _, k := range cards {
		fields := doc[k]
		g := types.GpuDescriptor{Name: "AMD GPU", Vendor: "AMD"}
		for _, key := range []string{"Card series", "Card Series", "Card model", "Card SKU"} {
			if v := strings.TrimSpace(fmt.Sprint(fields[key])); fields[key] != nil && v != "" {
				g.Name = v
				break
			}
		}
		if raw, ok := fields["VRAM Total Memory (B)"]; ok {
			if b, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(raw)), 64); err == nil && b > 0 {
				g.VRAMGB = types.Float64Ptr(b / bytesPerGB)
			}
		}
		gpus = append(gpus, g)
	}
	return gpus, nil
}

// integratedFromBrand guesses an integrated GPU from the CPU brand string.
func integratedFromBrand(brand string) (types.GpuDescriptor, bool) {
	b := strings.ToLower(brand)
	switch {
	case strings.Contains(b, "intel"):
		return types.GpuDescriptor{Name: "Intel Integrated Graphics", Vendor: "Intel"}, true
	case strings.Contains(b, "amd"):
		return types.GpuDescriptor{Name: "AMD Integrated Graphics", Vendor: "AMD"}, true
	}
	return types.GpuDescriptor{}, false
}
