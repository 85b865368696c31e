package hardware

import (
	"fmt"
	"strings"

	"assistd/pkg/types"
)

// Tier is a coarse classification of how large a model the host can serve.
type Tier int

const (
	Light Tier = iota
	Medium
	Heavy
	NPU
)

// Tiers lists every tier in declaration order.
var Tiers = []Tier{Light, Medium, Heavy, NPU}

func (t Tier) String() string {
	switch t {
	case Light:
		return "Light"
	case Medium:
		return "Medium"
	case Heavy:
		return "Heavy"
	case NPU:
		return "NPU"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// MarshalText renders the tier label so tiers can be JSON map keys and values.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTier accepts tier labels case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "medium":
		return Medium, nil
	case "heavy":
		return Heavy, nil
	case "npu":
		return NPU, nil
	}
	return Light, fmt.Errorf("unknown tier %q", s)
}

// VRAM and RAM thresholds in GB.
const (
	heavyVRAMGB  = 8
	mediumVRAMGB = 4
	heavyRAMGB   = 32
	mediumRAMGB  = 16
)

// Classify maps a profile to a tier. First matching rule wins:
// NPU present, then the largest known VRAM, then total RAM.
// GPUs with unknown VRAM are ignored.
func Classify(p types.HardwareProfile) Tier {
	if p.NPUDetected {
		return NPU
	}
	if vram, ok := p.MaxVRAMGB(); ok {
		if vram > heavyVRAMGB {
			return Heavy
		}
		if vram >= mediumVRAMGB {
			return Medium
		}
	}
	switch {
	case p.TotalMemoryGB > heavyRAMGB:
		return Heavy
	case p.TotalMemoryGB >= mediumRAMGB:
		return Medium
	default:
		return Light
	}
}
