//go:build darwin

package hardware

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

func readHost() (HostFacts, error) {
	var (
		f    HostFacts
		errs []error
	)
	if mem, err := unix.SysctlUint64("hw.memsize"); err != nil {
		errs = append(errs, fmt.Errorf("hw.memsize: %w", err))
	} else {
		f.MemoryBytes = mem
	}
	if brand, err := unix.Sysctl("machdep.cpu.brand_string"); err != nil {
		errs = append(errs, fmt.Errorf("cpu brand: %w", err))
	} else {
		f.CPUBrand = brand
	}
	f.OSInfo = "macOS"
	if v, err := unix.Sysctl("kern.osproductversion"); err == nil && v != "" {
		f.OSInfo = "macOS " + v
	}
	return f, errors.Join(errs...)
}
