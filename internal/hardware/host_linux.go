//go:build linux

package hardware

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

func readHost() (HostFacts, error) {
	var (
		f    HostFacts
		errs []error
	)
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		errs = append(errs, fmt.Errorf("sysinfo: %w", err))
	} else {
		f.MemoryBytes = uint64(si.Totalram) * uint64(si.Unit)
	}

	if fh, err := os.Open("/proc/cpuinfo"); err != nil {
		errs = append(errs, fmt.Errorf("cpuinfo: %w", err))
	} else {
		f.CPUBrand = parseCPUInfo(fh)
		_ = fh.Close()
	}

	if fh, err := os.Open("/etc/os-release"); err == nil {
		f.OSInfo = parseOSRelease(fh)
		_ = fh.Close()
	}
	if f.OSInfo == "" {
		var u unix.Utsname
		if err := unix.Uname(&u); err != nil {
			errs = append(errs, fmt.Errorf("uname: %w", err))
			f.OSInfo = "Linux"
		} else {
			f.OSInfo = strings.TrimSpace(unix.ByteSliceToString(u.Sysname[:]) + " " + unix.ByteSliceToString(u.Release[:]))
		}
	}
	return f, errors.Join(errs...)
}
