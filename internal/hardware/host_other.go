//go:build !linux && !darwin

package hardware

import (
	"errors"
	"runtime"
)

func readHost() (HostFacts, error) {
	return HostFacts{OSInfo: runtime.GOOS}, errors.New("host memory and cpu brand not supported on " + runtime.GOOS)
}
