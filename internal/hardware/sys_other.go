//go:build !linux && !darwin && !windows

package hardware

import "errors"

func physicalCores() (int, error) {
	return logicalFallback(), nil
}

func totalMemory() (uint64, error) {
	return 0, errors.New("memory detection unsupported on this platform")
}
