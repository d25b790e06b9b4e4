//go:build linux

package hardware

import (
	"os"

	"golang.org/x/sys/unix"
)

func physicalCores() (int, error) {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return logicalFallback(), nil
	}
	defer f.Close()
	if n := ParseCPUInfo(f); n > 0 {
		return n, nil
	}
	return logicalFallback(), nil
}

func totalMemory() (uint64, error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return 0, err
	}
	return uint64(si.Totalram) * uint64(si.Unit), nil
}
