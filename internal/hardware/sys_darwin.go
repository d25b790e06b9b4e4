//go:build darwin

package hardware

import "golang.org/x/sys/unix"

func physicalCores() (int, error) {
	n, err := unix.SysctlUint32("hw.physicalcpu")
	if err != nil || n == 0 {
		return logicalFallback(), nil
	}
	return int(n), nil
}

func totalMemory() (uint64, error) {
	return unix.SysctlUint64("hw.memsize")
}
