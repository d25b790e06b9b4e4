//go:build windows

package hardware

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func physicalCores() (int, error) {
	return logicalFallback(), nil
}

func totalMemory() (uint64, error) {
	var st windows.MemoryStatusEx
	st.Length = uint32(unsafe.Sizeof(st))
	if err := windows.GlobalMemoryStatusEx(&st); err != nil {
		return 0, err
	}
	return st.TotalPhys, nil
}
