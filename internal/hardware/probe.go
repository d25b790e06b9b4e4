// Package hardware detects the CPU core count and installed RAM used to tune
// inference parameters. Detection never fails: safe defaults replace any
// value the platform cannot report.
package hardware

import (
	"bufio"
	"io"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Defaults used when detection fails.
const (
	DefaultCores = 4
	DefaultRAMGB = 8
)

// Info is the detected machine profile.
type Info struct {
	Cores int `json:"cores"`
	RAMGB int `json:"ram_gb"`
}

// Probe detects hardware. The function fields exist for tests; nil fields
// use the platform implementation.
type Probe struct {
	PhysicalCores func() (int, error)
	TotalMemory   func() (uint64, error)
	Logger        zerolog.Logger
}

// Detect returns the current machine's profile.
func Detect(logger zerolog.Logger) Info {
	return Probe{Logger: logger}.Detect()
}

func (p Probe) Detect() Info {
	coresFn := p.PhysicalCores
	if coresFn == nil {
		coresFn = physicalCores
	}
	memFn := p.TotalMemory
	if memFn == nil {
		memFn = totalMemory
	}

	info := Info{Cores: DefaultCores, RAMGB: DefaultRAMGB}
	if n, err := coresFn(); err != nil {
		p.Logger.Warn().Err(err).Int("default", DefaultCores).Msg("cpu core detection failed")
	} else if n >= 1 {
		info.Cores = n
	}
	if b, err := memFn(); err != nil {
		p.Logger.Warn().Err(err).Int("default_gb", DefaultRAMGB).Msg("memory detection failed")
	} else if gb := BytesToGB(b); gb >= 1 {
		info.RAMGB = gb
	}
	p.Logger.Info().Int("cores", info.Cores).Int("ram_gb", info.RAMGB).Msg("hardware detected")
	return info
}

// BytesToGB converts a byte count to whole GiB, rounding to nearest.
func BytesToGB(b uint64) int {
	return int(math.Round(float64(b) / (1 << 30)))
}

// ParseCPUInfo counts physical cores in /proc/cpuinfo content as
// (distinct physical ids) x (cpu cores). It returns 0 when the fields are absent.
func ParseCPUInfo(r io.Reader) int {
	sockets := map[string]bool{}
	perSocket := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "physical id":
			sockets[strings.TrimSpace(val)] = true
		case "cpu cores":
			if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
				perSocket = n
			}
		}
	}
	if len(sockets) == 0 || perSocket == 0 {
		return 0
	}
	return len(sockets) * perSocket
}

// logicalFallback halves the logical CPU count to approximate physical cores.
func logicalFallback() int {
	if n := runtime.NumCPU() / 2; n >= 1 {
		return n
	}
	return runtime.NumCPU()
}
