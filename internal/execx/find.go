package execx

import (
	"context"
	"encoding/csv"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// ProcessFinder locates running processes by name.
type ProcessFinder interface {
	Find(ctx context.Context, name string) ([]int, error)
}

// FinderFunc adapts a function to ProcessFinder.
type FinderFunc func(ctx context.Context, name string) ([]int, error)

func (f FinderFunc) Find(ctx context.Context, name string) ([]int, error) { return f(ctx, name) }

// OSFinder queries the OS process table: `pgrep -x` on POSIX, tasklist on
// Windows. A path is reduced to its base name before matching.
type OSFinder struct {
	Runner Runner
	GOOS   string
}

func (f OSFinder) runner() Runner {
	if f.Runner == nil {
		return OSRunner{Hidden: true}
	}
	return f.Runner
}

func (f OSFinder) Find(ctx context.Context, name string) ([]int, error) {
	goos := f.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos == "windows" {
		res, err := f.runner().Run(ctx, Cmd{Path: "tasklist", Args: []string{"/FO", "CSV", "/NH"}})
		if err != nil {
			return nil, err
		}
		return ParseTasklist(res.Stdout, name), nil
	}
	// Exact match on the process name, so shells or editors whose command
	// line merely mentions the binary are not adopted.
	res, err := f.runner().Run(ctx, Cmd{Path: "pgrep", Args: []string{"-x", filepath.Base(name)}})
	if err != nil {
		// pgrep exits 1 when nothing matched.
		if ExitCode(err) == 1 {
			return nil, nil
		}
		return nil, err
	}
	return ParsePIDs(res.Stdout), nil
}

// ParsePIDs reads one PID per line, skipping anything unparsable.
func ParsePIDs(out string) []int {
	var pids []int
	for _, line := range strings.Split(out, "\n") {
		if pid, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

// ParseTasklist extracts PIDs from `tasklist /FO CSV /NH` output whose image
// name contains name (case-insensitive).
func ParseTasklist(out, name string) []int {
	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil
	}
	name = strings.ToLower(name)
	var pids []int
	for _, rec := range records {
		if len(rec) < 2 || !strings.Contains(strings.ToLower(rec[0]), name) {
			continue
		}
		if pid, err := strconv.Atoi(strings.TrimSpace(rec[1])); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids
}
