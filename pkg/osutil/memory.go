package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

const (
	// cgroup v1 reports this when memory is not restricted
	unrestrictedMemoryLimit = 9223372036854771712

	// Ballasts never take more than this fraction of total memory
	maxBallastFraction = 0.5
)

var cgroupMemoryLimitLocations = []string{
	"/sys/fs/cgroup/memory.max",                   // cgroup v2
	"/sys/fs/cgroup/memory/memory.limit_in_bytes", // cgroup v1
}

// GetTotalMemory returns the total available memory size. The call is
// container-aware.
func GetTotalMemory() uint64 {
	totalMemory := memory.TotalMemory()
	for _, location := range cgroupMemoryLimitLocations {
		contents, err := os.ReadFile(location)
		if err != nil {
			continue
		}

		if limit, ok := parseMemoryLimit(string(contents)); ok {
			return limit
		}
		return totalMemory
	}
	return totalMemory
}

// GetBallastSize returns the size of a GC ballast taking fraction of total
// memory, capped at half of it
func GetBallastSize(fraction float32) uint64 {
	return ballastSize(GetTotalMemory(), fraction)
}

func ballastSize(totalMemory uint64, fraction float32) uint64 {
	if fraction <= 0 {
		return 0
	}
	if fraction > maxBallastFraction {
		fraction = maxBallastFraction
	}
	return uint64(fraction * float32(totalMemory))
}

func parseMemoryLimit(raw string) (uint64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "max" {
		return 0, false
	}

	limit, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || limit == 0 || limit == unrestrictedMemoryLimit {
		return 0, false
	}
	return limit, true
}
