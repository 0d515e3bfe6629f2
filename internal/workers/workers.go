package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride is the environment variable that pins the worker count.
const EnvOverride = "INGEST_WORKERS"

// Count returns a worker count of multiplier workers per available CPU.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The limit parameter caps the worker count to prevent resource exhaustion.
// Use 0 for no limit.
//
// Can be overridden with the INGEST_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if count, ok := envOverride(); ok {
		return capAt(count, limit)
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// The limit parameter caps the maximum number of workers.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Resolve returns configured when it is positive, capped at limit.
// Otherwise the count is derived with ForCPU.
func Resolve(configured, limit int) int {
	if configured > 0 {
		return capAt(configured, limit)
	}
	return ForCPU(limit)
}

func envOverride() (int, bool) {
	v := os.Getenv(EnvOverride)
	if v == "" {
		return 0, false
	}
	count, err := strconv.Atoi(v)
	if err != nil || count < 1 {
		return 0, false
	}
	return count, true
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
