/*
Package workers sizes the ingest worker pool.

Go sets GOMAXPROCS from the container CPU limit (Go 1.19+), while
runtime.NumCPU() still reports the host's CPU count. Worker counts are
therefore derived from GOMAXPROCS so a pod limited to 2 CPUs on a 64 core
node runs 2 transcoders, not 64.

	// One worker per available CPU, at most 8
	n := workers.ForCPU(8)

	// Explicit configuration wins; 0 means "derive from the CPU budget"
	n := workers.Resolve(cfg.Workers, 8)

# Environment Variable Override

The INGEST_WORKERS environment variable overrides the automatic calculation
for operators who want to pin concurrency without touching configuration:

	env:
	- name: INGEST_WORKERS
	  value: "2"

Values that are not positive integers are ignored. The limit passed by the
caller still applies to overrides.
*/
package workers
