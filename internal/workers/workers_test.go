package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "one per CPU",
			multiplier: 1.0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "two per CPU",
			multiplier: 2.0,
			minExpect:  1,
			maxExpect:  availableCPU * 2,
		},
		{
			name:       "limit lower than calculated",
			multiplier: 2.0,
			limit:      2,
			minExpect:  1,
			maxExpect:  2,
		},
		{
			name:       "very low multiplier",
			multiplier: 0.1,
			minExpect:  1,
			maxExpect:  max(1, int(float64(availableCPU)*0.1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected in [%d, %d]",
					tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		limit    int
		expected int // 0 means fall back to the CPU calculation
	}{
		{name: "valid override", envValue: "8", expected: 8},
		{name: "override capped by limit", envValue: "20", limit: 10, expected: 10},
		{name: "override below limit", envValue: "5", limit: 10, expected: 5},
		{name: "non-numeric ignored", envValue: "invalid"},
		{name: "zero ignored", envValue: "0"},
		{name: "negative ignored", envValue: "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.envValue)

			got := Count(1.0, tt.limit)
			want := tt.expected
			if want == 0 {
				want = runtime.GOMAXPROCS(0)
			}
			if got != want {
				t.Errorf("Count(1.0, %d) with %s=%s = %d, want %d", tt.limit, EnvOverride, tt.envValue, got, want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Setenv(EnvOverride, "")

	tests := []struct {
		name       string
		configured int
		limit      int
		expected   int
	}{
		{name: "configured", configured: 3, limit: 8, expected: 3},
		{name: "configured above limit", configured: 12, limit: 8, expected: 8},
		{name: "configured without limit", configured: 12, expected: 12},
		{name: "sequential", configured: 1, limit: 8, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.configured, tt.limit); got != tt.expected {
				t.Errorf("Resolve(%d, %d) = %d, want %d", tt.configured, tt.limit, got, tt.expected)
			}
		})
	}

	if got, want := Resolve(0, 0), ForCPU(0); got != want {
		t.Errorf("Resolve(0, 0) = %d, want ForCPU(0) = %d", got, want)
	}
}

func TestConfiguredBeatsEnvOverride(t *testing.T) {
	t.Setenv(EnvOverride, "6")

	if got := Resolve(2, 0); got != 2 {
		t.Errorf("Resolve(2, 0) = %d, want 2", got)
	}
	if got := Resolve(0, 4); got != 4 {
		t.Errorf("Resolve(0, 4) = %d, want 4 (override capped)", got)
	}
}

func BenchmarkForCPU(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ForCPU(8)
	}
}
