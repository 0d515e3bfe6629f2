package metrics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	stats Stats
	err   error
	calls atomic.Int32
}

func (m *mockStatsProvider) Stats(_ context.Context) (Stats, error) {
	m.calls.Add(1)
	return m.stats, m.err
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		TotalImages:     12,
		TotalSize:       4096,
		TotalCategories: 5,
		TotalTags:       3,
	}}

	c := NewCollector(provider, time.Minute)
	c.Collect(context.Background())

	if got := testutil.ToFloat64(ImagesStored); got != 12 {
		t.Errorf("ImagesStored = %v, want 12", got)
	}
	if got := testutil.ToFloat64(ImagesStoredBytes); got != 4096 {
		t.Errorf("ImagesStoredBytes = %v, want 4096", got)
	}
	if got := testutil.ToFloat64(CategoriesStored); got != 5 {
		t.Errorf("CategoriesStored = %v, want 5", got)
	}
	if got := testutil.ToFloat64(TagsStored); got != 3 {
		t.Errorf("TagsStored = %v, want 3", got)
	}
}

func TestCollectorProviderError(t *testing.T) {
	ImagesStored.Set(7)
	provider := &mockStatsProvider{err: errors.New("database closed")}

	NewCollector(provider, time.Minute).Collect(context.Background())

	if got := testutil.ToFloat64(ImagesStored); got != 7 {
		t.Errorf("ImagesStored changed on error: %v", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Collect with nil provider panicked: %v", r)
		}
	}()
	NewCollector(nil, time.Minute).Collect(context.Background())
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, time.Hour)
	c.Start()
	time.Sleep(20 * time.Millisecond)
	c.Stop()

	if provider.calls.Load() == 0 {
		t.Error("Start should collect immediately")
	}
}
