package metrics

import (
	"context"
	"time"

	"image-vault/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	Stats(ctx context.Context) (Stats, error)
}

// Stats holds the current library statistics
type Stats struct {
	TotalImages     int
	TotalSize       int64
	TotalCategories int
	TotalTags       int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.Collect(context.Background())

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Collect(context.Background())
		case <-c.stopChan:
			return
		}
	}
}

// Collect refreshes the library gauges once.
func (c *Collector) Collect(ctx context.Context) {
	if c.statsProvider == nil {
		return
	}

	start := time.Now()
	stats, err := c.statsProvider.Stats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	ImagesStored.Set(float64(stats.TotalImages))
	ImagesStoredBytes.Set(float64(stats.TotalSize))
	CategoriesStored.Set(float64(stats.TotalCategories))
	TagsStored.Set(float64(stats.TotalTags))

	logging.Debug("Metrics collection completed in %v", time.Since(start))
}
