package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_db_queries_total",
			Help: "Total number of storage engine operations",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagevault_db_query_duration_seconds",
			Help:    "Storage engine operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagevault_db_transaction_duration_seconds",
			Help:    "Write transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"result"},
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagevault_db_rows_affected",
			Help:    "Number of rows affected by write operations",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 500},
		},
		[]string{"operation"},
	)
)

// Library metrics
var (
	ImagesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagevault_images_stored",
			Help: "Number of images in the library",
		},
	)

	ImagesStoredBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagevault_images_stored_bytes",
			Help: "Sum of compressed image sizes in bytes",
		},
	)

	CategoriesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagevault_categories_stored",
			Help: "Number of categories",
		},
	)

	TagsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagevault_tags_stored",
			Help: "Number of tags",
		},
	)
)

// Ingest metrics
var (
	IngestBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_ingest_batches_total",
			Help: "Total number of upload batches by validation result",
		},
		[]string{"result"},
	)

	IngestFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_ingest_files_total",
			Help: "Total number of files processed by the ingestion pipeline",
		},
		[]string{"status"},
	)

	IngestBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagevault_ingest_batch_duration_seconds",
			Help:    "Time to process an accepted batch in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	IngestWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagevault_ingest_workers",
			Help: "Number of transcoding workers used by the last batch",
		},
	)
)

// Transcode metrics
var (
	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagevault_transcode_duration_seconds",
			Help:    "Image processing duration in seconds by stage",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	TranscodeOutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagevault_transcode_output_bytes",
			Help:    "Encoded variant size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"variant"},
	)

	TranscodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_transcode_errors_total",
			Help: "Total number of image processing failures by stage",
		},
		[]string{"stage"},
	)
)
