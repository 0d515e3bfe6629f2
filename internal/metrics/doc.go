// Package metrics provides Prometheus instrumentation for the image vault.
//
// All metrics are prefixed with "imagevault_" and registered on the default
// registry through promauto.
//
// # Metric Categories
//
// ## Database Metrics
//
// Monitor storage engine operations:
//   - DBQueryTotal: Counter of operations by name and status
//   - DBQueryDuration: Histogram of operation duration by name
//   - DBTransactionDuration: Histogram of write transaction duration by result
//   - DBRowsAffected: Histogram of rows touched by write operations
//
// ## Library Metrics
//
// Gauges refreshed by the Collector from the storage engine's statistics:
//   - ImagesStored, ImagesStoredBytes, CategoriesStored, TagsStored
//
// ## Ingest Metrics
//
// Track batch uploads through the ingestion pipeline:
//   - IngestBatchesTotal: Counter of batches by result (accepted, rejected)
//   - IngestFilesTotal: Counter of files by status (success, error)
//   - IngestBatchDuration: Histogram of whole-batch processing time
//   - IngestWorkers: Gauge of workers used by the last batch
//
// ## Transcode Metrics
//
// Track per-file image processing:
//   - TranscodeDuration: Histogram by stage (decode, compressed, thumbnail)
//   - TranscodeOutputBytes: Histogram of encoded sizes by variant
//   - TranscodeErrors: Counter of failures by stage
//
// # Exporting
//
// The vault has no HTTP surface, so metrics are written in the Prometheus
// text format with WriteTextfile for the node-exporter textfile collector.
package metrics
