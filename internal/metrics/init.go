package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first write.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, op := range []string{"initialize_schema", "load", "seed_categories",
		"save_image", "save_images", "get_image", "get_all_images", "get_by_category",
		"get_by_tag", "get_by_record", "search", "update_image", "delete_image",
		"bulk_delete", "stats", "save_category", "get_categories", "save_tag",
		"get_tags", "clear", "export", "import"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, r := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(r)
	}

	for _, r := range []string{"accepted", "rejected"} {
		IngestBatchesTotal.WithLabelValues(r)
	}

	for _, s := range []string{"success", "error"} {
		IngestFilesTotal.WithLabelValues(s)
	}

	for _, stage := range []string{"decode", "compressed", "thumbnail"} {
		TranscodeDuration.WithLabelValues(stage)
		TranscodeErrors.WithLabelValues(stage)
	}

	for _, v := range []string{"compressed", "thumbnail"} {
		TranscodeOutputBytes.WithLabelValues(v)
	}
}
