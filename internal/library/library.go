// Package library wires the ingest pipeline to the storage engine: the
// upload flow used by every front end.
package library

import (
	"context"
	"fmt"

	"image-vault/internal/database"
	"image-vault/internal/ingest"
	"image-vault/internal/logging"
	"image-vault/internal/media"

	"go.uber.org/multierr"
)

// Store is the part of the storage engine uploads write to.
type Store interface {
	SaveMultiple(ctx context.Context, imgs []database.ImageRecord) ([]int64, error)
	SaveTag(ctx context.Context, t database.Tag) (*database.Tag, error)
	Get(ctx context.Context, id int64) (*database.ImageRecord, error)
}

// UploadOptions is the classification applied to every file of a batch.
type UploadOptions struct {
	Category string
	Tags     []string
	RecordID *int64
}

// UploadReport lists what was persisted and what failed. Saved holds the
// records as stored, with their upload date, category and normalized tags.
type UploadReport struct {
	Saved  []database.ImageRecord
	Errors []*ingest.FileError
}

// Err combines the per-file errors.
func (r *UploadReport) Err() error {
	var err error
	for _, fe := range r.Errors {
		err = multierr.Append(err, fe)
	}
	return err
}

// Library runs uploads.
type Library struct {
	store    Store
	pipeline *ingest.Pipeline
	opts     ingest.Options
}

// New returns a Library that processes batches with pipeline under opts and
// persists them to store.
func New(store Store, pipeline *ingest.Pipeline, opts ingest.Options) *Library {
	return &Library{store: store, pipeline: pipeline, opts: opts}
}

// Upload validates and transcodes files, then saves every successful file
// in one transaction. A rejected batch returns the *validation.Rejection and
// persists nothing. Files that fail to transcode are reported in the
// UploadReport while the rest are still saved.
func (l *Library) Upload(ctx context.Context, files []media.Source, opts UploadOptions, progress ingest.ProgressFunc) (*UploadReport, error) {
	res, err := l.pipeline.Run(ctx, files, l.opts, progress)
	if err != nil {
		return nil, err
	}

	report := &UploadReport{Errors: res.Errors}
	if len(res.Results) == 0 {
		logging.Warn("Upload produced no images (%d failures)", len(res.Errors))
		return report, nil
	}

	records := make([]database.ImageRecord, len(res.Results))
	for i, p := range res.Results {
		records[i] = database.ImageRecord{
			FileName:     p.FileName,
			OriginalName: p.OriginalName,
			FileSize:     p.FileSize,
			MimeType:     p.MimeType,
			Category:     opts.Category,
			Tags:         append([]string(nil), opts.Tags...),
			RecordID:     opts.RecordID,
			Compressed:   p.Compressed,
			Thumbnail:    p.Thumbnail,
			Width:        p.Width,
			Height:       p.Height,
		}
	}

	ids, err := l.store.SaveMultiple(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to save %d processed images: %w", len(records), err)
	}

	report.Saved = make([]database.ImageRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := l.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read back image %d: %w", id, err)
		}
		report.Saved = append(report.Saved, *rec)
	}

	logging.Info("Uploaded %d images (%d failed)", len(report.Saved), len(report.Errors))
	return report, nil
}

// AddTag creates a tag with a random color.
func (l *Library) AddTag(ctx context.Context, name string) (*database.Tag, error) {
	return l.store.SaveTag(ctx, database.Tag{Name: name})
}
