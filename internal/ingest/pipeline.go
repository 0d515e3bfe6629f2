package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"image-vault/internal/logging"
	"image-vault/internal/media"
	"image-vault/internal/mediatypes"
	"image-vault/internal/metrics"
	"image-vault/internal/validation"

	"go.uber.org/multierr"
)

// Transcoder produces the stored variants for one source.
type Transcoder interface {
	Process(ctx context.Context, src media.Source, opts media.Options) (*media.Output, error)
}

// Options configures one batch.
type Options struct {
	media.Options

	// MaxFiles caps the batch size (0 = no limit).
	MaxFiles int
	// MaxFileSize caps each source in bytes (0 = mediatypes.MaxFileSize).
	MaxFileSize int64
	// Workers is the number of files transcoded at once. Values below 2
	// process the batch sequentially.
	Workers int
}

// DefaultOptions returns the stock batch limits with sequential processing.
func DefaultOptions() Options {
	return Options{
		Options:     media.DefaultOptions(),
		MaxFiles:    mediatypes.DefaultMaxFiles,
		MaxFileSize: mediatypes.MaxFileSize,
		Workers:     1,
	}
}

// Processed is one successfully transcoded file, ready to be persisted.
// Compressed and Thumbnail are data URLs; FileSize is the byte length of the
// compressed payload.
type Processed struct {
	Index        int
	FileName     string
	OriginalName string
	FileSize     int64
	MimeType     string
	Compressed   string
	Thumbnail    string
	Width        int
	Height       int
	AspectRatio  float64
}

// FileError reports one file that could not be processed.
type FileError struct {
	Index int
	File  string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result holds everything a batch produced. Results and Errors are ordered
// by input index.
type Result struct {
	Results []Processed
	Errors  []*FileError
}

// Err combines every file error, or returns nil when the batch was clean.
func (r *Result) Err() error {
	var err error
	for _, fe := range r.Errors {
		err = multierr.Append(err, fe)
	}
	return err
}

// Pipeline orchestrates validation and transcoding for a batch.
type Pipeline struct {
	transcoder Transcoder
}

// New returns a Pipeline using t. A nil t uses media.NewTranscoder().
func New(t Transcoder) *Pipeline {
	if t == nil {
		t = media.NewTranscoder()
	}
	return &Pipeline{transcoder: t}
}

type job struct {
	index int
	src   media.Source
}

type outcome struct {
	index     int
	processed *Processed
	err       error
}

// Run validates files and transcodes every accepted file. A validation
// failure is returned as a *validation.Rejection with no file processed.
// Per-file failures are collected in the Result; the returned error is
// reserved for the batch as a whole.
func (p *Pipeline) Run(ctx context.Context, files []media.Source, opts Options, progress ProgressFunc) (*Result, error) {
	candidates := make([]validation.File, len(files))
	for i := range files {
		candidates[i] = files[i]
	}

	limits := validation.Limits{MaxFiles: opts.MaxFiles, MaxFileSize: opts.MaxFileSize}
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = mediatypes.MaxFileSize
	}
	if err := validation.ValidateWithLimits(candidates, limits); err != nil {
		metrics.IngestBatchesTotal.WithLabelValues("rejected").Inc()
		logging.Warn("Rejected batch of %d files: %v", len(files), err)
		return nil, err
	}
	metrics.IngestBatchesTotal.WithLabelValues("accepted").Inc()

	numWorkers := max(opts.Workers, 1)
	numWorkers = min(numWorkers, max(len(files), 1))
	metrics.IngestWorkers.Set(float64(numWorkers))

	logging.Info("Processing batch of %d files with %d workers", len(files), numWorkers)
	startTime := time.Now()

	jobs := make(chan job)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				processed, err := p.processOne(ctx, j.src, opts.Options)
				if processed != nil {
					processed.Index = j.index
				}
				outcomes <- outcome{index: j.index, processed: processed, err: err}
			}
		}()
	}

	go func() {
		for i, src := range files {
			jobs <- job{index: i, src: src}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	result := &Result{}
	completed := 0
	for o := range outcomes {
		completed++
		if o.err != nil {
			metrics.IngestFilesTotal.WithLabelValues("error").Inc()
			logging.Warn("Failed to process %s: %v", files[o.index].Name, o.err)
			result.Errors = append(result.Errors, &FileError{Index: o.index, File: files[o.index].Name, Err: o.err})
		} else {
			metrics.IngestFilesTotal.WithLabelValues("success").Inc()
			result.Results = append(result.Results, *o.processed)
		}
		if progress != nil {
			progress(newProgress(completed, len(files)))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].Index < result.Results[j].Index })
	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Index < result.Errors[j].Index })

	duration := time.Since(startTime)
	metrics.IngestBatchDuration.Observe(duration.Seconds())
	logging.Info("Batch complete: %d processed, %d failed in %v",
		len(result.Results), len(result.Errors), duration)

	return result, nil
}

func (p *Pipeline) processOne(ctx context.Context, src media.Source, opts media.Options) (*Processed, error) {
	out, err := p.transcoder.Process(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	return &Processed{
		FileName:     media.NewFileName(),
		OriginalName: src.Name,
		FileSize:     int64(len(out.Compressed.Data)),
		MimeType:     out.Compressed.MimeType,
		Compressed:   out.Compressed.DataURL(),
		Thumbnail:    out.Thumbnail.DataURL(),
		Width:        out.Width,
		Height:       out.Height,
		AspectRatio:  out.AspectRatio,
	}, nil
}
