package ingest

import "math"

// Progress is reported after each file finishes, successfully or not.
type Progress struct {
	Completed  int
	Total      int
	Percentage int
}

// ProgressFunc receives progress updates. It is called synchronously from a
// single goroutine.
type ProgressFunc func(Progress)

func newProgress(completed, total int) Progress {
	pct := 100
	if total > 0 {
		pct = int(math.Round(float64(completed) * 100 / float64(total)))
	}
	return Progress{Completed: completed, Total: total, Percentage: pct}
}

// ChannelProgress adapts a channel into a ProgressFunc for callers that
// prefer to pull updates. Sends block, so the channel must be drained or
// buffered for the size of the batch.
func ChannelProgress(ch chan<- Progress) ProgressFunc {
	return func(p Progress) {
		ch <- p
	}
}
