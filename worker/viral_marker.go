package worker

import (
	"context"
	"log/slog"
	"time"
)

// ViralStore flags high-spread posts in the document store.
type ViralStore interface {
	MarkViralSince(ctx context.Context, since time.Time, threshold float64) (int64, error)
}

// ViralMarker periodically scans the trailing day of posts and flags
// those whose engagement crossed the viral threshold, feeding the viral
// candidate pool.
type ViralMarker struct {
	Store     ViralStore
	Threshold float64
	Interval  time.Duration
	Window    time.Duration
}

func (w *ViralMarker) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 10 * time.Minute
	}
	if w.Window <= 0 {
		w.Window = 24 * time.Hour
	}

	// initial run
	w.runOnce(ctx)

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ViralMarker) runOnce(ctx context.Context) {
	since := time.Now().Add(-w.Window)
	n, err := w.Store.MarkViralSince(ctx, since, w.Threshold)
	if err != nil {
		slog.Error("viral-marker: scan error", "error", err)
		return
	}
	if n > 0 {
		slog.Info("viral-marker: flagged posts", "count", n, "threshold", w.Threshold)
	}
}
