package feed

import (
	"context"
	"log/slog"
	"time"

	"pulsefeed/internal/model"
)

// SeenSource reads the append-only shown-post log.
type SeenSource interface {
	SeenPostIDs(ctx context.Context, userID string, since time.Time, limit int) ([]string, error)
}

// SkipSource reads quick-skip signals from the interaction log.
type SkipSource interface {
	QuickSkippedPostIDs(ctx context.Context, userID string, since time.Time, dwellBelowMS, limit int) ([]string, error)
}

// Deduplicator removes posts the caller already saw or quickly skipped.
type Deduplicator struct {
	Seen        SeenSource
	Skips       SkipSource
	SkipDwellMS int
}

// ExclusionSet unions post IDs shown within the trailing day with posts
// quick-skipped within the trailing week. Either read failing degrades
// to its half being empty.
func (d *Deduplicator) ExclusionSet(ctx context.Context, userID string) map[string]bool {
	excluded := make(map[string]bool)
	now := time.Now()

	seen, err := d.Seen.SeenPostIDs(ctx, userID, now.Add(-24*time.Hour), 500)
	if err != nil {
		slog.Error("dedup: seen log read degraded", "user", userID, "error", err)
	}
	for _, id := range seen {
		excluded[id] = true
	}

	skipped, err := d.Skips.QuickSkippedPostIDs(ctx, userID, now.Add(-7*24*time.Hour), d.SkipDwellMS, 200)
	if err != nil {
		slog.Error("dedup: skip log read degraded", "user", userID, "error", err)
	}
	for _, id := range skipped {
		excluded[id] = true
	}
	return excluded
}

// Filter drops posts whose ID is excluded. Ads and carousels always
// pass through; applying the same set twice is a no-op.
func Filter(items []model.FeedItem, excluded map[string]bool) []model.FeedItem {
	out := make([]model.FeedItem, 0, len(items))
	for _, it := range items {
		if it.Kind == model.KindPost && excluded[it.Post.ID] {
			continue
		}
		out = append(out, it)
	}
	return out
}
