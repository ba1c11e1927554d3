// Package feed assembles the final paginated feed: deduplication,
// diversity enforcement, ad and carousel injection, and the final cap.
package feed

import (
	"context"

	"pulsefeed/internal/ads"
	"pulsefeed/internal/carousel"
	"pulsefeed/internal/model"
	"pulsefeed/internal/ranking"
)

// Mixer composes the assembly stages in fixed order.
type Mixer struct {
	Ads              *ads.Injector
	Carousel         *carousel.Injector
	MaxCreatorRepeat int
	MaxLimit         int
}

func postItems(posts []model.Post) []model.FeedItem {
	items := make([]model.FeedItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, model.PostItem(p))
	}
	return items
}

// Mix runs dedup, diversity, ad injection, carousel injection, and the
// hard cap over the ranked organic posts.
func (m *Mixer) Mix(ctx context.Context, userID string, ranked []model.Post, auctionAds []model.Ad, sctx model.SessionContext, excluded map[string]bool) []model.FeedItem {
	unique := Filter(postItems(ranked), excluded)

	posts := make([]model.Post, 0, len(unique))
	for _, it := range unique {
		posts = append(posts, *it.Post)
	}
	diverse := ranking.EnforceDiversity(posts, m.MaxCreatorRepeat)

	items := m.Ads.Inject(postItems(diverse), auctionAds, sctx)
	items = m.Carousel.Inject(ctx, userID, items, sctx)

	if len(items) > m.MaxLimit {
		items = items[:m.MaxLimit]
	}
	return items
}

// Page is one paginated slice of the assembled feed.
type Page struct {
	Items   []model.FeedItem `json:"items"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
	Total   int              `json:"total"`
	HasMore bool             `json:"hasMore"`
}

// Paginate slices the assembled feed. Offset and limit are clamped
// upstream before reaching this stage.
func Paginate(items []model.FeedItem, offset, limit int) Page {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	page := items[start:end]
	out := make([]model.FeedItem, len(page))
	copy(out, page)

	return Page{
		Items:   out,
		Offset:  offset,
		Limit:   limit,
		Total:   len(items),
		HasMore: offset+limit < len(items),
	}
}
