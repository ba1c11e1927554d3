// Package carousel conditionally inserts one non-post discovery module
// into the assembled feed.
package carousel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pulsefeed/internal/config"
	"pulsefeed/internal/model"
)

// ContentSource provides the records carousel generators draw from.
type ContentSource interface {
	TopCreators(ctx context.Context, limit int) ([]model.Profile, error)
}

// CooldownLog remembers which carousel types a caller saw recently.
type CooldownLog interface {
	HasSeenCarousel(ctx context.Context, userID, carouselType string) (bool, error)
	MarkCarouselSeen(ctx context.Context, userID, carouselType string, d time.Duration) error
}

// Injector decides whether, where, and which carousel to splice in.
type Injector struct {
	Source    ContentSource
	Cooldowns CooldownLog
	Rules     config.CarouselRules
}

// SelectType picks the carousel type for this session; first matching
// rule wins.
func SelectType(sctx model.SessionContext) string {
	switch {
	case sctx.FollowCount < 10:
		return model.CarouselSuggestedCommunities
	case sctx.ConsecutiveLikes >= 3:
		return model.CarouselSimilarPosts
	default:
		return model.CarouselTrendingCreators
	}
}

// Inject returns the feed with at most one carousel spliced in at the
// configured index. Any failure leaves the feed unchanged; a cooldown
// hit skips injection with no substitute type.
func (inj *Injector) Inject(ctx context.Context, userID string, feed []model.FeedItem, sctx model.SessionContext) []model.FeedItem {
	if sctx.EngagementStreak {
		return feed
	}
	if len(feed) < inj.Rules.InjectionIndex {
		return feed
	}

	carouselType := SelectType(sctx)

	seen, err := inj.Cooldowns.HasSeenCarousel(ctx, userID, carouselType)
	if err != nil {
		slog.Error("carousel: cooldown check degraded", "type", carouselType, "error", err)
		seen = false
	}
	if seen {
		return feed
	}

	c := inj.generate(ctx, carouselType)
	if len(c.Items) == 0 {
		return feed
	}

	idx := inj.Rules.InjectionIndex
	result := make([]model.FeedItem, 0, len(feed)+1)
	result = append(result, feed[:idx]...)
	result = append(result, model.CarouselOf(c))
	result = append(result, feed[idx:]...)

	cooldown := time.Duration(inj.Rules.CooldownHours) * time.Hour
	if err := inj.Cooldowns.MarkCarouselSeen(ctx, userID, carouselType, cooldown); err != nil {
		slog.Error("carousel: cooldown write failed", "type", carouselType, "error", err)
	}
	return result
}

// generate builds type-specific content. A generator may legitimately
// produce zero items, in which case the caller skips injection.
func (inj *Injector) generate(ctx context.Context, carouselType string) model.Carousel {
	switch carouselType {
	case model.CarouselTrendingCreators:
		creators, err := inj.Source.TopCreators(ctx, 10)
		if err != nil {
			slog.Error("carousel: generation degraded", "type", carouselType, "error", err)
			return model.Carousel{Type: carouselType, Title: "Trending Creators"}
		}
		items := make([]model.CarouselItem, 0, len(creators))
		for _, c := range creators {
			items = append(items, model.CarouselItem{
				ID:       c.UserID,
				Title:    c.Username,
				ImageURL: c.ImageURL,
				Subtitle: fmt.Sprintf("%d followers", c.FollowerCount),
			})
		}
		return model.Carousel{Type: carouselType, Title: "Trending Creators", Items: items}

	case model.CarouselSuggestedCommunities:
		// TODO: populate once the communities collection ships.
		return model.Carousel{Type: carouselType, Title: "Communities You Might Like"}

	case model.CarouselSimilarPosts:
		// TODO: populate from tag-similarity once post embeddings land.
		return model.Carousel{Type: carouselType, Title: "More Like This"}

	default:
		return model.Carousel{Type: model.CarouselDiscover, Title: "Discover"}
	}
}
