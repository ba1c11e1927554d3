package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pulsefeed/internal/ads"
	"pulsefeed/internal/candidates"
	"pulsefeed/internal/model"
	"pulsefeed/internal/ranking"
	"pulsefeed/internal/session"
)

// ProfileSource resolves the caller's profile; failure aborts the run.
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (*model.Profile, error)
}

// SeenWriter appends shown posts to the seen log.
type SeenWriter interface {
	RecordSeen(ctx context.Context, userID string, postIDs []string, at time.Time) error
}

// Generator runs one feed-generation pipeline end to end.
type Generator struct {
	Profiles   ProfileSource
	Session    *session.Aggregator
	Candidates *candidates.Gatherer
	Ranker     *ranking.Ranker
	Auction    *ads.Auction
	Dedup      *Deduplicator
	Mixer      *Mixer
	SeenLog    SeenWriter

	ColdStartFollows int
}

// Request carries the clamped, authenticated parameters of one call.
type Request struct {
	UserID    string
	SessionID string
	Offset    int
	Limit     int
	PostType  string
}

// Generate assembles and paginates the feed for one request. Only a
// failed profile resolution is fatal; every other collaborator degrades.
func (g *Generator) Generate(ctx context.Context, req Request) (Page, model.SessionContext, error) {
	// Profile and signal reads fan out together; the session context is
	// patched with the follow count once both have joined.
	var (
		wg         sync.WaitGroup
		profile    *model.Profile
		profileErr error
		sctx       model.SessionContext
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, profileErr = g.Profiles.Profile(ctx, req.UserID)
	}()
	go func() {
		defer wg.Done()
		sctx = g.Session.Context(ctx, req.UserID, 0)
	}()
	wg.Wait()
	if profileErr != nil {
		return Page{}, model.SessionContext{}, profileErr
	}
	sctx.FollowCount = profile.FollowCount
	sctx.AdFatigue = g.Session.AdFatigue(ctx, req.UserID)

	coldStart := profile.FollowCount < g.ColdStartFollows
	union := g.Candidates.Gather(ctx, candidates.GatherRequest{
		UserID:    req.UserID,
		Interests: profile.Interests,
		PostType:  req.PostType,
		ColdStart: coldStart,
	})
	slog.Info("feed: candidates gathered",
		"user", req.UserID, "count", len(union), "coldStart", coldStart, "state", sctx.State)

	sctx.CreatorCounts = ranking.BuildCreatorCounts(union)
	ranked := g.Ranker.Rank(ctx, req.UserID, union, sctx)

	var auctionAds []model.Ad
	if !sctx.AdFatigue && sctx.AdAggression != model.AggressionNone {
		auctionAds = g.Auction.Run(ctx, profile.Interests)
	}

	excluded := g.Dedup.ExclusionSet(ctx, req.UserID)
	mixed := g.Mixer.Mix(ctx, req.UserID, ranked, auctionAds, sctx, excluded)
	page := Paginate(mixed, req.Offset, req.Limit)

	g.recordShown(ctx, req.UserID, page.Items)
	return page, sctx, nil
}

// recordShown appends the shown posts to the seen log. Best effort:
// failures are logged and never affect the response.
func (g *Generator) recordShown(ctx context.Context, userID string, items []model.FeedItem) {
	var postIDs []string
	for _, it := range items {
		if it.Kind == model.KindPost {
			postIDs = append(postIDs, it.Post.ID)
		}
	}
	if len(postIDs) == 0 {
		return
	}
	if err := g.SeenLog.RecordSeen(ctx, userID, postIDs, time.Now()); err != nil {
		slog.Error("feed: seen log write failed", "user", userID, "error", err)
	}
}
