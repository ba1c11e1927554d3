package candidates

import (
	"context"
	"log/slog"
	"sync"

	"pulsefeed/internal/config"
	"pulsefeed/internal/model"
)

// Gatherer fans out over the candidate pools and joins their output.
type Gatherer struct {
	Source Source
	Sizes  config.PoolSizes
	Cold   config.ColdStartSizes
}

// GatherRequest selects the pool set and sizes for one run.
type GatherRequest struct {
	UserID    string
	Interests []string
	PostType  string
	ColdStart bool
}

type sizedPool struct {
	pool  Pool
	limit int
}

func (g *Gatherer) pools(coldStart bool) []sizedPool {
	set := []sizedPool{
		{&InterestPool{Source: g.Source}, g.Sizes.Interest},
		{&TrendingPool{Source: g.Source}, g.Sizes.Trending},
		{&FreshPool{Source: g.Source}, g.Sizes.Fresh},
		{&ViralPool{Source: g.Source}, g.Sizes.Viral},
		{&ExplorationPool{Source: g.Source}, g.Sizes.Exploration},
	}
	if coldStart {
		// No followed pool; enlarge the discovery-heavy pools instead.
		set[0].limit = g.Cold.Interest
		set[1].limit = g.Cold.Trending
		set[4].limit = g.Cold.Exploration
		return set
	}
	return append([]sizedPool{{&FollowedPool{Source: g.Source}, g.Sizes.Followed}}, set...)
}

// Gather queries all pools concurrently and returns their union in pool
// order. Each pool writes only its own slot; a failing pool contributes
// an empty list.
func (g *Gatherer) Gather(ctx context.Context, req GatherRequest) []model.Post {
	set := g.pools(req.ColdStart)
	results := make([][]model.Post, len(set))

	var wg sync.WaitGroup
	for i, sp := range set {
		wg.Add(1)
		go func(i int, sp sizedPool) {
			defer wg.Done()
			posts, err := sp.pool.Fetch(ctx, Request{
				UserID:    req.UserID,
				Interests: req.Interests,
				PostType:  req.PostType,
				Limit:     sp.limit,
			})
			if err != nil {
				slog.Error("candidates: pool degraded", "pool", sp.pool.Name(), "error", err)
				return
			}
			results[i] = posts
		}(i, sp)
	}
	wg.Wait()

	var union []model.Post
	for _, posts := range results {
		union = append(union, posts...)
	}
	return union
}
