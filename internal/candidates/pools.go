// Package candidates fetches unranked posts from six independent pools.
// Pools are polymorphic over one Source capability; a failing pool
// degrades to an empty list and never aborts the run.
package candidates

import (
	"context"
	"math/rand"
	"time"

	"pulsefeed/internal/model"
)

// Source is the document-store capability every pool queries.
type Source interface {
	FollowedIDs(ctx context.Context, userID string, limit int) ([]string, error)
	PostsByAuthors(ctx context.Context, authorIDs []string, postType string, limit int) ([]model.Post, error)
	PostsByTags(ctx context.Context, tags []string, postType string, limit int) ([]model.Post, error)
	PostsSince(ctx context.Context, since time.Time, postType string, limit int) ([]model.Post, error)
	RecentPosts(ctx context.Context, postType string, limit int) ([]model.Post, error)
	ViralPosts(ctx context.Context, postType string, limit int) ([]model.Post, error)
	TrendingPostIDs(ctx context.Context, since time.Time, limit int) ([]string, error)
	PostsByIDs(ctx context.Context, ids []string, postType string) ([]model.Post, error)
}

// Request carries the per-run parameters shared by all pools.
type Request struct {
	UserID    string
	Interests []string
	PostType  string
	Limit     int
}

// Pool is one named source of unranked posts.
type Pool interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]model.Post, error)
}

func tagPool(posts []model.Post, name string) []model.Post {
	for i := range posts {
		posts[i].SourcePool = name
	}
	return posts
}

// FollowedPool returns recent posts from followed creators. A caller
// following nobody gets an empty list, not an error.
type FollowedPool struct {
	Source Source
}

func (p *FollowedPool) Name() string { return model.PoolFollowed }

func (p *FollowedPool) Fetch(ctx context.Context, req Request) ([]model.Post, error) {
	ids, err := p.Source.FollowedIDs(ctx, req.UserID, 1000)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	posts, err := p.Source.PostsByAuthors(ctx, ids, req.PostType, req.Limit)
	if err != nil {
		return nil, err
	}
	return tagPool(posts, p.Name()), nil
}

// InterestPool matches posts against the caller's interest tags.
type InterestPool struct {
	Source Source
}

func (p *InterestPool) Name() string { return model.PoolInterest }

func (p *InterestPool) Fetch(ctx context.Context, req Request) ([]model.Post, error) {
	if len(req.Interests) == 0 {
		return nil, nil
	}
	posts, err := p.Source.PostsByTags(ctx, req.Interests, req.PostType, req.Limit)
	if err != nil {
		return nil, err
	}
	return tagPool(posts, p.Name()), nil
}

// TrendingPool ranks posts by like volume over the trailing day,
// falling back to plain recency when the window is empty.
type TrendingPool struct {
	Source Source
}

func (p *TrendingPool) Name() string { return model.PoolTrending }

func (p *TrendingPool) Fetch(ctx context.Context, req Request) ([]model.Post, error) {
	since := time.Now().Add(-24 * time.Hour)
	ids, err := p.Source.TrendingPostIDs(ctx, since, req.Limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		posts, err := p.Source.RecentPosts(ctx, req.PostType, req.Limit)
		if err != nil {
			return nil, err
		}
		return tagPool(posts, p.Name()), nil
	}

	posts, err := p.Source.PostsByIDs(ctx, ids, req.PostType)
	if err != nil {
		return nil, err
	}
	// Restore aggregation order; the store does not preserve it.
	byID := make(map[string]model.Post, len(posts))
	for _, post := range posts {
		byID[post.ID] = post
	}
	out := make([]model.Post, 0, len(posts))
	for _, id := range ids {
		if post, ok := byID[id]; ok {
			out = append(out, post)
		}
	}
	return tagPool(out, p.Name()), nil
}

// FreshPool restricts to the trailing day, over-fetching to leave room
// for creator-level filtering downstream.
type FreshPool struct {
	Source Source
}

func (p *FreshPool) Name() string { return model.PoolFresh }

func (p *FreshPool) Fetch(ctx context.Context, req Request) ([]model.Post, error) {
	since := time.Now().Add(-24 * time.Hour)
	posts, err := p.Source.PostsSince(ctx, since, req.PostType, req.Limit*2)
	if err != nil {
		return nil, err
	}
	if len(posts) > req.Limit {
		posts = posts[:req.Limit]
	}
	return tagPool(posts, p.Name()), nil
}

// ViralPool returns flagged high-spread posts, recency as the tiebreak.
type ViralPool struct {
	Source Source
}

func (p *ViralPool) Name() string { return model.PoolViral }

func (p *ViralPool) Fetch(ctx context.Context, req Request) ([]model.Post, error) {
	posts, err := p.Source.ViralPosts(ctx, req.PostType, req.Limit)
	if err != nil {
		return nil, err
	}
	return tagPool(posts, p.Name()), nil
}

// ExplorationPool draws a uniform random subset from a larger recent
// pool, for serendipity.
type ExplorationPool struct {
	Source     Source
	Oversample int // size of the recent pool sampled from
}

func (p *ExplorationPool) Name() string { return model.PoolExploration }

func (p *ExplorationPool) Fetch(ctx context.Context, req Request) ([]model.Post, error) {
	oversample := p.Oversample
	if oversample <= 0 {
		oversample = 100
	}
	posts, err := p.Source.RecentPosts(ctx, req.PostType, oversample)
	if err != nil {
		return nil, err
	}
	return tagPool(SampleWithoutReplacement(posts, req.Limit), p.Name()), nil
}

// SampleWithoutReplacement returns up to n posts drawn uniformly without
// replacement. The input slice is not modified.
func SampleWithoutReplacement(posts []model.Post, n int) []model.Post {
	if n >= len(posts) {
		out := make([]model.Post, len(posts))
		copy(out, posts)
		return out
	}
	out := make([]model.Post, 0, n)
	for _, i := range rand.Perm(len(posts))[:n] {
		out = append(out, posts[i])
	}
	return out
}
