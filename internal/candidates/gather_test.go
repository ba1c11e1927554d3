package candidates

import (
	"context"
	"testing"

	"pulsefeed/internal/config"
)

func gatherSizes() config.PoolSizes {
	return config.PoolSizes{Followed: 30, Interest: 20, Trending: 15, Fresh: 10, Viral: 10, Exploration: 5}
}

func coldSizes() config.ColdStartSizes {
	return config.ColdStartSizes{FollowThreshold: 5, Interest: 40, Trending: 30, Exploration: 10}
}

func TestGatherUnionsAllPools(t *testing.T) {
	src := newFakeSource()
	src.followed = []string{"a1"}
	src.byAuthors = somePosts(3)
	src.byTags = somePosts(2)
	src.since = somePosts(4)
	src.viral = somePosts(1)
	src.recent = somePosts(6) // trending fallback and exploration

	g := &Gatherer{Source: src, Sizes: gatherSizes(), Cold: coldSizes()}
	got := g.Gather(context.Background(), GatherRequest{UserID: "u1", Interests: []string{"travel"}})

	// 3 followed + 2 interest + 6 trending-fallback + 4 fresh + 1 viral
	// + 5 exploration (sampled from 6 recent).
	if len(got) != 21 {
		t.Errorf("union size = %d, want 21", len(got))
	}
	if src.callsTo("followed") != 1 {
		t.Errorf("followed pool queried %d times", src.callsTo("followed"))
	}
}

func TestGatherColdStartSkipsFollowedAndResizes(t *testing.T) {
	src := newFakeSource()
	g := &Gatherer{Source: src, Sizes: gatherSizes(), Cold: coldSizes()}

	g.Gather(context.Background(), GatherRequest{UserID: "u1", Interests: []string{"travel"}, ColdStart: true})

	if src.callsTo("followed") != 0 {
		t.Error("cold start still queried the followed pool")
	}
	if got := src.limitOf("byTags"); got != 40 {
		t.Errorf("interest limit = %d, want 40", got)
	}
	if got := src.limitOf("trendingIDs"); got != 30 {
		t.Errorf("trending limit = %d, want 30", got)
	}
}

func TestGatherFailingPoolIsIsolated(t *testing.T) {
	src := newFakeSource()
	src.failTags = true
	src.viral = somePosts(2)

	g := &Gatherer{Source: src, Sizes: gatherSizes(), Cold: coldSizes()}
	got := g.Gather(context.Background(), GatherRequest{UserID: "u1", Interests: []string{"travel"}})

	if len(got) != 2 {
		t.Errorf("surviving pools contributed %d posts, want 2", len(got))
	}
}
