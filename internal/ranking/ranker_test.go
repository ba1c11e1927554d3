package ranking

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"pulsefeed/internal/config"
	"pulsefeed/internal/model"
)

func baseWeights() config.RankingWeights {
	return config.RankingWeights{Recency: 0.25, Engagement: 0.30, Diversity: 0.15, Affinity: 0.20, Session: 0.10}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecencyScore(t *testing.T) {
	now := time.Now()
	cases := []struct {
		age  time.Duration
		want float64
	}{
		{0, 1.0},
		{time.Hour, 0.5},
		{3 * time.Hour, 0.25},
	}
	for _, c := range cases {
		got := RecencyScore(now.Add(-c.age), now)
		if !almostEqual(got, c.want) {
			t.Errorf("RecencyScore(age=%v) = %v, want %v", c.age, got, c.want)
		}
	}
}

func TestRecencyScoreFutureClamped(t *testing.T) {
	now := time.Now()
	if got := RecencyScore(now.Add(time.Hour), now); !almostEqual(got, 1.0) {
		t.Errorf("future post recency = %v, want 1.0", got)
	}
}

func TestWeightOverrides(t *testing.T) {
	r := &Ranker{Weights: baseWeights()}

	cases := []struct {
		name           string
		sctx           model.SessionContext
		wantRecency    float64
		wantEngagement float64
	}{
		{"base", model.SessionContext{}, 0.25, 0.30},
		{"rapid scrolling", model.SessionContext{IsRapidScrolling: true}, 0.35, 0.25},
		{"engaged", model.SessionContext{IsEngaged: true}, 0.20, 0.40},
		// Both flags set: the engaged rule applies second and wins.
		{"rapid and engaged", model.SessionContext{IsRapidScrolling: true, IsEngaged: true}, 0.20, 0.40},
	}
	for _, c := range cases {
		w := r.weightsFor(c.sctx)
		if !almostEqual(w.Recency, c.wantRecency) || !almostEqual(w.Engagement, c.wantEngagement) {
			t.Errorf("%s: weights recency=%v engagement=%v, want %v/%v",
				c.name, w.Recency, w.Engagement, c.wantRecency, c.wantEngagement)
		}
		if !almostEqual(w.Diversity, 0.15) || !almostEqual(w.Affinity, 0.20) || !almostEqual(w.Session, 0.10) {
			t.Errorf("%s: untouched weights changed: %+v", c.name, w)
		}
	}
}

func TestSessionBoostAdditive(t *testing.T) {
	r := &Ranker{Weights: baseWeights()}
	now := time.Now()
	post := model.Post{ID: "p1", AuthorID: "a1", CreatedAt: now}
	counts := map[string]int{"a1": 1}

	plain := r.Score(post, model.SessionContext{CreatorCounts: counts}, 0, now)
	patient := r.Score(post, model.SessionContext{CreatorCounts: counts, IsPatient: true}, 0, now)
	both := r.Score(post, model.SessionContext{CreatorCounts: counts, IsPatient: true, JustSawAd: true}, 0, now)

	if !almostEqual(patient-plain, 0.1*0.10) {
		t.Errorf("patient boost = %v, want %v", patient-plain, 0.1*0.10)
	}
	if !almostEqual(both-plain, (0.1+0.15)*0.10) {
		t.Errorf("combined boost = %v, want %v", both-plain, (0.1+0.15)*0.10)
	}
}

type fakeAffinity struct {
	likes    map[string]int
	comments map[string]int
	shares   map[string]int
	failFor  string
}

func (f *fakeAffinity) AffinityCounts(_ context.Context, _, authorID string, _ time.Time) (int, int, int, error) {
	if authorID == f.failFor {
		return 0, 0, 0, errors.New("lookup failed")
	}
	return f.likes[authorID], f.comments[authorID], f.shares[authorID], nil
}

func TestRankOrdersByAffinity(t *testing.T) {
	now := time.Now()
	posts := []model.Post{
		{ID: "p1", AuthorID: "cold", CreatedAt: now},
		{ID: "p2", AuthorID: "favorite", CreatedAt: now},
	}
	r := &Ranker{
		Weights:  baseWeights(),
		Affinity: &fakeAffinity{likes: map[string]int{"favorite": 4}, comments: map[string]int{"favorite": 2}},
	}
	sctx := model.SessionContext{CreatorCounts: BuildCreatorCounts(posts)}

	ranked := r.Rank(context.Background(), "u1", posts, sctx)
	if ranked[0].ID != "p2" {
		t.Fatalf("expected favorite author first, got %s", ranked[0].ID)
	}
	if ranked[0].RankingScore <= ranked[1].RankingScore {
		t.Errorf("scores not descending: %v then %v", ranked[0].RankingScore, ranked[1].RankingScore)
	}
}

func TestRankAffinityFailureDegradesToZero(t *testing.T) {
	now := time.Now()
	posts := []model.Post{
		{ID: "p1", AuthorID: "broken", CreatedAt: now},
		{ID: "p2", AuthorID: "fine", CreatedAt: now},
	}
	r := &Ranker{
		Weights:  baseWeights(),
		Affinity: &fakeAffinity{likes: map[string]int{"fine": 1}, failFor: "broken"},
	}
	sctx := model.SessionContext{CreatorCounts: BuildCreatorCounts(posts)}

	ranked := r.Rank(context.Background(), "u1", posts, sctx)
	if len(ranked) != 2 {
		t.Fatalf("expected both posts ranked, got %d", len(ranked))
	}
	if ranked[0].ID != "p2" {
		t.Errorf("expected post with working affinity first, got %s", ranked[0].ID)
	}
}

func TestRankStableOnTies(t *testing.T) {
	now := time.Now()
	posts := []model.Post{
		{ID: "first", AuthorID: "a", CreatedAt: now},
		{ID: "second", AuthorID: "b", CreatedAt: now},
	}
	r := &Ranker{Weights: baseWeights(), Affinity: &fakeAffinity{}}
	sctx := model.SessionContext{CreatorCounts: BuildCreatorCounts(posts)}

	ranked := r.Rank(context.Background(), "u1", posts, sctx)
	if ranked[0].ID != "first" || ranked[1].ID != "second" {
		t.Errorf("tie did not preserve input order: %s, %s", ranked[0].ID, ranked[1].ID)
	}
}
