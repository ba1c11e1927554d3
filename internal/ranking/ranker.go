// Package ranking scores and orders the candidate union using recency,
// engagement, diversity, and affinity signals with session-adaptive
// weighting.
package ranking

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"pulsefeed/internal/config"
	"pulsefeed/internal/model"
)

// AffinitySource aggregates the caller's interactions with one author.
type AffinitySource interface {
	AffinityCounts(ctx context.Context, userID, authorID string, since time.Time) (likes, comments, shares int, err error)
}

// Ranker scores and sorts candidate posts.
type Ranker struct {
	Affinity AffinitySource
	Weights  config.RankingWeights
}

// RecencyScore decays hyperbolically with age: 1.0 now, 0.5 at one
// hour, 0.25 at three hours.
func RecencyScore(createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return 1 / (1 + ageHours)
}

// EngagementSignal compresses the raw engagement score logarithmically.
func EngagementSignal(engagementScore float64) float64 {
	return math.Log(1 + engagementScore)
}

// DiversityScore penalizes authors already frequent in the candidate
// union. Uses the pre-ranking snapshot, not running counts.
func DiversityScore(authorID string, creatorCounts map[string]int) float64 {
	return 1 / (1 + float64(creatorCounts[authorID]))
}

// overrideRule is one partial overlay on the base weights. Rules apply
// in declaration order so precedence stays explicit: when both flags are
// set the later rule wins on the fields it touches.
type overrideRule struct {
	applies func(model.SessionContext) bool
	apply   func(w *config.RankingWeights)
}

var overrides = []overrideRule{
	{
		applies: func(s model.SessionContext) bool { return s.IsRapidScrolling },
		apply: func(w *config.RankingWeights) {
			w.Recency = 0.35
			w.Engagement = 0.25
		},
	},
	{
		applies: func(s model.SessionContext) bool { return s.IsEngaged },
		apply: func(w *config.RankingWeights) {
			w.Engagement = 0.40
			w.Recency = 0.20
		},
	},
}

func (r *Ranker) weightsFor(sctx model.SessionContext) config.RankingWeights {
	w := r.Weights
	for _, rule := range overrides {
		if rule.applies(sctx) {
			rule.apply(&w)
		}
	}
	return w
}

// Score computes the final ranking score for one post with an already
// resolved affinity value.
func (r *Ranker) Score(post model.Post, sctx model.SessionContext, affinity float64, now time.Time) float64 {
	w := r.weightsFor(sctx)

	sessionBoost := 0.0
	if sctx.IsPatient {
		sessionBoost += 0.1
	}
	if sctx.JustSawAd {
		sessionBoost += 0.15
	}

	return RecencyScore(post.CreatedAt, now)*w.Recency +
		EngagementSignal(post.EngagementScore)*w.Engagement +
		DiversityScore(post.AuthorID, sctx.CreatorCounts)*w.Diversity +
		affinity*w.Affinity +
		sessionBoost*w.Session
}

// Rank scores all candidates and returns them sorted descending; ties
// keep input order. Affinity lookups fan out per author and degrade to
// zero on failure.
func (r *Ranker) Rank(ctx context.Context, userID string, posts []model.Post, sctx model.SessionContext) []model.Post {
	affinities := r.affinityByAuthor(ctx, userID, posts)
	now := time.Now()

	ranked := make([]model.Post, len(posts))
	copy(ranked, posts)
	for i := range ranked {
		ranked[i].RankingScore = r.Score(ranked[i], sctx, affinities[ranked[i].AuthorID], now)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RankingScore > ranked[j].RankingScore
	})
	return ranked
}

// affinityByAuthor resolves the weighted interaction score for each
// distinct author in the candidate set, concurrently.
func (r *Ranker) affinityByAuthor(ctx context.Context, userID string, posts []model.Post) map[string]float64 {
	authors := make([]string, 0)
	seen := make(map[string]bool)
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			authors = append(authors, p.AuthorID)
		}
	}

	since := time.Now().Add(-7 * 24 * time.Hour)
	scores := make([]float64, len(authors))
	var wg sync.WaitGroup
	for i, author := range authors {
		wg.Add(1)
		go func(i int, author string) {
			defer wg.Done()
			likes, comments, shares, err := r.Affinity.AffinityCounts(ctx, userID, author, since)
			if err != nil {
				slog.Error("ranking: affinity lookup degraded", "author", author, "error", err)
				return
			}
			scores[i] = float64(likes) + 3*float64(comments) + 5*float64(shares)
		}(i, author)
	}
	wg.Wait()

	out := make(map[string]float64, len(authors))
	for i, author := range authors {
		out[author] = scores[i]
	}
	return out
}
