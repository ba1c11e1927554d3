package ranking

import "pulsefeed/internal/model"

// BuildCreatorCounts snapshots author frequency across the candidate
// union, before ranking.
func BuildCreatorCounts(posts []model.Post) map[string]int {
	counts := make(map[string]int)
	for _, p := range posts {
		counts[p.AuthorID]++
	}
	return counts
}

// EnforceDiversity drops posts in a single left-to-right pass so that no
// author repeats consecutively and no author exceeds maxRepeat kept
// posts. Surviving order is preserved.
func EnforceDiversity(posts []model.Post, maxRepeat int) []model.Post {
	kept := make([]model.Post, 0, len(posts))
	counts := make(map[string]int)
	lastAuthor := ""

	for _, p := range posts {
		if p.AuthorID == lastAuthor {
			continue
		}
		if counts[p.AuthorID] >= maxRepeat {
			continue
		}
		kept = append(kept, p)
		counts[p.AuthorID]++
		lastAuthor = p.AuthorID
	}
	return kept
}
