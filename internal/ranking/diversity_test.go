package ranking

import (
	"fmt"
	"testing"

	"pulsefeed/internal/model"
)

func postsBy(authors ...string) []model.Post {
	out := make([]model.Post, len(authors))
	for i, a := range authors {
		out[i] = model.Post{ID: fmt.Sprintf("p%d", i), AuthorID: a}
	}
	return out
}

func assertDiverse(t *testing.T, posts []model.Post, maxRepeat int) {
	t.Helper()
	counts := map[string]int{}
	for i, p := range posts {
		if i > 0 && posts[i-1].AuthorID == p.AuthorID {
			t.Errorf("adjacent repeat of author %s at index %d", p.AuthorID, i)
		}
		counts[p.AuthorID]++
	}
	for a, n := range counts {
		if n > maxRepeat {
			t.Errorf("author %s kept %d times, ceiling %d", a, n, maxRepeat)
		}
	}
}

func TestEnforceDiversitySingleAuthor(t *testing.T) {
	// 30 posts from one author: everything after the first is adjacent
	// to a kept post from the same author.
	in := make([]model.Post, 0, 30)
	for i := 0; i < 30; i++ {
		in = append(in, model.Post{ID: fmt.Sprintf("p%d", i), AuthorID: "solo"})
	}
	out := EnforceDiversity(in, 5)
	assertDiverse(t, out, 5)
	if len(out) != 1 {
		t.Errorf("expected 1 surviving post, got %d", len(out))
	}
}

func TestEnforceDiversityAlternatingAuthorsHitsCeiling(t *testing.T) {
	in := postsBy("a", "b", "a", "b", "a", "b", "a", "b", "a", "b", "a", "b", "a", "b")
	out := EnforceDiversity(in, 5)
	assertDiverse(t, out, 5)
	if len(out) != 10 {
		t.Errorf("expected 10 kept posts (5 per author), got %d", len(out))
	}
}

func TestEnforceDiversityPreservesOrder(t *testing.T) {
	in := postsBy("a", "a", "b", "c", "b")
	out := EnforceDiversity(in, 5)
	want := []string{"p0", "p2", "p3", "p4"}
	if len(out) != len(want) {
		t.Fatalf("got %d posts, want %d", len(out), len(want))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, out[i].ID, id)
		}
	}
}

func TestEnforceDiversityEmpty(t *testing.T) {
	if out := EnforceDiversity(nil, 5); len(out) != 0 {
		t.Errorf("expected empty output, got %d", len(out))
	}
}

func TestBuildCreatorCounts(t *testing.T) {
	counts := BuildCreatorCounts(postsBy("a", "b", "a", "a"))
	if counts["a"] != 3 || counts["b"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
