package ads

import (
	"context"
	"errors"
	"testing"

	"pulsefeed/internal/model"
)

type fakeInventory struct {
	ads []model.Ad
	err error
}

func (f *fakeInventory) ActiveAds(_ context.Context, _ int) ([]model.Ad, error) {
	return f.ads, f.err
}

func TestAuctionRanksByECPM(t *testing.T) {
	inv := &fakeInventory{ads: []model.Ad{
		{ID: "cheap", BidCPM: 1.0, ClickProbability: 0.1},
		{ID: "rich", BidCPM: 10.0, ClickProbability: 0.5},
		{ID: "mid", BidCPM: 4.0, ClickProbability: 0.5},
	}}
	a := &Auction{Inventory: inv, PoolSize: 20, Limit: 5}

	got := a.Run(context.Background(), nil)
	want := []string{"rich", "mid", "cheap"}
	if len(got) != len(want) {
		t.Fatalf("got %d ads, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
	if got[0].ECPM != 5.0 {
		t.Errorf("eCPM = %v, want 5.0", got[0].ECPM)
	}
}

func TestAuctionTargeting(t *testing.T) {
	inv := &fakeInventory{ads: []model.Ad{
		{ID: "untargeted", BidCPM: 1, ClickProbability: 0.1},
		{ID: "matching", TargetTags: []string{"cooking", "travel"}, BidCPM: 1, ClickProbability: 0.2},
		{ID: "irrelevant", TargetTags: []string{"crypto"}, BidCPM: 9, ClickProbability: 0.9},
	}}
	a := &Auction{Inventory: inv, PoolSize: 20, Limit: 5}

	got := a.Run(context.Background(), []string{"travel"})
	if len(got) != 2 {
		t.Fatalf("got %d ads, want 2", len(got))
	}
	for _, ad := range got {
		if ad.ID == "irrelevant" {
			t.Error("non-matching targeted ad selected")
		}
	}
}

func TestAuctionTruncatesToLimit(t *testing.T) {
	var pool []model.Ad
	for i := 0; i < 8; i++ {
		pool = append(pool, model.Ad{ID: string(rune('a' + i)), BidCPM: float64(i), ClickProbability: 0.5})
	}
	a := &Auction{Inventory: &fakeInventory{ads: pool}, PoolSize: 20, Limit: 3}

	got := a.Run(context.Background(), nil)
	if len(got) != 3 {
		t.Fatalf("got %d ads, want 3", len(got))
	}
}

func TestAuctionDegradesOnError(t *testing.T) {
	a := &Auction{Inventory: &fakeInventory{err: errors.New("store down")}, PoolSize: 20, Limit: 5}
	if got := a.Run(context.Background(), nil); got != nil {
		t.Errorf("expected no ads on inventory failure, got %d", len(got))
	}
}
