// Package ads selects monetization candidates by expected value and
// splices them into the organic stream under spacing constraints.
package ads

import (
	"context"
	"log/slog"
	"sort"

	"pulsefeed/internal/model"
)

// Inventory reads active ads with remaining budget.
type Inventory interface {
	ActiveAds(ctx context.Context, limit int) ([]model.Ad, error)
}

// Auction ranks matching ads by eCPM.
type Auction struct {
	Inventory Inventory
	PoolSize  int // over-fetch size
	Limit     int // ads returned
}

// Run filters the inventory against the caller's interests and returns
// the top ads by eCPM. An ad with no target tags matches everyone. Any
// failure degrades to no ads.
func (a *Auction) Run(ctx context.Context, interests []string) []model.Ad {
	pool, err := a.Inventory.ActiveAds(ctx, a.PoolSize)
	if err != nil {
		slog.Error("ads: auction degraded", "error", err)
		return nil
	}

	interested := make(map[string]bool, len(interests))
	for _, tag := range interests {
		interested[tag] = true
	}

	matched := make([]model.Ad, 0, len(pool))
	for _, ad := range pool {
		if !matches(ad, interested) {
			continue
		}
		ad.ECPM = ad.BidCPM * ad.ClickProbability
		matched = append(matched, ad)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ECPM > matched[j].ECPM
	})
	if len(matched) > a.Limit {
		matched = matched[:a.Limit]
	}
	return matched
}

func matches(ad model.Ad, interested map[string]bool) bool {
	if len(ad.TargetTags) == 0 {
		return true // untargeted
	}
	for _, tag := range ad.TargetTags {
		if interested[tag] {
			return true
		}
	}
	return false
}
