package ads

import (
	"pulsefeed/internal/config"
	"pulsefeed/internal/model"
)

// Injector splices auction winners into the organic stream at positions
// satisfying all spacing constraints.
type Injector struct {
	Rules config.AdRules
}

// sessionCapWindow is the prefix of the feed within which the session
// cap applies.
const sessionCapWindow = 20

// FindOpportunities scans the organic list left to right and returns
// every index where an ad may be inserted. Each accepted opportunity
// counts as a placed ad for the remainder of the scan.
func (inj *Injector) FindOpportunities(organic []model.FeedItem, sctx model.SessionContext) []int {
	var opportunities []int
	lastAdIndex := -100 // far enough back that position 0 is unconstrained
	adCount := 0

	for i := range organic {
		sinceLastAd := i - lastAdIndex

		meetsFrequency := sinceLastAd >= inj.Rules.FrequencyCap
		meetsCooldown := sinceLastAd >= inj.Rules.Cooldown
		notFatigued := !sctx.AdFatigue
		notInStreak := !sctx.EngagementStreak
		pastWarmup := i >= inj.Rules.WarmupLength
		underSessionCap := i >= sessionCapWindow || adCount < inj.Rules.SessionCap

		if meetsFrequency && meetsCooldown && notFatigued && notInStreak && pastWarmup && underSessionCap {
			opportunities = append(opportunities, i)
			lastAdIndex = i
			adCount++
		}
	}
	return opportunities
}

// Inject splices ads (already ordered by eCPM) into the organic list,
// consuming opportunities and ads until either runs out. Insertions run
// from the last opportunity backward so earlier indices do not drift.
func (inj *Injector) Inject(organic []model.FeedItem, auctionAds []model.Ad, sctx model.SessionContext) []model.FeedItem {
	if len(auctionAds) == 0 {
		return organic
	}

	opportunities := inj.FindOpportunities(organic, sctx)

	result := make([]model.FeedItem, len(organic))
	copy(result, organic)

	adIndex := 0
	for i := len(opportunities) - 1; i >= 0 && adIndex < len(auctionAds); i-- {
		pos := opportunities[i]
		item := model.AdItem(auctionAds[adIndex])
		result = append(result[:pos], append([]model.FeedItem{item}, result[pos:]...)...)
		adIndex++
	}
	return result
}
