// Package session infers the caller's behavioral state from recent
// signals. Inference never fails a feed run: any read error degrades to
// the neutral defaults.
package session

import (
	"context"
	"log/slog"

	"pulsefeed/internal/config"
	"pulsefeed/internal/model"
)

// SignalSource reads the caller's recent behavioral events.
type SignalSource interface {
	RecentSignals(ctx context.Context, userID string, limit int) ([]model.UserSignal, error)
	RecentSkips(ctx context.Context, userID string, limit int) ([]model.UserSignal, error)
}

// Aggregator builds a SessionContext per request.
type Aggregator struct {
	Signals    SignalSource
	Thresholds config.EngagementThresholds
	FatigueAt  int // quick-skip streak that triggers ad fatigue
}

// Patience is the classification produced by InferPatience.
type Patience struct {
	State            string
	AdAggression     string
	IsPatient        bool
	IsRapidScrolling bool
	IsEngaged        bool
	EngagementStreak bool
}

func neutralPatience() Patience {
	return Patience{State: model.StateNeutral, AdAggression: model.AggressionMedium, IsPatient: true}
}

// InferPatience classifies the caller's state from signals ordered
// most-recent-first. Engaged wins over impatient; anything else is
// neutral. Scroll rate is only meaningful with at least two signals.
func InferPatience(signals []model.UserSignal, th config.EngagementThresholds) Patience {
	if len(signals) == 0 {
		return neutralPatience()
	}

	var dwellSum, dwellN int
	for _, s := range signals {
		if s.DwellTimeMS > 0 {
			dwellSum += s.DwellTimeMS
			dwellN++
		}
	}
	avgDwell := 0.0
	if dwellN > 0 {
		avgDwell = float64(dwellSum) / float64(dwellN)
	}

	if len(signals) >= 2 {
		newest := signals[0].CreatedAt
		oldest := signals[len(signals)-1].CreatedAt
		span := newest.Sub(oldest).Seconds()
		scrollRate := 0.0
		if span > 0 {
			scrollRate = float64(len(signals)) / span
		}

		if avgDwell > float64(th.DwellEngagedMS) && scrollRate < 1 {
			return Patience{
				State:            model.StateEngaged,
				AdAggression:     model.AggressionMedium,
				IsPatient:        true,
				IsEngaged:        true,
				EngagementStreak: true,
			}
		}
		if avgDwell < float64(th.DwellSkipMS) || scrollRate > th.RapidScrollRate {
			return Patience{
				State:            model.StateImpatient,
				AdAggression:     model.AggressionLow,
				IsRapidScrolling: true,
			}
		}
	}

	return neutralPatience()
}

// ConsecutiveLikes counts leading like signals, newest first.
func ConsecutiveLikes(signals []model.UserSignal) int {
	n := 0
	for _, s := range signals {
		if s.SignalType != model.SignalLike {
			break
		}
		n++
	}
	return n
}

// Context builds the per-request session context. followCount comes from
// the already-resolved profile.
func (a *Aggregator) Context(ctx context.Context, userID string, followCount int) model.SessionContext {
	signals, err := a.Signals.RecentSignals(ctx, userID, a.Thresholds.SignalWindow)
	if err != nil {
		slog.Error("session: signal fetch failed, using defaults", "user", userID, "error", err)
		signals = nil
	}

	p := InferPatience(signals, a.Thresholds)
	return model.SessionContext{
		State:            p.State,
		AdAggression:     p.AdAggression,
		IsPatient:        p.IsPatient,
		IsRapidScrolling: p.IsRapidScrolling,
		IsEngaged:        p.IsEngaged,
		EngagementStreak: p.EngagementStreak,
		ConsecutiveLikes: ConsecutiveLikes(signals),
		FollowCount:      followCount,
		CreatorCounts:    map[string]int{},
	}
}

// AdFatigue reports whether the caller's latest skips form a quick-skip
// streak. A read failure degrades to false.
func (a *Aggregator) AdFatigue(ctx context.Context, userID string) bool {
	skips, err := a.Signals.RecentSkips(ctx, userID, 10)
	if err != nil {
		slog.Error("session: fatigue check failed", "user", userID, "error", err)
		return false
	}
	streak := 0
	for _, s := range skips {
		if s.DwellTimeMS <= 0 || s.DwellTimeMS >= a.Thresholds.DwellSkipMS {
			break
		}
		streak++
		if streak >= a.FatigueAt {
			return true
		}
	}
	return false
}
