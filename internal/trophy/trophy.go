// Package trophy maps elapsed running time to a reward tier.
package trophy

import (
	"errors"
	"math"
	"time"

	"github.com/verte-zerg/paperlist/internal/model"
)

const (
	// PromptHours is the inclusive limit for the best tier.
	PromptHours = 4.0
	// DecayHours is how many hours into a later day each tier step covers.
	DecayHours = 3.0
)

var (
	ErrInvalidTier  = errors.New("invalid trophy tier")
	ErrInvalidTimes = errors.New("invalid start/end time")
)

var titles = [model.TierCount]string{
	"Diamond",
	"Gold",
	"Silver",
	"Bronze",
	"Iron",
	"Stone",
	"Wood",
	"Participation",
}

// Tier returns the reward tier (1 best, 8 worst) for a run from start to end.
//
// Runs finished on the start day earn tier 1 within four hours and tier 2
// otherwise. Runs carried past midnight start at tier 3 and lose one tier for
// every three hours after the first midnight, down to tier 8. Calendar days are
// taken in end's location.
func Tier(start, end time.Time) int {
	loc := end.Location()
	start = start.In(loc)
	if sameDay(start, end) {
		if end.Sub(start).Hours() <= PromptHours {
			return 1
		}
		return 2
	}
	carryHours := end.Sub(nextMidnight(start)).Hours()
	if carryHours < 0 {
		carryHours = 0
	}
	tier := 3 + int(math.Floor(carryHours/DecayHours))
	if tier > model.TierCount {
		tier = model.TierCount
	}
	return tier
}

// Compute validates the timestamps and returns the tier.
func Compute(start, end time.Time) (int, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0, ErrInvalidTimes
	}
	return Tier(start, end), nil
}

// Validate reports whether tier is in range.
func Validate(tier int) error {
	if tier < 1 || tier > model.TierCount {
		return ErrInvalidTier
	}
	return nil
}

// Title returns the display name of a tier.
func Title(tier int) string {
	if Validate(tier) != nil {
		return "Participant"
	}
	return titles[tier-1]
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
