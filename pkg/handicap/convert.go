// Package handicap converts handicaps between distances and recalculates
// them after a race.
package handicap

import (
	"math"
	"time"

	"github.com/myusername/handicap-race/pkg/models"
	"github.com/myusername/handicap-race/pkg/racetime"
)

// NoHandicap is the placeholder returned when no usable handicap exists.
// It is not a zero-second start delay.
const NoHandicap = "00:00"

// The conversion formulas work in fractions of a day, as the club's
// original spreadsheet did.
const (
	day       = float64(24 * time.Hour)
	oneHour   = 1.0 / 24
	fiveSixth = 5.0 / 6 * oneHour
	ratio     = 2.1
)

// Convert10kTo5k estimates a 5 km handicap from a 10 km one. Empty or
// unparseable input yields NoHandicap.
func Convert10kTo5k(handicap10k string) string {
	return convert(handicap10k, func(h float64) float64 {
		return fiveSixth - (oneHour-h)/ratio
	})
}

// Convert5kTo10k estimates a 10 km handicap from a 5 km one. Most fast 5 km
// handicaps produce a negative estimate and therefore NoHandicap.
func Convert5kTo10k(handicap5k string) string {
	return convert(handicap5k, func(h float64) float64 {
		return oneHour - (fiveSixth-h)*ratio
	})
}

func convert(handicap string, formula func(float64) float64) string {
	if handicap == "" {
		return NoHandicap
	}
	d, err := racetime.ParseHandicapTime(handicap)
	if err != nil {
		return NoHandicap
	}
	fraction := formula(float64(d) / day)
	ms := math.Round(fraction * day / float64(time.Millisecond))
	if ms < 0 || math.IsNaN(ms) {
		ms = 0
	}
	rounded := racetime.RoundToNearest15Seconds(time.Duration(ms) * time.Millisecond)
	out, err := racetime.FormatHandicapTime(rounded)
	if err != nil {
		return NoHandicap
	}
	return out
}

// Resolution is the handicap a runner should start a distance on
type Resolution struct {
	Handicap     string
	IsCalculated bool
}

// Usable reports whether the resolution carries a real start delay
func (r Resolution) Usable() bool {
	return r.Handicap != NoHandicap
}

// ResolveHandicapForDistance prefers the runner's official handicap for d,
// then a conversion from the other distance, then NoHandicap.
func ResolveHandicapForDistance(r models.Runner, d models.Distance) Resolution {
	if h := r.CurrentHandicap(d); usable(h) {
		return Resolution{Handicap: h}
	}
	if d == models.Distance5K {
		if h := r.CurrentHandicap10K; usable(h) {
			return Resolution{Handicap: Convert10kTo5k(h), IsCalculated: true}
		}
	} else {
		if h := r.CurrentHandicap5K; usable(h) {
			return Resolution{Handicap: Convert5kTo10k(h), IsCalculated: true}
		}
	}
	return Resolution{Handicap: NoHandicap}
}

func usable(h string) bool {
	if h == "" {
		return false
	}
	d, err := racetime.ParseHandicapTime(h)
	return err == nil && d > 0
}
