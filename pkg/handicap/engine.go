package handicap

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/myusername/handicap-race/pkg/championship"
	"github.com/myusername/handicap-race/pkg/models"
	"github.com/myusername/handicap-race/pkg/racetime"
)

// ErrInvalidMonth is returned for a race month outside 1-12
var ErrInvalidMonth = errors.New("handicap: invalid race month")

// NoMonth skips the championship update
const NoMonth = 0

// starterTimekeeperCredit is taken off a 10 km starter or timekeeper's handicap
const starterTimekeeperCredit = 30 * time.Second

// Rule is the adjustment table for one distance
type Rule struct {
	// Target is the design finish time every runner is handicapped toward
	Target time.Duration
	// Podium holds the minimum increase for positions 1, 2 and 3
	Podium [3]time.Duration
	// BackMarker is the decrease applied from position 10 onward
	BackMarker time.Duration
}

var rules = map[models.Distance]Rule{
	models.Distance5K: {
		Target:     50 * time.Minute,
		Podium:     [3]time.Duration{30 * time.Second, 15 * time.Second, 15 * time.Second},
		BackMarker: 15 * time.Second,
	},
	models.Distance10K: {
		Target:     60 * time.Minute,
		Podium:     [3]time.Duration{60 * time.Second, 30 * time.Second, 15 * time.Second},
		BackMarker: 30 * time.Second,
	},
}

const backMarkerPosition = 10

// RuleFor returns the adjustment table for d
func RuleFor(d models.Distance) (Rule, bool) {
	rule, ok := rules[d]
	return rule, ok
}

// Adjustment returns the handicap change for a finisher at position who
// finished in elapsed. Podium increases are rounded up to 5 seconds.
func (rule Rule) Adjustment(position int, elapsed time.Duration) time.Duration {
	switch {
	case position >= 1 && position <= len(rule.Podium):
		beat := rule.Target - elapsed
		return racetime.RoundUpTo5Seconds(max(rule.Podium[position-1], beat))
	case position >= backMarkerPosition:
		return -rule.BackMarker
	}
	return 0
}

// CalculateHandicaps assigns finishing positions and next-race handicaps for
// one race. When raceMonth is not NoMonth every runner's championship history
// is updated too. The input slice and its runners are left untouched.
func CalculateHandicaps(runners []models.Runner, raceMonth int) ([]models.Runner, error) {
	if raceMonth != NoMonth && (raceMonth < 1 || raceMonth > 12) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, raceMonth)
	}

	out := make([]models.Runner, len(runners))
	eligible := make(map[models.Distance][]int)
	for i, r := range runners {
		c := r.Clone()
		c.FinishPosition = 0
		c.NewHandicap = ""
		switch c.Status {
		case models.StatusDNF, models.StatusEarlyStart:
			c.NewHandicap = c.CurrentHandicap(c.Distance)
		case models.StatusStarterTimekeeper:
			c.NewHandicap = starterTimekeeperHandicap(c)
		default:
			if c.HasFinishTime() {
				eligible[c.Distance] = append(eligible[c.Distance], i)
			}
		}
		out[i] = c
	}

	for _, d := range models.Distances {
		idx := eligible[d]
		slices.SortStableFunc(idx, func(a, b int) int {
			return cmp.Compare(*out[a].FinishTime, *out[b].FinishTime)
		})
		rule := rules[d]
		for rank, i := range idx {
			position := rank + 1
			out[i].FinishPosition = position
			if h, ok := adjusted(out[i], rule, position); ok {
				out[i].NewHandicap = h
			}
		}
	}

	if raceMonth == NoMonth {
		return out, nil
	}
	for i := range out {
		updated, err := championship.UpdateChampionshipData(out[i], raceMonth)
		if err != nil {
			return nil, err
		}
		out[i] = updated
	}
	return out, nil
}

func adjusted(r models.Runner, rule Rule, position int) (string, bool) {
	current := r.CurrentHandicap(r.Distance)
	if current == "" {
		return "", false
	}
	base, err := racetime.ParseHandicapTime(current)
	if err != nil {
		return "", false
	}
	next := max(0, base+rule.Adjustment(position, *r.FinishTime))
	h, err := racetime.FormatHandicapTime(next)
	if err != nil {
		return "", false
	}
	return h, true
}

func starterTimekeeperHandicap(r models.Runner) string {
	current := r.CurrentHandicap(r.Distance)
	if r.Distance != models.Distance10K || current == "" {
		return current
	}
	base, err := racetime.ParseHandicapTime(current)
	if err != nil {
		return current
	}
	h, err := racetime.FormatHandicapTime(max(0, base-starterTimekeeperCredit))
	if err != nil {
		return current
	}
	return h
}
