// Package results groups a finished roster into per-distance podiums
package results

import (
	"cmp"
	"slices"

	"github.com/myusername/handicap-race/pkg/models"
)

// Results holds the display view of both distances
type Results struct {
	FiveKm models.RaceResults
	TenKm  models.RaceResults
}

// ByDistance returns the results for d
func (r Results) ByDistance(d models.Distance) models.RaceResults {
	if d == models.Distance10K {
		return r.TenKm
	}
	return r.FiveKm
}

// AggregateResults sorts each distance's runners with a finish time by
// elapsed time. The input is not modified.
func AggregateResults(runners []models.Runner) Results {
	return Results{
		FiveKm: aggregate(runners, models.Distance5K),
		TenKm:  aggregate(runners, models.Distance10K),
	}
}

func aggregate(runners []models.Runner, d models.Distance) models.RaceResults {
	finishers := make([]models.Runner, 0)
	for _, r := range runners {
		if r.Distance == d && r.HasFinishTime() {
			finishers = append(finishers, r.Clone())
		}
	}
	slices.SortStableFunc(finishers, func(a, b models.Runner) int {
		return cmp.Compare(*a.FinishTime, *b.FinishTime)
	})

	res := models.RaceResults{Distance: d, AllFinishers: finishers}
	podium := []**models.Runner{&res.Podium.First, &res.Podium.Second, &res.Podium.Third}
	for i, slot := range podium {
		if i < len(finishers) {
			r := finishers[i].Clone()
			*slot = &r
		}
	}
	return res
}
