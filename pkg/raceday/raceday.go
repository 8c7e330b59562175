// Package raceday records check-ins, finish times and status overrides.
//
// Every operation returns a new runner slice and leaves its input untouched;
// callers replace their stored roster with the result in one assignment.
package raceday

import (
	"errors"
	"fmt"
	"time"

	"github.com/myusername/handicap-race/pkg/handicap"
	"github.com/myusername/handicap-race/pkg/models"
)

var (
	ErrRunnerNotFound  = errors.New("raceday: runner not found")
	ErrNotCheckedIn    = errors.New("raceday: runner not checked in")
	ErrInvalidStatus   = errors.New("raceday: invalid status")
	ErrInvalidDistance = errors.New("raceday: invalid distance")
	ErrNegativeTime    = errors.New("raceday: negative finish time")
)

func find(runners []models.Runner, member int) (int, error) {
	for i, r := range runners {
		if r.MemberNumber == member {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %d", ErrRunnerNotFound, member)
}

func cloneAll(runners []models.Runner) []models.Runner {
	out := make([]models.Runner, len(runners))
	for j := range runners {
		out[j] = runners[j].Clone()
	}
	return out
}

// replace returns a copy of runners with index i swapped for r
func replace(runners []models.Runner, i int, r models.Runner) []models.Runner {
	out := cloneAll(runners)
	out[i] = r
	return out
}

// CheckIn registers member for d. A runner without an official handicap
// for d is given a calculated provisional one when the other distance
// yields a usable estimate.
func CheckIn(runners []models.Runner, member int, d models.Distance) ([]models.Runner, handicap.Resolution, error) {
	if !d.Valid() {
		return nil, handicap.Resolution{}, fmt.Errorf("%w: %q", ErrInvalidDistance, d)
	}
	i, err := find(runners, member)
	if err != nil {
		return nil, handicap.Resolution{}, err
	}
	r := runners[i].Clone()
	r.CheckedIn = true
	r.Distance = d

	res := handicap.ResolveHandicapForDistance(r, d)
	if res.IsCalculated && res.Usable() {
		r = r.WithCurrentHandicap(d, res.Handicap).WithOfficial(d, false)
	}
	return replace(runners, i, r), res, nil
}

// CheckOut withdraws member from the current race and clears any result
func CheckOut(runners []models.Runner, member int) ([]models.Runner, error) {
	i, err := find(runners, member)
	if err != nil {
		return nil, err
	}
	r := clearResult(runners[i].Clone())
	r.CheckedIn = false
	return replace(runners, i, r), nil
}

// RecordFinish stores member's elapsed time and marks them finished
func RecordFinish(runners []models.Runner, member int, elapsed time.Duration) ([]models.Runner, error) {
	if elapsed < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeTime, elapsed)
	}
	i, err := find(runners, member)
	if err != nil {
		return nil, err
	}
	if !runners[i].CheckedIn {
		return nil, fmt.Errorf("%w: %d", ErrNotCheckedIn, member)
	}
	r := runners[i].Clone()
	r.FinishTime = models.Duration(elapsed)
	r.FinishPosition = 0
	r.Status = models.StatusNone
	return replace(runners, i, r), nil
}

// SetStatus overrides member's race outcome. DNF and early start discard any
// recorded time.
func SetStatus(runners []models.Runner, member int, status models.Status) ([]models.Runner, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	i, err := find(runners, member)
	if err != nil {
		return nil, err
	}
	if !runners[i].CheckedIn {
		return nil, fmt.Errorf("%w: %d", ErrNotCheckedIn, member)
	}
	r := runners[i].Clone()
	r.Status = status
	if status == models.StatusDNF || status == models.StatusEarlyStart {
		r.FinishTime = nil
		r.FinishPosition = 0
	}
	return replace(runners, i, r), nil
}

// ClearFinish removes member's time, position and status
func ClearFinish(runners []models.Runner, member int) ([]models.Runner, error) {
	i, err := find(runners, member)
	if err != nil {
		return nil, err
	}
	return replace(runners, i, clearResult(runners[i].Clone())), nil
}

func clearResult(r models.Runner) models.Runner {
	r.FinishTime = nil
	r.FinishPosition = 0
	r.Status = models.StatusNone
	r.NewHandicap = ""
	return r
}

// ApplyFinishes checks in every runner named in finishes at their roster
// distance, then records the time and status. The first failure stops the
// batch.
func ApplyFinishes(runners []models.Runner, finishes []models.Finish) ([]models.Runner, error) {
	out := cloneAll(runners)
	for _, f := range finishes {
		i, err := find(out, f.MemberNumber)
		if err != nil {
			return nil, err
		}
		if !out[i].CheckedIn {
			if out, _, err = CheckIn(out, f.MemberNumber, out[i].Distance); err != nil {
				return nil, err
			}
		}
		if f.Elapsed != nil {
			if out, err = RecordFinish(out, f.MemberNumber, *f.Elapsed); err != nil {
				return nil, err
			}
		}
		if f.Status != models.StatusNone {
			if out, err = SetStatus(out, f.MemberNumber, f.Status); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
