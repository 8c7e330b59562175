// Package models contains data structures for handicap race rosters and results
package models

import (
	"strings"
	"time"
)

// Distance is the course a runner is entered for
type Distance string

const (
	Distance5K  Distance = "5km"
	Distance10K Distance = "10km"
)

// Distances lists the supported courses in display order
var Distances = []Distance{Distance5K, Distance10K}

// Valid reports whether d is one of the supported courses
func (d Distance) Valid() bool {
	return d == Distance5K || d == Distance10K
}

// Status is a race-day outcome override. The zero value means no override.
type Status string

const (
	StatusNone              Status = ""
	StatusFinished          Status = "finished"
	StatusDNF               Status = "dnf"
	StatusEarlyStart        Status = "early_start"
	StatusStarterTimekeeper Status = "starter_timekeeper"
)

// Valid reports whether s is a known status (including none)
func (s Status) Valid() bool {
	switch s {
	case StatusNone, StatusFinished, StatusDNF, StatusEarlyStart, StatusStarterTimekeeper:
		return true
	}
	return false
}

// ParseStatus accepts the stored status literals and the short forms used on
// timing sheets (DNF, ES, ST), case-insensitively
func ParseStatus(text string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "":
		return StatusNone, true
	case "finished", "fin":
		return StatusFinished, true
	case "dnf":
		return StatusDNF, true
	case "early_start", "es":
		return StatusEarlyStart, true
	case "starter_timekeeper", "st":
		return StatusStarterTimekeeper, true
	}
	return StatusNone, false
}

// IsFinisher reports whether the status allows a placed finish
func (s Status) IsFinisher() bool {
	return s == StatusNone || s == StatusFinished
}

// Runner holds one race participant.
//
// Handicaps and history strings use "" for absent. FinishPosition uses 0 for
// absent. Pointer fields distinguish absent from zero so they survive CSV
// round-trips.
type Runner struct {
	MemberNumber      int
	FullName          string
	IsFinancialMember bool
	Distance          Distance

	CurrentHandicap5K  string
	CurrentHandicap10K string
	NewHandicap        string

	CheckedIn      bool
	FinishTime     *time.Duration
	FinishPosition int
	Status         Status

	IsOfficial5K  *bool
	IsOfficial10K *bool

	ChampionshipRaces5K   string
	ChampionshipRaces10K  string
	ChampionshipPoints5K  *int
	ChampionshipPoints10K *int
}

// Clone returns a copy that shares no pointers with r
func (r Runner) Clone() Runner {
	c := r
	if r.FinishTime != nil {
		ft := *r.FinishTime
		c.FinishTime = &ft
	}
	c.IsOfficial5K = cloneBool(r.IsOfficial5K)
	c.IsOfficial10K = cloneBool(r.IsOfficial10K)
	c.ChampionshipPoints5K = cloneInt(r.ChampionshipPoints5K)
	c.ChampionshipPoints10K = cloneInt(r.ChampionshipPoints10K)
	return c
}

// HasFinishTime reports whether a finish time was recorded
func (r Runner) HasFinishTime() bool {
	return r.FinishTime != nil
}

// CurrentHandicap returns the official handicap for d
func (r Runner) CurrentHandicap(d Distance) string {
	if d == Distance10K {
		return r.CurrentHandicap10K
	}
	return r.CurrentHandicap5K
}

// WithCurrentHandicap returns a copy with the handicap for d replaced
func (r Runner) WithCurrentHandicap(d Distance, handicap string) Runner {
	c := r.Clone()
	if d == Distance10K {
		c.CurrentHandicap10K = handicap
	} else {
		c.CurrentHandicap5K = handicap
	}
	return c
}

// IsOfficial reports whether results at d count for the championship.
// An unset flag counts as official.
func (r Runner) IsOfficial(d Distance) bool {
	flag := r.IsOfficial5K
	if d == Distance10K {
		flag = r.IsOfficial10K
	}
	return flag == nil || *flag
}

// WithOfficial returns a copy with the official flag for d set
func (r Runner) WithOfficial(d Distance, official bool) Runner {
	c := r.Clone()
	if d == Distance10K {
		c.IsOfficial10K = &official
	} else {
		c.IsOfficial5K = &official
	}
	return c
}

// ChampionshipRaces returns the encoded race history for d
func (r Runner) ChampionshipRaces(d Distance) string {
	if d == Distance10K {
		return r.ChampionshipRaces10K
	}
	return r.ChampionshipRaces5K
}

// ChampionshipPoints returns the season total for d, or nil if never computed
func (r Runner) ChampionshipPoints(d Distance) *int {
	if d == Distance10K {
		return r.ChampionshipPoints10K
	}
	return r.ChampionshipPoints5K
}

// WithChampionship returns a copy with history and total for d replaced
func (r Runner) WithChampionship(d Distance, races string, points int) Runner {
	c := r.Clone()
	if d == Distance10K {
		c.ChampionshipRaces10K = races
		c.ChampionshipPoints10K = &points
	} else {
		c.ChampionshipRaces5K = races
		c.ChampionshipPoints5K = &points
	}
	return c
}

// Finish is one externally captured result: an elapsed time, a status, or both
type Finish struct {
	MemberNumber int
	Elapsed      *time.Duration
	Status       Status
}

// Podium holds the first three finishers of a distance. Any may be nil.
type Podium struct {
	First  *Runner
	Second *Runner
	Third  *Runner
}

// RaceResults holds the display view of one distance
type RaceResults struct {
	Distance     Distance
	Podium       Podium
	AllFinishers []Runner
}

// ValidationError reports a non-fatal roster problem
type ValidationError struct {
	MemberNumber int
	Field        string
	Message      string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Bool returns a pointer to v
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }

// Duration returns a pointer to v
func Duration(v time.Duration) *time.Duration { return &v }

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
