// Package championship encodes per-runner race history and computes season
// points. A history string is a list of month:position:points:time entries
// joined by "|", e.g. "2:1:20:895|3:2:15:920".
package championship

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/myusername/handicap-race/pkg/models"
)

var (
	ErrInvalidFormat = errors.New("championship: invalid entry format")
	ErrInvalidMonth  = errors.New("championship: invalid month")
	ErrInvalidPoints = errors.New("championship: invalid points")
	ErrInvalidTime   = errors.New("championship: invalid time")
)

const (
	entrySeparator = "|"
	fieldSeparator = ":"

	// CountingRaces is how many of a runner's best results count toward the season total
	CountingRaces = 8

	maxPoints = 20
)

// PlacingKind distinguishes a placed finish from the non-finishing outcomes
type PlacingKind int

const (
	Finished PlacingKind = iota
	DidNotFinish
	EarlyStart
	StarterTimekeeper
)

// Placing is a race outcome. Rank is only meaningful for Finished.
type Placing struct {
	Kind PlacingKind
	Rank int
}

// FinishedAt returns a placed finish at rank
func FinishedAt(rank int) Placing {
	return Placing{Kind: Finished, Rank: rank}
}

func (p Placing) String() string {
	switch p.Kind {
	case DidNotFinish:
		return "DNF"
	case EarlyStart:
		return "ES"
	case StarterTimekeeper:
		return "ST"
	}
	return strconv.Itoa(p.Rank)
}

func parsePlacing(s string) (Placing, error) {
	switch s {
	case "DNF":
		return Placing{Kind: DidNotFinish}, nil
	case "ES":
		return Placing{Kind: EarlyStart}, nil
	case "ST":
		return Placing{Kind: StarterTimekeeper}, nil
	}
	rank, err := strconv.Atoi(s)
	if err != nil || rank < 1 {
		return Placing{}, fmt.Errorf("%w: position %q", ErrInvalidFormat, s)
	}
	return FinishedAt(rank), nil
}

// Entry is one race in a runner's season history
type Entry struct {
	Month   int
	Placing Placing
	Points  int
	// Time is the finish time in whole seconds, 0 when there was none
	Time int
}

func (e Entry) String() string {
	return strings.Join([]string{
		strconv.Itoa(e.Month),
		e.Placing.String(),
		strconv.Itoa(e.Points),
		strconv.Itoa(e.Time),
	}, fieldSeparator)
}

// ParseHistory decodes a history string. Blank input yields no entries.
func ParseHistory(history string) ([]Entry, error) {
	if strings.TrimSpace(history) == "" {
		return nil, nil
	}
	parts := strings.Split(history, entrySeparator)
	entries := make([]Entry, 0, len(parts))
	for i, part := range parts {
		entry, err := parseEntry(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(raw string) (Entry, error) {
	fields := strings.Split(raw, fieldSeparator)
	if len(fields) != 4 {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	month, err := strconv.Atoi(fields[0])
	if err != nil || month < 1 || month > 12 {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidMonth, fields[0])
	}
	placing, err := parsePlacing(fields[1])
	if err != nil {
		return Entry{}, err
	}
	points, err := strconv.Atoi(fields[2])
	if err != nil || points < 0 || points > maxPoints {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidPoints, fields[2])
	}
	secs, err := strconv.Atoi(fields[3])
	if err != nil || secs < 0 {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidTime, fields[3])
	}
	return Entry{Month: month, Placing: placing, Points: points, Time: secs}, nil
}

// EncodeHistory sorts entries by month and encodes them
func EncodeHistory(entries []Entry) string {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int { return a.Month - b.Month })
	parts := make([]string, len(sorted))
	for i, e := range sorted {
		parts[i] = e.String()
	}
	return strings.Join(parts, entrySeparator)
}

var pointsTable = [...]int{0, 20, 15, 11, 8, 6, 5, 4, 3, 2}

// PointsForPosition returns the championship points for a result. Status
// overrides position; position 0 with no special status scores nothing.
func PointsForPosition(position int, status models.Status) int {
	switch status {
	case models.StatusStarterTimekeeper:
		return 4
	case models.StatusDNF, models.StatusEarlyStart:
		return 1
	}
	if position <= 0 {
		return 0
	}
	if position < len(pointsTable) {
		return pointsTable[position]
	}
	return 1
}

// BestTotal sums the CountingRaces largest point values in entries
func BestTotal(entries []Entry) int {
	points := make([]int, len(entries))
	for i, e := range entries {
		points[i] = e.Points
	}
	slices.Sort(points)
	slices.Reverse(points)
	total := 0
	for i, p := range points {
		if i == CountingRaces {
			break
		}
		total += p
	}
	return total
}

// Best8Total decodes history and returns its season total
func Best8Total(history string) (int, error) {
	entries, err := ParseHistory(history)
	if err != nil {
		return 0, err
	}
	return BestTotal(entries), nil
}

// AppendOrReplaceEntry records entry in history, replacing any entry for
// the same month. The result is sorted by month.
func AppendOrReplaceEntry(history string, entry Entry) (string, error) {
	if entry.Month < 1 || entry.Month > 12 {
		return "", fmt.Errorf("%w: %d", ErrInvalidMonth, entry.Month)
	}
	if entry.Points < 0 || entry.Points > maxPoints {
		return "", fmt.Errorf("%w: %d", ErrInvalidPoints, entry.Points)
	}
	if entry.Time < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidTime, entry.Time)
	}
	entries, err := ParseHistory(history)
	if err != nil {
		return "", err
	}
	replaced := false
	for i := range entries {
		if entries[i].Month == entry.Month {
			entries[i] = entry
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	return EncodeHistory(entries), nil
}

// PlacingFor derives the race outcome recorded for r. The second result is
// false when r has neither a position nor a non-finishing status.
func PlacingFor(r models.Runner) (Placing, bool) {
	switch r.Status {
	case models.StatusStarterTimekeeper:
		return Placing{Kind: StarterTimekeeper}, true
	case models.StatusDNF:
		return Placing{Kind: DidNotFinish}, true
	case models.StatusEarlyStart:
		return Placing{Kind: EarlyStart}, true
	}
	if r.FinishPosition > 0 {
		return FinishedAt(r.FinishPosition), true
	}
	return Placing{}, false
}

// PointsEarned returns the points r scores for the current race at their
// raced distance, 0 when the distance is provisional or there is no result.
func PointsEarned(r models.Runner) int {
	if !r.IsOfficial(r.Distance) {
		return 0
	}
	if _, ok := PlacingFor(r); !ok {
		return 0
	}
	return PointsForPosition(r.FinishPosition, r.Status)
}

// UpdateChampionshipData folds r's result for raceMonth into the history of
// their raced distance and recomputes the season total. Provisional runners
// and runners without a result are returned unchanged.
func UpdateChampionshipData(r models.Runner, raceMonth int) (models.Runner, error) {
	if !r.IsOfficial(r.Distance) {
		return r, nil
	}
	placing, ok := PlacingFor(r)
	if !ok {
		return r, nil
	}
	secs := 0
	if r.FinishTime != nil {
		secs = int(*r.FinishTime / time.Second)
	}
	entry := Entry{
		Month:   raceMonth,
		Placing: placing,
		Points:  PointsForPosition(r.FinishPosition, r.Status),
		Time:    secs,
	}
	history, err := AppendOrReplaceEntry(r.ChampionshipRaces(r.Distance), entry)
	if err != nil {
		return r, fmt.Errorf("member %d: %w", r.MemberNumber, err)
	}
	total, err := Best8Total(history)
	if err != nil {
		return r, fmt.Errorf("member %d: %w", r.MemberNumber, err)
	}
	return r.WithChampionship(r.Distance, history, total), nil
}
