package roster

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/myusername/handicap-race/pkg/championship"
	"github.com/myusername/handicap-race/pkg/models"
	"github.com/myusername/handicap-race/pkg/racetime"
)

// NextRaceHeader is the fixed column order of the next-race roster export
var NextRaceHeader = []string{
	ColMemberNumber, ColFullName, ColIsFinancialMember, ColDistance,
	ColCurrentHandicap5K, ColCurrentHandicap10K,
	ColIsOfficial5K, ColIsOfficial10K,
	ColChampionshipRaces5K, ColChampionshipRaces10K,
	ColChampionshipPoints5K, ColChampionshipPoints10K,
}

// ResultsHeader is the fixed column order of the results export
var ResultsHeader = []string{
	ColMemberNumber, ColFullName, ColDistance, ColStatus,
	ColFinishPosition, ColFinishTime, ColOldHandicap, ColNewHandicap,
	ColIsOfficial5K, ColIsOfficial10K, ColPointsEarned,
	ColChampionshipRaces5K, ColChampionshipRaces10K,
	ColChampionshipPoints5K, ColChampionshipPoints10K,
}

// SeasonRolloverHeader is the next-race roster without the championship accumulators
var SeasonRolloverHeader = NextRaceHeader[:8:8]

// cell is one CSV field. Quoted fields are always wrapped in quotes, others
// only when their content requires it.
type cell struct {
	value  string
	quoted bool
}

func plain(v string) cell  { return cell{value: v} }
func quoted(v string) cell { return cell{value: v, quoted: true} }

type csvBuilder struct {
	b strings.Builder
}

func (w *csvBuilder) header(cols []string) {
	cells := make([]cell, len(cols))
	for i, c := range cols {
		cells[i] = plain(c)
	}
	w.row(cells)
}

func (w *csvBuilder) row(cells []cell) {
	for i, c := range cells {
		if i > 0 {
			w.b.WriteByte(',')
		}
		if c.quoted || strings.ContainsAny(c.value, ",\"\r\n") || strings.HasPrefix(c.value, " ") {
			w.b.WriteByte('"')
			w.b.WriteString(strings.ReplaceAll(c.value, `"`, `""`))
			w.b.WriteByte('"')
			continue
		}
		w.b.WriteString(c.value)
	}
	w.b.WriteByte('\n')
}

func (w *csvBuilder) String() string {
	return w.b.String()
}

// outgoingHandicaps returns the 5k and 10k handicaps a runner carries into
// the next race: the new handicap replaces the raced distance's current one.
func outgoingHandicaps(r models.Runner) (string, string) {
	h5, h10 := r.CurrentHandicap5K, r.CurrentHandicap10K
	if r.NewHandicap != "" {
		if r.Distance == models.Distance10K {
			h10 = r.NewHandicap
		} else {
			h5 = r.NewHandicap
		}
	}
	return h5, h10
}

func rosterCells(r models.Runner) []cell {
	h5, h10 := outgoingHandicaps(r)
	return []cell{
		plain(strconv.Itoa(r.MemberNumber)),
		quoted(r.FullName),
		plain(strconv.FormatBool(r.IsFinancialMember)),
		plain(string(r.Distance)),
		plain(h5),
		plain(h10),
		plain(strconv.FormatBool(r.IsOfficial(models.Distance5K))),
		plain(strconv.FormatBool(r.IsOfficial(models.Distance10K))),
	}
}

func formatOptionalInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// SerializeNextRaceRoster writes one row per runner with new handicaps
// promoted to current handicaps. Championship fields carry over unchanged.
func SerializeNextRaceRoster(runners []models.Runner) string {
	var w csvBuilder
	w.header(NextRaceHeader)
	for _, r := range runners {
		cells := append(rosterCells(r),
			quoted(r.ChampionshipRaces5K),
			quoted(r.ChampionshipRaces10K),
			plain(formatOptionalInt(r.ChampionshipPoints5K)),
			plain(formatOptionalInt(r.ChampionshipPoints10K)),
		)
		w.row(cells)
	}
	return w.String()
}

// SerializeSeasonRollover writes the year-end roster. Runners are expected to
// arrive already adjusted for the new season; only field selection happens here.
func SerializeSeasonRollover(runners []models.Runner) string {
	var w csvBuilder
	w.header(SeasonRolloverHeader)
	for _, r := range runners {
		w.row(rosterCells(r))
	}
	return w.String()
}

func inResults(r models.Runner) bool {
	return r.HasFinishTime() || r.Status == models.StatusDNF || r.Status == models.StatusEarlyStart
}

// SerializeResults writes the race results grouped by distance. Placed
// finishers come first by position, then everyone else in input order.
func SerializeResults(runners []models.Runner) string {
	var rows []models.Runner
	for _, r := range runners {
		if inResults(r) {
			rows = append(rows, r)
		}
	}
	slices.SortStableFunc(rows, func(a, b models.Runner) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		aPlaced, bPlaced := a.FinishPosition > 0, b.FinishPosition > 0
		switch {
		case aPlaced && bPlaced:
			return cmp.Compare(a.FinishPosition, b.FinishPosition)
		case aPlaced:
			return -1
		case bPlaced:
			return 1
		}
		return 0
	})

	var w csvBuilder
	w.header(ResultsHeader)
	for _, r := range rows {
		w.row(resultCells(r))
	}
	return w.String()
}

func resultCells(r models.Runner) []cell {
	status := r.Status
	if status == models.StatusNone && r.HasFinishTime() {
		status = models.StatusFinished
	}
	position := ""
	if r.FinishPosition > 0 {
		position = strconv.Itoa(r.FinishPosition)
	}
	finish := ""
	if r.FinishTime != nil {
		finish, _ = racetime.FormatFinishTime(*r.FinishTime)
	}
	return []cell{
		plain(strconv.Itoa(r.MemberNumber)),
		quoted(r.FullName),
		plain(string(r.Distance)),
		plain(string(status)),
		plain(position),
		plain(finish),
		plain(r.CurrentHandicap(r.Distance)),
		plain(r.NewHandicap),
		plain(strconv.FormatBool(r.IsOfficial(models.Distance5K))),
		plain(strconv.FormatBool(r.IsOfficial(models.Distance10K))),
		plain(strconv.Itoa(championship.PointsEarned(r))),
		quoted(r.ChampionshipRaces5K),
		quoted(r.ChampionshipRaces10K),
		plain(formatOptionalInt(r.ChampionshipPoints5K)),
		plain(formatOptionalInt(r.ChampionshipPoints10K)),
	}
}
