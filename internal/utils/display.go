// Package utils prints race tables to the terminal and writes export files
package utils

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/myusername/handicap-race/pkg/championship"
	"github.com/myusername/handicap-race/pkg/models"
	"github.com/myusername/handicap-race/pkg/racetime"
	"github.com/myusername/handicap-race/pkg/results"
)

func finishTime(r *models.Runner) string {
	if r == nil || r.FinishTime == nil {
		return "-"
	}
	s, err := racetime.FormatFinishTime(*r.FinishTime)
	if err != nil {
		return "?"
	}
	return s
}

func displayName(r *models.Runner) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%s (#%d)", r.FullName, r.MemberNumber)
}

// DisplayRaceResults prints the podium and every finisher for both distances
func DisplayRaceResults(w io.Writer, club string, res results.Results) {
	title := "HANDICAP RESULTS"
	if club != "" {
		title = strings.ToUpper(club) + " " + title
	}
	fmt.Fprintf(w, "\n=========== %s ===========\n", title)

	for _, d := range models.Distances {
		race := res.ByDistance(d)
		fmt.Fprintf(w, "\n%s: %d finishers\n", d, len(race.AllFinishers))

		for i, r := range []*models.Runner{race.Podium.First, race.Podium.Second, race.Podium.Third} {
			if r == nil {
				continue
			}
			fmt.Fprintf(w, "  %d. %-30s %10s\n", i+1, displayName(r), finishTime(r))
		}

		if len(race.AllFinishers) == 0 {
			continue
		}
		fmt.Fprintf(w, "%-4s | %-6s | %-26s | %-10s | %-6s | %-6s\n", "Pos", "Member", "Name", "Time", "Old", "New")
		fmt.Fprintf(w, "%-4s | %-6s | %-26s | %-10s | %-6s | %-6s\n",
			strings.Repeat("-", 4), strings.Repeat("-", 6), strings.Repeat("-", 26),
			strings.Repeat("-", 10), strings.Repeat("-", 6), strings.Repeat("-", 6))
		for i := range race.AllFinishers {
			r := &race.AllFinishers[i]
			pos := "-"
			if r.FinishPosition > 0 {
				pos = fmt.Sprint(r.FinishPosition)
			}
			fmt.Fprintf(w, "%-4s | %6d | %-26s | %10s | %-6s | %-6s\n",
				pos, r.MemberNumber, r.FullName, finishTime(r), r.CurrentHandicap(d), r.NewHandicap)
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 78))
}

// Standing is one runner's championship total for a distance
type Standing struct {
	MemberNumber int
	FullName     string
	Races        int
	Total        int
}

// ChampionshipStandings ranks runners with history at d by best-eight total,
// highest first. Runners whose history cannot be read are skipped.
func ChampionshipStandings(runners []models.Runner, d models.Distance) []Standing {
	var standings []Standing
	for _, r := range runners {
		history := r.ChampionshipRaces(d)
		if history == "" {
			continue
		}
		entries, err := championship.ParseHistory(history)
		if err != nil {
			continue
		}
		standings = append(standings, Standing{
			MemberNumber: r.MemberNumber,
			FullName:     r.FullName,
			Races:        len(entries),
			Total:        championship.BestTotal(entries),
		})
	}
	slices.SortStableFunc(standings, func(a, b Standing) int {
		return cmp.Compare(b.Total, a.Total)
	})
	return standings
}

// DisplayChampionshipStandings prints the season table for both distances
func DisplayChampionshipStandings(w io.Writer, runners []models.Runner) {
	for _, d := range models.Distances {
		standings := ChampionshipStandings(runners, d)
		if len(standings) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s championship (best %d races)\n", d, championship.CountingRaces)
		fmt.Fprintf(w, "%-26s | %-6s | %-5s | %-5s\n", "Name", "Member", "Races", "Total")
		for _, s := range standings {
			fmt.Fprintf(w, "%-26s | %6d | %5d | %5d\n", s.FullName, s.MemberNumber, s.Races, s.Total)
		}
	}
}

// DisplayValidationProblems lists roster problems found before the race
func DisplayValidationProblems(w io.Writer, problems []models.ValidationError) {
	if len(problems) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d roster problem(s):\n", len(problems))
	for _, p := range problems {
		fmt.Fprintf(w, "  - %s\n", p.Error())
	}
}

// SaveExport writes an export file into dir and returns its path
func SaveExport(dir, name, content string) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, content); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}
