// Package roster reads and writes runner rosters and race results as CSV
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/myusername/handicap-race/pkg/championship"
	"github.com/myusername/handicap-race/pkg/models"
	"github.com/myusername/handicap-race/pkg/racetime"
)

var (
	ErrEmptyInput            = errors.New("roster: empty input")
	ErrMissingHeaders        = errors.New("roster: missing required headers")
	ErrMalformedCSV          = errors.New("roster: malformed csv")
	ErrInvalidMemberNumber   = errors.New("roster: invalid member number")
	ErrDuplicateMemberNumber = errors.New("roster: duplicate member number")
	ErrInvalidDistance       = errors.New("roster: invalid distance")
	ErrInvalidHandicapFormat = errors.New("roster: invalid handicap format")
	ErrInvalidFinishTime     = errors.New("roster: invalid finish time")
	ErrInvalidStatus         = errors.New("roster: invalid status")
	ErrInvalidBoolean        = errors.New("roster: invalid boolean")
	ErrInvalidPoints         = errors.New("roster: invalid championship points")
)

// Column names shared by the import and export formats
const (
	ColMemberNumber          = "member_number"
	ColFullName              = "full_name"
	ColIsFinancialMember     = "is_financial_member"
	ColDistance              = "distance"
	ColCurrentHandicap5K     = "current_handicap_5k"
	ColCurrentHandicap10K    = "current_handicap_10k"
	ColIsOfficial5K          = "is_official_5k"
	ColIsOfficial10K         = "is_official_10k"
	ColChampionshipRaces5K   = "championship_races_5k"
	ColChampionshipRaces10K  = "championship_races_10k"
	ColChampionshipPoints5K  = "championship_points_5k"
	ColChampionshipPoints10K = "championship_points_10k"
	ColStatus                = "status"
	ColFinishPosition        = "finish_position"
	ColFinishTime            = "finish_time"
	ColOldHandicap           = "old_handicap"
	ColNewHandicap           = "new_handicap"
	ColPointsEarned          = "championship_points_earned"
)

var requiredColumns = []string{ColMemberNumber, ColFullName, ColIsFinancialMember, ColDistance}

// table is a decoded CSV body with its header index
type table struct {
	columns map[string]int
	rows    []row
}

type row struct {
	line   int
	fields []string
}

func (t table) has(col string) bool {
	_, ok := t.columns[col]
	return ok
}

// get returns the trimmed cell for col, or "" when the column or cell is missing
func (t table) get(r row, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// readTable decodes text, skipping blank lines, and checks required headers
func readTable(text string, required []string) (table, error) {
	if strings.TrimSpace(text) == "" {
		return table{}, ErrEmptyInput
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	var t table
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table{}, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if blank(record) {
			continue
		}
		if t.columns == nil {
			t.columns = headerIndex(record)
			continue
		}
		line, _ := reader.FieldPos(0)
		t.rows = append(t.rows, row{line: line, fields: record})
	}
	if t.columns == nil {
		return table{}, ErrEmptyInput
	}

	var missing []string
	for _, col := range required {
		if !t.has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return table{}, fmt.Errorf("%w: %s", ErrMissingHeaders, strings.Join(missing, ", "))
	}
	return t, nil
}

func headerIndex(record []string) map[string]int {
	columns := make(map[string]int, len(record))
	for i, name := range record {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	return columns
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ParseRoster decodes an uploaded roster. Every runner starts not checked in.
func ParseRoster(text string) ([]models.Runner, error) {
	t, err := readTable(text, requiredColumns)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(t.rows))
	runners := make([]models.Runner, 0, len(t.rows))
	for _, r := range t.rows {
		runner, err := parseRunner(t, r)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		if _, dup := seen[runner.MemberNumber]; dup {
			return nil, fmt.Errorf("line %d: %w: %d", r.line, ErrDuplicateMemberNumber, runner.MemberNumber)
		}
		seen[runner.MemberNumber] = struct{}{}
		runners = append(runners, runner)
	}
	return runners, nil
}

func parseRunner(t table, r row) (models.Runner, error) {
	member, err := parseMemberNumber(t.get(r, ColMemberNumber))
	if err != nil {
		return models.Runner{}, err
	}

	distance := models.Distance(t.get(r, ColDistance))
	if !distance.Valid() {
		return models.Runner{}, fmt.Errorf("%w: %q for member %d", ErrInvalidDistance, distance, member)
	}

	runner := models.Runner{
		MemberNumber: member,
		FullName:     norm.NFC.String(t.get(r, ColFullName)),
		Distance:     distance,
	}
	if runner.IsFinancialMember, err = parseRequiredBool(t.get(r, ColIsFinancialMember)); err != nil {
		return models.Runner{}, fmt.Errorf("%s for member %d: %w", ColIsFinancialMember, member, err)
	}

	if runner.CurrentHandicap5K, err = parseHandicap(t.get(r, ColCurrentHandicap5K)); err != nil {
		return models.Runner{}, fmt.Errorf("%s for member %d: %w", ColCurrentHandicap5K, member, err)
	}
	if runner.CurrentHandicap10K, err = parseHandicap(t.get(r, ColCurrentHandicap10K)); err != nil {
		return models.Runner{}, fmt.Errorf("%s for member %d: %w", ColCurrentHandicap10K, member, err)
	}

	if runner.IsOfficial5K, err = parseOptionalBool(t.get(r, ColIsOfficial5K)); err != nil {
		return models.Runner{}, fmt.Errorf("%s for member %d: %w", ColIsOfficial5K, member, err)
	}
	if runner.IsOfficial10K, err = parseOptionalBool(t.get(r, ColIsOfficial10K)); err != nil {
		return models.Runner{}, fmt.Errorf("%s for member %d: %w", ColIsOfficial10K, member, err)
	}

	if runner.ChampionshipRaces5K, err = parseHistory(t.get(r, ColChampionshipRaces5K)); err != nil {
		return models.Runner{}, fmt.Errorf("%s for member %d: %w", ColChampionshipRaces5K, member, err)
	}
	if runner.ChampionshipRaces10K, err = parseHistory(t.get(r, ColChampionshipRaces10K)); err != nil {
		return models.Runner{}, fmt.Errorf("%s for member %d: %w", ColChampionshipRaces10K, member, err)
	}
	if runner.ChampionshipPoints5K, err = parseOptionalInt(t.get(r, ColChampionshipPoints5K)); err != nil {
		return models.Runner{}, fmt.Errorf("%s for member %d: %w", ColChampionshipPoints5K, member, err)
	}
	if runner.ChampionshipPoints10K, err = parseOptionalInt(t.get(r, ColChampionshipPoints10K)); err != nil {
		return models.Runner{}, fmt.Errorf("%s for member %d: %w", ColChampionshipPoints10K, member, err)
	}
	return runner, nil
}

func parseMemberNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMemberNumber, s)
	}
	return n, nil
}

func parseHandicap(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if _, err := racetime.ParseHandicapTime(s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHandicapFormat, err)
	}
	return s, nil
}

// parseBool accepts true/false/yes/no/1/0 in any case. The second result is
// false for anything else, including an empty cell.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	}
	return false, false
}

// parseRequiredBool reads an empty cell as false
func parseRequiredBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, ok := parseBool(s)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrInvalidBoolean, s)
	}
	return v, nil
}

func parseOptionalBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := parseBool(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBoolean, s)
	}
	return models.Bool(v), nil
}

func parseOptionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPoints, s)
	}
	return &n, nil
}

// parseHistory checks a championship history cell and keeps its text
func parseHistory(s string) (string, error) {
	if _, err := championship.ParseHistory(s); err != nil {
		return "", err
	}
	return s, nil
}

// ParseFinishSheet decodes a member_number,finish_time[,status] sheet as
// captured by the timekeepers. A row needs a finish time, a status, or both.
func ParseFinishSheet(text string) ([]models.Finish, error) {
	t, err := readTable(text, []string{ColMemberNumber, ColFinishTime})
	if err != nil {
		return nil, err
	}
	finishes := make([]models.Finish, 0, len(t.rows))
	for _, r := range t.rows {
		member, err := parseMemberNumber(t.get(r, ColMemberNumber))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		f := models.Finish{MemberNumber: member}
		if raw := t.get(r, ColFinishTime); raw != "" {
			d, err := racetime.ParseFinishTime(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %v", r.line, ErrInvalidFinishTime, err)
			}
			f.Elapsed = &d
		}
		status, ok := models.ParseStatus(t.get(r, ColStatus))
		if !ok {
			return nil, fmt.Errorf("line %d: %w: %q", r.line, ErrInvalidStatus, t.get(r, ColStatus))
		}
		f.Status = status
		if f.Elapsed == nil && f.Status == models.StatusNone {
			return nil, fmt.Errorf("line %d: %w: member %d has neither time nor status", r.line, ErrInvalidFinishTime, member)
		}
		finishes = append(finishes, f)
	}
	return finishes, nil
}
