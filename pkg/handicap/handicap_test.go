package handicap

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myusername/handicap-race/pkg/models"
	"github.com/myusername/handicap-race/pkg/racetime"
)

func TestConvert10kTo5k(t *testing.T) {
	assert.Equal(t, "25:15", Convert10kTo5k("08:00"))
	assert.Equal(t, "21:30", Convert10kTo5k("00:00"))
	assert.Equal(t, NoHandicap, Convert10kTo5k(""))
	assert.Equal(t, NoHandicap, Convert10kTo5k("8:00"))
}

func TestConvert5kTo10k(t *testing.T) {
	assert.Equal(t, "07:30", Convert5kTo10k("25:00"))
	assert.Equal(t, NoHandicap, Convert5kTo10k("10:00"), "fast 5k handicaps clamp to zero")
	assert.Equal(t, NoHandicap, Convert5kTo10k(""))
	assert.Equal(t, NoHandicap, Convert5kTo10k("xx:yy"))
}

func TestConversionsAreAlignedAndNonNegative(t *testing.T) {
	for m := 0; m < 60; m++ {
		for s := 0; s < 60; s += 10 {
			in := fmt.Sprintf("%02d:%02d", m, s)
			for _, out := range []string{Convert10kTo5k(in), Convert5kTo10k(in)} {
				d, err := racetime.ParseHandicapTime(out)
				require.NoError(t, err, "converted %s to %s", in, out)
				require.GreaterOrEqual(t, d, time.Duration(0))
				require.Zero(t, d%(15*time.Second), "converted %s to %s", in, out)
			}
		}
	}
}

func TestResolveHandicapForDistance(t *testing.T) {
	official := models.Runner{CurrentHandicap5K: "12:30", CurrentHandicap10K: "08:00"}
	assert.Equal(t, Resolution{Handicap: "12:30"}, ResolveHandicapForDistance(official, models.Distance5K))
	assert.Equal(t, Resolution{Handicap: "08:00"}, ResolveHandicapForDistance(official, models.Distance10K))

	only10k := models.Runner{CurrentHandicap10K: "08:00"}
	assert.Equal(t, Resolution{Handicap: "25:15", IsCalculated: true}, ResolveHandicapForDistance(only10k, models.Distance5K))

	only5k := models.Runner{CurrentHandicap5K: "10:00", CurrentHandicap10K: "00:00"}
	res := ResolveHandicapForDistance(only5k, models.Distance10K)
	assert.Equal(t, Resolution{Handicap: NoHandicap, IsCalculated: true}, res)
	assert.False(t, res.Usable())

	none := models.Runner{}
	assert.Equal(t, Resolution{Handicap: NoHandicap}, ResolveHandicapForDistance(none, models.Distance10K))
}

func TestRuleAdjustment(t *testing.T) {
	tenK, ok := RuleFor(models.Distance10K)
	require.True(t, ok)
	assert.Equal(t, 120*time.Second, tenK.Adjustment(1, 58*time.Minute))
	assert.Equal(t, 60*time.Second, tenK.Adjustment(1, 61*time.Minute))
	assert.Equal(t, 30*time.Second, tenK.Adjustment(2, 59*time.Minute+50*time.Second))
	assert.Equal(t, 45*time.Second, tenK.Adjustment(2, 59*time.Minute+17*time.Second))
	assert.Equal(t, 15*time.Second, tenK.Adjustment(3, 65*time.Minute))
	assert.Zero(t, tenK.Adjustment(4, 50*time.Minute))
	assert.Zero(t, tenK.Adjustment(9, 50*time.Minute))
	assert.Equal(t, -30*time.Second, tenK.Adjustment(10, 70*time.Minute))

	fiveK, ok := RuleFor(models.Distance5K)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, fiveK.Adjustment(1, 50*time.Minute))
	assert.Equal(t, 15*time.Second, fiveK.Adjustment(2, 49*time.Minute+50*time.Second))
	assert.Equal(t, 15*time.Second, fiveK.Adjustment(3, 55*time.Minute))
	assert.Equal(t, 25*time.Second, fiveK.Adjustment(3, 49*time.Minute+35500*time.Millisecond))
	assert.Equal(t, -15*time.Second, fiveK.Adjustment(12, 55*time.Minute))
}

func TestRuleForReturnsCopy(t *testing.T) {
	rule, ok := RuleFor(models.Distance5K)
	require.True(t, ok)
	rule.Target = time.Minute
	rule.Podium[0] = time.Hour

	again, _ := RuleFor(models.Distance5K)
	assert.Equal(t, 50*time.Minute, again.Target)
	assert.Equal(t, 30*time.Second, again.Podium[0])

	_, ok = RuleFor(models.Distance("21km"))
	assert.False(t, ok)
}

func finisher(member int, d models.Distance, handicap string, elapsed time.Duration) models.Runner {
	r := models.Runner{MemberNumber: member, Distance: d, CheckedIn: true, FinishTime: models.Duration(elapsed)}
	return r.WithCurrentHandicap(d, handicap)
}

func TestCalculateHandicapsScenarios(t *testing.T) {
	runners := []models.Runner{
		finisher(1, models.Distance10K, "08:00", 58*time.Minute),
		finisher(2, models.Distance5K, "06:00", 48*time.Minute),
		finisher(3, models.Distance5K, "05:00", 49*time.Minute+50*time.Second),
	}
	out, err := CalculateHandicaps(runners, NoMonth)
	require.NoError(t, err)

	assert.Equal(t, 1, out[0].FinishPosition)
	assert.Equal(t, "10:00", out[0].NewHandicap)
	assert.Equal(t, 1, out[1].FinishPosition)
	assert.Equal(t, "08:00", out[1].NewHandicap)
	assert.Equal(t, 2, out[2].FinishPosition)
	assert.Equal(t, "05:15", out[2].NewHandicap)

	assert.Zero(t, runners[0].FinishPosition, "input must not be mutated")
	assert.Empty(t, runners[0].NewHandicap)
}

func TestCalculateHandicapsPositionsAreDense(t *testing.T) {
	var runners []models.Runner
	for i := 0; i < 14; i++ {
		elapsed := 70*time.Minute - time.Duration(i*37)*time.Second
		runners = append(runners, finisher(100+i, models.Distance10K, "10:00", elapsed))
		runners = append(runners, finisher(200+i, models.Distance5K, "20:00", elapsed-15*time.Minute))
	}
	runners = append(runners,
		models.Runner{MemberNumber: 300, Distance: models.Distance5K, CurrentHandicap5K: "15:00", Status: models.StatusDNF},
		models.Runner{MemberNumber: 301, Distance: models.Distance10K, CurrentHandicap10K: "15:00", Status: models.StatusEarlyStart, FinishTime: models.Duration(time.Minute)},
	)

	out, err := CalculateHandicaps(runners, NoMonth)
	require.NoError(t, err)

	for _, d := range models.Distances {
		var seen []models.Runner
		for _, r := range out {
			if r.Distance == d && r.FinishPosition > 0 {
				seen = append(seen, r)
			}
		}
		require.Len(t, seen, 14)
		byPos := make(map[int]models.Runner)
		for _, r := range seen {
			_, dup := byPos[r.FinishPosition]
			require.False(t, dup, "duplicate position %d", r.FinishPosition)
			byPos[r.FinishPosition] = r
		}
		for p := 1; p <= 14; p++ {
			r, ok := byPos[p]
			require.True(t, ok, "missing position %d", p)
			if p > 1 {
				require.LessOrEqual(t, *byPos[p-1].FinishTime, *r.FinishTime)
			}
		}
	}

	for _, r := range out {
		if r.NewHandicap == "" {
			continue
		}
		d, err := racetime.ParseHandicapTime(r.NewHandicap)
		require.NoError(t, err)
		require.Zero(t, d%(5*time.Second), "member %d got %s", r.MemberNumber, r.NewHandicap)
	}

	dnf := out[len(out)-2]
	assert.Equal(t, "15:00", dnf.NewHandicap)
	assert.Zero(t, dnf.FinishPosition)
	early := out[len(out)-1]
	assert.Equal(t, "15:00", early.NewHandicap)
	assert.Zero(t, early.FinishPosition)
}

func TestCalculateHandicapsBackMarkersAndMidPack(t *testing.T) {
	var runners []models.Runner
	for i := 0; i < 11; i++ {
		runners = append(runners, finisher(i+1, models.Distance10K, "00:20", 55*time.Minute+time.Duration(i)*time.Minute))
	}
	out, err := CalculateHandicaps(runners, NoMonth)
	require.NoError(t, err)
	assert.Equal(t, "00:20", out[4].NewHandicap, "mid-pack unchanged")
	assert.Equal(t, 10, out[9].FinishPosition)
	assert.Equal(t, "00:00", out[9].NewHandicap, "decrease floors at zero")
	assert.Equal(t, "00:00", out[10].NewHandicap)
}

func TestCalculateHandicapsStarterTimekeeper(t *testing.T) {
	runners := []models.Runner{
		{MemberNumber: 1, Distance: models.Distance10K, CurrentHandicap10K: "08:00", Status: models.StatusStarterTimekeeper},
		{MemberNumber: 2, Distance: models.Distance10K, CurrentHandicap10K: "00:20", Status: models.StatusStarterTimekeeper},
		{MemberNumber: 3, Distance: models.Distance5K, CurrentHandicap5K: "08:00", Status: models.StatusStarterTimekeeper},
	}
	out, err := CalculateHandicaps(runners, NoMonth)
	require.NoError(t, err)
	assert.Equal(t, "07:30", out[0].NewHandicap)
	assert.Equal(t, "00:00", out[1].NewHandicap)
	assert.Equal(t, "08:00", out[2].NewHandicap)
}

func TestCalculateHandicapsSkipsMissingHandicap(t *testing.T) {
	r := models.Runner{MemberNumber: 5, Distance: models.Distance5K, CurrentHandicap10K: "08:00", FinishTime: models.Duration(45 * time.Minute)}
	out, err := CalculateHandicaps([]models.Runner{r}, NoMonth)
	require.NoError(t, err)
	assert.Equal(t, 1, out[0].FinishPosition)
	assert.Empty(t, out[0].NewHandicap)
}

func TestCalculateHandicapsClearsStaleNewHandicap(t *testing.T) {
	noHandicap := finisher(1, models.Distance5K, "", 48*time.Minute)
	noHandicap.NewHandicap = "09:00"
	noTime := models.Runner{MemberNumber: 2, Distance: models.Distance5K, CurrentHandicap5K: "10:00",
		Status: models.StatusFinished, NewHandicap: "11:00"}
	absent := models.Runner{MemberNumber: 3, Distance: models.Distance10K, CurrentHandicap10K: "08:00", NewHandicap: "07:30"}

	out, err := CalculateHandicaps([]models.Runner{noHandicap, noTime, absent}, NoMonth)
	require.NoError(t, err)
	assert.Equal(t, 1, out[0].FinishPosition)
	for _, r := range out {
		assert.Empty(t, r.NewHandicap, "member %d", r.MemberNumber)
	}
}

func TestCalculateHandicapsChampionship(t *testing.T) {
	runners := []models.Runner{
		finisher(1, models.Distance5K, "05:00", 49*time.Minute+50*time.Second),
		{MemberNumber: 2, Distance: models.Distance5K, CurrentHandicap5K: "04:00", Status: models.StatusStarterTimekeeper},
		{MemberNumber: 3, Distance: models.Distance10K, CurrentHandicap10K: "04:00", Status: models.StatusDNF},
		{MemberNumber: 4, Distance: models.Distance5K, CurrentHandicap5K: "09:00"},
	}
	out, err := CalculateHandicaps(runners, 2)
	require.NoError(t, err)

	assert.Equal(t, "2:1:20:2990", out[0].ChampionshipRaces5K)
	assert.Equal(t, 20, *out[0].ChampionshipPoints5K)
	assert.Equal(t, "2:ST:4:0", out[1].ChampionshipRaces5K)
	assert.Equal(t, 4, *out[1].ChampionshipPoints5K)
	assert.Equal(t, "2:DNF:1:0", out[2].ChampionshipRaces10K)
	assert.Equal(t, 1, *out[2].ChampionshipPoints10K)
	assert.Empty(t, out[3].ChampionshipRaces5K, "absent runner gets no entry")
	assert.Nil(t, out[3].ChampionshipPoints5K)
}

func TestCalculateHandicapsInvalidMonth(t *testing.T) {
	_, err := CalculateHandicaps(nil, 13)
	require.ErrorIs(t, err, ErrInvalidMonth)
}

func TestCalculateHandicapsIsDeterministic(t *testing.T) {
	runners := []models.Runner{
		finisher(1, models.Distance10K, "08:00", 58*time.Minute),
		finisher(2, models.Distance10K, "07:00", 58*time.Minute),
		finisher(3, models.Distance5K, "05:00", 49*time.Minute),
	}
	first, err := CalculateHandicaps(runners, 5)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := CalculateHandicaps(runners, 5)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	assert.Equal(t, 1, first[0].FinishPosition, "ties keep input order")
	assert.Equal(t, 2, first[1].FinishPosition)
}
