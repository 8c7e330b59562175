package roster

import (
	"fmt"
	"strings"

	"github.com/myusername/handicap-race/pkg/models"
)

// ValidateRoster reports runners with a blank name or no handicap for the
// distance they are entered in. It never fails and fixes nothing.
func ValidateRoster(runners []models.Runner) []models.ValidationError {
	var problems []models.ValidationError
	for _, r := range runners {
		if strings.TrimSpace(r.FullName) == "" {
			problems = append(problems, models.ValidationError{
				MemberNumber: r.MemberNumber,
				Field:        ColFullName,
				Message:      fmt.Sprintf("member %d has no name", r.MemberNumber),
			})
		}
		if !r.Distance.Valid() {
			problems = append(problems, models.ValidationError{
				MemberNumber: r.MemberNumber,
				Field:        ColDistance,
				Message:      fmt.Sprintf("member %d has unknown distance %q", r.MemberNumber, r.Distance),
			})
			continue
		}
		if r.CurrentHandicap(r.Distance) == "" {
			field := ColCurrentHandicap5K
			if r.Distance == models.Distance10K {
				field = ColCurrentHandicap10K
			}
			problems = append(problems, models.ValidationError{
				MemberNumber: r.MemberNumber,
				Field:        field,
				Message:      fmt.Sprintf("member %d has no %s handicap", r.MemberNumber, r.Distance),
			})
		}
	}
	return problems
}
