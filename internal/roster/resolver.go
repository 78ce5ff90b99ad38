package roster

import (
	"strings"

	"github.com/tpxdata/expense-pipeline/internal/models"
)

// Resolve maps a free-text booker name to the candidate rows belonging to
// one person. A candidate matches when every token of the lowercased
// booker name appears as a substring of the candidate's email. The match
// is deliberately permissive ("J Smith" matches "jane.smith@...") and
// returns one row per concurrent project assignment; narrowing to a
// single project is the matcher's job.
func Resolve(bookerName string, pool []models.CandidateAssignment) []models.CandidateAssignment {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(bookerName)))
	if len(tokens) == 0 {
		return nil
	}

	var matched []models.CandidateAssignment
	for _, row := range pool {
		email := strings.ToLower(row.Email)
		if email == "" {
			continue
		}
		if containsAll(email, tokens) {
			matched = append(matched, row)
		}
	}
	return matched
}

func containsAll(email string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(email, tok) {
			return false
		}
	}
	return true
}
