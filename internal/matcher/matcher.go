package matcher

import (
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/models"
)

// Matcher selects the single most plausible project assignment for a
// resolved person and a travel date. Policy, in order: exact-day match,
// working-week window fallback, then a fuzzy tie-break on the traveller's
// free-text hint when several candidates remain.
type Matcher struct {
	confidence           int
	internalClientMarker string
	logger               *zap.Logger
}

// New creates a new Matcher. confidence is the fuzzy score a hint must
// exceed (0-100); internalClientMarker excludes in-house clients from the
// billable candidate set.
func New(confidence int, internalClientMarker string, logger *zap.Logger) *Matcher {
	return &Matcher{
		confidence:           confidence,
		internalClientMarker: internalClientMarker,
		logger:               logger,
	}
}

// Match returns the candidate assignment an expense row should be booked
// against. personRows must all belong to one person. Fails with
// *ProjectError when no candidate survives the date filters or the hint
// is not a confident enough discriminator.
func (m *Matcher) Match(personRows []models.CandidateAssignment, travelDate time.Time, hint string) (*models.CandidateAssignment, error) {
	billable := make([]models.CandidateAssignment, 0, len(personRows))
	for _, row := range personRows {
		if strings.Contains(row.ClientName, m.internalClientMarker) {
			continue
		}
		billable = append(billable, row)
	}

	// Single-day assignments on the travel date take precedence.
	candidates := filter(billable, func(row models.CandidateAssignment) bool {
		return sameDay(row.StartDate, travelDate) && sameDay(row.EndDate, travelDate)
	})

	if len(candidates) == 0 {
		monday, friday := WeekBounds(travelDate)
		candidates = filter(billable, func(row models.CandidateAssignment) bool {
			return !row.StartDate.Before(monday) && !row.EndDate.After(friday)
		})
	}

	if len(candidates) == 0 {
		return nil, &ProjectError{Kind: NoProjectAssigned}
	}

	if len(candidates) == 1 {
		return &candidates[0], nil
	}

	best, score := m.closestProject(hint, candidates)
	m.logger.Debug("Fuzzy tie-break between project assignments",
		zap.Int("candidates", len(candidates)),
		zap.String("hint", hint),
		zap.String("best", best),
		zap.Int("score", score))

	if score <= m.confidence {
		return nil, &ProjectError{Kind: NoConfidentMatch}
	}

	for i := range candidates {
		if candidates[i].ProjectClientName() == best {
			return &candidates[i], nil
		}
	}
	// Unreachable: best always comes from the candidate list.
	return nil, &ProjectError{Kind: NoConfidentMatch}
}

// closestProject scores the hint against the distinct "{client}|{project}"
// strings of the candidates and returns the best one. Strictly-greater
// comparison keeps ties resolved in first-seen order, and the token-based
// scorer is deterministic for identical inputs.
func (m *Matcher) closestProject(hint string, candidates []models.CandidateAssignment) (string, int) {
	seen := make(map[string]struct{}, len(candidates))
	best := ""
	bestScore := -1
	for _, c := range candidates {
		name := c.ProjectClientName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		score := fuzzy.TokenSetRatio(hint, name)
		if score > bestScore {
			best = name
			bestScore = score
		}
	}
	return best, bestScore
}

// WeekBounds returns the Monday and Friday of the ISO week containing d,
// truncated to the day. Both bounds are inclusive.
func WeekBounds(d time.Time) (monday, friday time.Time) {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	monday = day.AddDate(0, 0, -offset)
	friday = monday.AddDate(0, 0, 4)
	return monday, friday
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func filter(rows []models.CandidateAssignment, keep func(models.CandidateAssignment) bool) []models.CandidateAssignment {
	var out []models.CandidateAssignment
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}
