package router

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/models"
)

// Attribution is where an expense row ends up: a billable client project
// or an internal cost center. A zero PersonID/ProjectID means the row
// could not be attributed.
type Attribution struct {
	PersonID  int64
	ProjectID int64
	Client    string
	Project   string
	TeamName  string
	Billable  bool
	Internal  bool
}

// Resolved reports whether the attribution carries usable ids.
func (a Attribution) Resolved() bool {
	return a.PersonID != 0 && a.ProjectID != 0
}

// ProjectMatcher selects a billable project assignment for a person and
// travel date.
type ProjectMatcher interface {
	Match(personRows []models.CandidateAssignment, travelDate time.Time, hint string) (*models.CandidateAssignment, error)
}

// Router classifies a row as billable or internal and resolves the
// project either through the assignment matcher or the team-to-project
// mapping table.
type Router struct {
	teams              map[string]int64
	matcher            ProjectMatcher
	internalClientName string
	billableAnswer     string
	logger             *zap.Logger
}

// New creates a new Router. teams maps "{department} {team}" (and the
// "{department}" fallback) to internal project ids.
func New(teams map[string]int64, m ProjectMatcher, internalClientName, billableAnswer string, logger *zap.Logger) *Router {
	return &Router{
		teams:              teams,
		matcher:            m,
		internalClientName: internalClientName,
		billableAnswer:     billableAnswer,
		logger:             logger,
	}
}

// Route attributes a row given the candidate rows resolved for its
// booker. Internal rows resolve through the team mapping; a double
// mapping miss yields an unresolved attribution and a warning, never an
// error. Billable rows delegate to the matcher, whose classification
// failures pass through to the caller.
func (r *Router) Route(row models.ExpenseRow, personRows []models.CandidateAssignment) (Attribution, error) {
	attr := Attribution{Billable: row.Billable(r.billableAnswer)}

	if row.Internal() {
		attr.Internal = true
		person := personRows[0]

		teamName, projectID, ok := r.lookupTeam(person)
		if !ok {
			r.logger.Warn("No team mapping for person",
				zap.String("email", person.Email),
				zap.String("department", person.Department),
				zap.String("team", person.Team))
			return attr, nil
		}

		attr.PersonID = person.PersonID
		attr.ProjectID = projectID
		attr.Client = r.internalClientName
		attr.Project = teamName
		attr.TeamName = teamName
		return attr, nil
	}

	match, err := r.matcher.Match(personRows, row.TravelDate, row.ProjectHint)
	if err != nil {
		return attr, err
	}

	attr.PersonID = match.PersonID
	attr.ProjectID = match.ProjectID
	attr.Client = match.ClientName
	attr.Project = match.ProjectName
	return attr, nil
}

// lookupTeam tries the two-part "{department} {team}" key before the
// department-only fallback.
func (r *Router) lookupTeam(person models.CandidateAssignment) (string, int64, bool) {
	key := strings.TrimSpace(person.Department + " " + person.Team)
	if id, ok := r.teams[key]; ok {
		return key, id, true
	}
	if id, ok := r.teams[person.Department]; ok {
		return person.Department, id, true
	}
	return "", 0, false
}
