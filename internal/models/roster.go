package models

import "time"

// CandidateAssignment is one person x project engagement window from the
// warehouse roster. The pool is loaded once per run and is read-only for
// the duration of the run.
type CandidateAssignment struct {
	PersonID    int64
	ProjectID   int64
	ClientName  string
	ProjectName string
	Email       string
	FirstName   string
	LastName    string
	Department  string
	Team        string
	StartDate   time.Time
	EndDate     time.Time
}

// ProjectClientName returns the "{client}|{project}" string used for fuzzy
// matching against the traveller's free-text hint.
func (c CandidateAssignment) ProjectClientName() string {
	return c.ClientName + "|" + c.ProjectName
}

// LinkKey identifies a person-to-project assignment in the time-tracking
// system.
type LinkKey struct {
	PersonID  int64
	ProjectID int64
}

// LinkSet is the set of person-to-project links known to exist in the
// time-tracking system. It is loaded once per run and accumulates links
// created during the run, so the same link is never created twice within
// one batch. Access is single-threaded; the set is threaded through the
// per-row fold.
type LinkSet map[LinkKey]struct{}

// NewLinkSet builds a LinkSet from a list of keys.
func NewLinkSet(keys []LinkKey) LinkSet {
	s := make(LinkSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Contains reports whether the link already exists.
func (s LinkSet) Contains(personID, projectID int64) bool {
	_, ok := s[LinkKey{PersonID: personID, ProjectID: projectID}]
	return ok
}

// Add records a newly created link.
func (s LinkSet) Add(personID, projectID int64) {
	s[LinkKey{PersonID: personID, ProjectID: projectID}] = struct{}{}
}
