package matcher

// ErrorKind classifies why a project could not be matched for a row.
type ErrorKind string

const (
	// NoProjectAssigned means no candidate assignment covered the travel
	// date exactly or fell within its working week.
	NoProjectAssigned ErrorKind = "no project assigned"

	// NoConfidentMatch means several candidates survived the date filters
	// and the free-text hint did not clear the confidence threshold.
	NoConfidentMatch ErrorKind = "no matching project for input"
)

// ProjectError is returned when the matcher cannot settle on a single
// project for a row. It is a classification failure, recorded in the
// row's notes, not a batch-level error.
type ProjectError struct {
	Kind ErrorKind
}

func (e *ProjectError) Error() string {
	return string(e.Kind)
}

// IsProjectError reports whether err is a matcher classification failure
// and returns its kind.
func IsProjectError(err error) (ErrorKind, bool) {
	if pe, ok := err.(*ProjectError); ok {
		return pe.Kind, true
	}
	return "", false
}
