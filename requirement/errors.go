package requirement

import "fmt"

// UnknownClauseError is returned when a requirement names a clause the
// vocabulary does not know. An empty clause (e.g. "z AND ") reports Clause "".
type UnknownClauseError struct {
	Clause      string
	Requirement string
}

func (e *UnknownClauseError) Error() string {
	if e.Clause == "" {
		return fmt.Sprintf("requirement %q: empty clause", e.Requirement)
	}
	return fmt.Sprintf("requirement %q: unknown clause %q", e.Requirement, e.Clause)
}
