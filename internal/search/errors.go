package search

import "fmt"

// SearchError wraps a backend transport or parse failure.
type SearchError struct {
	Engine string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %s: %v", e.Engine, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// NoResultsError means every attempted engine returned zero results for the
// query. Distinguishable from transport failure so callers can tell the user
// to rephrase instead of retrying.
type NoResultsError struct {
	Query string
}

func (e *NoResultsError) Error() string {
	return fmt.Sprintf("no search results for %q", e.Query)
}
