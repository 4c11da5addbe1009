package model

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is matched by every *EmptyInputError via errors.Is.
var ErrEmptyInput = errors.New("empty input")

// ErrNoMatches is returned when both sets are non-empty but the
// tolerance excluded every candidate pair.
var ErrNoMatches = errors.New("no records could be mapped within tolerance")

// ErrDuplicateID is matched by every *DuplicateIDError via errors.Is.
var ErrDuplicateID = errors.New("duplicate identifier")

// LoadError reports that a table could not be parsed into a ScoreSet
// at all. Row-level problems never produce a LoadError.
type LoadError struct {
	// Path is the file (or stream name) being loaded.
	Path string

	// Err is the underlying cause.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EmptyInputError reports that a score set had no usable records.
type EmptyInputError struct {
	// Side is "source" or "target" (or "mapping" for an empty result
	// handed to the evaluator).
	Side string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s score set is empty", e.Side)
}

// Is lets errors.Is(err, ErrEmptyInput) match.
func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// CheckNonEmpty returns an *EmptyInputError for the first empty set.
func CheckNonEmpty(source, target ScoreSet) error {
	if source.Len() == 0 {
		return &EmptyInputError{Side: "source"}
	}
	if target.Len() == 0 {
		return &EmptyInputError{Side: "target"}
	}
	return nil
}

// DuplicateIDError reports an identifier that occurs more than once in
// a score set where each identifier may appear in at most one mapping
// entry.
type DuplicateIDError struct {
	// Side is "source" or "target".
	Side string

	// ID is the first repeated identifier.
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s identifier %q appears more than once", e.Side, e.ID)
}

// Is lets errors.Is(err, ErrDuplicateID) match.
func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}

// CheckUniqueIDs returns a *DuplicateIDError for the first identifier
// that repeats in s.
func CheckUniqueIDs(s ScoreSet, side string) error {
	seen := make(map[string]struct{}, s.Len())
	for _, r := range s.Records {
		if _, ok := seen[r.ID]; ok {
			return &DuplicateIDError{Side: side, ID: r.ID}
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
