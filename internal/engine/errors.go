package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies query failures so views can pick a degradation path.
type ErrorKind string

const (
	// KindDataUnavailable: a dataset file is unreachable or unparseable.
	KindDataUnavailable ErrorKind = "data_unavailable"
	// KindSchemaMismatch: an expected column or table is absent.
	KindSchemaMismatch ErrorKind = "schema_mismatch"
	// KindQuery: any other execution failure (bad SQL, engine fault).
	KindQuery ErrorKind = "query"
)

// QueryError wraps an engine failure with its classification. A query that
// legitimately returns zero rows is not an error and never produces one.
type QueryError struct {
	Kind    ErrorKind
	Dataset string
	SQL     string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Dataset != "" {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Dataset, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// classify maps a raw sqlite error to an ErrorKind by message inspection;
// the driver does not expose structured codes for these cases.
func classify(err error) ErrorKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such column"):
		return KindSchemaMismatch
	case strings.Contains(msg, "no such table"):
		return KindDataUnavailable
	default:
		return KindQuery
	}
}

// IsDataUnavailable reports whether err carries the DataUnavailable kind.
func IsDataUnavailable(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == KindDataUnavailable
}

// IsSchemaMismatch reports whether err carries the SchemaMismatch kind.
func IsSchemaMismatch(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == KindSchemaMismatch
}
