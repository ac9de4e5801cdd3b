package analytics

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable marks a failed collaborator fetch. It is the only
// request-fatal condition in the engine: with no series data there is nothing
// to compute, so the caller should retry or serve a cached result.
var ErrUpstreamUnavailable = errors.New("upstream series data unavailable")

// InsufficientDataError reports that a metric or pair fell below the minimum
// usable overlap. It is informational: the affected entity is omitted from
// results and the batch continues.
type InsufficientDataError struct {
	MetricA string
	MetricB string
	Have    int
	Need    int
}

func (e *InsufficientDataError) Error() string {
	if e.MetricB == "" {
		return fmt.Sprintf("insufficient data for %s: have %d days, need %d", e.MetricA, e.Have, e.Need)
	}
	return fmt.Sprintf("insufficient overlap for %s/%s: have %d days, need %d", e.MetricA, e.MetricB, e.Have, e.Need)
}

// IsInsufficientData reports whether err is an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ide *InsufficientDataError
	return errors.As(err, &ide)
}
