package engine

import (
	"time"

	"github.com/BlyZeDev/tempocal/internal/calendar"
)

// IsStale decides whether an existing occurrence no longer reflects the
// latest known source timestamps. An occurrence without a recorded source
// timestamp is always stale. Linked-item timestamps compare with absence as
// a distinct value: nil equals nil, nil never equals a concrete time.
func IsStale(occ calendar.Occurrence, entryUpdated time.Time, linkedUpdated *time.Time) bool {
	if occ.Meta.SourceLastUpdated.IsZero() {
		return true
	}
	if !occ.Meta.SourceLastUpdated.Equal(entryUpdated) {
		return true
	}
	return !timesEqual(occ.Meta.LinkedItemLastUpdated, linkedUpdated)
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
