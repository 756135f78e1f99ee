package calendar

import "time"

// OccurrenceMeta is the sync metadata attached to every event this program
// creates and read back verbatim on the next pass. It ties a calendar event
// to the planner entry generation that produced it.
type OccurrenceMeta struct {
	SourceEntryID         int
	SourceLastUpdated     time.Time
	LinkedItemLastUpdated *time.Time
}

// Occurrence is a handle to one existing calendar event owned by the sync.
type Occurrence struct {
	UID  string
	Meta OccurrenceMeta
	End  time.Time
}

// OccurrenceSpec describes one event to create: a concrete first span plus
// an optional RFC 5545 RRULE value turning it into a recurring series.
type OccurrenceSpec struct {
	Start time.Time
	End   time.Time
	RRule string
}

// Recurring reports whether the spec describes a series.
func (s OccurrenceSpec) Recurring() bool { return s.RRule != "" }

// Event carries the presentation fields of an occurrence.
type Event struct {
	Subject  string
	Body     string
	URL      string
	Category string
	Color    string
}

// Store is the calendar backend the reconciliation engine writes to.
type Store interface {
	// List returns every occurrence owned by the sync, grouped by source
	// entry id. Events without valid sync metadata are not ours and are
	// never returned (and therefore never deleted).
	List() (map[int][]Occurrence, error)

	// Create adds one event and returns its handle.
	Create(ev Event, spec OccurrenceSpec, meta OccurrenceMeta) (Occurrence, error)

	// Delete removes one previously listed occurrence.
	Delete(occ Occurrence) error
}
