package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Custom properties carrying the sync metadata on each VEVENT.
const (
	propEntryID       = ical.ComponentProperty("X-TEMPO-ID")
	propEntryUpdated  = ical.ComponentProperty("X-TEMPO-UPDATED")
	propLinkedUpdated = ical.ComponentProperty("X-JIRA-UPDATED")
	propColor         = ical.ComponentProperty("COLOR")
)

const metaTimeFormat = time.RFC3339Nano

// FileStore implements Store over a single .ics file. Events created by
// other programs may live in the same file; they are recognized by their
// missing or unparsable sync metadata and left alone.
type FileStore struct {
	path string
	log  *zap.Logger
}

// NewFileStore returns a store writing to the calendar file at path. The
// file is created on first write.
func NewFileStore(path string, log *zap.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (s *FileStore) List() (map[int][]Occurrence, error) {
	cal, err := s.load()
	if err != nil {
		return nil, err
	}

	groups := make(map[int][]Occurrence)
	for _, ev := range cal.Events() {
		occ, ok := s.occurrenceFrom(ev)
		if !ok {
			continue
		}
		groups[occ.Meta.SourceEntryID] = append(groups[occ.Meta.SourceEntryID], occ)
	}
	return groups, nil
}

func (s *FileStore) Create(ev Event, spec OccurrenceSpec, meta OccurrenceMeta) (Occurrence, error) {
	cal, err := s.load()
	if err != nil {
		return Occurrence{}, err
	}

	uid := uuid.NewString() + "@tempocal"
	ve := cal.AddEvent(uid)
	now := time.Now().UTC()
	ve.SetDtStampTime(now)
	ve.SetCreatedTime(now)
	ve.SetStartAt(spec.Start)
	ve.SetEndAt(spec.End)
	ve.SetSummary(ev.Subject)
	if ev.Body != "" {
		ve.SetDescription(ev.Body)
	}
	if ev.URL != "" {
		ve.SetURL(ev.URL)
	}
	if ev.Category != "" {
		ve.SetProperty(ical.ComponentPropertyCategories, ev.Category)
	}
	if ev.Color != "" {
		ve.SetProperty(propColor, ev.Color)
	}
	if spec.Recurring() {
		ve.SetProperty(ical.ComponentPropertyRrule, spec.RRule)
	}

	ve.SetProperty(propEntryID, strconv.Itoa(meta.SourceEntryID))
	ve.SetProperty(propEntryUpdated, meta.SourceLastUpdated.UTC().Format(metaTimeFormat))
	if meta.LinkedItemLastUpdated != nil {
		ve.SetProperty(propLinkedUpdated, meta.LinkedItemLastUpdated.UTC().Format(metaTimeFormat))
	}

	if err := s.save(cal); err != nil {
		return Occurrence{}, err
	}
	return Occurrence{UID: uid, Meta: meta, End: spec.End}, nil
}

func (s *FileStore) Delete(occ Occurrence) error {
	cal, err := s.load()
	if err != nil {
		return err
	}

	kept := cal.Components[:0]
	removed := false
	for _, comp := range cal.Components {
		if ev, ok := comp.(*ical.VEvent); ok && ev.Id() == occ.UID {
			removed = true
			continue
		}
		kept = append(kept, comp)
	}
	cal.Components = kept

	if !removed {
		// Already gone; deleting twice is not an error.
		return nil
	}
	return s.save(cal)
}

// occurrenceFrom reads the sync metadata off one event. Events that were not
// created by the sync, or whose metadata does not parse, are reported as
// foreign.
func (s *FileStore) occurrenceFrom(ev *ical.VEvent) (Occurrence, bool) {
	idProp := ev.GetProperty(propEntryID)
	if idProp == nil || idProp.Value == "" {
		return Occurrence{}, false
	}
	entryID, err := strconv.Atoi(idProp.Value)
	if err != nil {
		s.log.Debug("ignoring event with foreign entry id", zap.String("uid", ev.Id()), zap.String("value", idProp.Value))
		return Occurrence{}, false
	}

	meta := OccurrenceMeta{SourceEntryID: entryID}
	if p := ev.GetProperty(propEntryUpdated); p != nil {
		t, err := time.Parse(metaTimeFormat, p.Value)
		if err != nil {
			s.log.Debug("ignoring event with unparsable metadata", zap.String("uid", ev.Id()), zap.Error(err))
			return Occurrence{}, false
		}
		meta.SourceLastUpdated = t
	}
	if p := ev.GetProperty(propLinkedUpdated); p != nil {
		t, err := time.Parse(metaTimeFormat, p.Value)
		if err != nil {
			s.log.Debug("ignoring event with unparsable metadata", zap.String("uid", ev.Id()), zap.Error(err))
			return Occurrence{}, false
		}
		meta.LinkedItemLastUpdated = &t
	}

	// For recurring series this is the end of the first instance, so the
	// past/future cutoff keys off the series anchor.
	end, err := ev.GetEndAt()
	if err != nil {
		end = time.Time{}
	}

	return Occurrence{UID: ev.Id(), Meta: meta, End: end}, true
}

func (s *FileStore) load() (*ical.Calendar, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return newCalendar(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open calendar %s: %w", s.path, err)
	}
	defer f.Close()

	cal, err := ical.ParseCalendar(f)
	if err != nil {
		return nil, fmt.Errorf("parse calendar %s: %w", s.path, err)
	}
	return cal, nil
}

// save writes the calendar atomically via a temp file in the same directory.
func (s *FileStore) save(cal *ical.Calendar) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tempocal-*.ics")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(cal.Serialize()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//tempocal//tempocal//EN")
	return cal
}
