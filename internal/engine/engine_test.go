package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BlyZeDev/tempocal/internal/calendar"
	"github.com/BlyZeDev/tempocal/internal/enrich"
	"github.com/BlyZeDev/tempocal/internal/planner"
)

// Fixed reference time: Monday, March 4, 2024.
var testNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

type fakePlanner struct {
	pingErr  error
	entries  []planner.Entry
	fetchErr error
}

func (f *fakePlanner) Ping(context.Context) error { return f.pingErr }

func (f *fakePlanner) Entries(context.Context, time.Time, time.Time) ([]planner.Entry, error) {
	return f.entries, f.fetchErr
}

type fakeTracker struct{ pingErr error }

func (f *fakeTracker) Ping(context.Context) error { return f.pingErr }

type fakeResolver struct {
	descriptors map[int]*enrich.Descriptor
	errs        map[int]error
}

func (f *fakeResolver) Resolve(_ context.Context, e planner.Entry) (*enrich.Descriptor, error) {
	if err, ok := f.errs[e.ID]; ok {
		return nil, err
	}
	if d, ok := f.descriptors[e.ID]; ok {
		return d, nil
	}
	return &enrich.Descriptor{Entry: e, Subject: "test"}, nil
}

type createCall struct {
	ev   calendar.Event
	spec calendar.OccurrenceSpec
	meta calendar.OccurrenceMeta
}

type fakeStore struct {
	existing map[int][]calendar.Occurrence
	listErr  error

	created   []createCall
	deleted   []string
	createErr error
	deleteErr error
}

func (f *fakeStore) List() (map[int][]calendar.Occurrence, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[int][]calendar.Occurrence, len(f.existing))
	for id, group := range f.existing {
		out[id] = append([]calendar.Occurrence(nil), group...)
	}
	return out, nil
}

func (f *fakeStore) Create(ev calendar.Event, spec calendar.OccurrenceSpec, meta calendar.OccurrenceMeta) (calendar.Occurrence, error) {
	if f.createErr != nil {
		return calendar.Occurrence{}, f.createErr
	}
	f.created = append(f.created, createCall{ev: ev, spec: spec, meta: meta})
	return calendar.Occurrence{UID: fmt.Sprintf("created-%d", len(f.created)), Meta: meta, End: spec.End}, nil
}

func (f *fakeStore) Delete(occ calendar.Occurrence) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, occ.UID)
	return nil
}

func testEntry(id int) planner.Entry {
	return planner.Entry{
		ID:                    id,
		Start:                 time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		End:                   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		StartTime:             9 * time.Hour,
		DailyDuration:         time.Hour,
		IncludeNonWorkingDays: true,
		LastUpdated:           time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func occurrenceFor(e planner.Entry, uid string) calendar.Occurrence {
	return calendar.Occurrence{
		UID: uid,
		Meta: calendar.OccurrenceMeta{
			SourceEntryID:     e.ID,
			SourceLastUpdated: e.LastUpdated,
		},
		End: e.Start.Add(e.StartTime + e.DailyDuration),
	}
}

func newTestEngine(p *fakePlanner, r *fakeResolver, s *fakeStore) *Engine {
	return New(p, &fakeTracker{}, r, s, zap.NewNop(),
		WithWindow(7, 365),
		WithNow(func() time.Time { return testNow }))
}

func TestReconcileCreatesNewEntry(t *testing.T) {
	e := testEntry(1)
	store := &fakeStore{}
	eng := newTestEngine(&fakePlanner{entries: []planner.Entry{e}}, &fakeResolver{}, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 0, sum.Deleted)
	assert.Equal(t, 0, sum.Failed)
	require.Len(t, store.created, 1)
	assert.Equal(t, "test", store.created[0].ev.Subject)
	assert.Equal(t, 1, store.created[0].meta.SourceEntryID)
	assert.Equal(t, e.LastUpdated, store.created[0].meta.SourceLastUpdated)
}

func TestReconcileIsIdempotent(t *testing.T) {
	e := testEntry(1)
	store := &fakeStore{existing: map[int][]calendar.Occurrence{
		1: {occurrenceFor(e, "existing-1")},
	}}
	eng := newTestEngine(&fakePlanner{entries: []planner.Entry{e}}, &fakeResolver{}, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Changed())
	assert.Empty(t, store.created)
	assert.Empty(t, store.deleted)
}

func TestReconcileRegeneratesStaleGroup(t *testing.T) {
	e := testEntry(1)
	stale := occurrenceFor(e, "stale-1")
	stale.Meta.SourceLastUpdated = e.LastUpdated.Add(-time.Hour)
	fresh := occurrenceFor(e, "fresh-2")

	store := &fakeStore{existing: map[int][]calendar.Occurrence{
		1: {stale, fresh},
	}}
	eng := newTestEngine(&fakePlanner{entries: []planner.Entry{e}}, &fakeResolver{}, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)

	// One stale occurrence invalidates the whole group.
	assert.ElementsMatch(t, []string{"stale-1", "fresh-2"}, store.deleted)
	require.Len(t, store.created, 1)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 0, sum.Deleted)
}

func TestReconcileDropsCompletedWork(t *testing.T) {
	e := testEntry(1)
	store := &fakeStore{existing: map[int][]calendar.Occurrence{
		1: {occurrenceFor(e, "done-1")},
	}}
	resolver := &fakeResolver{errs: map[int]error{1: enrich.ErrDropEntry}}
	eng := newTestEngine(&fakePlanner{entries: []planner.Entry{e}}, resolver, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"done-1"}, store.deleted)
	assert.Empty(t, store.created)
	assert.Equal(t, 1, sum.Deleted)
	assert.Equal(t, 0, sum.Created)
}

func TestReconcileDropWithoutExistingGroupIsNoop(t *testing.T) {
	e := testEntry(1)
	store := &fakeStore{}
	resolver := &fakeResolver{errs: map[int]error{1: enrich.ErrDropEntry}}
	eng := newTestEngine(&fakePlanner{entries: []planner.Entry{e}}, resolver, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Changed())
}

func TestReconcileSweepsOrphans(t *testing.T) {
	gone := testEntry(9)
	future := occurrenceFor(gone, "future-1")
	future.End = testNow.AddDate(0, 0, 3)
	past := occurrenceFor(gone, "past-2")
	past.End = testNow.AddDate(0, 0, -30)

	store := &fakeStore{existing: map[int][]calendar.Occurrence{
		9: {future, past},
	}}
	eng := newTestEngine(&fakePlanner{}, &fakeResolver{}, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)

	// Ended occurrences stay; only the upcoming one is removed.
	assert.Equal(t, []string{"future-1"}, store.deleted)
	assert.Equal(t, 1, sum.Deleted)
}

func TestReconcileKeepsEntirelyPastOrphans(t *testing.T) {
	gone := testEntry(9)
	past := occurrenceFor(gone, "past-1")
	past.End = testNow.AddDate(0, 0, -30)

	store := &fakeStore{existing: map[int][]calendar.Occurrence{
		9: {past},
	}}
	eng := newTestEngine(&fakePlanner{}, &fakeResolver{}, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, store.deleted)
	assert.Equal(t, 0, sum.Deleted)
}

func TestReconcileSkipsSweepOnPartialFetch(t *testing.T) {
	e := testEntry(1)
	orphan := occurrenceFor(testEntry(9), "orphan-1")
	orphan.End = testNow.AddDate(0, 0, 3)

	store := &fakeStore{existing: map[int][]calendar.Occurrence{
		9: {orphan},
	}}
	p := &fakePlanner{entries: []planner.Entry{e}, fetchErr: errors.New("connection reset")}
	eng := newTestEngine(p, &fakeResolver{}, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)

	assert.True(t, sum.Partial)
	assert.Equal(t, 1, sum.Created)
	assert.Empty(t, store.deleted)
}

func TestReconcilePlannerPreflightFailure(t *testing.T) {
	eng := newTestEngine(&fakePlanner{pingErr: planner.ErrUnauthorized}, &fakeResolver{}, &fakeStore{})

	_, err := eng.Reconcile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, planner.ErrUnauthorized)
}

func TestReconcileTrackerPreflightFailure(t *testing.T) {
	store := &fakeStore{}
	eng := New(&fakePlanner{}, &fakeTracker{pingErr: errors.New("timeout")}, &fakeResolver{}, store, zap.NewNop(),
		WithNow(func() time.Time { return testNow }))

	_, err := eng.Reconcile(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.created)
}

func TestReconcileCountsOrphanDeleteFailures(t *testing.T) {
	gone := testEntry(9)
	orphan := occurrenceFor(gone, "stuck-1")
	orphan.End = testNow.AddDate(0, 0, 3)

	store := &fakeStore{
		existing:  map[int][]calendar.Occurrence{9: {orphan}},
		deleteErr: errors.New("file locked"),
	}
	eng := newTestEngine(&fakePlanner{}, &fakeResolver{}, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Deleted)
	assert.Equal(t, 1, sum.Failed)
}

func TestReconcileCountsCreateFailures(t *testing.T) {
	e := testEntry(1)
	store := &fakeStore{createErr: errors.New("disk full")}
	eng := newTestEngine(&fakePlanner{entries: []planner.Entry{e}}, &fakeResolver{}, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 1, sum.Failed)
}

func TestReconcileEmptyExpansionCreatesNothing(t *testing.T) {
	e := testEntry(1)
	e.Start = time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) // Saturday
	e.End = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)  // Sunday
	e.IncludeNonWorkingDays = false

	store := &fakeStore{}
	eng := newTestEngine(&fakePlanner{entries: []planner.Entry{e}}, &fakeResolver{}, store)

	sum, err := eng.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Changed())
	assert.Empty(t, store.created)
}

func TestReconcileAttachesCategoryToEvent(t *testing.T) {
	e := testEntry(1)
	linked := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	resolver := &fakeResolver{descriptors: map[int]*enrich.Descriptor{
		1: {
			Entry:                 e,
			Subject:               "EDOC-17",
			URL:                   "https://example.atlassian.net/browse/EDOC-17",
			Category:              &enrich.Category{Name: "Support", Color: "steelblue"},
			LinkedItemLastUpdated: &linked,
		},
	}}
	store := &fakeStore{}
	eng := newTestEngine(&fakePlanner{entries: []planner.Entry{e}}, resolver, store)

	_, err := eng.Reconcile(context.Background())
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	created := store.created[0]
	assert.Equal(t, "Support", created.ev.Category)
	assert.Equal(t, "steelblue", created.ev.Color)
	assert.Equal(t, "https://example.atlassian.net/browse/EDOC-17", created.ev.URL)
	require.NotNil(t, created.meta.LinkedItemLastUpdated)
	assert.True(t, created.meta.LinkedItemLastUpdated.Equal(linked))
}
