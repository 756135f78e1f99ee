// Package engine implements the reconciliation pass that keeps the calendar
// mirroring the remote planner: diffing existing occurrences against fresh
// entries, regenerating stale groups, and sweeping orphans.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BlyZeDev/tempocal/internal/calendar"
	"github.com/BlyZeDev/tempocal/internal/enrich"
	"github.com/BlyZeDev/tempocal/internal/planner"
	"github.com/BlyZeDev/tempocal/internal/recurrence"
)

// PlannerSource provides the fresh planning data for a pass.
type PlannerSource interface {
	Ping(ctx context.Context) error
	// Entries returns the entries overlapping [from, to] in fetch order.
	// On a mid-stream error, entries decoded so far are returned with it.
	Entries(ctx context.Context, from, to time.Time) ([]planner.Entry, error)
}

// Resolver produces descriptors for entries; enrich.ErrDropEntry means the
// entry must not be calendared.
type Resolver interface {
	Resolve(ctx context.Context, e planner.Entry) (*enrich.Descriptor, error)
}

// Pinger is the optional secondary-remote connectivity probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Summary is the per-pass result shown to the operator. Created and Deleted
// count entry-level decisions (occurrence groups), not individual events;
// Failed counts store writes that did not go through. Partial is set when
// the planner stream terminated early, in which case the orphan sweep was
// skipped.
type Summary struct {
	Created int
	Deleted int
	Failed  int
	Partial bool
}

// Changed is the pass change count: created plus deleted groups.
func (s Summary) Changed() int { return s.Created + s.Deleted }

// Engine runs reconciliation passes. A single Engine must not run passes
// concurrently; the scheduler enforces that.
type Engine struct {
	planner  PlannerSource
	tracker  Pinger
	resolver Resolver
	store    calendar.Store
	log      *zap.Logger

	lookback time.Duration
	horizon  time.Duration
	now      func() time.Time
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithWindow sets how far back and forward a pass reaches.
func WithWindow(lookbackDays, horizonDays int) Option {
	return func(e *Engine) {
		e.lookback = time.Duration(lookbackDays) * 24 * time.Hour
		e.horizon = time.Duration(horizonDays) * 24 * time.Hour
	}
}

// WithNow overrides the pass clock.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine over the given collaborators. tracker may be nil to
// skip the secondary preflight.
func New(source PlannerSource, tracker Pinger, resolver Resolver, store calendar.Store, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		planner:  source,
		tracker:  tracker,
		resolver: resolver,
		store:    store,
		log:      log,
		lookback: 7 * 24 * time.Hour,
		horizon:  365 * 24 * time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile runs one pass. Connectivity failures abort the pass with an
// error; everything else degrades at entry granularity and is reflected in
// the summary.
func (e *Engine) Reconcile(ctx context.Context) (Summary, error) {
	var sum Summary

	if err := e.planner.Ping(ctx); err != nil {
		return sum, fmt.Errorf("planner preflight: %w", err)
	}
	if e.tracker != nil {
		if err := e.tracker.Ping(ctx); err != nil {
			return sum, fmt.Errorf("tracker preflight: %w", err)
		}
	}

	now := e.now()
	windowStart := truncateToDay(now).Add(-e.lookback)
	windowEnd := truncateToDay(now).Add(e.horizon)

	existing, err := e.store.List()
	if err != nil {
		return sum, fmt.Errorf("calendar preflight: %w", err)
	}

	e.log.Info("sync started",
		zap.Time("window_start", windowStart),
		zap.Time("window_end", windowEnd),
		zap.Int("existing_groups", len(existing)))

	entries, fetchErr := e.planner.Entries(ctx, windowStart, windowEnd)
	if fetchErr != nil {
		sum.Partial = true
		e.log.Warn("planner stream terminated early, reconciling partial results", zap.Error(fetchErr))
	}

	for _, entry := range entries {
		e.reconcileEntry(ctx, entry, existing, &sum)
	}

	// Anything left in the existing map has no live planner entry. Ended
	// occurrences stay untouched so past calendar data keeps matching what
	// was actually planned back then.
	if !sum.Partial {
		for id, group := range existing {
			if e.deleteFrom(group, windowStart, &sum) {
				sum.Deleted++
				e.log.Info("removed orphaned occurrence group", zap.Int("entry", id))
			}
		}
	}

	e.log.Info("sync finished",
		zap.Int("created", sum.Created),
		zap.Int("deleted", sum.Deleted),
		zap.Int("failed", sum.Failed))
	return sum, nil
}

// reconcileEntry decides create/keep/delete for one entry and applies it.
// Failures here never abort the pass.
func (e *Engine) reconcileEntry(ctx context.Context, entry planner.Entry, existing map[int][]calendar.Occurrence, sum *Summary) {
	group, hasGroup := existing[entry.ID]
	delete(existing, entry.ID)

	desc, err := e.resolver.Resolve(ctx, entry)
	if errors.Is(err, enrich.ErrDropEntry) {
		if hasGroup && e.deleteGroup(group, sum) {
			sum.Deleted++
			e.log.Info("removed occurrences for completed work", zap.Int("entry", entry.ID))
		}
		return
	}
	if err != nil {
		sum.Failed++
		e.log.Warn("skipping entry, descriptor resolution failed", zap.Int("entry", entry.ID), zap.Error(err))
		return
	}

	needsCreation := true
	if hasGroup {
		needsCreation = false
		for _, occ := range group {
			if IsStale(occ, entry.LastUpdated, desc.LinkedItemLastUpdated) {
				needsCreation = true
				break
			}
		}
		if needsCreation && !e.deleteGroup(group, sum) {
			// Regenerating on top of half-deleted state would duplicate
			// events; leave this entry for the next pass.
			e.log.Warn("stale group not fully deleted, deferring regeneration", zap.Int("entry", entry.ID))
			return
		}
	}
	if !needsCreation {
		return
	}

	specs, err := recurrence.Expand(entry)
	if err != nil {
		sum.Failed++
		e.log.Warn("skipping entry, expansion failed", zap.Int("entry", entry.ID), zap.Error(err))
		return
	}
	if len(specs) == 0 {
		return
	}

	ev := calendar.Event{
		Subject: desc.Subject,
		Body:    desc.Body(),
		URL:     desc.URL,
	}
	if desc.Category != nil {
		ev.Category = desc.Category.Name
		ev.Color = desc.Category.Color
	}
	meta := calendar.OccurrenceMeta{
		SourceEntryID:         entry.ID,
		SourceLastUpdated:     entry.LastUpdated,
		LinkedItemLastUpdated: desc.LinkedItemLastUpdated,
	}

	created := false
	for _, spec := range specs {
		if _, err := e.store.Create(ev, spec, meta); err != nil {
			sum.Failed++
			e.log.Warn("occurrence create failed", zap.Int("entry", entry.ID), zap.Error(err))
			continue
		}
		created = true
	}
	if created {
		sum.Created++
	}
}

// deleteGroup removes every occurrence of a group. Returns true when all
// deletions went through.
func (e *Engine) deleteGroup(group []calendar.Occurrence, sum *Summary) bool {
	ok := true
	for _, occ := range group {
		if err := e.store.Delete(occ); err != nil {
			sum.Failed++
			ok = false
			e.log.Warn("occurrence delete failed", zap.String("uid", occ.UID), zap.Error(err))
		}
	}
	return ok
}

// deleteFrom removes the occurrences of an orphaned group that end at or
// after the window start. Returns true when anything was deleted.
func (e *Engine) deleteFrom(group []calendar.Occurrence, windowStart time.Time, sum *Summary) bool {
	deleted := false
	for _, occ := range group {
		if occ.End.Before(windowStart) {
			continue
		}
		if err := e.store.Delete(occ); err != nil {
			sum.Failed++
			e.log.Warn("orphan delete failed", zap.String("uid", occ.UID), zap.Error(err))
			continue
		}
		deleted = true
	}
	return deleted
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
