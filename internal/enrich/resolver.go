package enrich

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BlyZeDev/tempocal/internal/planner"
	"github.com/BlyZeDev/tempocal/internal/tracker"
)

// ErrDropEntry signals that an entry must not be calendared at all: its
// linked issue is done, so any existing occurrences are orphans.
var ErrDropEntry = errors.New("entry resolves to completed work")

// IssueLookup fetches tracked-item metadata. Implementations return
// (nil, nil) on not-found and recoverable errors.
type IssueLookup interface {
	Issue(ctx context.Context, id string) (*tracker.Issue, error)
	Project(ctx context.Context, id string) (*tracker.Project, error)
}

// Resolver builds appointment descriptors for planner entries.
type Resolver struct {
	lookup IssueLookup
	log    *zap.Logger
}

// NewResolver returns a resolver backed by the given lookup.
func NewResolver(lookup IssueLookup, log *zap.Logger) *Resolver {
	return &Resolver{lookup: lookup, log: log}
}

// Resolve produces the descriptor for one entry. A failed lookup degrades
// to a minimal descriptor built from the entry alone; a linked issue whose
// status category is done returns ErrDropEntry.
func (r *Resolver) Resolve(ctx context.Context, e planner.Entry) (*Descriptor, error) {
	switch e.PlanItemKind {
	case planner.ItemIssue:
		issue, err := r.lookup.Issue(ctx, e.PlanItemID)
		if err != nil || issue == nil {
			if err != nil {
				r.log.Warn("issue lookup failed, using entry data only",
					zap.Int("entry", e.ID), zap.String("issue", e.PlanItemID), zap.Error(err))
			}
			return minimalDescriptor(e), nil
		}
		if issue.StatusCategory == tracker.CategoryDone {
			return nil, ErrDropEntry
		}
		return issueDescriptor(e, issue), nil

	case planner.ItemProject:
		project, err := r.lookup.Project(ctx, e.PlanItemID)
		if err != nil || project == nil {
			if err != nil {
				r.log.Warn("project lookup failed, using entry data only",
					zap.Int("entry", e.ID), zap.String("project", e.PlanItemID), zap.Error(err))
			}
			return minimalDescriptor(e), nil
		}
		return projectDescriptor(e, project), nil

	default:
		return minimalDescriptor(e), nil
	}
}
