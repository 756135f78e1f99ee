package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BlyZeDev/tempocal/internal/planner"
	"github.com/BlyZeDev/tempocal/internal/tracker"
)

type fakeLookup struct {
	issue      *tracker.Issue
	issueErr   error
	project    *tracker.Project
	projectErr error
}

func (f *fakeLookup) Issue(context.Context, string) (*tracker.Issue, error) {
	return f.issue, f.issueErr
}

func (f *fakeLookup) Project(context.Context, string) (*tracker.Project, error) {
	return f.project, f.projectErr
}

func issueEntry(description string) planner.Entry {
	return planner.Entry{
		ID:           7,
		Description:  description,
		PlanItemID:   "10001",
		PlanItemKind: planner.ItemIssue,
	}
}

func TestResolveIssueEnriches(t *testing.T) {
	updated := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	lookup := &fakeLookup{issue: &tracker.Issue{
		Key:         "PROJ-12",
		Summary:     "Fix the flux capacitor",
		Permalink:   "https://example.atlassian.net/browse/PROJ-12",
		LastUpdated: updated,
	}}
	r := NewResolver(lookup, zap.NewNop())

	desc, err := r.Resolve(context.Background(), issueEntry(""))
	require.NoError(t, err)

	assert.Equal(t, "Fix the flux capacitor", desc.Subject)
	assert.Equal(t, "https://example.atlassian.net/browse/PROJ-12", desc.URL)
	require.NotNil(t, desc.LinkedItemLastUpdated)
	assert.True(t, desc.LinkedItemLastUpdated.Equal(updated))
}

func TestResolveEntryDescriptionWinsOverSummary(t *testing.T) {
	lookup := &fakeLookup{issue: &tracker.Issue{Key: "PROJ-12", Summary: "issue summary"}}
	r := NewResolver(lookup, zap.NewNop())

	desc, err := r.Resolve(context.Background(), issueEntry("planned work"))
	require.NoError(t, err)
	assert.Equal(t, "planned work", desc.Subject)
	assert.Equal(t, "issue summary", desc.Summary)
}

func TestResolveDoneIssueDropsEntry(t *testing.T) {
	lookup := &fakeLookup{issue: &tracker.Issue{
		Key:            "PROJ-12",
		StatusCategory: tracker.CategoryDone,
	}}
	r := NewResolver(lookup, zap.NewNop())

	_, err := r.Resolve(context.Background(), issueEntry(""))
	assert.ErrorIs(t, err, ErrDropEntry)
}

func TestResolveFailedIssueLookupFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		lookup *fakeLookup
	}{
		{name: "lookup error", lookup: &fakeLookup{issueErr: errors.New("timeout")}},
		{name: "not found", lookup: &fakeLookup{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.lookup, zap.NewNop())

			desc, err := r.Resolve(context.Background(), issueEntry(""))
			require.NoError(t, err)
			assert.Equal(t, "Issue - #10001", desc.Subject)
			assert.Empty(t, desc.URL)
			assert.Nil(t, desc.Category)
			assert.Nil(t, desc.LinkedItemLastUpdated)
		})
	}
}

func TestResolveProject(t *testing.T) {
	lookup := &fakeLookup{project: &tracker.Project{
		Key:       "PROJ",
		Name:      "Customer Portal",
		Permalink: "https://example.atlassian.net/browse/PROJ",
	}}
	r := NewResolver(lookup, zap.NewNop())

	e := planner.Entry{ID: 7, PlanItemID: "20001", PlanItemKind: planner.ItemProject}
	desc, err := r.Resolve(context.Background(), e)
	require.NoError(t, err)

	assert.Equal(t, "Customer Portal", desc.Subject)
	assert.Nil(t, desc.Category)
	assert.Nil(t, desc.LinkedItemLastUpdated)
}

func TestResolveFailedProjectLookupFallsBack(t *testing.T) {
	r := NewResolver(&fakeLookup{projectErr: errors.New("timeout")}, zap.NewNop())

	e := planner.Entry{ID: 7, PlanItemID: "20001", PlanItemKind: planner.ItemProject}
	desc, err := r.Resolve(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, "Project - #20001", desc.Subject)
}

func TestResolveUnlinkedEntry(t *testing.T) {
	r := NewResolver(&fakeLookup{}, zap.NewNop())

	desc, err := r.Resolve(context.Background(), planner.Entry{ID: 7, Description: "admin work"})
	require.NoError(t, err)
	assert.Equal(t, "admin work", desc.Subject)

	desc, err = r.Resolve(context.Background(), planner.Entry{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, "Plan #7", desc.Subject)
}

func TestDescriptorBody(t *testing.T) {
	d := &Descriptor{
		Subject: "planned work",
		Summary: "Fix the flux capacitor",
		URL:     "https://example.atlassian.net/browse/PROJ-12",
	}

	body := d.Body()
	assert.Contains(t, body, "Auto-imported from Jira Tempo")
	assert.Contains(t, body, "planned work")
	assert.Contains(t, body, "Fix the flux capacitor")
	assert.Contains(t, body, "https://example.atlassian.net/browse/PROJ-12")
	assert.Contains(t, body, "do not modify")
}
