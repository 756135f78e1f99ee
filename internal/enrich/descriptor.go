// Package enrich turns planner entries into presentation-ready appointment
// descriptors, merging in issue or project metadata from the tracker when
// the entry links to one.
package enrich

import (
	"fmt"
	"strings"
	"time"

	"github.com/BlyZeDev/tempocal/internal/planner"
	"github.com/BlyZeDev/tempocal/internal/tracker"
)

// Descriptor is the rendered appointment content for one planner entry. It
// lives for a single reconciliation pass.
type Descriptor struct {
	Entry planner.Entry

	Subject string
	Summary string
	URL     string

	Category *Category

	// LinkedItemLastUpdated is nil when the entry has no linked item or the
	// lookup failed softly.
	LinkedItemLastUpdated *time.Time
}

// minimalDescriptor builds a descriptor from the entry alone, used when
// there is no linked item or its lookup failed.
func minimalDescriptor(e planner.Entry) *Descriptor {
	subject := strings.TrimSpace(e.Description)
	if subject == "" {
		switch e.PlanItemKind {
		case planner.ItemIssue:
			subject = fmt.Sprintf("Issue - #%s", e.PlanItemID)
		case planner.ItemProject:
			subject = fmt.Sprintf("Project - #%s", e.PlanItemID)
		default:
			subject = fmt.Sprintf("Plan #%d", e.ID)
		}
	}
	return &Descriptor{Entry: e, Subject: subject, Summary: subject}
}

func issueDescriptor(e planner.Entry, issue *tracker.Issue) *Descriptor {
	summary := firstNonBlank(issue.Summary, issue.ProjectName, issue.Key)
	updated := issue.LastUpdated
	return &Descriptor{
		Entry:                 e,
		Subject:               firstNonBlank(e.Description, summary),
		Summary:               summary,
		URL:                   issue.Permalink,
		Category:              Classify(issue),
		LinkedItemLastUpdated: &updated,
	}
}

func projectDescriptor(e planner.Entry, project *tracker.Project) *Descriptor {
	summary := firstNonBlank(project.Name, project.Key)
	return &Descriptor{
		Entry:   e,
		Subject: firstNonBlank(e.Description, summary),
		Summary: summary,
		URL:     project.Permalink,
	}
}

// Body renders the plain-text appointment body.
func (d *Descriptor) Body() string {
	var b strings.Builder
	b.WriteString("Auto-imported from Jira Tempo\n\n")
	b.WriteString(d.Subject)
	b.WriteString("\n")
	if d.Summary != "" && d.Summary != d.Subject {
		b.WriteString("\n")
		b.WriteString(d.Summary)
		b.WriteString("\n")
	}
	if d.URL != "" {
		b.WriteString("\n")
		b.WriteString(d.URL)
		b.WriteString("\n")
	}
	b.WriteString("\nPlease do not modify this appointment manually if it is synced automatically.")
	return b.String()
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
