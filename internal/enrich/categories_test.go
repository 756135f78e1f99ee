package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlyZeDev/tempocal/internal/tracker"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		issue     tracker.Issue
		wantNil   bool
		wantName  string
		wantColor string
	}{
		{
			name:     "internal marker issue",
			issue:    tracker.Issue{Key: "EDOC-1", IssueType: "Support"},
			wantName: "Internal",
		},
		{
			name:      "support issue waiting for customer",
			issue:     tracker.Issue{Key: "SUP-3", IssueType: "Support", Status: tracker.StatusWaitingForCustomer},
			wantName:  "Support - Warten auf Kunde",
			wantColor: "gold",
		},
		{
			name:     "support issue in progress",
			issue:    tracker.Issue{Key: "SUP-3", IssueType: "Support", Status: tracker.StatusInProgress},
			wantName: "Support - In Arbeit",
		},
		{
			name:     "customer portal project counts as support",
			issue:    tracker.Issue{Key: "KP-9", ProjectName: "Kundenportal"},
			wantName: "Support",
		},
		{
			name:     "customer project category",
			issue:    tracker.Issue{Key: "ABC-1", ProjectCategory: "Kundenprojekte"},
			wantName: "Kunde",
		},
		{
			name:     "customer project key waiting",
			issue:    tracker.Issue{Key: "KUNDE-4", ProjectKey: "KUNDE", Status: tracker.StatusCustomerAssignment},
			wantName: "Kunde - Wartend",
		},
		{
			name:     "customer project in progress",
			issue:    tracker.Issue{Key: "ABC-1", ProjectCategory: "Kundenprojekte", Status: tracker.StatusInternalAssignment},
			wantName: "Kunde - In Arbeit",
		},
		{
			name:    "unmatched issue has no category",
			issue:   tracker.Issue{Key: "MISC-1", IssueType: "Task"},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(&tt.issue)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantName, got.Name)
			if tt.wantColor != "" {
				assert.Equal(t, tt.wantColor, got.Color)
			}
			assert.NotEmpty(t, got.Color)
		})
	}
}

func TestClassifyInternalWinsOverSupport(t *testing.T) {
	// EDOC-1 is a support-type issue, but the internal rule is checked first.
	got := Classify(&tracker.Issue{Key: "EDOC-1", IssueType: "Support", Status: tracker.StatusInProgress})
	require.NotNil(t, got)
	assert.Equal(t, "Internal", got.Name)
}
