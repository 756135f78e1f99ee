package enrich

import "github.com/BlyZeDev/tempocal/internal/tracker"

// Category tags an appointment with a name and a display color
// (CSS color name, carried on the event's COLOR property).
type Category struct {
	Name  string
	Color string
}

// Fixed markers the classification rules match against.
const (
	internalIssueKey        = "EDOC-1"
	supportIssueType        = "Support"
	customerPortalProject   = "Kundenportal"
	customerProjectCategory = "Kundenprojekte"
	customerProjectKey      = "KUNDE"
)

var (
	categoryInternal = Category{Name: "Internal", Color: "slategray"}

	supportByStatus = map[tracker.Status]Category{
		tracker.StatusWaitingForCustomer: {Name: "Support - Warten auf Kunde", Color: "gold"},
		tracker.StatusInProgress:         {Name: "Support - In Arbeit", Color: "mediumseagreen"},
	}
	supportDefault = Category{Name: "Support", Color: "steelblue"}

	customerByStatus = map[tracker.Status]Category{
		tracker.StatusCustomerAssignment: {Name: "Kunde - Wartend", Color: "darkorange"},
		tracker.StatusWaitingFor3rdLevel: {Name: "Kunde - Wartend", Color: "darkorange"},
		tracker.StatusInProgress:         {Name: "Kunde - In Arbeit", Color: "mediumseagreen"},
		tracker.StatusInternalAssignment: {Name: "Kunde - In Arbeit", Color: "mediumseagreen"},
	}
	customerDefault = Category{Name: "Kunde", Color: "cadetblue"}
)

type categoryRule struct {
	matches func(*tracker.Issue) bool
	build   func(*tracker.Issue) Category
}

// categoryRules is evaluated top to bottom; the first matching rule wins.
var categoryRules = []categoryRule{
	{
		matches: func(i *tracker.Issue) bool { return i.Key == internalIssueKey },
		build:   func(*tracker.Issue) Category { return categoryInternal },
	},
	{
		matches: func(i *tracker.Issue) bool {
			return i.IssueType == supportIssueType || i.ProjectName == customerPortalProject
		},
		build: func(i *tracker.Issue) Category {
			if c, ok := supportByStatus[i.Status]; ok {
				return c
			}
			return supportDefault
		},
	},
	{
		matches: func(i *tracker.Issue) bool {
			return i.ProjectCategory == customerProjectCategory || i.ProjectKey == customerProjectKey
		},
		build: func(i *tracker.Issue) Category {
			if c, ok := customerByStatus[i.Status]; ok {
				return c
			}
			return customerDefault
		},
	},
}

// Classify picks the appointment category for an issue, or nil when no rule
// applies.
func Classify(issue *tracker.Issue) *Category {
	for _, rule := range categoryRules {
		if rule.matches(issue) {
			c := rule.build(issue)
			return &c
		}
	}
	return nil
}
