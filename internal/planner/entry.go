package planner

import (
	"fmt"
	"strings"
	"time"
)

// RecurrenceRule is the repetition pattern of a planner entry.
type RecurrenceRule int

const (
	RuleNone RecurrenceRule = iota
	RuleWeekly
	RuleBiWeekly
	RuleMonthly
)

func (r RecurrenceRule) String() string {
	switch r {
	case RuleWeekly:
		return "weekly"
	case RuleBiWeekly:
		return "bi_weekly"
	case RuleMonthly:
		return "monthly"
	default:
		return "none"
	}
}

// ParseRecurrenceRule maps the Tempo rule string onto a RecurrenceRule.
// Anything unrecognized means no recurrence.
func ParseRecurrenceRule(s string) RecurrenceRule {
	switch strings.ToLower(s) {
	case "weekly":
		return RuleWeekly
	case "bi_weekly":
		return RuleBiWeekly
	case "monthly":
		return RuleMonthly
	default:
		return RuleNone
	}
}

// PlanItemKind is the type of the tracked item an entry links to.
type PlanItemKind int

const (
	ItemUnknown PlanItemKind = iota
	ItemIssue
	ItemProject
)

func (k PlanItemKind) String() string {
	switch k {
	case ItemIssue:
		return "issue"
	case ItemProject:
		return "project"
	default:
		return "unknown"
	}
}

// ParsePlanItemKind maps the Tempo plan item type string onto a PlanItemKind.
func ParsePlanItemKind(s string) PlanItemKind {
	switch strings.ToLower(s) {
	case "issue":
		return ItemIssue
	case "project":
		return ItemProject
	default:
		return ItemUnknown
	}
}

// Entry is an immutable snapshot of one Tempo planner entry. Start, End and
// RecurrenceEnd are date-only values (UTC midnight); StartTime and
// DailyDuration position the daily occurrence within each active day.
type Entry struct {
	ID                    int
	Start                 time.Time
	End                   time.Time
	Description           string
	StartTime             time.Duration
	DailyDuration         time.Duration
	Rule                  RecurrenceRule
	RecurrenceEnd         time.Time
	IncludeNonWorkingDays bool
	LastUpdated           time.Time
	PlanItemID            string
	PlanItemKind          PlanItemKind
}

// DateFormat is the date layout used throughout the Tempo API.
const DateFormat = "2006-01-02"

type planItemDTO struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type entryDTO struct {
	ID                    int          `json:"id"`
	StartDate             string       `json:"startDate"`
	EndDate               string       `json:"endDate"`
	Description           string       `json:"description"`
	StartTime             string       `json:"startTime"`
	PlannedSecondsPerDay  int64        `json:"plannedSecondsPerDay"`
	Rule                  string       `json:"rule"`
	RecurrenceEndDate     string       `json:"recurrenceEndDate"`
	IncludeNonWorkingDays *bool        `json:"includeNonWorkingDays"`
	CreatedAt             string       `json:"createdAt"`
	UpdatedAt             string       `json:"updatedAt"`
	PlanItem              *planItemDTO `json:"planItem"`
}

// entryFromDTO validates and converts one decoded payload entry. Each
// required field failing to parse makes only this entry malformed.
func entryFromDTO(dto entryDTO) (Entry, error) {
	start, err := time.ParseInLocation(DateFormat, dto.StartDate, time.UTC)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d: invalid startDate %q", dto.ID, dto.StartDate)
	}
	end, err := time.ParseInLocation(DateFormat, dto.EndDate, time.UTC)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d: invalid endDate %q", dto.ID, dto.EndDate)
	}
	if end.Before(start) {
		return Entry{}, fmt.Errorf("entry %d: endDate %s before startDate %s", dto.ID, dto.EndDate, dto.StartDate)
	}

	startTime, err := parseClock(dto.StartTime)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d: invalid startTime %q", dto.ID, dto.StartTime)
	}

	rule := ParseRecurrenceRule(dto.Rule)

	var recurrenceEnd time.Time
	if dto.RecurrenceEndDate != "" {
		recurrenceEnd, err = time.ParseInLocation(DateFormat, dto.RecurrenceEndDate, time.UTC)
		if err != nil {
			return Entry{}, fmt.Errorf("entry %d: invalid recurrenceEndDate %q", dto.ID, dto.RecurrenceEndDate)
		}
	} else if rule != RuleNone {
		return Entry{}, fmt.Errorf("entry %d: recurrenceEndDate missing for rule %s", dto.ID, rule)
	}

	updatedAt := dto.UpdatedAt
	if updatedAt == "" {
		updatedAt = dto.CreatedAt
	}
	lastUpdated, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d: invalid updatedAt %q", dto.ID, updatedAt)
	}

	include := true
	if dto.IncludeNonWorkingDays != nil {
		include = *dto.IncludeNonWorkingDays
	}

	e := Entry{
		ID:                    dto.ID,
		Start:                 start,
		End:                   end,
		Description:           dto.Description,
		StartTime:             startTime,
		DailyDuration:         time.Duration(dto.PlannedSecondsPerDay) * time.Second,
		Rule:                  rule,
		RecurrenceEnd:         recurrenceEnd,
		IncludeNonWorkingDays: include,
		LastUpdated:           lastUpdated.UTC(),
	}
	if dto.PlanItem != nil {
		e.PlanItemID = dto.PlanItem.ID
		e.PlanItemKind = ParsePlanItemKind(dto.PlanItem.Type)
	}
	return e, nil
}

// parseClock parses "hh:mm" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
