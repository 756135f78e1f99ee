package tracker

import (
	"fmt"
	"strings"
	"time"
)

// StatusCategory is Jira's coarse status grouping.
type StatusCategory int

const (
	CategoryUndefined StatusCategory = iota
	CategoryNew
	CategoryIndeterminate
	CategoryDone
)

// ParseStatusCategory maps Jira's statusCategory key onto a StatusCategory.
func ParseStatusCategory(s string) StatusCategory {
	switch strings.ToLower(s) {
	case "new":
		return CategoryNew
	case "indeterminate":
		return CategoryIndeterminate
	case "done":
		return CategoryDone
	default:
		return CategoryUndefined
	}
}

// Status is the workflow status of an issue. Only the statuses the category
// classification cares about are distinguished; everything else is Unknown.
type Status int

const (
	StatusUnknown Status = iota
	StatusWaitingForCustomer
	StatusInProgress
	StatusCustomerAssignment
	StatusWaitingFor3rdLevel
	StatusInternalAssignment
)

// statusNames is the fixed lookup table from workflow status names to the
// Status enum. Keys are lowercase; lookup is case-insensitive.
var statusNames = map[string]Status{
	"warten auf kunde":     StatusWaitingForCustomer,
	"in arbeit":            StatusInProgress,
	"aufgabe kunde":        StatusCustomerAssignment,
	"warten auf 3rd level": StatusWaitingFor3rdLevel,
	"aufgabe edoc":         StatusInternalAssignment,
}

// ParseStatus maps a workflow status name onto a Status.
func ParseStatus(s string) Status {
	if status, ok := statusNames[strings.ToLower(s)]; ok {
		return status
	}
	return StatusUnknown
}

// Issue is the tracked-item metadata used for appointment enrichment.
type Issue struct {
	ID              string
	Key             string
	Permalink       string
	Summary         string
	IssueType       string
	ProjectName     string
	ProjectKey      string
	ProjectCategory string
	StatusCategory  StatusCategory
	Status          Status
	LastUpdated     time.Time
}

// Project is the tracked-project metadata used for appointment enrichment.
type Project struct {
	ID        string
	Key       string
	Permalink string
	Name      string
	Category  string
}

type namedDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type statusDTO struct {
	Name     string `json:"name"`
	Category *struct {
		Key string `json:"key"`
	} `json:"statusCategory"`
}

type issueProjectDTO struct {
	ID       string    `json:"id"`
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Category *namedDTO `json:"projectCategory"`
}

type issueDTO struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary   string           `json:"summary"`
		IssueType *namedDTO        `json:"issuetype"`
		Project   *issueProjectDTO `json:"project"`
		Status    *statusDTO       `json:"status"`
		Updated   string           `json:"updated"`
		Created   string           `json:"created"`
	} `json:"fields"`
}

type projectDTO struct {
	ID       string    `json:"id"`
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Category *namedDTO `json:"projectCategory"`
}

// jiraTimeFormat is Jira's datetime rendering, e.g. "2024-03-05T09:41:12.000+0100".
const jiraTimeFormat = "2006-01-02T15:04:05.999-0700"

func issueFromDTO(dto issueDTO, browseURL string) (*Issue, error) {
	issue := &Issue{
		ID:        dto.ID,
		Key:       dto.Key,
		Permalink: browseURL + dto.Key,
		Summary:   dto.Fields.Summary,
	}
	if dto.Fields.IssueType != nil {
		issue.IssueType = dto.Fields.IssueType.Name
	}
	if dto.Fields.Project != nil {
		issue.ProjectName = dto.Fields.Project.Name
		issue.ProjectKey = dto.Fields.Project.Key
		if dto.Fields.Project.Category != nil {
			issue.ProjectCategory = dto.Fields.Project.Category.Name
		}
	}
	if dto.Fields.Status != nil {
		issue.Status = ParseStatus(dto.Fields.Status.Name)
		if dto.Fields.Status.Category != nil {
			issue.StatusCategory = ParseStatusCategory(dto.Fields.Status.Category.Key)
		}
	}

	updated := dto.Fields.Updated
	if updated == "" {
		updated = dto.Fields.Created
	}
	t, err := time.Parse(jiraTimeFormat, updated)
	if err != nil {
		return nil, fmt.Errorf("issue %s: invalid updated timestamp %q", dto.Key, updated)
	}
	issue.LastUpdated = t.UTC()

	return issue, nil
}

func projectFromDTO(dto projectDTO, browseURL string) *Project {
	p := &Project{
		ID:        dto.ID,
		Key:       dto.Key,
		Permalink: browseURL + dto.Key,
		Name:      dto.Name,
	}
	if dto.Category != nil {
		p.Category = dto.Category.Name
	}
	return p
}
