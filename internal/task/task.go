// Package task defines the normalized task entity and the normalizer that
// produces it from raw tracker records.
package task

import (
	"strings"
	"time"

	"taskboard/api/internal/adf"
)

// Task is the normalized entity. Instances are immutable snapshots produced
// fresh on every normalization pass.
type Task struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Assignee        string         `json:"assignee"`
	AssigneeContact string         `json:"assigneeContact,omitempty"`
	Status          string         `json:"status"`
	Priority        string         `json:"priority"`
	StartTimestamp  time.Time      `json:"startTimestamp"`
	StartDate       string         `json:"startDate"`
	DueDate         string         `json:"dueDate,omitempty"`
	ResolutionDate  string         `json:"resolutionDate,omitempty"`
	LastUpdated     time.Time      `json:"lastUpdated"`
	DescriptionHTML string         `json:"descriptionHtml"`
	ChatLink        string         `json:"chatLink,omitempty"`
	DesignLinks     []adf.Link     `json:"designLinks"`
	StoryPoints     float64        `json:"storyPoints"`
	Department      string         `json:"department"`
	BICategory      string         `json:"biCategory"`
	Labels          []string       `json:"labels"`
	Comments        []Comment      `json:"comments"`
	ChangeHistory   []ChangeEntry  `json:"changeHistory"`
	UpdateSummary   *UpdateSummary `json:"lastUpdateSummary,omitempty"`
}

// Comment is one normalized comment.
type Comment struct {
	Author           string    `json:"author"`
	CreatedDisplay   string    `json:"createdDisplay"`
	CreatedTimestamp time.Time `json:"createdTimestamp"`
	BodyHTML         string    `json:"bodyHtml"`
}

// ChangeEntry is one flattened changelog entry.
type ChangeEntry struct {
	Author  string        `json:"author"`
	Created time.Time     `json:"created"`
	Changes []FieldChange `json:"changes"`
}

type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// SummaryKind tags the shape of an update summary.
type SummaryKind string

const (
	SummarySimple  SummaryKind = "simple"
	SummaryFromTo  SummaryKind = "fromTo"
	SummaryTwoLine SummaryKind = "twoLine"
)

// UpdateSummary classifies the nature of a task's most recent change. It is
// a pure function of the change history, comments and update timestamp, and
// is recomputed on every normalization pass.
type UpdateSummary struct {
	Kind  SummaryKind `json:"type"`
	Text  string      `json:"text,omitempty"`
	From  string      `json:"from,omitempty"`
	To    string      `json:"to,omitempty"`
	Line1 string      `json:"line1,omitempty"`
	Line2 string      `json:"line2,omitempty"`
}

// Closed reports whether a status label means the task is finished. It is
// recomputed wherever needed, never cached, since status can change under
// a stale reference.
func Closed(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "done") || strings.Contains(s, "cancel")
}

// Closed reports whether the task's current status is a closed one.
func (t Task) Closed() bool {
	return Closed(t.Status)
}
