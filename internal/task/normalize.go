package task

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"taskboard/api/internal/adf"
	"taskboard/api/internal/tracker"
)

// UpdateAttributionTolerance is the window within which a comment or
// changelog entry is considered the cause of the issue's top-level update
// timestamp. The source system's modification timestamp does not itself say
// which sub-event produced it; near-simultaneity is the only signal.
const UpdateAttributionTolerance = 5 * time.Second

// automationAuthor marks changelog entries produced by the tracker's
// automation actor. They are excluded from change history entirely.
const automationAuthor = "Automation for Jira"

// orgLabelSuffix filters raw labels down to the organizational entries.
const orgLabelSuffix = "@lmwn.com"

const dayLayout = "2006-01-02"

// Normalize maps one raw issue record into a Task. A record without an
// identity key is a defect in the upstream collaborator and is rejected.
func Normalize(issue tracker.Issue) (Task, error) {
	if issue.Key == "" {
		return Task{}, fmt.Errorf("issue record missing identity key")
	}
	fields := issue.Fields

	rendered := adf.Render(fields.Description)
	history := changeHistory(issue.Changelog)
	comments := normalizeComments(fields.Comment)

	t := Task{
		ID:              issue.Key,
		Title:           fields.Summary,
		Assignee:        "Unassigned",
		Status:          "Unknown",
		Priority:        "Medium",
		StartTimestamp:  fields.Created.Time,
		StartDate:       dayString(fields.Created.Time),
		DueDate:         dayString(fields.DueDate.Time),
		ResolutionDate:  dayString(fields.ResolutionDate.Time),
		LastUpdated:     fields.Updated.Time,
		DescriptionHTML: rendered.HTML,
		ChatLink:        rendered.ChatLink,
		DesignLinks:     rendered.DesignLinks,
		StoryPoints:     fields.StoryPoints,
		Department:      orNA(fields.Department.Value),
		BICategory:      orNA(fields.BICategory.Value),
		Labels:          filterLabels(fields.Labels),
		Comments:        comments,
		ChangeHistory:   history,
		UpdateSummary:   classifyUpdate(history, comments, fields.Updated.Time),
	}
	if fields.Assignee != nil {
		t.Assignee = fields.Assignee.DisplayName
		t.AssigneeContact = fields.Assignee.EmailAddress
	}
	if fields.Status != nil {
		t.Status = fields.Status.Name
	}
	if fields.Priority != nil {
		t.Priority = fields.Priority.Name
	}
	return t, nil
}

// NormalizeAll normalizes a batch. Normalization is independent per record;
// defective records are dropped with a warning rather than aborting the batch.
func NormalizeAll(issues []tracker.Issue) []Task {
	tasks := make([]Task, 0, len(issues))
	for _, issue := range issues {
		t, err := Normalize(issue)
		if err != nil {
			log.Printf("task: dropping record: %v", err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// changeHistory flattens the changelog into non-automated entries,
// most recent first.
func changeHistory(changelog *tracker.Changelog) []ChangeEntry {
	entries := []ChangeEntry{}
	if changelog == nil {
		return entries
	}
	for _, h := range changelog.Histories {
		if h.Author.DisplayName == automationAuthor {
			continue
		}
		changes := make([]FieldChange, 0, len(h.Items))
		for _, item := range h.Items {
			changes = append(changes, FieldChange{
				Field: item.Field,
				From:  item.FromString,
				To:    item.ToString,
			})
		}
		entries = append(entries, ChangeEntry{
			Author:  h.Author.DisplayName,
			Created: h.Created.Time,
			Changes: changes,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Created.After(entries[j].Created)
	})
	return entries
}

// classifyUpdate derives the last-update summary. Precedence: a comment
// within tolerance of the update timestamp wins; otherwise the most recent
// non-automated changelog entry within tolerance; otherwise no summary.
func classifyUpdate(history []ChangeEntry, comments []Comment, updated time.Time) *UpdateSummary {
	if len(comments) > 0 {
		last := comments[len(comments)-1]
		if withinTolerance(updated, last.CreatedTimestamp) {
			return &UpdateSummary{Kind: SummaryTwoLine, Line1: "add", Line2: "Comment"}
		}
	}
	if len(history) == 0 {
		return nil
	}
	latest := history[0]
	if !withinTolerance(updated, latest.Created) {
		return nil
	}

	var statusChange, priorityChange *FieldChange
	for i := range latest.Changes {
		switch strings.ToLower(latest.Changes[i].Field) {
		case "status":
			if statusChange == nil {
				statusChange = &latest.Changes[i]
			}
		case "priority":
			if priorityChange == nil {
				priorityChange = &latest.Changes[i]
			}
		}
	}

	switch {
	case statusChange != nil && Closed(statusChange.To):
		return &UpdateSummary{Kind: SummarySimple, Text: "Close Task"}
	case statusChange != nil:
		return &UpdateSummary{Kind: SummaryFromTo, From: statusChange.From, To: statusChange.To}
	case priorityChange != nil:
		return &UpdateSummary{Kind: SummaryFromTo, From: priorityChange.From, To: priorityChange.To}
	case len(latest.Changes) > 0:
		return &UpdateSummary{Kind: SummaryTwoLine, Line1: "change", Line2: capitalize(latest.Changes[0].Field)}
	default:
		return nil
	}
}

func withinTolerance(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff < UpdateAttributionTolerance
}

func normalizeComments(container *tracker.CommentContainer) []Comment {
	comments := []Comment{}
	if container == nil {
		return comments
	}
	for _, c := range container.Comments {
		author := "Unknown"
		if c.Author != nil {
			author = c.Author.DisplayName
		}
		body := adf.Render(c.Body).HTML
		if body == "" {
			body = "No content"
		}
		comments = append(comments, Comment{
			Author:           author,
			CreatedDisplay:   c.Created.Format("02/01/2006 15:04:05"),
			CreatedTimestamp: c.Created.Time,
			BodyHTML:         body,
		})
	}
	return comments
}

func filterLabels(labels []string) []string {
	filtered := []string{}
	for _, label := range labels {
		if strings.HasSuffix(label, orgLabelSuffix) {
			filtered = append(filtered, label)
		}
	}
	return filtered
}

func dayString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dayLayout)
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
