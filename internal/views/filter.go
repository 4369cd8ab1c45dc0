package views

import (
	"strings"

	"taskboard/api/internal/task"
)

// Filter narrows a task collection. Stages apply in a fixed order, each on
// the output of the previous: free-text match, then set-membership per
// categorical field, then inclusive start-date bounds.
type Filter struct {
	Search      string   `json:"search"`
	Statuses    []string `json:"statuses"`
	Priorities  []string `json:"priorities"`
	Departments []string `json:"departments"`
	StartFrom   string   `json:"startFrom"` // inclusive, YYYY-MM-DD
	StartTo     string   `json:"startTo"`   // inclusive
}

// Apply runs the filter stages over a snapshot.
func Apply(tasks []task.Task, f Filter) []task.Task {
	result := tasks

	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		result = keep(result, func(t task.Task) bool {
			return strings.Contains(strings.ToLower(t.Title), term) ||
				strings.Contains(strings.ToLower(t.ID), term)
		})
	}
	if len(f.Statuses) > 0 {
		result = keep(result, func(t task.Task) bool { return contains(f.Statuses, t.Status) })
	}
	if len(f.Priorities) > 0 {
		result = keep(result, func(t task.Task) bool { return contains(f.Priorities, t.Priority) })
	}
	if len(f.Departments) > 0 {
		result = keep(result, func(t task.Task) bool { return contains(f.Departments, t.Department) })
	}
	if f.StartFrom != "" {
		from := parseDay(f.StartFrom)
		result = keep(result, func(t task.Task) bool {
			start := parseDay(t.StartDate)
			return !start.IsZero() && !start.Before(from)
		})
	}
	if f.StartTo != "" {
		to := parseDay(f.StartTo)
		result = keep(result, func(t task.Task) bool {
			start := parseDay(t.StartDate)
			return !start.IsZero() && !start.After(to)
		})
	}
	return result
}

// ActiveCount reports how many tasks are not closed.
func ActiveCount(tasks []task.Task) int {
	count := 0
	for _, t := range tasks {
		if !t.Closed() {
			count++
		}
	}
	return count
}

func keep(tasks []task.Task, predicate func(task.Task) bool) []task.Task {
	kept := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if predicate(t) {
			kept = append(kept, t)
		}
	}
	return kept
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
