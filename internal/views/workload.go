package views

import (
	"time"

	"taskboard/api/internal/task"
)

// GroupBy selects an optional partition for the workload series.
type GroupBy string

const (
	GroupNone       GroupBy = ""
	GroupAssignee   GroupBy = "assignee"
	GroupDepartment GroupBy = "department"
	GroupCategory   GroupBy = "category"
)

// WorkloadPoint is one day's open-task count.
type WorkloadPoint struct {
	Date        string         `json:"date"`
	DisplayDate string         `json:"displayDate"`
	Open        int            `json:"open"`
	Groups      map[string]int `json:"groups,omitempty"`
}

// Workload computes per-day open-task counts from the earliest task start
// through today. A task counts toward a day iff it started on or before
// that day and is either unresolved or resolved strictly after it.
func Workload(tasks []task.Task, now time.Time, groupBy GroupBy) []WorkloadPoint {
	start := earliestStart(tasks)
	if start.IsZero() {
		return []WorkloadPoint{}
	}
	today := midnight(now)

	points := []WorkloadPoint{}
	for day := midnight(start); !day.After(today); day = day.AddDate(0, 0, 1) {
		point := WorkloadPoint{
			Date:        day.Format("2006-01-02"),
			DisplayDate: day.Format("Jan 2"),
		}
		if groupBy != GroupNone {
			point.Groups = map[string]int{}
		}
		for _, t := range tasks {
			if !openOn(t, day) {
				continue
			}
			point.Open++
			if groupBy != GroupNone {
				point.Groups[groupKey(t, groupBy)]++
			}
		}
		points = append(points, point)
	}
	return points
}

func openOn(t task.Task, day time.Time) bool {
	start := parseDay(t.StartDate)
	if start.IsZero() || day.Before(start) {
		return false
	}
	if t.Closed() {
		resolution := parseDay(t.ResolutionDate)
		return !resolution.IsZero() && day.Before(resolution)
	}
	return true
}

func groupKey(t task.Task, groupBy GroupBy) string {
	switch groupBy {
	case GroupAssignee:
		return t.Assignee
	case GroupDepartment:
		return t.Department
	case GroupCategory:
		return t.BICategory
	default:
		return ""
	}
}

func earliestStart(tasks []task.Task) time.Time {
	var earliest time.Time
	for _, t := range tasks {
		start := parseDay(t.StartDate)
		if start.IsZero() {
			continue
		}
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}
	return earliest
}

func parseDay(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
