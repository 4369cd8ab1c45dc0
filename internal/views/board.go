// Package views derives view-ready structures from the normalized task
// collection. Every function here is pure: it reads a snapshot and never
// mutates it.
package views

import (
	"sort"
	"strings"

	"taskboard/api/internal/task"
)

// Lane is one kanban grouping bucket.
type Lane string

const (
	LaneBacklog    Lane = "Backlog"
	LaneToDo       Lane = "To Do"
	LaneInProgress Lane = "In Progress"
	LaneDone       Lane = "Done"
)

// LaneOrder is the fixed left-to-right lane layout.
var LaneOrder = []Lane{LaneBacklog, LaneToDo, LaneInProgress, LaneDone}

// laneKeywords classifies free-text statuses by substring. Statuses that
// match nothing fall into the backlog lane.
var laneKeywords = []struct {
	lane     Lane
	keywords []string
}{
	{LaneBacklog, []string{"on hold", "pending user review"}},
	{LaneToDo, []string{"open", "to do", "reopen"}},
	{LaneInProgress, []string{"in progress"}},
	{LaneDone, []string{"done", "cancelled", "cancel"}},
}

// LaneFor assigns a status to exactly one lane.
func LaneFor(status string) Lane {
	s := strings.ToLower(status)
	for _, entry := range laneKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(s, keyword) {
				return entry.lane
			}
		}
	}
	return LaneBacklog
}

// Column is one populated kanban lane.
type Column struct {
	Lane  Lane        `json:"lane"`
	Tasks []task.Task `json:"tasks"`
}

// Board groups tasks into the fixed ordered lanes. Every task lands in
// exactly one lane.
func Board(tasks []task.Task) []Column {
	grouped := make(map[Lane][]task.Task, len(LaneOrder))
	for _, t := range tasks {
		lane := LaneFor(t.Status)
		grouped[lane] = append(grouped[lane], t)
	}
	columns := make([]Column, 0, len(LaneOrder))
	for _, lane := range LaneOrder {
		tasks := grouped[lane]
		if tasks == nil {
			tasks = []task.Task{}
		}
		columns = append(columns, Column{Lane: lane, Tasks: tasks})
	}
	return columns
}

// StatusGroup is one free-text status bucket, used by the workload view's
// column layout.
type StatusGroup struct {
	Status string      `json:"status"`
	Tasks  []task.Task `json:"tasks"`
}

// GroupByStatus buckets tasks by their exact status label, ordered
// in-progress first, then review/pending, open, closed, and everything else.
func GroupByStatus(tasks []task.Task) []StatusGroup {
	buckets := map[string][]task.Task{}
	order := []string{}
	for _, t := range tasks {
		status := t.Status
		if status == "" {
			status = "N/A"
		}
		if _, seen := buckets[status]; !seen {
			order = append(order, status)
		}
		buckets[status] = append(buckets[status], t)
	}

	rank := func(status string) int {
		s := strings.ToLower(status)
		switch {
		case strings.Contains(s, "progress"):
			return 1
		case strings.Contains(s, "review"), strings.Contains(s, "pending"):
			return 2
		case strings.Contains(s, "open"), strings.Contains(s, "to do"):
			return 3
		case strings.Contains(s, "done"), strings.Contains(s, "cancel"):
			return 4
		default:
			return 5
		}
	}

	groups := make([]StatusGroup, 0, len(order))
	for _, status := range order {
		groups = append(groups, StatusGroup{Status: status, Tasks: buckets[status]})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return rank(groups[i].Status) < rank(groups[j].Status)
	})
	return groups
}
