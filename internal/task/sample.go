package task

import (
	"time"

	"taskboard/api/internal/adf"
)

// SampleTasks returns the built-in sample set shown when no project is
// configured or the tracker is unreachable. Dates are computed relative to
// now so the views always have something plausible to draw.
func SampleTasks(now time.Time) []Task {
	day := func(offset int) time.Time {
		return now.AddDate(0, 0, offset)
	}
	return []Task{
		{
			ID:              "PROJ-1",
			Title:           "My First Sample Task",
			Assignee:        "Current User",
			Status:          "IN PROGRESS",
			Priority:        "Highest",
			StoryPoints:     8,
			Department:      "Engineering",
			BICategory:      "Feature Request",
			StartTimestamp:  day(-2),
			StartDate:       dayString(day(-2)),
			DueDate:         dayString(day(12)),
			LastUpdated:     now,
			DescriptionHTML: `<p>This is a sample description for testing.</p><p>Check the dashboard: <a href="https://example.com" target="_blank" rel="noopener noreferrer">redash #59969</a>.</p>`,
			DesignLinks:     []adf.Link{},
			Labels:          []string{},
			Comments:        []Comment{},
			ChangeHistory:   []ChangeEntry{},
		},
		{
			ID:             "PROJ-2",
			Title:          "Database Migration",
			Assignee:       "Current User",
			Status:         "DONE",
			Priority:       "Medium",
			StoryPoints:    5,
			Department:     "Data",
			BICategory:     "Maintenance",
			StartTimestamp: day(-40),
			StartDate:      dayString(day(-40)),
			DueDate:        dayString(day(-15)),
			ResolutionDate: dayString(day(-15)),
			LastUpdated:    now,
			DesignLinks:    []adf.Link{},
			Labels:         []string{},
			Comments:       []Comment{},
			ChangeHistory:  []ChangeEntry{},
		},
	}
}
