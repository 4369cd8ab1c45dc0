package views

import (
	"time"

	"taskboard/api/internal/task"
)

// Bar is one task's position on a day-offset timeline.
type Bar struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	StartDay int    `json:"startDay"`
	Days     int    `json:"days"`
	DueDay   int    `json:"dueDay"` // -1 when no due date
}

// TimelineRange returns the default gantt window: three months either side
// of now.
func TimelineRange(now time.Time) (min, max time.Time) {
	return now.AddDate(0, -3, 0), now.AddDate(0, 3, 0)
}

// Gantt maps each task onto a day-offset/day-width timeline anchored at
// min. Closed tasks end at their resolution date (or last-updated when
// resolution is missing); open tasks run through today. A bar's end never
// precedes its start.
func Gantt(tasks []task.Task, min, now time.Time) []Bar {
	minDay := midnight(min)
	today := midnight(now)

	bars := []Bar{}
	for _, t := range tasks {
		start := parseDay(t.StartDate)
		if start.IsZero() {
			continue
		}

		var end time.Time
		if t.Closed() {
			end = parseDay(t.ResolutionDate)
			if end.IsZero() {
				end = midnight(t.LastUpdated)
			}
		} else {
			end = today
		}
		if end.Before(start) {
			end = start
		}

		startDay := dayOffset(minDay, start)
		endDay := dayOffset(minDay, end)
		duration := endDay - startDay + 1
		if duration < 1 {
			duration = 1
		}

		bar := Bar{
			ID:       t.ID,
			Title:    t.Title,
			StartDay: startDay,
			Days:     duration,
			DueDay:   -1,
		}
		if due := parseDay(t.DueDate); !due.IsZero() {
			bar.DueDay = dayOffset(minDay, due)
		}
		bars = append(bars, bar)
	}
	return bars
}

func dayOffset(min, day time.Time) int {
	return int(day.Sub(min).Hours() / 24)
}
