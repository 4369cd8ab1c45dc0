package views

import (
	"testing"
	"time"

	"taskboard/api/internal/task"
)

func TestGanttBars(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	min := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tasks := []task.Task{
		// Open: runs from start through today
		{ID: "A", Status: "In Progress", StartDate: "2026-03-03", DueDate: "2026-03-15"},
		// Closed with a resolution date
		{ID: "B", Status: "Done", StartDate: "2026-03-02", ResolutionDate: "2026-03-05"},
		// Closed without a resolution date: falls back to last-updated
		{ID: "C", Status: "Done", StartDate: "2026-03-02",
			LastUpdated: time.Date(2026, 3, 7, 16, 0, 0, 0, time.UTC)},
		// No start date: skipped
		{ID: "D", Status: "To Do"},
	}

	bars := Gantt(tasks, min, now)
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}

	byID := map[string]Bar{}
	for _, b := range bars {
		byID[b.ID] = b
	}

	a := byID["A"]
	if a.StartDay != 2 || a.Days != 8 {
		t.Errorf("open bar = start %d days %d, want start 2 days 8", a.StartDay, a.Days)
	}
	if a.DueDay != 14 {
		t.Errorf("due day = %d, want 14", a.DueDay)
	}

	b := byID["B"]
	if b.StartDay != 1 || b.Days != 4 {
		t.Errorf("resolved bar = start %d days %d, want start 1 days 4", b.StartDay, b.Days)
	}
	if b.DueDay != -1 {
		t.Errorf("bar without due date should report -1, got %d", b.DueDay)
	}

	c := byID["C"]
	if c.StartDay != 1 || c.Days != 6 {
		t.Errorf("fallback bar = start %d days %d, want start 1 days 6", c.StartDay, c.Days)
	}
}

// A closed task whose resolution precedes its start still draws a
// one-day bar rather than a negative one.
func TestGanttEndNeverPrecedesStart(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	min := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	bars := Gantt([]task.Task{
		{ID: "X", Status: "Done", StartDate: "2026-03-08", ResolutionDate: "2026-03-04"},
	}, min, now)
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	if bars[0].Days != 1 {
		t.Errorf("clamped bar duration = %d, want 1", bars[0].Days)
	}
	if bars[0].StartDay != 7 {
		t.Errorf("clamped bar start = %d, want 7", bars[0].StartDay)
	}
}

func TestTimelineRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	min, max := TimelineRange(now)
	if min.Month() != time.December || min.Year() != 2025 {
		t.Errorf("range min = %v", min)
	}
	if max.Month() != time.June || max.Year() != 2026 {
		t.Errorf("range max = %v", max)
	}
}
