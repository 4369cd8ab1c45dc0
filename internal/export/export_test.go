package export

import (
	"strings"
	"testing"
	"time"

	"taskboard/api/internal/task"
)

func TestRenderHTML(t *testing.T) {
	report := Report{
		ProjectKey:  "PROJ",
		GeneratedAt: time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
		Task: task.Task{
			ID:              "PROJ-1",
			Title:           "Fix <script> injection",
			Status:          "In Progress",
			Priority:        "High",
			Assignee:        "Alice",
			StartDate:       "2026-03-01",
			DueDate:         "2026-03-20",
			Department:      "Engineering",
			BICategory:      "Feature Request",
			StoryPoints:     5,
			DescriptionHTML: "<p>Already <strong>rendered</strong> body</p>",
			Comments: []task.Comment{
				{Author: "Bob", CreatedDisplay: "01/03/2026 09:00:00", BodyHTML: "<p>On it</p>"},
			},
		},
	}

	html, err := RenderHTML(report)
	if err != nil {
		t.Fatal(err)
	}

	// Title goes through template escaping
	if !strings.Contains(html, "Fix &lt;script&gt; injection") {
		t.Error("title not escaped")
	}
	// Pre-rendered description passes through unescaped
	if !strings.Contains(html, "<p>Already <strong>rendered</strong> body</p>") {
		t.Error("description HTML was escaped twice")
	}
	for _, want := range []string{"PROJ / PROJ-1", "In Progress", "2026-03-20", "Bob", "<p>On it</p>", "2026-03-10 14:30"} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestRenderHTMLOmitsEmptySections(t *testing.T) {
	html, err := RenderHTML(Report{
		ProjectKey: "PROJ",
		Task:       task.Task{ID: "PROJ-2", Title: "Bare task", Status: "To Do"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "Comments") {
		t.Error("comments section should be omitted when there are none")
	}
	if strings.Contains(html, "<td>Due</td>") {
		t.Error("due row should be omitted without a due date")
	}
	if strings.Contains(html, "<td>Resolved</td>") {
		t.Error("resolved row should be omitted without a resolution date")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PROJ-1", "PROJ-1"},
		{"weird / name?", "weird--name"},
		{"", "task"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentEncode(t *testing.T) {
	got := percentEncode("a b<c>")
	if got != "a%20b%3Cc%3E" {
		t.Errorf("percentEncode = %q", got)
	}
}
