package views

import (
	"reflect"
	"testing"

	"taskboard/api/internal/task"
)

func filterFixture() []task.Task {
	return []task.Task{
		{ID: "PROJ-1", Title: "Fix login redirect", Status: "In Progress", Priority: "High", Department: "Engineering", StartDate: "2026-03-01"},
		{ID: "PROJ-2", Title: "Quarterly report", Status: "To Do", Priority: "Medium", Department: "Data", StartDate: "2026-03-05"},
		{ID: "PROJ-3", Title: "Login page polish", Status: "Done", Priority: "Low", Department: "Engineering", StartDate: "2026-02-20"},
	}
}

func ids(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestApplyStages(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"PROJ-1", "PROJ-2", "PROJ-3"}},
		{"free text on title", Filter{Search: "login"}, []string{"PROJ-1", "PROJ-3"}},
		{"free text on id", Filter{Search: "proj-2"}, []string{"PROJ-2"}},
		{"status set", Filter{Statuses: []string{"To Do", "Done"}}, []string{"PROJ-2", "PROJ-3"}},
		{"priority set", Filter{Priorities: []string{"High"}}, []string{"PROJ-1"}},
		{"department set", Filter{Departments: []string{"Engineering"}}, []string{"PROJ-1", "PROJ-3"}},
		{"start from inclusive", Filter{StartFrom: "2026-03-01"}, []string{"PROJ-1", "PROJ-2"}},
		{"start to inclusive", Filter{StartTo: "2026-03-01"}, []string{"PROJ-1", "PROJ-3"}},
		{"stages compose", Filter{Search: "login", Departments: []string{"Engineering"}, StartTo: "2026-02-28"}, []string{"PROJ-3"}},
		{"no match", Filter{Search: "nothing here"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(filterFixture(), tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

// The same filter over the same snapshot must always produce the same
// result, in the snapshot's order.
func TestApplyDeterministic(t *testing.T) {
	filter := Filter{Departments: []string{"Engineering"}}
	first := ids(Apply(filterFixture(), filter))
	for i := 0; i < 5; i++ {
		if got := ids(Apply(filterFixture(), filter)); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %v vs %v", i, got, first)
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	input := filterFixture()
	before := ids(input)
	Apply(input, Filter{Search: "login", Priorities: []string{"High"}})
	if !reflect.DeepEqual(ids(input), before) {
		t.Error("input snapshot mutated by filtering")
	}
}
