package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func TestSearchAllPagesSequentially(t *testing.T) {
	const total = 250
	var requestedStartAts []int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/search") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		requestedStartAts = append(requestedStartAts, startAt)

		count := PageSize
		if startAt+count > total {
			count = total - startAt
		}
		issues := make([]Issue, count)
		for i := range issues {
			issues[i] = Issue{Key: fmt.Sprintf("PROJ-%d", startAt+i+1)}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issues":     issues,
			"total":      total,
			"startAt":    startAt,
			"maxResults": PageSize,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	issues, err := client.SearchAll(context.Background(), ProjectQuery("PROJ"))
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != total {
		t.Errorf("got %d issues, want %d", len(issues), total)
	}
	wantStarts := []int{0, 100, 200}
	if len(requestedStartAts) != len(wantStarts) {
		t.Fatalf("made %d requests, want %d", len(requestedStartAts), len(wantStarts))
	}
	for i, want := range wantStarts {
		if requestedStartAts[i] != want {
			t.Errorf("request %d startAt = %d, want %d", i, requestedStartAts[i], want)
		}
	}
	if issues[0].Key != "PROJ-1" || issues[total-1].Key != fmt.Sprintf("PROJ-%d", total) {
		t.Errorf("issue order lost: first=%q last=%q", issues[0].Key, issues[total-1].Key)
	}
}

func TestSearchAllAbortsOnPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		if startAt >= 100 {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"errorMessages": []string{"backend exploded"},
			})
			return
		}
		issues := make([]Issue, PageSize)
		for i := range issues {
			issues[i] = Issue{Key: fmt.Sprintf("PROJ-%d", i+1)}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"issues": issues, "total": 150})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	issues, err := client.SearchAll(context.Background(), ProjectQuery("PROJ"))
	if err == nil {
		t.Fatal("expected error when a later page fails")
	}
	if issues != nil {
		t.Errorf("partial results must not be returned, got %d issues", len(issues))
	}
	if !strings.Contains(err.Error(), "search page at 100") {
		t.Errorf("error should name the failing page offset: %v", err)
	}
	if !strings.Contains(err.Error(), "backend exploded") {
		t.Errorf("error should carry the upstream detail: %v", err)
	}
}

func TestTransitionsAndExecute(t *testing.T) {
	var executed string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/issue/PROJ-1/transitions":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"transitions": []Transition{{ID: "31", Name: "Done"}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/issue/PROJ-1/transitions":
			var body struct {
				Transition struct {
					ID string `json:"id"`
				} `json:"transition"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			executed = body.Transition.ID
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	transitions, err := client.Transitions(context.Background(), "PROJ-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(transitions) != 1 || transitions[0].Name != "Done" {
		t.Fatalf("unexpected transitions: %+v", transitions)
	}
	if err := client.ExecuteTransition(context.Background(), "PROJ-1", transitions[0].ID); err != nil {
		t.Fatal(err)
	}
	if executed != "31" {
		t.Errorf("executed transition %q, want 31", executed)
	}
}

func TestCreateIssuePayload(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/issue" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"key": "PROJ-42"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	key, err := client.CreateIssue(context.Background(), CreateIssueInput{
		ProjectKey: "PROJ",
		Summary:    "New thing",
		Priority:   "High",
		Department: "Engineering",
	})
	if err != nil {
		t.Fatal(err)
	}
	if key != "PROJ-42" {
		t.Errorf("key = %q", key)
	}

	fields, _ := payload["fields"].(map[string]any)
	if fields == nil {
		t.Fatal("fields missing from payload")
	}
	if project, _ := fields["project"].(map[string]any); project["key"] != "PROJ" {
		t.Errorf("project = %v", fields["project"])
	}
	if fields["summary"] != "New thing" {
		t.Errorf("summary = %v", fields["summary"])
	}
	if issuetype, _ := fields["issuetype"].(map[string]any); issuetype["name"] != "Task" {
		t.Errorf("issue type should default to Task, got %v", fields["issuetype"])
	}
	if dept, _ := fields["customfield_10306"].(map[string]any); dept["value"] != "Engineering" {
		t.Errorf("department custom field = %v", fields["customfield_10306"])
	}
	if _, present := fields["duedate"]; present {
		t.Error("empty due date must be omitted")
	}
	// Description is always present as a rich document, even when empty
	if desc, _ := fields["description"].(map[string]any); desc["type"] != "doc" {
		t.Errorf("description = %v", fields["description"])
	}
}

func TestAPIErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"errorMessages array", `{"errorMessages":["a","b"]}`, "a, b"},
		{"errors map", `{"errors":{"priority":"invalid"}}`, "priority: invalid"},
		{"opaque body", `upstream meltdown`, "upstream meltdown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apiErrorDetail([]byte(tt.body)); got != tt.want {
				t.Errorf("apiErrorDetail = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimeDecoding(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"2026-03-10T14:30:05.123+0700"`, "2026-03-10T14:30:05"},
		{`"2026-03-10T14:30:05Z"`, "2026-03-10T14:30:05"},
		{`"2026-03-10"`, "2026-03-10T00:00:00"},
		{`""`, "0001-01-01T00:00:00"},
	}
	for _, tt := range tests {
		var parsed Time
		if err := json.Unmarshal([]byte(tt.raw), &parsed); err != nil {
			t.Errorf("unmarshal %s: %v", tt.raw, err)
			continue
		}
		if got := parsed.Format("2006-01-02T15:04:05"); got != tt.want {
			t.Errorf("decode %s = %s, want %s", tt.raw, got, tt.want)
		}
	}

	var bad Time
	if err := json.Unmarshal([]byte(`"10/03/2026"`), &bad); err == nil {
		t.Error("expected error for unrecognized layout")
	}
}

func TestOptionFieldDecoding(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"value":"Engineering"}`, "Engineering"},
		{`"Data"`, "Data"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var field OptionField
		if err := json.Unmarshal([]byte(tt.raw), &field); err != nil {
			t.Errorf("unmarshal %s: %v", tt.raw, err)
			continue
		}
		if field.Value != tt.want {
			t.Errorf("decode %s = %q, want %q", tt.raw, field.Value, tt.want)
		}
	}
}
