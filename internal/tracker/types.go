package tracker

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taskboard/api/internal/adf"
)

// Time wraps time.Time to decode the tracker's timestamp format, which
// carries milliseconds and a zone offset without a colon.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339,
	"2006-01-02",
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(timeLayouts[0]))
}

// NamedField is a field whose only relevant part is its display name,
// such as status and priority.
type NamedField struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// OptionField decodes a custom select field, which arrives either as
// {"value": "..."} or as a bare string.
type OptionField struct {
	Value string
}

func (o *OptionField) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		o.Value = ""
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		o.Value = wrapped.Value
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o OptionField) MarshalJSON() ([]byte, error) {
	if o.Value == "" {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]string{"value": o.Value})
}

// User is a tracker account reference.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// Issue is one raw record from the search endpoint, including nested
// changelog and comments when expanded.
type Issue struct {
	Key       string     `json:"key"`
	Fields    Fields     `json:"fields"`
	Changelog *Changelog `json:"changelog,omitempty"`
}

type Fields struct {
	Summary        string            `json:"summary"`
	Assignee       *User             `json:"assignee"`
	Status         *NamedField       `json:"status"`
	Created        Time              `json:"created"`
	Updated        Time              `json:"updated"`
	DueDate        Time              `json:"duedate"`
	ResolutionDate Time              `json:"resolutiondate"`
	Priority       *NamedField       `json:"priority"`
	Description    *adf.Node         `json:"description"`
	Comment        *CommentContainer `json:"comment"`
	Labels         []string          `json:"labels"`
	StoryPoints    float64           `json:"customfield_10016"`
	Department     OptionField       `json:"customfield_10306"`
	BICategory     OptionField       `json:"customfield_10307"`
}

type CommentContainer struct {
	Comments []Comment `json:"comments"`
}

type Comment struct {
	Author  *User     `json:"author"`
	Created Time      `json:"created"`
	Body    *adf.Node `json:"body"`
}

type Changelog struct {
	Histories []History `json:"histories"`
}

// History is one changelog entry: one author changing one or more fields
// at one instant.
type History struct {
	Author  User          `json:"author"`
	Created Time          `json:"created"`
	Items   []HistoryItem `json:"items"`
}

type HistoryItem struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
}

// Transition is one currently available status transition for an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type searchResponse struct {
	Issues     []Issue `json:"issues"`
	Total      int     `json:"total"`
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
}
