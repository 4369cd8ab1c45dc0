// Package tracker is the REST client for the external issue tracker,
// addressed through the credential-holding forwarding shim.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"taskboard/api/internal/adf"
)

// PageSize is the fixed page size used by SearchAll. The total result
// count is only known after the first page arrives.
const PageSize = 100

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

// NewClientWithHTTP creates a client with a caller-supplied http.Client,
// used by tests.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	c := NewClient(baseURL)
	c.httpClient = httpClient
	return c
}

// SearchQuery describes one search-all request.
type SearchQuery struct {
	JQL    string
	Fields []string
	Expand string
}

// ProjectQuery builds the standard query for one project's issues assigned
// to the current user, newest first, with changelog expansion.
func ProjectQuery(projectKey string) SearchQuery {
	return SearchQuery{
		JQL: fmt.Sprintf("project = %s AND assignee = currentUser() ORDER BY created DESC", projectKey),
		Fields: []string{
			"summary", "assignee", "status", "created", "updated", "duedate",
			"priority", "description", "comment", "customfield_10016",
			"resolutiondate", "labels", "customfield_10306", "customfield_10307",
		},
		Expand: "changelog",
	}
}

// SearchAll pages through the search endpoint until every matching record
// is retrieved. Pages are requested strictly sequentially; any page failure
// aborts the whole fetch with no partial results.
func (c *Client) SearchAll(ctx context.Context, q SearchQuery) ([]Issue, error) {
	var all []Issue
	startAt := 0
	total := 0
	for {
		params := url.Values{}
		params.Set("jql", q.JQL)
		params.Set("fields", strings.Join(q.Fields, ","))
		params.Set("expand", q.Expand)
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(PageSize))

		var page searchResponse
		if err := c.doJSON(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("search page at %d: %w", startAt, err)
		}
		all = append(all, page.Issues...)
		total = page.Total
		startAt += PageSize
		if len(all) >= total {
			return all, nil
		}
	}
}

// Transitions lists the currently available transitions for an issue.
// The set is state-dependent, not globally enumerable.
func (c *Client) Transitions(ctx context.Context, issueID string) ([]Transition, error) {
	var resp struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/issue/"+issueID+"/transitions", nil, &resp); err != nil {
		return nil, fmt.Errorf("get transitions: %w", err)
	}
	return resp.Transitions, nil
}

// ExecuteTransition moves an issue through one of its available transitions.
func (c *Client) ExecuteTransition(ctx context.Context, issueID, transitionID string) error {
	body := map[string]any{
		"transition": map[string]string{"id": transitionID},
	}
	if err := c.doJSON(ctx, http.MethodPost, "/issue/"+issueID+"/transitions", body, nil); err != nil {
		return fmt.Errorf("transition issue: %w", err)
	}
	return nil
}

// CreateIssueInput carries the fields for a new issue.
type CreateIssueInput struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
	Priority    string
	DueDate     string
	Department  string
	BICategory  string
	AssigneeID  string
	ReporterID  string
}

// CreateIssue creates an issue and returns its new key.
func (c *Client) CreateIssue(ctx context.Context, input CreateIssueInput) (string, error) {
	fields := map[string]any{
		"project":     map[string]string{"key": input.ProjectKey},
		"summary":     input.Summary,
		"description": adf.CommentDoc(orSpace(input.Description)),
		"issuetype":   map[string]string{"name": orDefault(input.IssueType, "Task")},
		"priority":    map[string]string{"name": orDefault(input.Priority, "Medium")},
	}
	if input.DueDate != "" {
		fields["duedate"] = input.DueDate
	}
	if input.Department != "" {
		fields["customfield_10306"] = map[string]string{"value": input.Department}
	}
	if input.BICategory != "" {
		fields["customfield_10307"] = map[string]string{"value": input.BICategory}
	}
	if input.AssigneeID != "" {
		fields["assignee"] = map[string]string{"accountId": input.AssigneeID}
	}
	if input.ReporterID != "" {
		fields["reporter"] = map[string]string{"accountId": input.ReporterID}
	}

	var resp struct {
		Key string `json:"key"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/issue", map[string]any{"fields": fields}, &resp); err != nil {
		return "", fmt.Errorf("create issue: %w", err)
	}
	return resp.Key, nil
}

// UpdateFields applies a partial field update to an issue.
func (c *Client) UpdateFields(ctx context.Context, issueID string, fields map[string]any) error {
	if err := c.doJSON(ctx, http.MethodPut, "/issue/"+issueID, map[string]any{"fields": fields}, nil); err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	return nil
}

// AddComment appends a plain-text comment, wrapped in the rich-document
// shape the endpoint requires.
func (c *Client) AddComment(ctx context.Context, issueID, text string) error {
	body := map[string]any{"body": adf.CommentDoc(text)}
	if err := c.doJSON(ctx, http.MethodPost, "/issue/"+issueID+"/comment", body, nil); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// Myself returns the authenticated account.
func (c *Client) Myself(ctx context.Context) (User, error) {
	var me User
	if err := c.doJSON(ctx, http.MethodGet, "/myself", nil, &me); err != nil {
		return User{}, fmt.Errorf("get current user: %w", err)
	}
	return me, nil
}

// AssignableUsers lists accounts assignable within one project.
func (c *Client) AssignableUsers(ctx context.Context, projectKey string) ([]User, error) {
	var users []User
	path := "/user/assignable/search?project=" + url.QueryEscape(projectKey)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, fmt.Errorf("get assignable users: %w", err)
	}
	return users, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tracker API error (%d): %s", resp.StatusCode, apiErrorDetail(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiErrorDetail pulls the tracker's errorMessages array out of an error
// body, falling back to the raw text.
func apiErrorDetail(raw []byte) string {
	var parsed struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if len(parsed.ErrorMessages) > 0 {
			return strings.Join(parsed.ErrorMessages, ", ")
		}
		if len(parsed.Errors) > 0 {
			pairs := make([]string, 0, len(parsed.Errors))
			for field, msg := range parsed.Errors {
				pairs = append(pairs, field+": "+msg)
			}
			return strings.Join(pairs, ", ")
		}
	}
	return string(raw)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orSpace(value string) string {
	if value == "" {
		return " "
	}
	return value
}
