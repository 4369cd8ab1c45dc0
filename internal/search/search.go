// Package search provides free-text task search: a Meilisearch index when
// one is configured and healthy, with an in-memory fallback. The filtered
// views derive from the task collection directly; this is the accelerator
// surface for the search box only.
package search

import "taskboard/api/internal/task"

// Result is a single search hit.
type Result struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Assignee string `json:"assignee"`
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a free-text search over the indexed tasks.
type Searcher interface {
	Search(text string, limit int) ([]Result, int, error)
	Healthy() bool
}

// Indexer can replace the indexed task set.
type Indexer interface {
	IndexTasks(tasks []task.Task) error
}

// Service routes searches to the primary searcher while healthy, falling
// back otherwise.
type Service struct {
	primary  Searcher
	fallback Searcher
}

func NewService(primary, fallback Searcher) *Service {
	return &Service{primary: primary, fallback: fallback}
}

func (s *Service) Search(text string, limit int) Response {
	if limit <= 0 {
		limit = 20
	}
	if s.primary != nil && s.primary.Healthy() {
		if results, total, err := s.primary.Search(text, limit); err == nil {
			return Response{Results: results, Total: total, Query: text}
		}
	}
	results, total, _ := s.fallback.Search(text, limit)
	return Response{Results: results, Total: total, Query: text}
}

// IndexTasks pushes the collection into every configured index.
func (s *Service) IndexTasks(tasks []task.Task) error {
	var firstErr error
	for _, target := range []Searcher{s.primary, s.fallback} {
		indexer, ok := target.(Indexer)
		if !ok {
			continue
		}
		if err := indexer.IndexTasks(tasks); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func toResult(t task.Task) Result {
	return Result{
		ID:       t.ID,
		Title:    t.Title,
		Status:   t.Status,
		Assignee: t.Assignee,
	}
}
