package search

import (
	"strings"
	"sync"

	"taskboard/api/internal/task"
)

// Memory is the in-memory fallback searcher: substring match on task id
// and title, the same predicate the filtered views use.
type Memory struct {
	mu    sync.RWMutex
	tasks []task.Task
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) IndexTasks(tasks []task.Task) error {
	m.mu.Lock()
	m.tasks = tasks
	m.mu.Unlock()
	return nil
}

func (m *Memory) Healthy() bool { return true }

func (m *Memory) Search(text string, limit int) ([]Result, int, error) {
	term := strings.ToLower(strings.TrimSpace(text))
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []Result{}
	total := 0
	for _, t := range m.tasks {
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.ID), term) {
			continue
		}
		total++
		if len(results) < limit {
			results = append(results, toResult(t))
		}
	}
	return results, total, nil
}
