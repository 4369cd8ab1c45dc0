package search

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"taskboard/api/internal/task"
)

const idxTasks = "taskboard_tasks"

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the task index.
// An unreachable instance is tolerated; the health loop retries.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxTasks,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxTasks, err)
	}

	index := m.client.Index(idxTasks)
	searchable := []string{"id", "title", "assignee"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxTasks, err)
	}
	filterable := []interface{}{"status", "assignee", "department"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxTasks, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

type taskRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Assignee   string `json:"assignee"`
	Department string `json:"department"`
}

// IndexTasks replaces the indexed set with the given collection, matching
// the store's replace-wholesale refresh semantics.
func (m *Meili) IndexTasks(tasks []task.Task) error {
	if !m.healthy.Load() {
		return nil
	}
	records := make([]taskRecord, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, taskRecord{
			ID:         t.ID,
			Title:      t.Title,
			Status:     t.Status,
			Assignee:   t.Assignee,
			Department: t.Department,
		})
	}
	index := m.client.Index(idxTasks)
	if _, err := index.DeleteAllDocuments(nil); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	_, err := index.AddDocuments(records, nil)
	return err
}

// Search queries the task index.
func (m *Meili) Search(text string, limit int) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, errUnhealthy
	}
	resp, err := m.client.Index(idxTasks).Search(text, &meili.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, err
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, Result{
			ID:       decodeString(hit, "id"),
			Title:    decodeString(hit, "title"),
			Status:   decodeString(hit, "status"),
			Assignee: decodeString(hit, "assignee"),
		})
	}
	return results, int(resp.EstimatedTotalHits), nil
}

var errUnhealthy = errString("meilisearch unhealthy")

type errString string

func (e errString) Error() string { return string(e) }

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
