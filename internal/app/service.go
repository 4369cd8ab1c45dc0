package app

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"taskboard/api/internal/config"
	"taskboard/api/internal/export"
	"taskboard/api/internal/search"
	"taskboard/api/internal/store"
	"taskboard/api/internal/task"
	"taskboard/api/internal/tracker"
	"taskboard/api/internal/views"
)

// userDirectory is the slice of the tracker API served directly rather
// than through the task store.
type userDirectory interface {
	AssignableUsers(ctx context.Context, projectKey string) ([]tracker.User, error)
}

// Service exposes the task pipeline to the HTTP layer. Views receive the
// store and coordinator through it rather than ambient global state.
type Service struct {
	cfg    config.Config
	store  *store.Store
	search *search.Service
	users  userDirectory
	now    func() time.Time
}

func New(cfg config.Config, taskStore *store.Store, searchService *search.Service, users userDirectory) *Service {
	return &Service{
		cfg:    cfg,
		store:  taskStore,
		search: searchService,
		users:  users,
		now:    time.Now,
	}
}

// TaskListPayload is the inbox view: filtered tasks, newest update first.
type TaskListPayload struct {
	Tasks       []task.Task `json:"tasks"`
	ActiveCount int         `json:"activeCount"`
	Total       int         `json:"total"`
}

func (s *Service) Tasks(filter views.Filter) TaskListPayload {
	snapshot := s.store.Snapshot()
	filtered := views.Apply(snapshot, filter)
	sortByLastUpdatedDesc(filtered)
	return TaskListPayload{
		Tasks:       filtered,
		ActiveCount: views.ActiveCount(snapshot),
		Total:       len(snapshot),
	}
}

func (s *Service) Task(id string) (task.Task, error) {
	for _, t := range s.store.Snapshot() {
		if t.ID == id {
			return t, nil
		}
	}
	return task.Task{}, domainError(http.StatusNotFound, "NOT_FOUND", "Task not found", nil)
}

func (s *Service) Board(filter views.Filter) []views.Column {
	return views.Board(views.Apply(s.store.Snapshot(), filter))
}

// WorkloadPayload pairs the daily series with the status-grouped columns.
type WorkloadPayload struct {
	Series       []views.WorkloadPoint `json:"series"`
	StatusGroups []views.StatusGroup   `json:"statusGroups"`
	Today        string                `json:"today"`
}

func (s *Service) Workload(groupBy views.GroupBy) WorkloadPayload {
	snapshot := s.store.Snapshot()
	now := s.now()
	return WorkloadPayload{
		Series:       views.Workload(snapshot, now, groupBy),
		StatusGroups: views.GroupByStatus(snapshot),
		Today:        now.Format("2006-01-02"),
	}
}

// GanttPayload is the timeline view: bars on a day-offset grid anchored at
// the range start.
type GanttPayload struct {
	Bars     []views.Bar `json:"bars"`
	RangeMin string      `json:"rangeMin"`
	RangeMax string      `json:"rangeMax"`
}

func (s *Service) Gantt(filter views.Filter) GanttPayload {
	now := s.now()
	min, max := views.TimelineRange(now)
	filtered := views.Apply(s.store.Snapshot(), filter)
	return GanttPayload{
		Bars:     views.Gantt(filtered, min, now),
		RangeMin: min.Format("2006-01-02"),
		RangeMax: max.Format("2006-01-02"),
	}
}

func (s *Service) Search(text string, limit int) search.Response {
	return s.search.Search(text, limit)
}

// SummaryPayload reports connection state and headline counts.
type SummaryPayload struct {
	store.Status
	ActiveCount        int    `json:"activeCount"`
	TaskCount          int    `json:"taskCount"`
	LastRefreshDisplay string `json:"lastRefreshDisplay,omitempty"`
}

func (s *Service) Summary() SummaryPayload {
	snapshot := s.store.Snapshot()
	status := s.store.Status()
	return SummaryPayload{
		Status:             status,
		ActiveCount:        views.ActiveCount(snapshot),
		TaskCount:          len(snapshot),
		LastRefreshDisplay: task.RelativeTime(status.LastRefresh, s.now()),
	}
}

func (s *Service) Refresh(ctx context.Context, background bool) error {
	if err := s.store.Refresh(ctx, background); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (s *Service) UpdateTask(ctx context.Context, taskID string, input store.UpdateInput) error {
	if err := s.store.UpdateTask(ctx, taskID, input); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (s *Service) QuickTransition(ctx context.Context, taskID, targetStatus string) error {
	if strings.TrimSpace(targetStatus) == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "target status is required", nil)
	}
	if err := s.store.QuickTransition(ctx, taskID, targetStatus); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (s *Service) CreateTask(ctx context.Context, input tracker.CreateIssueInput) (string, error) {
	if strings.TrimSpace(input.Summary) == "" {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "summary is required", nil)
	}
	key, err := s.store.CreateTask(ctx, input)
	if err != nil {
		return "", mapStoreError(err)
	}
	return key, nil
}

// ConfigPayload is the persisted configuration: the project key and
// nothing else.
type ConfigPayload struct {
	ProjectKey string `json:"projectKey"`
}

func (s *Service) Config() ConfigPayload {
	return ConfigPayload{ProjectKey: s.store.Status().ProjectKey}
}

// SaveConfig persists the project key and reloads in the foreground so the
// caller sees the result of connecting with the new key.
func (s *Service) SaveConfig(ctx context.Context, projectKey string) error {
	if strings.TrimSpace(projectKey) == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "projectKey is required", nil)
	}
	if err := s.store.SaveProjectKey(ctx, projectKey); err != nil {
		return err
	}
	return s.Refresh(ctx, false)
}

func (s *Service) AssignableUsers(ctx context.Context) ([]tracker.User, error) {
	status := s.store.Status()
	if status.State == store.Disconnected {
		return nil, mapStoreError(store.ErrDisconnected)
	}
	users, err := s.users.AssignableUsers(ctx, status.ProjectKey)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return users, nil
}

// ExportTask renders one task into a PDF report.
func (s *Service) ExportTask(id string) (*export.Result, error) {
	t, err := s.Task(id)
	if err != nil {
		return nil, err
	}
	result, err := export.TaskReport(export.Report{
		Task:        t,
		ProjectKey:  s.store.Status().ProjectKey,
		GeneratedAt: s.now(),
	})
	if err != nil {
		return nil, domainError(http.StatusInternalServerError, "EXPORT_FAILED", err.Error(), nil)
	}
	return result, nil
}

func sortByLastUpdatedDesc(tasks []task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].LastUpdated.After(tasks[j].LastUpdated)
	})
}

// mapStoreError translates coordinator errors into domain errors; anything
// else is an upstream failure surfaced with its message intact.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrMutationInFlight):
		return domainError(http.StatusConflict, "MUTATION_IN_FLIGHT", store.ErrMutationInFlight.Error(), nil)
	case errors.Is(err, store.ErrTransitionUnavailable):
		return domainError(http.StatusUnprocessableEntity, "TRANSITION_UNAVAILABLE", store.ErrTransitionUnavailable.Error(), nil)
	case errors.Is(err, store.ErrNotConfigured):
		return domainError(http.StatusBadRequest, "NOT_CONFIGURED", "Please set your project key in the config.", nil)
	case errors.Is(err, store.ErrDisconnected):
		return domainError(http.StatusServiceUnavailable, "DISCONNECTED", store.ErrDisconnected.Error(), nil)
	default:
		return domainError(http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), nil)
	}
}
