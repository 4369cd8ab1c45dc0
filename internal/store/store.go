// Package store owns the canonical in-memory task collection and
// coordinates mutations against the external tracker. Every mutation is
// followed by a reconciling refresh so the collection never disagrees with
// the server for longer than one round trip.
package store

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"taskboard/api/internal/task"
	"taskboard/api/internal/tracker"
)

// ConnectionState describes the store's relationship to the tracker.
type ConnectionState string

const (
	ConnectedLive     ConnectionState = "connected-live"
	ConnectedOffHours ConnectionState = "connected-off-hours"
	Disconnected      ConnectionState = "disconnected"
)

// ErrMutationInFlight rejects a second mutation on a task whose first one
// has not reconciled yet. Rejected, not queued.
var ErrMutationInFlight = fmt.Errorf("another update for this task is still in flight")

// ErrTransitionUnavailable reports a quick-transition target that the
// tracker does not currently offer for the task.
var ErrTransitionUnavailable = fmt.Errorf("transition not available for this task")

// ErrNotConfigured reports a load attempted with no project key set.
var ErrNotConfigured = fmt.Errorf("no project key configured")

// ErrDisconnected rejects mutations while the store is showing sample data.
var ErrDisconnected = fmt.Errorf("not connected to the tracker")

// TrackerClient is the slice of the tracker API the store depends on.
type TrackerClient interface {
	SearchAll(ctx context.Context, q tracker.SearchQuery) ([]tracker.Issue, error)
	Transitions(ctx context.Context, issueID string) ([]tracker.Transition, error)
	ExecuteTransition(ctx context.Context, issueID, transitionID string) error
	UpdateFields(ctx context.Context, issueID string, fields map[string]any) error
	AddComment(ctx context.Context, issueID, text string) error
	CreateIssue(ctx context.Context, input tracker.CreateIssueInput) (string, error)
	Myself(ctx context.Context) (tracker.User, error)
}

// Indexer receives the normalized collection after each successful refresh.
type Indexer interface {
	IndexTasks(tasks []task.Task) error
}

// PrefsStore persists the selected project key.
type PrefsStore interface {
	ProjectKey(ctx context.Context) (string, error)
	SaveProjectKey(ctx context.Context, projectKey string) error
}

// Options tunes the refresh loop.
type Options struct {
	RefreshInterval time.Duration
	ActiveHourStart int
	ActiveHourEnd   int
	Now             func() time.Time
}

// Store holds the task collection and serializes mutations per task.
type Store struct {
	tracker TrackerClient
	prefs   PrefsStore
	indexer Indexer
	opts    Options

	mu          sync.Mutex
	tasks       []task.Task
	state       ConnectionState
	projectKey  string
	currentUser *tracker.User
	lastRefresh time.Time
	lastError   string
	mutating    map[string]struct{}
}

// New creates a store showing sample data until the first refresh. The
// indexer may be nil.
func New(trackerClient TrackerClient, prefsStore PrefsStore, indexer Indexer, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 10 * time.Minute
	}
	s := &Store{
		tracker:  trackerClient,
		prefs:    prefsStore,
		indexer:  indexer,
		opts:     opts,
		state:    Disconnected,
		mutating: map[string]struct{}{},
	}
	s.tasks = task.SampleTasks(opts.Now())
	return s
}

// Bootstrap loads the persisted project key, falling back to the supplied
// default when none was saved.
func (s *Store) Bootstrap(ctx context.Context, defaultKey string) error {
	key, err := s.prefs.ProjectKey(ctx)
	if err != nil {
		return fmt.Errorf("load project key: %w", err)
	}
	if key == "" {
		key = defaultKey
	}
	s.mu.Lock()
	s.projectKey = key
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current collection. Derivation functions
// operate on snapshots and never see in-place mutation.
func (s *Store) Snapshot() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Status describes the store for the summary endpoint.
type Status struct {
	State       ConnectionState `json:"state"`
	ProjectKey  string          `json:"projectKey"`
	LastRefresh time.Time       `json:"lastRefresh"`
	LastError   string          `json:"lastError,omitempty"`
	CurrentUser *tracker.User   `json:"currentUser,omitempty"`
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:       s.state,
		ProjectKey:  s.projectKey,
		LastRefresh: s.lastRefresh,
		LastError:   s.lastError,
		CurrentUser: s.currentUser,
	}
}

// SaveProjectKey persists the key and makes it current. The caller is
// expected to trigger a refresh afterwards.
func (s *Store) SaveProjectKey(ctx context.Context, projectKey string) error {
	if err := s.prefs.SaveProjectKey(ctx, projectKey); err != nil {
		return err
	}
	s.mu.Lock()
	s.projectKey = projectKey
	s.mu.Unlock()
	return nil
}

// Refresh refetches the full task collection and replaces it wholesale.
// Any failure falls back to the built-in sample set and flips the store to
// disconnected; nothing here is fatal. In background mode a missing project
// key is silent.
func (s *Store) Refresh(ctx context.Context, background bool) error {
	s.mu.Lock()
	projectKey := s.projectKey
	s.mu.Unlock()

	if strings.TrimSpace(projectKey) == "" {
		s.fallbackToSample("")
		if background {
			return nil
		}
		return ErrNotConfigured
	}

	issues, err := s.tracker.SearchAll(ctx, tracker.ProjectQuery(projectKey))
	if err != nil {
		s.fallbackToSample(err.Error())
		return fmt.Errorf("fetch issues: %w", err)
	}
	me, err := s.tracker.Myself(ctx)
	if err != nil {
		s.fallbackToSample(err.Error())
		return fmt.Errorf("fetch current user: %w", err)
	}

	tasks := task.NormalizeAll(issues)
	now := s.opts.Now()

	s.mu.Lock()
	s.tasks = tasks
	s.currentUser = &me
	s.lastRefresh = now
	s.lastError = ""
	if s.withinActiveHours(now) {
		s.state = ConnectedLive
	} else {
		s.state = ConnectedOffHours
	}
	s.mu.Unlock()

	if s.indexer != nil {
		if err := s.indexer.IndexTasks(tasks); err != nil {
			log.Printf("store: index refresh failed: %v", err)
		}
	}
	return nil
}

func (s *Store) fallbackToSample(errMsg string) {
	now := s.opts.Now()
	s.mu.Lock()
	s.tasks = task.SampleTasks(now)
	s.state = Disconnected
	s.currentUser = nil
	s.lastError = errMsg
	s.mu.Unlock()
}

// UpdateInput is a compound update: any subset of priority change, status
// transition and comment addition.
type UpdateInput struct {
	Priority     string `json:"priority,omitempty"`
	TransitionID string `json:"statusId,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// UpdateTask applies a compound update as sequential independent calls:
// priority, then transition, then comment. A failure partway through is
// accepted; the reconciling refresh reflects whatever stuck. The task's
// mutation lock is held until that refresh settles.
func (s *Store) UpdateTask(ctx context.Context, taskID string, input UpdateInput) error {
	if err := s.acquire(taskID); err != nil {
		return err
	}
	defer s.release(taskID)

	var mutErr error
	if input.Priority != "" {
		mutErr = s.tracker.UpdateFields(ctx, taskID, map[string]any{
			"priority": map[string]string{"name": input.Priority},
		})
	}
	if mutErr == nil && input.TransitionID != "" {
		mutErr = s.tracker.ExecuteTransition(ctx, taskID, input.TransitionID)
	}
	if mutErr == nil && input.Comment != "" {
		mutErr = s.tracker.AddComment(ctx, taskID, input.Comment)
	}

	s.reconcile(ctx)
	return mutErr
}

// QuickTransition moves a task to the first available transition whose name
// contains the target substring. When nothing matches, the mutation
// endpoint is never contacted.
func (s *Store) QuickTransition(ctx context.Context, taskID, targetStatus string) error {
	if err := s.acquire(taskID); err != nil {
		return err
	}
	defer s.release(taskID)

	transitions, err := s.tracker.Transitions(ctx, taskID)
	if err != nil {
		s.reconcile(ctx)
		return err
	}

	target := strings.ToLower(targetStatus)
	for _, t := range transitions {
		if strings.Contains(strings.ToLower(t.Name), target) {
			execErr := s.tracker.ExecuteTransition(ctx, taskID, t.ID)
			s.reconcile(ctx)
			return execErr
		}
	}
	return ErrTransitionUnavailable
}

// CreateTask creates a new issue and refreshes so the collection picks it
// up with its server-assigned key.
func (s *Store) CreateTask(ctx context.Context, input tracker.CreateIssueInput) (string, error) {
	s.mu.Lock()
	connected := s.state != Disconnected
	if input.ProjectKey == "" {
		input.ProjectKey = s.projectKey
	}
	s.mu.Unlock()
	if !connected {
		return "", ErrDisconnected
	}

	key, err := s.tracker.CreateIssue(ctx, input)
	s.reconcile(ctx)
	if err != nil {
		return "", err
	}
	return key, nil
}

// reconcile is the background refresh that closes every mutation, whether
// or not the mutation itself succeeded. Its own failure only logs: the
// fallback path inside Refresh already repaired the visible state.
func (s *Store) reconcile(ctx context.Context) {
	if err := s.Refresh(ctx, true); err != nil {
		log.Printf("store: reconciling refresh failed: %v", err)
	}
}

func (s *Store) acquire(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Disconnected {
		return ErrDisconnected
	}
	if _, busy := s.mutating[taskID]; busy {
		return ErrMutationInFlight
	}
	s.mutating[taskID] = struct{}{}
	return nil
}

func (s *Store) release(taskID string) {
	s.mu.Lock()
	delete(s.mutating, taskID)
	s.mu.Unlock()
}

// Mutating reports whether a task has a mutation in flight.
func (s *Store) Mutating(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.mutating[taskID]
	return busy
}

// withinActiveHours gates auto-refresh to the configured weekday hour
// window. Callers hold s.mu or do not need it.
func (s *Store) withinActiveHours(now time.Time) bool {
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}
	hour := now.Hour()
	return hour >= s.opts.ActiveHourStart && hour < s.opts.ActiveHourEnd
}

// Run drives the auto-refresh loop until the context ends. Outside active
// hours the tick is suppressed; manual refreshes still work.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.withinActiveHours(s.opts.Now()) {
				s.markOffHours()
				continue
			}
			if err := s.Refresh(ctx, true); err != nil {
				log.Printf("store: auto-refresh failed: %v", err)
			}
		}
	}
}

func (s *Store) markOffHours() {
	s.mu.Lock()
	if s.state == ConnectedLive {
		s.state = ConnectedOffHours
	}
	s.mu.Unlock()
}
