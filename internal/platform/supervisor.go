package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// RestartPolicy controls whether a supervised task is restarted when its
// runner returns. Batch experiment runs use RestartTemporary: a finished
// run, successful or not, is never restarted.
type RestartPolicy string

const (
	RestartPermanent RestartPolicy = "permanent"
	RestartTransient RestartPolicy = "transient"
	RestartTemporary RestartPolicy = "temporary"
)

// SupervisorPolicy bounds restart behaviour for all tasks under one
// supervisor.
type SupervisorPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	MaxRestarts    int
}

func defaultSupervisorPolicy() SupervisorPolicy {
	return SupervisorPolicy{
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     200 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func normalizePolicy(policy SupervisorPolicy) SupervisorPolicy {
	def := defaultSupervisorPolicy()
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = def.InitialBackoff
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = def.MaxBackoff
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = def.BackoffFactor
	}
	return policy
}

// TaskStatus reports one task's lifecycle after it has run at least once.
type TaskStatus struct {
	Name         string `json:"name"`
	RestartCount int    `json:"restart_count"`
	LastError    string `json:"last_error,omitempty"`
}

// Supervisor runs named tasks in goroutines and restarts them according to
// each task's restart policy, with exponential backoff between attempts.
type Supervisor struct {
	policy SupervisorPolicy

	mu       sync.Mutex
	tasks    map[string]*supervisedTask
	statuses map[string]TaskStatus
}

type supervisedTask struct {
	cancel  context.CancelFunc
	done    chan struct{}
	restart RestartPolicy

	restartCount int
	lastErr      error
}

func NewSupervisor(policy SupervisorPolicy) *Supervisor {
	return &Supervisor{
		policy:   normalizePolicy(policy),
		tasks:    make(map[string]*supervisedTask),
		statuses: make(map[string]TaskStatus),
	}
}

// Start launches a task under the given restart policy. Names must be
// unique among running tasks.
func (s *Supervisor) Start(name string, restart RestartPolicy, run func(ctx context.Context) error) error {
	if name == "" {
		return errors.New("task name is required")
	}
	if run == nil {
		return errors.New("task runner is required")
	}
	switch restart {
	case RestartPermanent, RestartTransient, RestartTemporary:
	case "":
		restart = RestartPermanent
	default:
		return fmt.Errorf("unknown restart policy %q", restart)
	}

	s.mu.Lock()
	if _, exists := s.tasks[name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("task already running: %s", name)
	}
	delete(s.statuses, name)
	ctx, cancel := context.WithCancel(context.Background())
	task := &supervisedTask{
		cancel:  cancel,
		done:    make(chan struct{}),
		restart: restart,
	}
	s.tasks[name] = task
	s.mu.Unlock()

	go s.runTask(ctx, name, task, run)
	return nil
}

func (s *Supervisor) runTask(ctx context.Context, name string, task *supervisedTask, run func(ctx context.Context) error) {
	defer func() {
		s.mu.Lock()
		s.statuses[name] = TaskStatus{
			Name:         name,
			RestartCount: task.restartCount,
			LastError:    errString(task.lastErr),
		}
		delete(s.tasks, name)
		s.mu.Unlock()
		close(task.done)
	}()

	backoff := s.policy.InitialBackoff
	for {
		err := run(ctx)
		task.lastErr = err
		if ctx.Err() != nil {
			return
		}
		if !shouldRestart(task.restart, err) {
			return
		}
		if s.policy.MaxRestarts > 0 && task.restartCount >= s.policy.MaxRestarts {
			return
		}
		task.restartCount++

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff = time.Duration(float64(backoff) * s.policy.BackoffFactor)
		if backoff > s.policy.MaxBackoff {
			backoff = s.policy.MaxBackoff
		}
	}
}

func shouldRestart(policy RestartPolicy, err error) bool {
	switch policy {
	case RestartTransient:
		return err != nil
	case RestartTemporary:
		return false
	default:
		return true
	}
}

// Stop cancels one task and waits for it to finish.
func (s *Supervisor) Stop(name string) {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return
	}
	task.cancel()
	<-task.done
}

// StopAll cancels every running task and waits for all of them.
func (s *Supervisor) StopAll() {
	for _, task := range s.snapshot() {
		task.cancel()
	}
	for _, task := range s.snapshot() {
		<-task.done
	}
	s.Wait()
}

// Wait blocks until no tasks are running.
func (s *Supervisor) Wait() {
	for {
		tasks := s.snapshot()
		if len(tasks) == 0 {
			return
		}
		for _, task := range tasks {
			<-task.done
		}
	}
}

func (s *Supervisor) snapshot() []*supervisedTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*supervisedTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task)
	}
	return out
}

// Tasks lists running task names in sorted order.
func (s *Supervisor) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Statuses reports finished tasks in name order.
func (s *Supervisor) Statuses() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
