package service

import (
	"sync"
	"time"

	"stock-auto-trader/internal/entity"
)

// SchedulerState is the mutable scheduler bookkeeping: the enabled flag and
// the last run of every job. It is safe for concurrent use.
type SchedulerState struct {
	mu      sync.Mutex
	enabled bool
	jobs    map[string]*jobState
}

type jobState struct {
	running    bool
	lastRunAt  time.Time
	lastStatus entity.TaskStatus
}

func NewSchedulerState(enabled bool) *SchedulerState {
	return &SchedulerState{enabled: enabled, jobs: make(map[string]*jobState)}
}

func (s *SchedulerState) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *SchedulerState) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// begin marks the job running. It returns false if it already is.
func (s *SchedulerState) begin(name string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	js := s.job(name)
	if js.running {
		return false
	}
	js.running = true
	js.lastRunAt = at
	js.lastStatus = entity.StatusRunning
	return true
}

func (s *SchedulerState) finish(name string, status entity.TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	js := s.job(name)
	js.running = false
	js.lastStatus = status
}

// record stores a run that never started, such as a skipped tick.
func (s *SchedulerState) record(name string, at time.Time, status entity.TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	js := s.job(name)
	if js.running {
		return
	}
	js.lastRunAt = at
	js.lastStatus = status
}

func (s *SchedulerState) snapshot(name string) jobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.job(name)
}

func (s *SchedulerState) job(name string) *jobState {
	js, ok := s.jobs[name]
	if !ok {
		js = &jobState{}
		s.jobs[name] = js
	}
	return js
}
