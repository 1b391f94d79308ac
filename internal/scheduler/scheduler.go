package scheduler

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
)

// Job is a function run on a fixed interval
type Job struct {
	Name     string
	Interval time.Duration
	First    time.Duration
	Run      func(ctx context.Context)
}

// Scheduler runs each job on its own goroutine
type Scheduler struct {
	jobs []Job
	wg   sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{}
}

// Every registers fn to run first after `first` and then every interval
func (s *Scheduler) Every(name string, interval, first time.Duration, fn func(ctx context.Context)) {
	s.jobs = append(s.jobs, Job{Name: name, Interval: interval, First: first, Run: fn})
}

// Start launches all jobs; they stop when ctx is done
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		job := job
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, job)
		}()
		log.Infof("🚀 %s scheduled every %s", job.Name, job.Interval)
	}
}

// Wait blocks until every job loop returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	timer := time.NewTimer(job.First)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	s.runOnce(ctx, job)

	if job.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	var pc panics.Catcher
	pc.Try(func() { job.Run(ctx) })
	if r := pc.Recovered(); r != nil {
		log.Errorf("🔥 Panic recovered in %s: %v\nStack trace: %s", job.Name, r.Value, r.Stack)
	}
}
