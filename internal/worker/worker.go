// Package worker runs the periodic maintenance jobs: sweeping expired
// seat locks, cancelling stale pending bookings, and polling the payment
// provider for settlements whose webhook never arrived.
package worker

import (
	"context"
	"log"
	"time"
)

// Runner invokes a job on a fixed interval until stopped. Each tick gets
// a fresh context; panics are contained so one bad pass cannot kill the
// loop.
type Runner struct {
	name     string
	interval time.Duration
	job      func(ctx context.Context)
	stop     chan struct{}
	done     chan struct{}
}

func NewRunner(name string, interval time.Duration, job func(ctx context.Context)) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		job:      job,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the loop in its own goroutine. The job runs once
// immediately so a restart does not wait a full interval to catch up.
func (r *Runner) Start() {
	go func() {
		defer close(r.done)
		log.Printf("worker %s: started, interval %s", r.name, r.interval)
		r.run()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.run()
			case <-r.stop:
				log.Printf("worker %s: stopped", r.name)
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the current pass to finish.
func (r *Runner) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Runner) run() {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("worker %s: recovered from panic: %v", r.name, rec)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()
	r.job(ctx)
}
