// Package runner drives virtual users: one goroutine per user pulling work
// items from the user's scheduler, executing them through the wrapper, and
// applying inter-task pacing.
package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/stampede/internal/schedule"
	"github.com/wesleyorama2/stampede/internal/vuser"
)

// Options configure a Runner.
type Options struct {
	// Pacer is the inter-task wait applied between executions. Nil means no
	// wait. An immediate jump signal bypasses the pacer for one iteration.
	Pacer Pacer

	// SpawnInterval is the delay between consecutive user starts. Zero
	// starts all users at once.
	SpawnInterval time.Duration

	// Duration stops the run after this long. Zero runs until Stop or until
	// every user stops itself.
	Duration time.Duration
}

// Runner owns a population of virtual users and their drive goroutines.
type Runner struct {
	users []*vuser.User
	opts  Options
	log   zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// hadFault is set when any user's drive loop trips the fault boundary;
	// it turns into a non-zero exit for the whole run.
	hadFault atomic.Bool
}

// New creates a runner for the given users.
func New(users []*vuser.User, opts Options, log zerolog.Logger) *Runner {
	return &Runner{
		users: users,
		opts:  opts,
		log:   log,
		stop:  make(chan struct{}),
	}
}

// Run starts every user and blocks until all of them have stopped, the
// configured duration elapses, or the context is canceled. It returns an
// error when any user faulted.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.opts.Duration > 0 {
		timer := time.AfterFunc(r.opts.Duration, r.Stop)
		defer timer.Stop()
	}
	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-r.stop:
			cancel()
		}
	}()

	r.log.Info().
		Int("users", len(r.users)).
		Dur("spawn_interval", r.opts.SpawnInterval).
		Msg("starting run")

	for i, u := range r.users {
		if i > 0 && r.opts.SpawnInterval > 0 {
			if err := sleep(ctx, r.opts.SpawnInterval); err != nil {
				break
			}
		}
		r.wg.Add(1)
		go r.drive(ctx, u)
	}

	r.wg.Wait()
	r.Stop()

	if r.hadFault.Load() {
		return fmt.Errorf("run finished with faults")
	}
	return nil
}

// Stop requests a cooperative stop of every user. Each user finishes its
// in-flight task before tearing down. Safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		for _, u := range r.users {
			u.RequestStop()
		}
	})
}

// HadFault reports whether any user's drive loop faulted.
func (r *Runner) HadFault() bool { return r.hadFault.Load() }

// drive is the per-user loop: start, pull-execute-pace until a stop request,
// then tear down. A panic escaping a task body stops that user only and
// flags the run as faulted.
func (r *Runner) drive(ctx context.Context, u *vuser.User) {
	defer r.wg.Done()

	if err := u.Start(ctx); err != nil {
		r.log.Error().Err(err).Stringer("user", u).Msg("user failed to start")
		r.hadFault.Store(true)
		return
	}
	defer u.Stop()

	sched := u.Scheduler()
	for !u.StopRequested() {
		item := sched.NextWorkItem()

		sig, err := r.execute(ctx, u, sched, item)
		if err != nil {
			// Already recorded as a failure; the loop keeps going unless the
			// failure escalated to a stop.
			log := u.Logger()
			log.Debug().Err(err).Msg("task returned error")
		}

		if u.StopRequested() {
			return
		}
		if sig.Immediate {
			continue
		}
		if r.opts.Pacer != nil {
			if err := r.opts.Pacer.Wait(ctx); err != nil {
				return
			}
		}
	}
}

// execute runs one work item inside the fault boundary.
func (r *Runner) execute(ctx context.Context, u *vuser.User, sched *schedule.Scheduler, item schedule.WorkItem) (sig schedule.Signal, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.hadFault.Store(true)
			log := u.Logger()
			log.Error().
				Interface("panic", rec).
				Str("taskset", item.TaskSet.Name()).
				Str("task", item.Task.Name).
				Msg("task panicked; stopping user")
			u.RequestStop()
		}
	}()
	return sched.Execute(ctx, item)
}
