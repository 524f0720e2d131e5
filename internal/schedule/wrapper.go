package schedule

import (
	"context"
	"time"
)

// WorkItem pairs a task-set instance with the task chosen to run next.
type WorkItem struct {
	TaskSet *TaskSet
	Task    *TaskDescriptor
}

// Execute runs one work item through the instrumentation wrapper:
//
//  1. invoke the owner and task-set heartbeat hooks (capabilities resolved
//     at registration)
//  2. reset the task-set's execution statistics and record the start time
//  3. run the task body
//  4. emit the completion event for exactly this (task-set, task) pair
//  5. escalate a stop-flagged failure to the owning user
//  6. apply the exclusive-schedule auto-advance when no jump is pending
//
// The returned Signal is the scheduling directive for the runner; the
// returned error is the task body's business error, already recorded as a
// failure. Panics inside the body propagate to the caller's fault boundary.
func (s *Scheduler) Execute(ctx context.Context, item WorkItem) (Signal, error) {
	ts, task := item.TaskSet, item.Task

	if s.ownerHeartbeat != nil {
		s.ownerHeartbeat.OnHeartbeat()
	}
	for _, hb := range s.heartbeats {
		hb.def.onHeartbeat(hb)
	}

	ts.stats.reset(time.Now())

	s.log.Debug().
		Str("taskset", ts.def.Name).
		Str("task", task.Name).
		Int("order", task.Order).
		Msg("executing task")

	err := task.fn(ctx, ts)
	if err != nil && ts.stats.Failure == nil {
		// A returned error is a business failure unless the body already
		// reported a more specific one.
		ts.stats.Failure = &Failure{Desc: err.Error()}
	}

	elapsed := time.Since(ts.stats.StartTime)
	var failDesc string
	var stopUser bool
	if f := ts.stats.Failure; f != nil {
		failDesc = f.Desc
		stopUser = f.StopUser
	}

	s.emit(func(r Reporter) {
		r.TaskCompleted(TaskCompletion{
			TaskSet:       ts.def.Desc,
			Task:          task.Desc,
			Elapsed:       elapsed,
			BytesSent:     ts.stats.TotalBytesSent,
			BytesReceived: ts.stats.TotalBytesReceived,
			Failure:       failDesc,
		})
	})

	if stopUser {
		s.owner.RequestStop()
	}

	if s.pending.Kind == SignalNone && !ts.def.Exclusive && !s.owner.Exclusive() {
		ts.execCount++
		if ts.execCount >= len(ts.def.schedulable) {
			if aerr := s.autoAdvance(); aerr != nil {
				s.log.Error().Err(aerr).Str("taskset", ts.def.Name).Msg("auto-advance failed")
			}
		}
	}

	sig := s.pending
	s.pending = Signal{}
	return sig, err
}
