package schedule

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/stampede/internal/session"
)

// TaskSet is the per-user runtime instance of a TaskSetDescriptor. It owns
// the intra-set scheduling cursor, the per-instance execution counter, and
// the statistics of the execution in flight.
//
// A TaskSet is confined to its owning user's goroutine; within one user task
// executions are strictly sequential, so no locking is needed here.
type TaskSet struct {
	def   *TaskSetDescriptor
	sched *Scheduler
	log   zerolog.Logger

	// curTaskIndex is the cursor into the schedulable list; -1 = not started.
	curTaskIndex int

	// execCount counts executions since the task-set was last (re-)entered.
	execCount int

	// queued is a task positioned by a jump, consumed by the next work item
	// instead of advancing the cursor.
	queued *TaskDescriptor

	stats ExecutionStats
}

func newTaskSet(def *TaskSetDescriptor, sched *Scheduler) *TaskSet {
	return &TaskSet{
		def:          def,
		sched:        sched,
		log:          sched.log.With().Str("taskset", def.Name).Logger(),
		curTaskIndex: -1,
	}
}

// Descriptor returns the task-set's immutable definition.
func (ts *TaskSet) Descriptor() *TaskSetDescriptor { return ts.def }

// Name returns the task-set's registered name.
func (ts *TaskSet) Name() string { return ts.def.Name }

// Logger returns the task-set's contextual logger.
func (ts *TaskSet) Logger() zerolog.Logger { return ts.log }

// Session returns the owning user's session, or nil before one is attached.
func (ts *TaskSet) Session() session.Session { return ts.sched.owner.Session() }

// Stats returns the statistics of the execution in flight.
func (ts *TaskSet) Stats() *ExecutionStats { return &ts.stats }

// ExecutionCount returns the executions since the task-set was last entered.
func (ts *TaskSet) ExecutionCount() int { return ts.execCount }

// CurrentTask returns the task at the cursor, or nil if the task-set has not
// started.
func (ts *TaskSet) CurrentTask() *TaskDescriptor {
	if ts.curTaskIndex < 0 {
		return nil
	}
	return ts.def.schedulable[ts.curTaskIndex]
}

// nextTask advances the cursor per the schedule mode and returns the chosen
// task.
func (ts *TaskSet) nextTask() *TaskDescriptor {
	n := len(ts.def.schedulable)
	if ts.def.Mode.Random() {
		ts.curTaskIndex = ts.sched.rng.Intn(n)
	} else {
		ts.curTaskIndex = (ts.curTaskIndex + 1) % n
	}
	return ts.def.schedulable[ts.curTaskIndex]
}

// locateTask resolves a task reference to a slot in the schedulable list. A
// zero reference resolves to slot 0 for deterministic modes and a uniform
// random slot for randomized modes. The cursor is not touched.
func (ts *TaskSet) locateTask(ref TaskRef) (int, error) {
	schedulable := ts.def.schedulable
	if ref.IsZero() {
		if ts.def.Mode.Random() {
			return ts.sched.rng.Intn(len(schedulable)), nil
		}
		return 0, nil
	}

	target := ref
	if target.kind == refHandle && target.task != nil {
		target = ByOrder(target.task.Order)
	}
	for i, t := range schedulable {
		switch target.kind {
		case refOrder:
			if t.Order == target.order {
				return i, nil
			}
		case refName:
			if t.Name == target.name {
				return i, nil
			}
		}
	}
	return 0, &TaskNotFoundError{TaskSet: ts.def.Name, Ref: ref}
}

// setCursor positions the cursor and queues the task there for the next work
// item. Called by the jump protocol after validation succeeds.
func (ts *TaskSet) setCursor(idx int) {
	ts.curTaskIndex = idx
	ts.queued = ts.def.schedulable[idx]
}

// leave resets per-entry state when the scheduler switches away from this
// task-set.
func (ts *TaskSet) leave() {
	ts.curTaskIndex = -1
	ts.execCount = 0
	ts.queued = nil
}

// ReportSend records an outbound message against the execution in flight and
// emits the real-time send event.
func (ts *TaskSet) ReportSend(msgID int, size int64) {
	ts.stats.SentMessages = append(ts.stats.SentMessages, MessageRecord{
		Direction:  Send,
		MessageID:  msgID,
		ByteLength: size,
	})
	ts.stats.TotalBytesSent += size
	ts.sched.emit(func(r Reporter) {
		r.MessageSent(MessageEvent{Direction: Send, MessageID: msgID, ByteLength: size})
	})
}

// ReportRecv records an inbound message against the execution in flight and
// emits the real-time recv event.
func (ts *TaskSet) ReportRecv(msgID int, size int64, status int) {
	ts.stats.ReceivedMessages = append(ts.stats.ReceivedMessages, MessageRecord{
		Direction:  Recv,
		MessageID:  msgID,
		ByteLength: size,
		StatusCode: status,
	})
	ts.stats.TotalBytesReceived += size
	ts.sched.emit(func(r Reporter) {
		r.MessageReceived(MessageEvent{
			Direction:  Recv,
			MessageID:  msgID,
			ByteLength: size,
			StatusCode: status,
		})
	})
}

// ReportSendRecv records a paired request/response unit and emits the paired
// event. Bytes count toward both totals.
func (ts *TaskSet) ReportSendRecv(sendID int, sendSize int64, recvID int, recvSize int64, recvStatus int, elapsed time.Duration) {
	rec := PairedMessageRecord{
		SendMessageID: sendID,
		SendSize:      sendSize,
		RecvMessageID: recvID,
		RecvSize:      recvSize,
		RecvStatus:    recvStatus,
		Elapsed:       elapsed,
	}
	ts.stats.PairedMessages = append(ts.stats.PairedMessages, rec)
	ts.stats.TotalBytesSent += sendSize
	ts.stats.TotalBytesReceived += recvSize
	ts.sched.emit(func(r Reporter) {
		r.MessagePaired(rec)
	})
}

// ReportFailure records a business failure for the execution in flight.
// Repeated calls keep the last report. When stopUser is set, the owning user
// is asked to stop after the completion event is emitted.
func (ts *TaskSet) ReportFailure(desc string, stopUser bool) {
	ts.stats.Failure = &Failure{Desc: desc, StopUser: stopUser}

	evt := ts.log.Warn()
	if stopUser {
		evt = ts.log.Error()
	}
	evt.Str("failure", desc).Bool("stop_user", stopUser).Msg("task reported failure")
}

// JumpToTask jumps to another task within this task-set. See
// Scheduler.JumpToTask.
func (ts *TaskSet) JumpToTask(ref TaskRef, immediate bool) error {
	return ts.sched.JumpToTask(ref, immediate)
}

// JumpToTaskSet jumps to another task-set. See Scheduler.JumpToTaskSet.
func (ts *TaskSet) JumpToTaskSet(set TaskSetRef, task TaskRef, immediate bool) error {
	return ts.sched.JumpToTaskSet(set, task, immediate)
}

// JumpToCategory jumps to another category. See Scheduler.JumpToCategory.
func (ts *TaskSet) JumpToCategory(c Category, immediate bool) error {
	return ts.sched.JumpToCategory(c, immediate)
}
