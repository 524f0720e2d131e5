package schedule

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/stampede/internal/session"
)

// Owner is the scheduler's view of the virtual user that owns it.
type Owner interface {
	// Exclusive reports the user-level exclusive-schedule flag.
	Exclusive() bool

	// RequestStop asks the user to stop at the next task boundary.
	RequestStop()

	// Session returns the user's session, or nil before one is attached.
	Session() session.Session
}

// HeartbeatOwner is implemented by owners that want a heartbeat before every
// task execution. The capability is checked once at scheduler construction,
// not per call.
type HeartbeatOwner interface {
	OnHeartbeat()
}

// Scheduler is the top-level, per-user scheduling state machine. It selects
// the next task-set within the active category, delegates task selection to
// the task-set instance, and owns the jump protocol across task-sets.
//
// A Scheduler belongs to exactly one virtual user and is driven from that
// user's goroutine only.
type Scheduler struct {
	profile  *Profile
	owner    Owner
	reporter Reporter
	log      zerolog.Logger
	rng      *rand.Rand

	// ownerHeartbeat is non-nil when the owner implements HeartbeatOwner;
	// resolved once at construction.
	ownerHeartbeat HeartbeatOwner

	taskSets   []*TaskSet // one instance per descriptor, profile order
	heartbeats []*TaskSet // task-sets with a heartbeat hook
	byName     map[string]*TaskSet

	curCategory Category
	curMode     ScheduleMode
	schedulable []*TaskSet

	// curTaskSetIndex is the cursor into schedulable; -1 = not started.
	curTaskSetIndex int

	// pending is the signal raised by a jump during the current execution,
	// consumed by Execute.
	pending Signal
}

// New creates the scheduler for one virtual user. A nil reporter discards
// events; a nil rng seeds one from the clock.
func New(profile *Profile, owner Owner, reporter Reporter, log zerolog.Logger, rng *rand.Rand) *Scheduler {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Scheduler{
		profile:         profile,
		owner:           owner,
		reporter:        reporter,
		log:             log,
		rng:             rng,
		byName:          make(map[string]*TaskSet, len(profile.taskSets)),
		curTaskSetIndex: -1,
	}
	if hb, ok := owner.(HeartbeatOwner); ok {
		s.ownerHeartbeat = hb
	}

	for _, def := range profile.taskSets {
		ts := newTaskSet(def, s)
		s.taskSets = append(s.taskSets, ts)
		s.byName[def.Name] = ts
		if def.onHeartbeat != nil {
			s.heartbeats = append(s.heartbeats, ts)
		}
	}

	if c, ok := profile.firstCategory(); ok {
		s.curCategory = c
		s.curMode = profile.CategoryMode(c)
		s.schedulable = s.instancesFor(c)
	}

	return s
}

// Profile returns the scheduler's user-type definition.
func (s *Scheduler) Profile() *Profile { return s.profile }

// Category returns the active category.
func (s *Scheduler) Category() Category { return s.curCategory }

// TaskSets returns all task-set instances in profile order.
func (s *Scheduler) TaskSets() []*TaskSet { return s.taskSets }

// TaskSet resolves a task-set instance by name or handle, or nil.
func (s *Scheduler) TaskSet(ref TaskSetRef) *TaskSet {
	ts, err := s.locateTaskSet(ref)
	if err != nil {
		return nil
	}
	return ts
}

// CurrentTaskSet returns the active task-set instance, or nil before the
// first work item.
func (s *Scheduler) CurrentTaskSet() *TaskSet {
	if s.curTaskSetIndex < 0 {
		return nil
	}
	return s.schedulable[s.curTaskSetIndex]
}

// NextWorkItem returns the next (task-set, task) pair to execute. A task
// positioned by a jump is consumed before the task-set's own schedule
// advances.
func (s *Scheduler) NextWorkItem() WorkItem {
	if s.curTaskSetIndex < 0 {
		s.curTaskSetIndex = s.nextTaskSetSlot()
	}
	ts := s.schedulable[s.curTaskSetIndex]

	var task *TaskDescriptor
	if ts.queued != nil {
		task = ts.queued
		ts.queued = nil
	} else {
		task = ts.nextTask()
	}
	return WorkItem{TaskSet: ts, Task: task}
}

// InitTaskSets runs the task-sets' OnInit hooks in declaration order. Called
// once per user on start.
func (s *Scheduler) InitTaskSets() error {
	for _, ts := range s.taskSets {
		if ts.def.onInit == nil {
			continue
		}
		if err := ts.def.onInit(ts); err != nil {
			return &DefinitionError{TaskSet: ts.def.Name, Message: "init hook failed: " + err.Error()}
		}
	}
	return nil
}

// DestroyTaskSets runs the task-sets' OnDestroy hooks in reverse declaration
// order. Called once per user on stop.
func (s *Scheduler) DestroyTaskSets() {
	for i := len(s.taskSets) - 1; i >= 0; i-- {
		ts := s.taskSets[i]
		if ts.def.onDestroy != nil {
			ts.def.onDestroy(ts)
		}
	}
}

// JumpToTask repositions the active task-set on the referenced task. The
// reference is validated before any state changes; an unresolved reference
// returns InvalidTaskOrderError and leaves the cursor untouched. On success
// a reschedule signal is raised for the runner.
func (s *Scheduler) JumpToTask(ref TaskRef, immediate bool) error {
	ts := s.CurrentTaskSet()
	if ts == nil {
		return ErrNotRunning
	}

	idx, err := ts.locateTask(ref)
	if err != nil {
		return &InvalidTaskOrderError{TaskSet: ts.def.Name, Ref: ref}
	}

	ts.setCursor(idx)
	ts.execCount = 0
	s.pending = Signal{Kind: SignalReschedule, Immediate: immediate}

	to := ts.def.schedulable[idx]
	s.log.Debug().
		Str("taskset", ts.def.Name).
		Str("task", to.Name).
		Int("order", to.Order).
		Bool("immediate", immediate).
		Msg("jump to task")
	return nil
}

// JumpToTaskSet repositions the scheduler on another task-set, switching
// categories when the target belongs to a different one. A zero set
// reference lets the active category's own schedule choose the target. When
// the named target is the active task-set, the call degenerates to
// JumpToTask. On success an interrupt signal is raised for the runner.
func (s *Scheduler) JumpToTaskSet(set TaskSetRef, task TaskRef, immediate bool) error {
	if s.CurrentTaskSet() == nil {
		return ErrNotRunning
	}

	if set.IsZero() {
		slot := s.nextTaskSetSlot()
		return s.switchTaskSet(s.schedulable[slot], slot, task, immediate)
	}

	target, err := s.locateTaskSet(set)
	if err != nil {
		return err
	}
	if target == s.CurrentTaskSet() {
		return s.JumpToTask(task, immediate)
	}
	return s.switchTaskSet(target, -1, task, immediate)
}

// JumpToCategory jumps into another category, choosing a task-set there by
// the category's own schedule: a uniform random one for randomized modes,
// else the first declared. A jump to the active category is a no-op.
func (s *Scheduler) JumpToCategory(c Category, immediate bool) error {
	if s.CurrentTaskSet() == nil {
		return ErrNotRunning
	}
	if c == s.curCategory {
		return nil
	}

	defs := s.profile.schedulableDefs(c)
	if len(defs) == 0 {
		return &EmptyCategoryError{Category: c}
	}

	var def *TaskSetDescriptor
	if s.profile.CategoryMode(c).Random() {
		def = defs[s.rng.Intn(len(defs))]
	} else {
		def = defs[0]
	}

	s.log.Debug().
		Stringer("category", c).
		Str("taskset", def.Name).
		Bool("immediate", immediate).
		Msg("jump to category")
	return s.JumpToTaskSet(TaskSetByHandle(def), TaskRef{}, immediate)
}

// autoAdvance is the exclusive-schedule hand-off: after a non-exclusive
// task-set finishes a full cycle, the wrapper calls in here to move to the
// next task-set chosen by the category schedule. The jump is deferred, so
// normal inter-task pacing still applies.
func (s *Scheduler) autoAdvance() error {
	slot := s.nextTaskSetSlot()
	return s.switchTaskSet(s.schedulable[slot], slot, TaskRef{}, false)
}

// switchTaskSet commits a task-set change. slot is the target's position in
// the (possibly new) schedulable list, or -1 when the caller has not located
// it yet. All validation happens before any state is mutated.
func (s *Scheduler) switchTaskSet(target *TaskSet, slot int, task TaskRef, immediate bool) error {
	cur := s.CurrentTaskSet()

	// Resolve the target task first; an unresolved reference must leave
	// every cursor untouched.
	idx, err := target.locateTask(task)
	if err != nil {
		return &InvalidTaskOrderError{TaskSet: target.def.Name, Ref: task}
	}

	newCategory := s.curCategory
	newMode := s.curMode
	newList := s.schedulable
	if slot < 0 {
		if target.def.Category != s.curCategory {
			newCategory = target.def.Category
			newMode = s.profile.CategoryMode(newCategory)
			newList = s.instancesFor(newCategory)
		}
		slot = slotOf(newList, target)
		if slot < 0 {
			// Excluded by the category's fixed task-set list.
			return &InvalidTaskSetError{Ref: TaskSetByHandle(target.def)}
		}
	}

	cur.leave()
	s.curCategory = newCategory
	s.curMode = newMode
	s.schedulable = newList
	s.curTaskSetIndex = slot
	target.execCount = 0
	target.setCursor(idx)
	s.pending = Signal{Kind: SignalInterrupt, Immediate: immediate}

	to := target.def.schedulable[idx]
	s.log.Debug().
		Str("from", cur.def.Name).
		Str("taskset", target.def.Name).
		Str("task", to.Name).
		Int("order", to.Order).
		Bool("immediate", immediate).
		Msg("jump to task-set")
	return nil
}

func (s *Scheduler) nextTaskSetSlot() int {
	if s.curMode.Random() {
		return s.rng.Intn(len(s.schedulable))
	}
	return (s.curTaskSetIndex + 1) % len(s.schedulable)
}

func (s *Scheduler) instancesFor(c Category) []*TaskSet {
	defs := s.profile.schedulableDefs(c)
	list := make([]*TaskSet, 0, len(defs))
	for _, def := range defs {
		list = append(list, s.taskSets[s.profile.slots[def]])
	}
	return list
}

func (s *Scheduler) locateTaskSet(ref TaskSetRef) (*TaskSet, error) {
	switch ref.kind {
	case refName:
		if ts, ok := s.byName[ref.name]; ok {
			return ts, nil
		}
	case refHandle:
		if ref.def != nil {
			if ts, ok := s.byName[ref.def.Name]; ok {
				return ts, nil
			}
		}
	}
	return nil, &InvalidTaskSetError{Ref: ref}
}

func slotOf(list []*TaskSet, target *TaskSet) int {
	for i, ts := range list {
		if ts == target {
			return i
		}
	}
	return -1
}

// emit delivers an event to the reporter. Reporting is best-effort: a
// panicking reporter is logged and never aborts task execution.
func (s *Scheduler) emit(fn func(Reporter)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn().Interface("panic", r).Msg("reporter panicked")
		}
	}()
	fn(s.reporter)
}
