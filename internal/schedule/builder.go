package schedule

import (
	"context"
	"fmt"
	"sort"
	"unicode"
)

// TaskSetDescriptor is the immutable, validated definition of a task-set.
// One runtime TaskSet instance is created from it per virtual user.
type TaskSetDescriptor struct {
	// Name identifies the task-set in jump references and logs.
	Name string

	// Desc is the reporting description, Name by default.
	Desc string

	// Category the task-set is scheduled under.
	Category Category

	// Mode is the intra-set schedule mode.
	Mode ScheduleMode

	// Exclusive disables the automatic hand-off to the next task-set after a
	// full cycle of schedulable tasks.
	Exclusive bool

	tasks       []*TaskDescriptor // sorted by order
	fixedOrder  []*TaskDescriptor // resolved; nil unless Mode.Fixed()
	schedulable []*TaskDescriptor // fixedOrder for fixed modes, else tasks
	placeholder bool

	onInit      func(ts *TaskSet) error
	onDestroy   func(ts *TaskSet)
	onHeartbeat func(ts *TaskSet)
}

// Tasks returns the registered tasks in sorted order.
func (d *TaskSetDescriptor) Tasks() []*TaskDescriptor { return d.tasks }

// SchedulableTasks returns the list the scheduler selects from: the resolved
// fixed-order list for fixed modes, otherwise the full sorted task list.
func (d *TaskSetDescriptor) SchedulableTasks() []*TaskDescriptor { return d.schedulable }

// Placeholder reports whether the task-set declared no tasks and runs the
// synthetic placeholder instead.
func (d *TaskSetDescriptor) Placeholder() bool { return d.placeholder }

// TaskSetBuilder registers tasks and configuration for one task-set type.
// Call once per task-set at program initialization; Build validates the
// definition and returns an immutable descriptor.
type TaskSetBuilder struct {
	name          string
	desc          string
	category      Category
	mode          ScheduleMode
	exclusive     bool
	tasks         []*TaskDescriptor
	fixed         []TaskRef
	fixedDeclared bool
	onInit        func(ts *TaskSet) error
	onDestroy     func(ts *TaskSet)
	onHeartbeat   func(ts *TaskSet)
}

// NewTaskSet starts a task-set definition in the given category.
func NewTaskSet(name string, category Category) *TaskSetBuilder {
	return &TaskSetBuilder{name: name, category: category}
}

// Desc sets the reporting description.
func (b *TaskSetBuilder) Desc(desc string) *TaskSetBuilder {
	b.desc = desc
	return b
}

// Mode sets the intra-set schedule mode. Defaults to Sequential.
func (b *TaskSetBuilder) Mode(mode ScheduleMode) *TaskSetBuilder {
	b.mode = mode
	return b
}

// Exclusive marks the task-set exclusive: it never auto-advances to the next
// task-set in its category.
func (b *TaskSetBuilder) Exclusive() *TaskSetBuilder {
	b.exclusive = true
	return b
}

// FixedOrder declares the fixed-order list for fixed schedule modes. Entries
// may reference tasks by order, name, or handle and may repeat.
func (b *TaskSetBuilder) FixedOrder(refs ...TaskRef) *TaskSetBuilder {
	b.fixed = append(b.fixed, refs...)
	b.fixedDeclared = true
	return b
}

// Task registers a task with the given order and name.
func (b *TaskSetBuilder) Task(order int, name string, fn TaskFunc) *TaskSetBuilder {
	return b.TaskDesc(order, name, "", fn)
}

// TaskDesc registers a task with an explicit reporting description.
func (b *TaskSetBuilder) TaskDesc(order int, name, desc string, fn TaskFunc) *TaskSetBuilder {
	if desc == "" {
		desc = name
	}
	b.tasks = append(b.tasks, &TaskDescriptor{
		Order: order,
		Name:  name,
		Desc:  fmt.Sprintf("%03d-%s", order, desc),
		fn:    fn,
	})
	return b
}

// OnInit registers the lifecycle hook run once per user on start, in
// task-set declaration order.
func (b *TaskSetBuilder) OnInit(fn func(ts *TaskSet) error) *TaskSetBuilder {
	b.onInit = fn
	return b
}

// OnDestroy registers the lifecycle hook run once per user on stop, in
// reverse declaration order.
func (b *TaskSetBuilder) OnDestroy(fn func(ts *TaskSet)) *TaskSetBuilder {
	b.onDestroy = fn
	return b
}

// OnHeartbeat registers the best-effort hook invoked before every task
// execution of the owning user.
func (b *TaskSetBuilder) OnHeartbeat(fn func(ts *TaskSet)) *TaskSetBuilder {
	b.onHeartbeat = fn
	return b
}

// Build validates the definition and returns the immutable descriptor.
// Building is repeatable: the builder is not consumed and resolving the same
// fixed-order list twice yields the same sequence.
func (b *TaskSetBuilder) Build() (*TaskSetDescriptor, error) {
	if b.name == "" {
		return nil, &DefinitionError{TaskSet: "(unnamed)", Message: "task-set name is required"}
	}
	if !b.category.valid() {
		return nil, &DefinitionError{TaskSet: b.name, Message: "invalid category"}
	}

	mode := b.mode
	if mode == 0 {
		mode = Sequential
	}
	if !mode.valid() {
		return nil, &DefinitionError{TaskSet: b.name, Message: "invalid schedule mode"}
	}
	if b.fixedDeclared && !mode.Fixed() {
		return nil, &DefinitionError{TaskSet: b.name,
			Message: "fixed-order list declared for a non-fixed schedule mode"}
	}

	tasks := make([]*TaskDescriptor, len(b.tasks))
	copy(tasks, b.tasks)
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })

	seen := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		if t.Order < 0 {
			return nil, &DefinitionError{TaskSet: b.name,
				Message: fmt.Sprintf("task %s has negative order %d", t.Name, t.Order)}
		}
		if reason := checkTaskName(t.Name); reason != "" {
			return nil, &InvalidTaskNameError{TaskSet: b.name, Name: t.Name, Reason: reason}
		}
		if seen[t.Order] {
			return nil, &DuplicateOrderError{TaskSet: b.name, Order: t.Order}
		}
		seen[t.Order] = true
	}

	placeholder := false
	if len(tasks) == 0 {
		// Keep the scheduler total over non-empty sequences: substitute a
		// single warning task instead of failing the definition.
		tasks = []*TaskDescriptor{placeholderTask(b.name)}
		placeholder = true
	}

	for i, t := range tasks {
		t.index = i
	}

	desc := b.desc
	if desc == "" {
		desc = b.name
	}

	d := &TaskSetDescriptor{
		Name:        b.name,
		Desc:        desc,
		Category:    b.category,
		Mode:        mode,
		Exclusive:   b.exclusive,
		tasks:       tasks,
		placeholder: placeholder,
		onInit:      b.onInit,
		onDestroy:   b.onDestroy,
		onHeartbeat: b.onHeartbeat,
	}

	if mode.Fixed() {
		if b.fixedDeclared {
			if len(b.fixed) == 0 {
				return nil, &DefinitionError{TaskSet: b.name, Message: "fixed-order list is empty"}
			}
			fixed := make([]*TaskDescriptor, 0, len(b.fixed))
			for _, ref := range b.fixed {
				t := resolveAgainst(tasks, ref)
				if t == nil {
					return nil, &UnresolvedFixedTaskError{TaskSet: b.name, Ref: ref}
				}
				fixed = append(fixed, t)
			}
			d.fixedOrder = fixed
		} else {
			d.fixedOrder = tasks
		}
		d.schedulable = d.fixedOrder
	} else {
		d.schedulable = d.tasks
	}

	return d, nil
}

// checkTaskName enforces the registration naming policy: task identifiers
// must not alias lifecycle hook names or the run entry point, and must use
// internal-visibility (lowerCamelCase) naming.
func checkTaskName(name string) string {
	if name == "" {
		return "name is empty"
	}
	if name == "run" || name == "Run" {
		return "aliases the run entry point"
	}
	runes := []rune(name)
	if len(runes) >= 3 && (name[:2] == "on" || name[:2] == "On") &&
		(unicode.IsUpper(runes[2]) || runes[2] == '_') {
		return "aliases a lifecycle hook name"
	}
	if !unicode.IsLower(runes[0]) {
		return "must start with a lowercase letter"
	}
	return ""
}

func placeholderTask(taskSet string) *TaskDescriptor {
	t := &TaskDescriptor{
		Order: 0,
		Name:  "placeholder",
		Desc:  "000-placeholder",
	}
	t.fn = func(ctx context.Context, ts *TaskSet) error {
		log := ts.Logger()
		log.Warn().Str("taskset", taskSet).Msg("task-set has no schedulable tasks")
		return nil
	}
	return t
}

func resolveAgainst(tasks []*TaskDescriptor, ref TaskRef) *TaskDescriptor {
	for _, t := range tasks {
		switch ref.kind {
		case refOrder:
			if t.Order == ref.order {
				return t
			}
		case refName:
			if t.Name == ref.name {
				return t
			}
		case refHandle:
			if ref.task != nil && (t == ref.task || t.Name == ref.task.Name) {
				return t
			}
		}
	}
	return nil
}
