package schedule

import "fmt"

type refKind int

const (
	refNone refKind = iota
	refOrder
	refName
	refHandle
)

// TaskRef identifies a task within a task-set by order number, by name, or by
// descriptor handle. The zero value means "no specific task": deterministic
// modes resolve it to slot 0, randomized modes to a uniform random slot.
type TaskRef struct {
	kind  refKind
	order int
	name  string
	task  *TaskDescriptor
}

// ByOrder references a task by its user-facing order number.
func ByOrder(order int) TaskRef {
	return TaskRef{kind: refOrder, order: order}
}

// ByName references a task by its registered name.
func ByName(name string) TaskRef {
	return TaskRef{kind: refName, name: name}
}

// ByHandle references a task by its descriptor.
func ByHandle(task *TaskDescriptor) TaskRef {
	return TaskRef{kind: refHandle, task: task}
}

// IsZero reports whether the reference names no specific task.
func (r TaskRef) IsZero() bool { return r.kind == refNone }

func (r TaskRef) String() string {
	switch r.kind {
	case refOrder:
		return fmt.Sprintf("order(%d)", r.order)
	case refName:
		return fmt.Sprintf("name(%s)", r.name)
	case refHandle:
		if r.task != nil {
			return fmt.Sprintf("task(%s)", r.task.Name)
		}
		return "task(nil)"
	default:
		return "none"
	}
}

// TaskSetRef identifies a task-set by name or by descriptor handle. The zero
// value means "no specific task-set": the target is chosen by the active
// category's own schedule.
type TaskSetRef struct {
	kind refKind
	name string
	def  *TaskSetDescriptor
}

// TaskSetByName references a task-set by its registered name.
func TaskSetByName(name string) TaskSetRef {
	return TaskSetRef{kind: refName, name: name}
}

// TaskSetByHandle references a task-set by its descriptor.
func TaskSetByHandle(def *TaskSetDescriptor) TaskSetRef {
	return TaskSetRef{kind: refHandle, def: def}
}

// IsZero reports whether the reference names no specific task-set.
func (r TaskSetRef) IsZero() bool { return r.kind == refNone }

func (r TaskSetRef) String() string {
	switch r.kind {
	case refName:
		return fmt.Sprintf("name(%s)", r.name)
	case refHandle:
		if r.def != nil {
			return fmt.Sprintf("taskset(%s)", r.def.Name)
		}
		return "taskset(nil)"
	default:
		return "none"
	}
}
