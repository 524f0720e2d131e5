package schedule

import "context"

// TaskFunc is the body of a task. It runs with the owning task-set instance
// as context; blocking I/O inside the body should honor ctx. A non-nil error
// records a business failure for the execution; it never aborts the virtual
// user on its own.
type TaskFunc func(ctx context.Context, ts *TaskSet) error

// TaskDescriptor describes one registered task. Descriptors are owned by
// their task-set definition and immutable after registration.
type TaskDescriptor struct {
	// Order is the user-facing order number, unique within the task-set.
	Order int

	// Name identifies the task in jump references and logs.
	Name string

	// Desc is the reporting description, "NNN-name" by default.
	Desc string

	fn TaskFunc

	// index is the scheduler's internal slot in the sorted task list,
	// independent of Order.
	index int
}

// Index returns the 0-based slot assigned in sorted-order position.
func (t *TaskDescriptor) Index() int { return t.index }

func (t *TaskDescriptor) String() string { return t.Desc }
