package schedule

import (
	"errors"
	"fmt"
)

// ErrNotRunning is returned by jump calls made before the scheduler has
// produced its first work item.
var ErrNotRunning = errors.New("schedule: no task-set is active")

// DefinitionError reports a registration-time problem not covered by a more
// specific error type. Definition errors are fatal and abort startup.
type DefinitionError struct {
	TaskSet string
	Message string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("task-set %s: %s", e.TaskSet, e.Message)
}

// DuplicateOrderError reports two tasks registered with the same order value
// in one task-set.
type DuplicateOrderError struct {
	TaskSet string
	Order   int
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("task-set %s: duplicate task order %d", e.TaskSet, e.Order)
}

// InvalidTaskNameError reports a task name that aliases a lifecycle hook or
// the run entry point, or breaks the internal-visibility naming convention.
type InvalidTaskNameError struct {
	TaskSet string
	Name    string
	Reason  string
}

func (e *InvalidTaskNameError) Error() string {
	return fmt.Sprintf("task-set %s: invalid task name %q: %s", e.TaskSet, e.Name, e.Reason)
}

// UnresolvedFixedTaskError reports a fixed-order entry that does not resolve
// against the task-set's registered tasks.
type UnresolvedFixedTaskError struct {
	TaskSet string
	Ref     TaskRef
}

func (e *UnresolvedFixedTaskError) Error() string {
	return fmt.Sprintf("task-set %s: fixed-order entry %s does not resolve", e.TaskSet, e.Ref)
}

// TaskNotFoundError reports a task reference that does not resolve within a
// task-set's schedulable list.
type TaskNotFoundError struct {
	TaskSet string
	Ref     TaskRef
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task-set %s: task %s not found", e.TaskSet, e.Ref)
}

// InvalidTaskOrderError reports a jump call whose task reference did not
// resolve. The jump does not take effect; scheduler state is unchanged.
type InvalidTaskOrderError struct {
	TaskSet string
	Ref     TaskRef
}

func (e *InvalidTaskOrderError) Error() string {
	return fmt.Sprintf("jump rejected: task %s not found in task-set %s", e.Ref, e.TaskSet)
}

// InvalidTaskSetError reports a jump call whose task-set reference did not
// resolve, or targeted a task-set outside the schedulable list.
type InvalidTaskSetError struct {
	Ref TaskSetRef
}

func (e *InvalidTaskSetError) Error() string {
	return fmt.Sprintf("jump rejected: task-set %s not schedulable", e.Ref)
}

// EmptyCategoryError reports a category jump into a category with no
// task-sets.
type EmptyCategoryError struct {
	Category Category
}

func (e *EmptyCategoryError) Error() string {
	return fmt.Sprintf("jump rejected: category %s has no task-sets", e.Category)
}

// NoTaskSetsError reports a profile built without any task-sets.
type NoTaskSetsError struct {
	Profile string
}

func (e *NoTaskSetsError) Error() string {
	return fmt.Sprintf("profile %s: at least one task-set is required", e.Profile)
}

// UnresolvedFixedTaskSetError reports a fixed task-set list entry that does
// not resolve against the profile's task-sets for that category.
type UnresolvedFixedTaskSetError struct {
	Profile  string
	Category Category
	Ref      TaskSetRef
}

func (e *UnresolvedFixedTaskSetError) Error() string {
	return fmt.Sprintf("profile %s: fixed task-set entry %s does not resolve in category %s",
		e.Profile, e.Ref, e.Category)
}
