// Package schedule implements the hierarchical task scheduling engine for
// simulated virtual users.
//
// Task-sets are registered once through a builder API that validates orders,
// names, and fixed-order lists, producing immutable descriptors. At runtime
// each virtual user owns one Scheduler, which performs two-level selection:
// first a task-set within the active category, then a task within that set.
// Business logic running inside a task may jump to another task, task-set, or
// category; the jump surfaces to the driving runner as a tagged Signal rather
// than an error.
package schedule

// ScheduleMode governs selection order within a task-set or a category.
type ScheduleMode int

const (
	// Sequential rotates through the schedulable list in order, wrapping
	// around after the last entry.
	Sequential ScheduleMode = iota + 1

	// Randomized picks uniformly at random among the schedulable list.
	Randomized

	// FixedSequential rotates through a declared fixed-order list.
	FixedSequential

	// FixedRandomized picks uniformly at random among the fixed-order list.
	FixedRandomized
)

// Fixed reports whether the mode schedules over a declared fixed-order list.
func (m ScheduleMode) Fixed() bool {
	return m == FixedSequential || m == FixedRandomized
}

// Random reports whether the mode selects uniformly at random.
func (m ScheduleMode) Random() bool {
	return m == Randomized || m == FixedRandomized
}

func (m ScheduleMode) valid() bool {
	return m >= Sequential && m <= FixedRandomized
}

func (m ScheduleMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Randomized:
		return "randomized"
	case FixedSequential:
		return "fixed-sequential"
	case FixedRandomized:
		return "fixed-randomized"
	default:
		return "unknown"
	}
}

// Category partitions task-sets into independently scheduled groups. The
// top-level scheduler starts in the first non-empty category in declared
// order and only leaves it through an explicit jump.
type Category int

const (
	// CategoryBase holds setup/baseline task-sets.
	CategoryBase Category = iota + 1
	// CategoryFunctional holds functional test task-sets.
	CategoryFunctional
	// CategoryCoverage holds coverage task-sets; scheduled randomized by
	// default.
	CategoryCoverage
	// CategoryUserDefined1 is reserved for harness-specific grouping.
	CategoryUserDefined1
	// CategoryUserDefined2 is reserved for harness-specific grouping.
	CategoryUserDefined2
)

// Categories returns all categories in declared order.
func Categories() []Category {
	return []Category{
		CategoryBase,
		CategoryFunctional,
		CategoryCoverage,
		CategoryUserDefined1,
		CategoryUserDefined2,
	}
}

// DefaultScheduleMode returns the category's schedule mode when none is
// configured: Randomized for coverage, Sequential otherwise.
func (c Category) DefaultScheduleMode() ScheduleMode {
	if c == CategoryCoverage {
		return Randomized
	}
	return Sequential
}

func (c Category) valid() bool {
	return c >= CategoryBase && c <= CategoryUserDefined2
}

func (c Category) String() string {
	switch c {
	case CategoryBase:
		return "base"
	case CategoryFunctional:
		return "functional"
	case CategoryCoverage:
		return "coverage"
	case CategoryUserDefined1:
		return "user-defined-1"
	case CategoryUserDefined2:
		return "user-defined-2"
	default:
		return "unknown"
	}
}
